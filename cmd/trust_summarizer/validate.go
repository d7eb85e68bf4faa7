package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mallory/trust-summarizer/internal/citation"
	"github.com/mallory/trust-summarizer/internal/ingestion"
	"github.com/mallory/trust-summarizer/internal/observability"
	"github.com/mallory/trust-summarizer/internal/types"
)

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "Re-check citation integrity of a finished result",
	Long: `Scans a result's summary for citation tokens and verifies every one resolves to a citation with exact source text.

When --input is given, each source quote is additionally checked against the original document's page text.`,
	RunE: validateResultCmd,
}

var (
	validateResultPath string
	validateInputPath  string
)

func init() {
	validateCommand.Flags().StringVarP(&validateResultPath, "result", "r", "", "Path to a result JSON produced by 'run'")
	validateCommand.Flags().StringVarP(&validateInputPath, "input", "i", "", "Path to the original document for source text verification (optional)")
	_ = validateCommand.MarkFlagRequired("result")

	rootCmd.AddCommand(validateCommand)
}

func validateResultCmd(_ *cobra.Command, _ []string) error {
	data, err := os.ReadFile(validateResultPath)
	if err != nil {
		return fmt.Errorf("failed to read result: %w", err)
	}
	var result types.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}

	var doc *types.Document
	if validateInputPath != "" {
		doc, err = ingestion.Load(validateInputPath)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
	}

	report := citation.Validate(result.Summary, result.Citations, doc)
	observability.NewPrinter(os.Stdout).PrintValidationReport(report)

	if err := report.Err(); err != nil {
		return err
	}
	fmt.Println("Citation integrity OK")
	return nil
}
