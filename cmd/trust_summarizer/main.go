// Package main provides the entry point for the trust document summarizer CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trust_summarizer",
	Short: "Trust document summarizer",
	Long:  "Summarizes trust documents into cited, section-structured summaries: every factual claim carries a citation resolving to exact source text and page numbers.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
