package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mallory/trust-summarizer/internal/cache"
	"github.com/mallory/trust-summarizer/internal/chunker"
	"github.com/mallory/trust-summarizer/internal/config"
	"github.com/mallory/trust-summarizer/internal/db"
	"github.com/mallory/trust-summarizer/internal/extraction"
	"github.com/mallory/trust-summarizer/internal/ingestion"
	"github.com/mallory/trust-summarizer/internal/llm"
	"github.com/mallory/trust-summarizer/internal/observability"
	"github.com/mallory/trust-summarizer/internal/pipeline"
	"github.com/mallory/trust-summarizer/internal/summarize"
)

// schemaVersion namespaces every cache entry; bump it when prompts or
// wire shapes change so stale entries become unreachable.
const schemaVersion = "1"

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Summarize a trust document end-to-end",
	Long: `Runs the full summarization process: ingestion -> chunking -> fact extraction -> citation allocation -> summarization -> merging -> integrity validation.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runSummaryCmd,
}

var (
	runConfigPath   string
	runInput        string
	runOutput       string
	runCacheDir     string
	runChunkSize    int
	runChunkOverlap int
	runConcurrency  int
	runAPIKey       string
	runDatabaseURL  string
	runVerbose      bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runInput, "input", "i", "", "Path to the document (PDF or JSON page array)")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Path to write the result JSON (default stdout)")
	runCommand.Flags().StringVar(&runCacheDir, "cache-dir", "", "Directory for the durable cache")
	runCommand.Flags().IntVar(&runChunkSize, "chunk-size", 0, "Maximum characters per chunk")
	runCommand.Flags().IntVar(&runChunkOverlap, "chunk-overlap", 0, "Overlap characters carried between chunks")
	runCommand.Flags().IntVar(&runConcurrency, "concurrency", 0, "Concurrent chunk extractions")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for artifact persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// loadRunConfig merges config file, flags, and defaults in that priority
// order (flags win).
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Apply CLI overrides; only override if the flag was explicitly set
	if cmd.Flags().Changed("input") {
		cfg.Input = runInput
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = runCacheDir
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = runChunkSize
	}
	if cmd.Flags().Changed("chunk-overlap") {
		cfg.ChunkOverlap = runChunkOverlap
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = runConcurrency
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if cfg.Input == "" {
		return cfg, fmt.Errorf("--input must be provided (via flag or config)")
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	doc, err := ingestion.Load(cfg.Input)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Printf("Loaded %s: %d page(s), %d characters\n", cfg.Input, len(doc.Pages), doc.TotalChars())

	store, err := cache.NewStore(cache.Config{Dir: cfg.CacheDir, MemoryEntries: cfg.MemoryCacheSize})
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	models := llm.DefaultConfig()
	if cfg.ModelLite != "" {
		models.Models[llm.TierLite] = cfg.ModelLite
	}
	if cfg.ModelStandard != "" {
		models.Models[llm.TierStandard] = cfg.ModelStandard
	}
	if cfg.ModelAdvanced != "" {
		models.Models[llm.TierAdvanced] = cfg.ModelAdvanced
	}
	client, err := llm.NewGeminiClient(ctx, models, cfg.APIKey, cfg.RequestsPerMinute)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer func() { _ = client.Close() }()

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without database persistence...\n")
			database = nil
		} else {
			defer database.Close()
		}
	}

	retry := llm.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.MaxAttempts
	ttl := cfg.TTL()

	p := pipeline.New(pipeline.Deps{
		Extractor:  extraction.NewGateway(extraction.NewLLMExtractor(client), store, retry, schemaVersion, ttl, logger),
		Summarizer: summarize.NewGateway(summarize.NewLLMSummarizer(client), store, retry, schemaVersion, ttl, logger),
		Store:      store,
		Database:   database,
		Logger:     logger,
	}, pipeline.Options{
		Chunking:      chunker.Config{MaxChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		Concurrency:   cfg.Concurrency,
		PageAdjacency: cfg.PageAdjacency,
		Version:       schemaVersion,
		ResultTTL:     ttl,
		InputPath:     cfg.Input,
		OnProgress: func(event pipeline.ProgressEvent) {
			if cfg.Verbose {
				fmt.Printf("[%s] %s\n", event.Step, event.Message)
			}
		},
	})

	out, err := p.Run(ctx, doc)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintRunSummary(out.Result)
		printer.PrintValidationReport(out.Report)
		printer.PrintCacheStats(store.Stats(ctx))
	}

	encoded, err := json.MarshalIndent(out.Result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if runOutput != "" {
		if err := os.WriteFile(runOutput, encoded, 0644); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		fmt.Printf("Result written to %s\n", runOutput)
		return nil
	}
	fmt.Println(string(encoded))
	return nil
}
