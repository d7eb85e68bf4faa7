package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mallory/trust-summarizer/internal/cache"
	"github.com/mallory/trust-summarizer/internal/config"
	"github.com/mallory/trust-summarizer/internal/observability"
)

var cacheCommand = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the response cache",
}

var cacheDirFlag string

func init() {
	cacheCommand.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", config.Defaults().CacheDir, "Directory of the durable cache")
	cacheInvalidateCommand.Flags().StringVar(&invalidateStage, "stage", "", "Stage to invalidate: facts, summary, or result")

	cacheCommand.AddCommand(cacheStatsCommand)
	cacheCommand.AddCommand(cacheSweepCommand)
	cacheCommand.AddCommand(cacheInvalidateCommand)
	cacheCommand.AddCommand(cacheFlushCommand)
	rootCmd.AddCommand(cacheCommand)
}

func openStore() (*cache.Store, error) {
	store, err := cache.NewStore(cache.Config{Dir: cacheDirFlag})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", cacheDirFlag, err)
	}
	return store, nil
}

var cacheStatsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		observability.NewPrinter(os.Stdout).PrintCacheStats(store.Stats(context.Background()))
		return nil
	},
}

var cacheSweepCommand = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired entries from the durable layer",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		removed, err := store.Sweep(context.Background())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Printf("Removed %d expired entries\n", removed)
		return nil
	},
}

var invalidateStage string

var cacheInvalidateCommand = &cobra.Command{
	Use:   "invalidate",
	Short: "Remove all entries for one stage and schema version",
	RunE: func(_ *cobra.Command, _ []string) error {
		if invalidateStage == "" {
			return fmt.Errorf("--stage is required (facts, summary, or result)")
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		removed, err := store.Invalidate(context.Background(), cache.StagePrefix(invalidateStage, schemaVersion))
		if err != nil {
			return fmt.Errorf("invalidate failed: %w", err)
		}
		fmt.Printf("Removed %d entries for stage %q\n", removed, invalidateStage)
		return nil
	},
}

var cacheFlushCommand = &cobra.Command{
	Use:   "flush",
	Short: "Remove every cache entry",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.Flush(context.Background()); err != nil {
			return fmt.Errorf("flush failed: %w", err)
		}
		fmt.Println("Cache flushed")
		return nil
	},
}
