package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/config"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired slips from the ledger",
	Long: `Permanently remove slips from the ledger whose presigned post expired
more than --older-than ago.

Slips are deleted in batches of --limit until a short batch is seen.
Run this periodically to keep the ledger small.`,
	RunE: runCleanup,
}

var (
	cleanupLimit     int
	cleanupOlderThan time.Duration
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupLimit, "limit", 100, "maximum number of slips to remove per batch")
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", 24*time.Hour, "only remove slips expired at least this long ago")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if cleanupOlderThan < 0 {
		return fmt.Errorf("--older-than must not be negative, got %s", cleanupOlderThan)
	}

	ctx := cmd.Context()

	repo, closeDB, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	before := time.Now().Add(-cleanupOlderThan)
	slog.Info("starting cleanup", "before", before, "limit", cleanupLimit)

	removed, err := postsign.PurgeExpired(ctx, repo, before, cleanupLimit)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	slog.Info("cleanup complete", "slips_removed", removed)
	return nil
}
