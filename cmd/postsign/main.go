package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/postsign/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "postsign",
	Short:   "Issue S3 presigned POST uploads signed with AWS Sig V4",
	Long: `Postsign issues browser-ready S3 presigned POST policies.

Each issued post carries a server-generated object key and a bounded
content-length range, and is recorded in a ledger (SQLite or PostgreSQL).`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringArray("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "ledger database type: sqlite, postgres (default: sqlite, env: POSTSIGN_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "ledger connection string (default: postsign.db, env: POSTSIGN_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("bucket", "", "destination bucket (env: POSTSIGN_UPLOADER_BUCKET)")
	rootCmd.PersistentFlags().String("region", "", "signing region (env: POSTSIGN_AWS_REGION)")
	rootCmd.PersistentFlags().String("profile", "", "shared config profile for the default credentials chain")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads configuration for every command that needs it and stores it
// in the command context.
func loadConfig(cmd *cobra.Command, _ []string) error {
	files, err := cmd.Flags().GetStringArray("config")
	if err != nil {
		return err
	}

	cfg, err := config.Load(files, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(os.Stderr, cfg.Env, cfg.Log.Level)
	cmd.SetContext(config.WithContext(cmd.Context(), cfg))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
