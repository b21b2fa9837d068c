package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/config"
)

var presignCmd = &cobra.Command{
	Use:   "presign <key>",
	Short: "Presign a single upload and print it",
	Long: `Presign a POST upload for the given object key and print the URL and form
fields to stdout. The slip is not recorded in the ledger.

Examples:
  # JSON, ready for a browser form
  postsign presign avatars/42.png

  # YAML
  postsign presign --output yaml reports/q3.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runPresign,
}

var presignOutput string

func init() {
	presignCmd.Flags().StringVarP(&presignOutput, "output", "o", "json", "output format: json, yaml")
	rootCmd.AddCommand(presignCmd)
}

func runPresign(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	presigner, err := newPresigner(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	post, err := presigner.Presign(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return writePost(cmd.OutOrStdout(), post, presignOutput)
}

func writePost(w io.Writer, post postsign.PresignedPost, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(post)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(post); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}
