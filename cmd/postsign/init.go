package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/keybackend"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write a config file",
	Long: `Prompt for the bucket, region, credentials source and ledger settings and
write them to a YAML config file that serve, presign and cleanup can read.`,
	// init runs before any config exists.
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		setupLogging(os.Stderr, "dev", "info")
		return nil
	},
	RunE: runInit,
}

var (
	initPath  string
	initForce bool
)

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "config.yaml", "where to write the config file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file without asking")
	rootCmd.AddCommand(initCmd)
}

// initAnswers is the subset of the config file init knows how to fill in.
type initAnswers struct {
	Bucket            string
	Region            string
	ExpirationSeconds int
	KeyPrefix         string
	Endpoint          string
	Source            string
	AccessKeyID       string
	SecretAccessKey   string
	CredentialsFile   string
	DatabaseType      string
	DatabaseDSN       string
}

type initFile struct {
	Uploader initUploader `yaml:"uploader"`
	AWS      initAWS      `yaml:"aws"`
	Database initDatabase `yaml:"database"`
}

type initUploader struct {
	Bucket            string `yaml:"bucket"`
	ExpirationSeconds int    `yaml:"expiration_seconds"`
	KeyPrefix         string `yaml:"key_prefix,omitempty"`
	Endpoint          string `yaml:"endpoint,omitempty"`
}

type initAWS struct {
	Region      string          `yaml:"region,omitempty"`
	Credentials initCredentials `yaml:"credentials"`
}

type initCredentials struct {
	Source          string `yaml:"source"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	File            string `yaml:"file,omitempty"`
}

type initDatabase struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// renderConfig turns prompt answers into config file contents.
func renderConfig(a initAnswers) ([]byte, error) {
	f := initFile{
		Uploader: initUploader{
			Bucket:            a.Bucket,
			ExpirationSeconds: a.ExpirationSeconds,
			KeyPrefix:         a.KeyPrefix,
			Endpoint:          a.Endpoint,
		},
		AWS: initAWS{
			Region:      a.Region,
			Credentials: initCredentials{Source: a.Source},
		},
		Database: initDatabase{Type: a.DatabaseType, DSN: a.DatabaseDSN},
	}

	switch a.Source {
	case keybackend.SourceStatic:
		f.AWS.Credentials.AccessKeyID = a.AccessKeyID
		f.AWS.Credentials.SecretAccessKey = a.SecretAccessKey
	case keybackend.SourceFile:
		f.AWS.Credentials.File = a.CredentialsFile
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return data, nil
}

func runInit(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(initPath); err == nil && !initForce {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", initPath),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	answers, err := promptAnswers()
	if err != nil {
		return handlePromptError(err)
	}

	data, err := renderConfig(answers)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if answers.Source == keybackend.SourceStatic {
		mode = 0o600
	}
	if err := os.WriteFile(initPath, data, mode); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", initPath)
	return nil
}

func promptAnswers() (initAnswers, error) {
	var a initAnswers
	var err error

	if a.Bucket, err = (&promptui.Prompt{Label: "Bucket", Validate: requireValue("bucket")}).Run(); err != nil {
		return a, err
	}

	if a.Region, err = (&promptui.Prompt{Label: "Region (blank: resolve from the AWS chain)"}).Run(); err != nil {
		return a, err
	}

	ttl, err := (&promptui.Prompt{Label: "Expiration seconds", Default: "60", Validate: validatePositiveInt}).Run()
	if err != nil {
		return a, err
	}
	a.ExpirationSeconds, _ = strconv.Atoi(ttl)

	if a.KeyPrefix, err = (&promptui.Prompt{Label: "Key prefix", Validate: validateKeyPrefix}).Run(); err != nil {
		return a, err
	}

	if a.Endpoint, err = (&promptui.Prompt{Label: "Endpoint override (blank: AWS)", Validate: validateOptionalURL}).Run(); err != nil {
		return a, err
	}

	sourceSelect := promptui.Select{
		Label: "Credentials source",
		Items: []string{keybackend.SourceDefault, keybackend.SourceStatic, keybackend.SourceFile},
	}
	if _, a.Source, err = sourceSelect.Run(); err != nil {
		return a, err
	}

	switch a.Source {
	case keybackend.SourceStatic:
		if a.AccessKeyID, err = (&promptui.Prompt{Label: "Access Key ID", Validate: requireValue("access key id")}).Run(); err != nil {
			return a, err
		}
		if a.SecretAccessKey, err = (&promptui.Prompt{Label: "Secret Access Key", Mask: '*', Validate: requireValue("secret access key")}).Run(); err != nil {
			return a, err
		}
	case keybackend.SourceFile:
		if a.CredentialsFile, err = (&promptui.Prompt{Label: "Credentials file", Validate: requireValue("credentials file")}).Run(); err != nil {
			return a, err
		}
	}

	dbSelect := promptui.Select{Label: "Ledger database", Items: []string{"sqlite", "postgres"}}
	if _, a.DatabaseType, err = dbSelect.Run(); err != nil {
		return a, err
	}

	defaultDSN := "postsign.db"
	if a.DatabaseType == "postgres" {
		defaultDSN = "postgres://localhost:5432/postsign?sslmode=disable"
	}
	if a.DatabaseDSN, err = (&promptui.Prompt{Label: "Database DSN", Default: defaultDSN, Validate: requireValue("dsn")}).Run(); err != nil {
		return a, err
	}

	return a, nil
}

func requireValue(name string) promptui.ValidateFunc {
	return func(input string) error {
		if input == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validatePositiveInt(input string) error {
	n, err := strconv.Atoi(input)
	if err != nil || n <= 0 {
		return errors.New("must be a positive integer")
	}
	return nil
}

func validateKeyPrefix(input string) error {
	if !postsign.IsValidKeyPrefix(input) {
		return fmt.Errorf("invalid key prefix %q", input)
	}
	return nil
}

func validateOptionalURL(input string) error {
	if input == "" {
		return nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrEOF) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
