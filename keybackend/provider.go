package keybackend

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/sagarc03/postsign"
)

// Credentials sources.
const (
	SourceDefault = "default"
	SourceStatic  = "static"
	SourceFile    = "file"
)

// KeysConfig holds configuration for resolving signing credentials.
type KeysConfig struct {
	Source          string `mapstructure:"source"`            // default, static or file
	AccessKeyID     string `mapstructure:"access_key_id"`     // static only
	SecretAccessKey string `mapstructure:"secret_access_key"` // static only
	SessionToken    string `mapstructure:"session_token"`     // static only
	File            string `mapstructure:"file"`              // path to JSON credentials file
	Profile         string `mapstructure:"profile"`           // shared config profile, default chain only
	Region          string `mapstructure:"region"`
}

// NewProvider creates the credentials and region providers for cfg.
//
// The "default" source uses the AWS SDK default chain (environment, shared config
// and credentials files, SSO, web identity, container and instance roles). The
// "static" and "file" sources pin the key pair but still take the region from the
// environment when cfg.Region is empty. An explicit region always wins; a region
// from a credentials file beats the environment.
func NewProvider(ctx context.Context, cfg KeysConfig) (postsign.CredentialsProvider, postsign.RegionProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error

	region := cfg.Region

	switch strings.ToLower(cfg.Source) {
	case "", SourceDefault:
		if cfg.Profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
		}

	case SourceStatic:
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, nil, fmt.Errorf("new provider: %w: static source requires access_key_id and secret_access_key", postsign.ErrConfiguration)
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))

	case SourceFile:
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("new provider: %w: file source requires a file path", postsign.ErrConfiguration)
		}
		f, err := LoadCredentialsFromFile(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("new provider: %w: %w", postsign.ErrConfiguration, err)
		}
		if region == "" {
			region = f.Region
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(f.AccessKeyID, f.SecretAccessKey, f.SessionToken),
		))

	default:
		return nil, nil, fmt.Errorf("new provider: %w: %q", ErrUnknownSource, cfg.Source)
	}

	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("new provider: load aws config: %w: %w", postsign.ErrConfiguration, err)
	}

	return providersFromConfig(awsCfg)
}

func providersFromConfig(awsCfg aws.Config) (postsign.CredentialsProvider, postsign.RegionProvider, error) {
	if awsCfg.Credentials == nil {
		return nil, nil, fmt.Errorf("new provider: %w: no credentials provider in aws config", postsign.ErrConfiguration)
	}
	return NewAWSProvider(awsCfg.Credentials), StaticRegion(awsCfg.Region), nil
}
