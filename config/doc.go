// Package config provides configuration loading and validation for postsign.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (POSTSIGN_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with POSTSIGN_ prefix:
//   - uploader.bucket → POSTSIGN_UPLOADER_BUCKET
//   - aws.region → POSTSIGN_AWS_REGION
//   - database.dsn → POSTSIGN_DATABASE_DSN
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev or prod (selects the log handler)
//   - Server: port, timeouts, and whether the uploader page is served
//   - Uploader: bucket, TTL, content-length range, key prefix, endpoint override
//   - AWS: region, profile, and credentials source (default, static, file)
//   - Database: slip ledger type, DSN, and table names
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Bucket is required and expiration_seconds must be positive
//   - content_length_max must be at least content_length_min
//   - Credentials source must be default, static, or file
//   - Log level must be debug, info, warn, or error
package config
