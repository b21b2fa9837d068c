package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/database"
	postsignhttp "github.com/sagarc03/postsign/http"
	"github.com/sagarc03/postsign/keybackend"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "POSTSIGN"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for postsign.
type Config struct {
	Env      string                  `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server   ServerConfig            `mapstructure:"server"`
	Uploader UploaderConfig          `mapstructure:"uploader"`
	AWS      AWSConfig               `mapstructure:"aws"`
	Database database.Config         `mapstructure:"database"`
	CORS     postsignhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
	UploaderPage    bool          `mapstructure:"uploader_page"`
}

// UploaderConfig holds the constraints presigned posts are issued with.
type UploaderConfig struct {
	postsign.UploadConfig `mapstructure:",squash"`

	KeyPrefix           string `mapstructure:"key_prefix"`
	Endpoint            string `mapstructure:"endpoint" validate:"omitempty,url"`
	IncludeSessionToken bool   `mapstructure:"include_session_token"`
}

// PresignerOptions returns the presigner options this configuration implies.
func (c UploaderConfig) PresignerOptions() []postsign.PresignerOption {
	return []postsign.PresignerOption{
		postsign.WithEndpoint(c.Endpoint),
		postsign.WithSessionToken(c.IncludeSessionToken),
	}
}

// AWSConfig holds the signing region and credentials source.
type AWSConfig struct {
	Region      string            `mapstructure:"region"`
	Profile     string            `mapstructure:"profile"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
}

// CredentialsConfig selects where signing credentials come from.
type CredentialsConfig struct {
	Source          string `mapstructure:"source" validate:"required,oneof=default static file"`
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_if=Source static"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_if=Source static"`
	SessionToken    string `mapstructure:"session_token"`
	File            string `mapstructure:"file" validate:"required_if=Source file"`
}

// Keys converts the AWS section into a keybackend configuration.
func (c AWSConfig) Keys() keybackend.KeysConfig {
	return keybackend.KeysConfig{
		Source:          c.Credentials.Source,
		AccessKeyID:     c.Credentials.AccessKeyID,
		SecretAccessKey: c.Credentials.SecretAccessKey,
		SessionToken:    c.Credentials.SessionToken,
		File:            c.Credentials.File,
		Profile:         c.Profile,
		Region:          c.Region,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":    "database.type",
	"db-dsn":     "database.dsn",
	"port":       "server.port",
	"bucket":     "uploader.bucket",
	"key-prefix": "uploader.key_prefix",
	"region":     "aws.region",
	"profile":    "aws.profile",
	"log-level":  "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
// Every key gets a default, even an empty one, so that AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.uploader_page", true)

	v.SetDefault("uploader.bucket", "")
	v.SetDefault("uploader.expiration_seconds", 60)
	v.SetDefault("uploader.content_length_min", 0)
	v.SetDefault("uploader.content_length_max", 10485760)
	v.SetDefault("uploader.key_prefix", "")
	v.SetDefault("uploader.endpoint", "")
	v.SetDefault("uploader.include_session_token", false)

	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.credentials.source", keybackend.SourceDefault)
	v.SetDefault("aws.credentials.access_key_id", "")
	v.SetDefault("aws.credentials.secret_access_key", "")
	v.SetDefault("aws.credentials.session_token", "")
	v.SetDefault("aws.credentials.file", "")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "postsign.db")
	v.SetDefault("database.tables.slips", "upload_slips")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_methods", []string{"GET", "OPTIONS"})

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if !postsign.IsValidKeyPrefix(cfg.Uploader.KeyPrefix) {
		return nil, fmt.Errorf("validate config: invalid uploader.key_prefix %q", cfg.Uploader.KeyPrefix)
	}

	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
