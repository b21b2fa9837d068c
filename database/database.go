package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/database/postgres"
	"github.com/sagarc03/postsign/database/sqlite"
)

// Config holds the configuration for connecting to the slip ledger.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the ledger table names
	Tables postsign.Tables `mapstructure:"tables"`
}

// Database is a ledger backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() postsign.SlipRepo
	Close() error
}

// Connect opens the configured backend. It neither migrates nor validates;
// see Open for that.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
}

// Open connects, pings, runs migrations, validates the schema and returns a
// ready-to-use SlipRepo. The returned cleanup function closes the connection.
func Open(ctx context.Context, cfg Config) (postsign.SlipRepo, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ping", db.Ping},
		{"migrate", db.Migrate},
		{"validate schema", db.Validate},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("open %s: %s: %w", cfg.Type, step.name, err)
		}
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.GetRepo(), cleanup, nil
}
