package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/config"
	"github.com/sagarc03/postsign/database"
	"github.com/sagarc03/postsign/keybackend"
)

// newPresigner resolves credentials and region and builds the presigner the
// configuration describes.
func newPresigner(ctx context.Context, cfg *config.Config) (*postsign.Presigner, error) {
	creds, regions, err := keybackend.NewProvider(ctx, cfg.AWS.Keys())
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	presigner, err := postsign.NewPresigner(ctx, cfg.Uploader.UploadConfig, creds, regions, cfg.Uploader.PresignerOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create presigner: %w", err)
	}

	slog.Info("presigner ready",
		"bucket", presigner.Bucket(),
		"region", presigner.Region(),
		"credentials_source", cfg.AWS.Credentials.Source,
	)
	return presigner, nil
}

// openLedger opens the slip ledger. The returned function closes it.
func openLedger(ctx context.Context, cfg *config.Config) (postsign.SlipRepo, func(), error) {
	repo, closeDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)
	return repo, closeDB, nil
}
