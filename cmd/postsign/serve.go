package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/config"
	postsignhttp "github.com/sagarc03/postsign/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the postsign HTTP server.

Routes:
  GET /signed-post    issue a presigned post for a fresh object key
  GET /slips          list issued slips (prefix, limit, cursor)
  GET /slips/{id}     fetch one slip
  GET /healthz        liveness
  GET /               uploader page (unless server.uploader_page is false)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: POSTSIGN_SERVER_PORT)")
	serveCmd.Flags().String("key-prefix", "", "prefix for generated object keys")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	presigner, err := newPresigner(ctx, cfg)
	if err != nil {
		return err
	}

	repo, closeDB, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	service, err := postsign.NewSlipService(presigner, repo, postsign.ServiceConfig{
		KeyPrefix: cfg.Uploader.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handler := postsignhttp.NewHandler(&postsignhttp.HandlerConfig{
		CORS:            cfg.CORS,
		DisableUploader: !cfg.Server.UploaderPage,
	}, service)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return serve(ctx, server, cfg.Server)
}

// serve runs server until ctx is cancelled, then shuts it down within the
// configured timeout.
func serve(ctx context.Context, server *http.Server, cfg config.ServerConfig) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
