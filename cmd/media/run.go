package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/blogport/media-pipeline/internal/config"
	"github.com/blogport/media-pipeline/internal/media/httpapi"
	"github.com/blogport/media-pipeline/internal/media/service"
	"github.com/blogport/media-pipeline/internal/storage/object"
	"github.com/blogport/media-pipeline/internal/storage/postgres"
)

// run wires the upload-authorization HTTP API: policy-checked upload URLs,
// variant read grants and attachment listings.
func run(ctx context.Context, logger zerolog.Logger) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is empty")
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	outboxRepo := postgres.NewOutboxRepo(db)
	repo := postgres.NewMediaRepo(db, outboxRepo)
	gateway := object.NewS3Gateway(object.GatewayConfig{
		Region:   cfg.AWSRegion,
		Endpoint: cfg.AWSEndpoint,
		Logger:   logger,
	})

	svc := service.New(repo, gateway, cfg.UploadPolicy(), logger)
	router := httpapi.NewRouter(httpapi.New(svc), []byte(cfg.JWTSecret))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	}
}
