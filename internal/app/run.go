package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context, logger zerolog.Logger) error

// Run wraps a service entrypoint with signal handling and a console logger.
// It returns the process exit code.
func Run(serviceName string, run Runner) int {
	logger := NewLogger(os.Getenv("LOG_LEVEL")).With().Str("service", serviceName).Logger()
	logger.Info().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, logger) }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		// Give the runner a moment to finish its own shutdown path.
		select {
		case <-errCh:
		case <-time.After(15 * time.Second):
			logger.Warn().Msg("shutdown timed out")
		}
		return 0
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("failed")
			return 1
		}
		logger.Info().Msg("stopped")
		return 0
	}
}

// NewLogger builds the root logger; unknown levels fall back to info.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
