package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/appcontext"
	"github.com/RoyceAzure/lab/ordercenter/internal/config"
	"github.com/RoyceAzure/lab/ordercenter/internal/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	loader, cf, logger, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := appcontext.NewApplicationContext(ctx, cf, logger)
	if err != nil {
		return err
	}

	// 只有 LOG_LEVEL 支援熱更新, 其他欄位需重啟
	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			logger.Warn().Err(err).Msg("reload config failed, keep current settings")
			return
		}
		if err := observability.SetLevel(next.LogLevel); err != nil {
			logger.Warn().Err(err).Str("log_level", next.LogLevel).Msg("unknown log level, fallback to info")
			return
		}
		logger.Info().Str("log_level", next.LogLevel).Msg("log level reloaded")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cf.ServerPort),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 設置訊號監聽
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("db_driver", cf.DbDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = app.Shutdown(context.Background())
			return fmt.Errorf("listen: %w", err)
		}
	case <-sigCtx.Done():
		logger.Info().Msg("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
		shutdownErr = err
	}
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("application shutdown")
		shutdownErr = errors.Join(shutdownErr, err)
	}
	logger.Info().Msg("closed completed")
	return shutdownErr
}
