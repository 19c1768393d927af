package commands

import (
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/ordercenter/internal/config"
	"github.com/RoyceAzure/lab/ordercenter/internal/pkg/observability"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ordercenter",
	Short: "Order management service for establishments",
	Long: `ordercenter keeps product stock consistent with order lines.

Commands:
  serve    - start the HTTP API
  migrate  - create or update the postgres schema`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".env", "config file (env vars override it)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// loadConfig 載入設定並依 LOG_LEVEL 建立 logger
func loadConfig() (*config.Loader, *config.Config, zerolog.Logger, error) {
	logger := observability.NewLogger(os.Stdout)
	loader := config.NewLoader(configPath)
	cf, err := loader.Load()
	if err != nil {
		return nil, nil, logger, err
	}
	if err := observability.SetLevel(cf.LogLevel); err != nil {
		logger.Warn().Err(err).Str("log_level", cf.LogLevel).Msg("unknown log level, fallback to info")
	}
	return loader, cf, logger, nil
}
