package commands

import (
	"errors"

	"github.com/RoyceAzure/lab/ordercenter/internal/appcontext"
	"github.com/RoyceAzure/lab/ordercenter/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the postgres schema",
	Long: `Run gorm AutoMigrate for products, establishments, orders and order lines.

Examples:
  ordercenter migrate                 # use .env in the working directory
  ordercenter migrate -c prod.yaml    # use another config file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func runMigrate() error {
	_, cf, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cf.DbDriver != config.DriverPostgres {
		return errors.New("migrate requires DB_DRIVER=postgres")
	}

	store, err := appcontext.OpenPostgres(cf)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitMigrate(); err != nil {
		return err
	}
	logger.Info().Str("db", cf.DbName).Str("host", cf.DbHost).Msg("migrate completed")
	return nil
}
