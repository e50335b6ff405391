// Command reservation-cache serves restaurant reservations through a
// read-through cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/internal/appconfig"
	"github.com/goliatone/go-reservation-cache/store/bunstore"
)

type app struct {
	v          *viper.Viper
	configFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: appconfig.NewViper()}

	root := &cobra.Command{
		Use:           "reservation-cache",
		Short:         "Restaurant reservations behind a read-through cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "path to a YAML config file")
	flags.String("driver", bunstore.DriverSQLite, "database driver (sqlite3 or postgres)")
	flags.String("dsn", "", "database connection string")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("database.driver", flags.Lookup("driver"))
	_ = a.v.BindPFlag("database.dsn", flags.Lookup("dsn"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newSeedCmd(a))
	return root
}

// load resolves configuration, logger and database for a subcommand.
func (a *app) load() (appconfig.Config, *zap.Logger, *bun.DB, error) {
	cfg, err := appconfig.Load(a.v, a.configFile)
	if err != nil {
		return appconfig.Config{}, nil, nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return appconfig.Config{}, nil, nil, err
	}
	db, err := bunstore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		_ = logger.Sync()
		return appconfig.Config{}, nil, nil, err
	}
	return cfg, logger, db, nil
}
