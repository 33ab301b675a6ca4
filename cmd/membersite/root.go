package main

import (
	"errors"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"membersite/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the membersite CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "membersite",
		Short: "Member site with signup, login and an admin listing",
		Long: `membersite serves a small server-rendered site with session based
authentication, and manages its user store from the command line.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path")
	pf.Bool("dev", false, "development mode (allows an empty session secret)")
	pf.String("store-driver", "", "user store driver: sqlite or pgx")
	pf.String("store-dsn", "", "user store DSN")
	pf.String("log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())

	return cmd
}

// loadStoreConfig is for commands that only touch the user store, which
// do not need a session secret.
func loadStoreConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if errors.Is(err, config.ErrNoSessionSecret) {
		err = nil
	}
	if err != nil {
		return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}
