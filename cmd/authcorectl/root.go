package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd creates the root command for authcorectl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authcorectl",
		Short: "Manage and serve an authcore user database",
		Long: `authcorectl applies the authcore schema, creates users, manages
administrator roles and serves the authentication API over HTTP.`,
		SilenceUsage: true,
	}

	addGlobalFlags(cmd.PersistentFlags(), defaultCLIConfig())

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewAdminCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// addGlobalFlags registers the settings every command needs. Flag names are
// koanf keys so posflag can layer them over the config file.
func addGlobalFlags(flags *pflag.FlagSet, defaults cliConfig) {
	flags.String("config", "", "config file path (YAML)")
	flags.String("database.driver", defaults.Database.Driver, "database driver: postgres or sqlite")
	flags.String("database.dsn", defaults.Database.DSN, "database connection string")
	flags.String("redis.addr", defaults.Redis.Addr, "redis address for sessions (empty keeps sessions in memory)")
	flags.Int("redis.db", defaults.Redis.DB, "redis database number")
	flags.String("log.level", defaults.Log.Level, "log level: debug, info, warn, error")
	flags.String("log.format", defaults.Log.Format, "log format: json or text")
}
