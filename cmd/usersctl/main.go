// Command usersctl runs maintenance tasks against the users database and opens a terminal
// browser over the admin API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/pkg/config"
	"github.com/noah-isme/incident-admin/pkg/logger"
)

var (
	cfg    *config.Config
	logr   *zap.Logger
	logLvl string
)

var rootCmd = &cobra.Command{
	Use:   "usersctl",
	Short: "Incident Report user administration tools",
	Long: `usersctl manages the users database and browses the admin users list.

Configuration is read from the environment and an optional .env file, the same
way the API server reads it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLvl != "" {
			cfg.Log.Level = logLvl
		}
		if cfg.Log.Format == "" || cmd.Name() == "browse" {
			cfg.Log.Format = "console"
		}
		logr, err = logger.New(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logr != nil {
			_ = logr.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLvl, "log-level", "", "override LOG_LEVEL")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd, browseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
