package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/incident-admin/internal/app"
	"github.com/noah-isme/incident-admin/pkg/database"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		return database.Migrate(db, logr)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		return database.Rollback(db, rollbackSteps, logr)
	},
}

// seedCmd inserts the demo accounts. Existing emails are left untouched.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo users",
	Long: `Inserts the demo super admin, admin and user accounts with SEED_PASSWORD.
Accounts whose email already exists are skipped, so the command can be re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Open(cfg, logr)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Migrate(); err != nil {
			return err
		}
		if err := a.Build(); err != nil {
			return err
		}

		created, err := a.Users.SeedUsers(cmd.Context(), cfg.Seed.Password)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d user(s)\n", created)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")
}
