package commands

import (
	"errors"
	"os"

	"github.com/ethaccount/recovery/src/app"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	migrateDSN  string
	migratePath string

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rootCmd.PersistentPreRun(cmd, args)
			if migrateDSN == "" {
				migrateDSN = os.Getenv("DB_URL")
			}
			if migrateDSN == "" {
				return errors.New("no database: set --db-url or DB_URL")
			}
			return nil
		},
	}

	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.MigrationUp(migrateDSN, migratePath); err != nil {
				return err
			}
			zerolog.Ctx(cmd.Context()).Info().Msg("migrations applied")
			return nil
		},
	}

	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.MigrationDown(migrateDSN, migratePath); err != nil {
				return err
			}
			zerolog.Ctx(cmd.Context()).Info().Msg("migrations reverted")
			return nil
		},
	}
)

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDSN, "db-url", "", "Postgres URL (default DB_URL)")
	migrateCmd.PersistentFlags().StringVar(&migratePath, "path", "file://migrations", "Migration source")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
