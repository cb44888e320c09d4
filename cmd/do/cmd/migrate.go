package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/uxlens/uxlens/internal/db"
)

type dbFlags struct {
	driver     string
	connection string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.driver, "driver", envOr("DB_DRIVER", "sqlite"), "database driver (sqlite or pgx)")
	cmd.PersistentFlags().StringVar(&f.connection, "dsn", envOr("DB_CONNECTION", "./data/uxlens.db?_pragma=foreign_keys(1)"), "database connection string")
}

func MigrateCmd() *cobra.Command {
	var flags dbFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	flags.register(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), flags, db.RunMigrations)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), flags, db.MigrateDown)
		},
	})

	return cmd
}

func withDB(ctx context.Context, flags dbFlags, fn func(context.Context, *sql.DB, string) error) error {
	conn, err := db.Init(flags.driver, flags.connection)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	err = fn(ctx, conn.DB, flags.driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Println("done")
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
