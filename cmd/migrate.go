package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"booking-service/migrations"
	"booking-service/pkg/config"
	"booking-service/pkg/db"
	"booking-service/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(d *db.DB) error {
				return d.RunMigrations(migrations.FS)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(d *db.DB) error {
				if err := d.RollbackMigrations(migrations.FS, steps); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "rolled back %d step(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)
	return cmd
}

// withDB opens the configured database for a one-shot command.
func withDB(ctx context.Context, fn func(d *db.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	defer log.Sync()

	d, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}
