package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"askflow/backend/internal/app"
	"askflow/backend/internal/config"
	"askflow/backend/internal/database"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:          "askflow",
		Short:        "Streaming answer engine backend",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := app.Run(); code != 0 {
				return fmt.Errorf("server exited with code %d", code)
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			db, err := database.InitDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			slog.Info("Database is up to date.", "path", cfg.DatabasePath)
			return db.Close()
		},
	}
}
