package main

import (
	"fmt"

	"github.com/fekuna/speakeasy-board-service/internal/board/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the remote board tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.db == nil {
			return fmt.Errorf("migrate needs POSTGRES_HOST")
		}
		if err := repository.EnsureSchema(cmd.Context(), a.db); err != nil {
			return err
		}
		a.logger.Info("Board schema is up to date", zap.String("db_name", a.cfg.Postgres.DBName))
		return nil
	},
}
