package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/store/bunstore"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, db, err := a.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer db.Close()

			if err := bunstore.CreateSchema(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema ready")
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.json>",
		Short: "Load a JSON data set into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var fixtures bunstore.Fixtures
			if err := json.Unmarshal(raw, &fixtures); err != nil {
				return fmt.Errorf("seed: decode %s: %w", args[0], err)
			}

			_, logger, db, err := a.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer db.Close()

			if err := bunstore.CreateSchema(cmd.Context(), db); err != nil {
				return err
			}
			if err := bunstore.Seed(cmd.Context(), db, fixtures); err != nil {
				return err
			}
			logger.Info("seeded",
				zap.String("file", args[0]),
				zap.Int("restaurants", len(fixtures.Restaurants)),
				zap.Int("reservations", len(fixtures.Reservations)),
			)
			return nil
		},
	}
}
