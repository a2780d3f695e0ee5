package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scamslayer-service/internal/catalog"
	"scamslayer-service/internal/infra/postgres"
	pgmigrations "scamslayer-service/internal/infra/postgres/migrations"
)

func newCatalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and publish the built-in scenarios",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check every built-in scenario for structural errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := catalog.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d scenarios ok\n", len(catalog.Scenarios()))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Write the built-in scenarios into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := catalog.Validate(); err != nil {
				return err
			}

			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			if _, err := pgmigrations.Run(cmd.Context(), db); err != nil {
				return err
			}
			n, err := postgres.SeedScenarios(cmd.Context(), db, catalog.Scenarios())
			if err != nil {
				return err
			}
			opts.logger.Info("scenarios seeded", zap.Int("count", n))
			return nil
		},
	})
	return cmd
}
