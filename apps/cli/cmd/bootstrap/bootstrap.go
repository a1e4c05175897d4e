package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	sqlassets "github.com/gridline-io/salesgrid/database"
	"github.com/gridline-io/salesgrid/platform/go/logging"
	"github.com/gridline-io/salesgrid/platform/go/persistence"
)

// Command groups bootstrap helpers. Bootstrap owns the catalog schema: it
// creates it when missing and brings its migration ledger up to date. Company
// schemas are never touched here; those are provisioned per company.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap platform resources (catalog schema, catalog tables)",
		Long:  "Bootstrap platform resources such as the company catalog schema and its tables.",
	}

	cmd.AddCommand(catalogCommand())
	return cmd
}

func catalogCommand() *cobra.Command {
	var (
		databaseURL   string
		catalogSchema string
		logLevel      string
	)

	c := &cobra.Command{
		Use:   "catalog",
		Short: "Create the catalog schema and apply catalog migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			logger, err := logging.NewLogger(logging.Config{Component: "cli-bootstrap", Level: logLevel})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.EnsureSchema(ctx, pool, catalogSchema); err != nil {
				return fmt.Errorf("ensure catalog schema: %w", err)
			}

			runner := persistence.NewMigrationRunner(pool, logger)
			applied, err := runner.Apply(ctx, catalogSchema, sqlassets.CatalogMigrations())
			if err != nil {
				return fmt.Errorf("apply catalog migrations: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Bootstrap complete. Catalog schema: %s | Migrations applied: %d\n", catalogSchema, applied)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&catalogSchema, "catalog-schema", "salesforce", "Schema holding the company catalog")
	c.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	_ = c.MarkFlagRequired("database-url")

	return c
}
