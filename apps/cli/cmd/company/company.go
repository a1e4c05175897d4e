package company

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	sqlassets "github.com/gridline-io/salesgrid/database"
	companiesrepo "github.com/gridline-io/salesgrid/domains/companies/be/repo"
	companiesservice "github.com/gridline-io/salesgrid/domains/companies/be/service"
	"github.com/gridline-io/salesgrid/platform/go/logging"
	"github.com/gridline-io/salesgrid/platform/go/persistence"
	"github.com/gridline-io/salesgrid/platform/go/tenant"
)

type wiring struct {
	service *companiesservice.Service
	runner  *persistence.MigrationRunner
}

// Command groups company management helpers mirroring the REST surface:
// create provisions the catalog row plus the dedicated schema, list pages
// through the catalog, migrate re-runs the company migration set.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage companies and their schemas",
		Long:  "Create companies (provisioning their dedicated schemas), list the catalog, and re-apply company migrations.",
	}

	cmd.AddCommand(createCommand(), listCommand(), migrateCommand())
	return cmd
}

func dial(ctx context.Context, databaseURL, catalogSchema, logLevel string) (*wiring, func(), error) {
	logger, err := logging.NewLogger(logging.Config{Component: "cli-company", Level: logLevel})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("init pool: %w", err)
	}

	companyDB := persistence.NewCompanyDB(persistence.CompanyDBConfig{
		Pool:          pool,
		CatalogSchema: catalogSchema,
	})
	store := persistence.NewCompanyStore(companyDB)
	runner := persistence.NewMigrationRunner(pool, logger)
	repo := companiesrepo.NewPostgresRepository(store)
	migrator := companiesrepo.NewCompanyMigrator(runner, sqlassets.CompanyMigrations())
	svc := companiesservice.New(repo, migrator, logger)

	cleanup := func() {
		persistence.ClosePool(pool)
		_ = logger.Sync()
	}
	return &wiring{service: svc, runner: runner}, cleanup, nil
}

func createCommand() *cobra.Command {
	var (
		databaseURL   string
		catalogSchema string
		logLevel      string
		name          string
		gstNo         string
		cinNo         string
		address       string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a company and provision its schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			w, cleanup, err := dial(ctx, databaseURL, catalogSchema, logLevel)
			if err != nil {
				return err
			}
			defer cleanup()

			company, err := w.service.Create(ctx, companiesservice.CreateInput{
				Name:    name,
				GSTNo:   gstNo,
				CINNo:   cinNo,
				Address: address,
			})
			if err != nil {
				return fmt.Errorf("create company: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Company created: %s (%s) | Schema: %s\n",
				company.Name, company.ID, tenant.SchemaName(company.ID))
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&catalogSchema, "catalog-schema", "salesforce", "Schema holding the company catalog")
	c.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	c.Flags().StringVar(&name, "name", "", "Company name")
	c.Flags().StringVar(&gstNo, "gst-no", "", "Company GST number (15 characters)")
	c.Flags().StringVar(&cinNo, "cin-no", "", "Company CIN number (21 characters)")
	c.Flags().StringVar(&address, "address", "", "Company address")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("gst-no")
	_ = c.MarkFlagRequired("cin-no")
	_ = c.MarkFlagRequired("address")

	return c
}

func listCommand() *cobra.Command {
	var (
		databaseURL   string
		catalogSchema string
		logLevel      string
		limit         int
		offset        int
		activeOnly    bool
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List companies in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			w, cleanup, err := dial(ctx, databaseURL, catalogSchema, logLevel)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := companiesservice.ListOptions{Limit: limit, Offset: offset}
			if activeOnly {
				active := true
				opts.IsActive = &active
			}

			result, err := w.service.List(ctx, opts)
			if err != nil {
				return fmt.Errorf("list companies: %w", err)
			}

			for _, item := range result.Items {
				status := "active"
				if !item.IsActive {
					status = "inactive"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-30s %s\n", item.ID, item.Name, status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", result.Total)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&catalogSchema, "catalog-schema", "salesforce", "Schema holding the company catalog")
	c.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	c.Flags().IntVar(&limit, "limit", 50, "Page size")
	c.Flags().IntVar(&offset, "offset", 0, "Page offset")
	c.Flags().BoolVar(&activeOnly, "active-only", false, "Only list active companies")

	_ = c.MarkFlagRequired("database-url")

	return c
}

func migrateCommand() *cobra.Command {
	var (
		databaseURL   string
		catalogSchema string
		logLevel      string
		companyID     string
	)

	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending company migrations to an existing company schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := uuid.Parse(companyID)
			if err != nil {
				return fmt.Errorf("invalid company id: %w", err)
			}

			w, cleanup, err := dial(ctx, databaseURL, catalogSchema, logLevel)
			if err != nil {
				return err
			}
			defer cleanup()

			// Resolve through the catalog so typos fail fast instead of
			// creating a ledger in a nonexistent schema.
			schemaName, err := w.service.SchemaName(ctx, id)
			if err != nil {
				return fmt.Errorf("resolve company schema: %w", err)
			}

			applied, err := w.runner.Apply(ctx, schemaName, sqlassets.CompanyMigrations())
			if err != nil {
				return fmt.Errorf("apply company migrations: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema %s up to date. Migrations applied: %d\n", schemaName, applied)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&catalogSchema, "catalog-schema", "salesforce", "Schema holding the company catalog")
	c.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	c.Flags().StringVar(&companyID, "company-id", "", "Company UUID")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("company-id")

	return c
}
