package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	sqlassets "github.com/gridline-io/salesgrid/database"
	areashandler "github.com/gridline-io/salesgrid/domains/areas/be/handler"
	areasrepo "github.com/gridline-io/salesgrid/domains/areas/be/repo"
	areasservice "github.com/gridline-io/salesgrid/domains/areas/be/service"
	companieshandler "github.com/gridline-io/salesgrid/domains/companies/be/handler"
	companiesrepo "github.com/gridline-io/salesgrid/domains/companies/be/repo"
	companiesservice "github.com/gridline-io/salesgrid/domains/companies/be/service"
	platformlogging "github.com/gridline-io/salesgrid/platform/go/logging"
	platformmiddleware "github.com/gridline-io/salesgrid/platform/go/middleware"
	"github.com/gridline-io/salesgrid/platform/go/persistence"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	CatalogSchema   string        `env:"CATALOG_SCHEMA" envDefault:"salesforce"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	// The catalog schema and its tables must exist before any request is
	// served; company schemas are created on demand during provisioning.
	if err := persistence.EnsureSchema(ctx, pool, cfg.CatalogSchema); err != nil {
		logger.Fatal("ensure catalog schema", zap.Error(err))
	}
	runner := persistence.NewMigrationRunner(pool, logger)
	applied, err := runner.Apply(ctx, cfg.CatalogSchema, sqlassets.CatalogMigrations())
	if err != nil {
		logger.Fatal("apply catalog migrations", zap.Error(err))
	}
	logger.Info("catalog migrations up to date",
		zap.String("schema", cfg.CatalogSchema), zap.Int("applied", applied))

	companyDB := persistence.NewCompanyDB(persistence.CompanyDBConfig{
		Pool:          pool,
		CatalogSchema: cfg.CatalogSchema,
	})
	companyStore := persistence.NewCompanyStore(companyDB)

	companyRepo := companiesrepo.NewPostgresRepository(companyStore)
	companyMigrator := companiesrepo.NewCompanyMigrator(runner, sqlassets.CompanyMigrations())
	companyService := companiesservice.New(companyRepo, companyMigrator, logger)
	companyHTTPHandler := companieshandler.New(companyService, logger)

	areaRepo := areasrepo.NewPostgresRepository(companyDB)
	areaService := areasservice.New(areaRepo, logger)
	areaHTTPHandler := areashandler.New(areaService, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	apiRouter.Route("/companies", func(r chi.Router) {
		companyHTTPHandler.Routes(r, func(r chi.Router) {
			r.Route("/areas", areaHTTPHandler.Routes)
		})
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
