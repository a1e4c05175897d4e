package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txBeginner exposes the minimal pgx pool behaviour needed by CompanyDB.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// CompanyDB wraps a pgx pool to execute queries within a schema-scoped
// search_path. The pool may hand back a connection previously scoped to a
// different company, so the path is set explicitly at the start of every
// unit of work and is local to the transaction.
type CompanyDB struct {
	pool          txBeginner
	catalogSchema string
}

type CompanyDBConfig struct {
	Pool          *pgxpool.Pool
	CatalogSchema string
}

func NewCompanyDB(cfg CompanyDBConfig) *CompanyDB {
	if cfg.Pool == nil {
		panic("CompanyDB requires pool")
	}

	catalogSchema := strings.TrimSpace(cfg.CatalogSchema)
	if catalogSchema == "" {
		panic("CompanyDB requires catalog schema")
	}
	return &CompanyDB{pool: cfg.Pool, catalogSchema: catalogSchema}
}

// CatalogSchema returns the shared catalog schema name.
func (db *CompanyDB) CatalogSchema() string {
	return db.catalogSchema
}

// WithCatalog executes fn inside a transaction scoped to the shared catalog
// schema only.
func (db *CompanyDB) WithCatalog(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, db.catalogSchema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// WithCompany executes fn inside a transaction with search_path set to the
// company schema plus the catalog schema. A failure to set the path is fatal
// for the operation; there are no retries.
func (db *CompanyDB) WithCompany(ctx context.Context, schemaName string, fn func(tx pgx.Tx) error) error {
	if strings.TrimSpace(schemaName) == "" {
		return fmt.Errorf("company schema name is required")
	}

	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	searchPath := fmt.Sprintf("%s, %s", schemaName, db.catalogSchema)
	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, searchPath); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
