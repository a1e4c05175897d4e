package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migration is one versioned SQL file. The file name is the version; files
// apply in ascending lexicographic order.
type Migration struct {
	Version string
	SQL     string
}

// ledgerTable records applied versions inside the target schema itself, so
// every schema carries its own migration history.
const ledgerTable = "schema_migrations"

// MigrationRunner applies versioned SQL migrations to a named schema,
// recording each applied version in a per-schema ledger. Applying the same
// set twice is a no-op the second time.
type MigrationRunner struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewMigrationRunner(pool *pgxpool.Pool, logger *zap.Logger) *MigrationRunner {
	if pool == nil {
		panic("migration runner requires pool")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationRunner{pool: pool, logger: logger}
}

// ReadMigrations loads every .sql file at the root of source, ordered by
// file name.
func ReadMigrations(source fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		raw, err := fs.ReadFile(source, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{Version: entry.Name(), SQL: string(raw)})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Apply runs all pending migrations from source against schemaName and
// returns how many were applied. The target schema must already exist. Each
// migration runs in its own transaction together with its ledger insert; on
// the first failure the runner stops and the error propagates.
func (r *MigrationRunner) Apply(ctx context.Context, schemaName string, source fs.FS) (int, error) {
	if strings.TrimSpace(schemaName) == "" {
		return 0, fmt.Errorf("schema name is required")
	}

	migrations, err := ReadMigrations(source)
	if err != nil {
		return 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	// Session-scoped path: the ledger and every DDL statement resolve inside
	// the target schema for the lifetime of this connection lease.
	if _, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schemaName}.Sanitize()); err != nil {
		return 0, fmt.Errorf("set search_path: %w", err)
	}
	defer conn.Exec(context.WithoutCancel(ctx), "SET search_path TO DEFAULT") // nolint:errcheck

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+ledgerTable+` (
        version text PRIMARY KEY,
        applied_at timestamptz NOT NULL DEFAULT now()
    )`); err != nil {
		return 0, fmt.Errorf("ensure migration ledger: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := conn.Query(ctx, `SELECT version FROM `+ledgerTable)
	if err != nil {
		return 0, fmt.Errorf("read migration ledger: %w", err)
	}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan ledger row: %w", err)
		}
		applied[version] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate ledger rows: %w", err)
	}

	pending, err := pendingMigrations(migrations, applied)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range pending {
		r.logger.Info("applying migration",
			zap.String("schema", schemaName),
			zap.String("version", m.Version),
		)
		if err := applyOne(ctx, conn.Conn(), m); err != nil {
			return count, fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		count++
	}

	if count > 0 {
		r.logger.Info("migrations applied",
			zap.String("schema", schemaName),
			zap.Int("count", count),
		)
	}
	return count, nil
}

// pendingMigrations returns the not-yet-applied suffix of the ordered set. A
// ledger entry appearing after a pending version means the history was
// applied out of order, which is refused rather than silently skipped.
func pendingMigrations(all []Migration, applied map[string]bool) ([]Migration, error) {
	var pending []Migration
	for _, m := range all {
		if applied[m.Version] {
			if len(pending) > 0 {
				return nil, fmt.Errorf("migration ledger out of order: %s applied after pending %s", m.Version, pending[0].Version)
			}
			continue
		}
		pending = append(pending, m)
	}
	return pending, nil
}

func applyOne(ctx context.Context, conn *pgx.Conn, m Migration) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range splitStatements(m.SQL) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO `+ledgerTable+` (version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("record applied version: %w", err)
	}

	return tx.Commit(ctx)
}

// splitStatements breaks a migration file into individual statements on
// semicolons outside single-quoted literals. Whole-line comments are
// dropped. Migration files are plain DDL; dollar-quoted bodies are not
// supported.
func splitStatements(sql string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)

	for _, line := range strings.Split(sql, "\n") {
		if !inQuote {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
		}
		for _, r := range line {
			switch {
			case r == '\'':
				inQuote = !inQuote
				current.WriteRune(r)
			case r == ';' && !inQuote:
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					statements = append(statements, stmt)
				}
				current.Reset()
			default:
				current.WriteRune(r)
			}
		}
		current.WriteRune('\n')
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// EnsureSchema creates the named schema when missing. Used for the shared
// catalog schema at bootstrap; company schemas are created by provisioning.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schemaName string) error {
	if strings.TrimSpace(schemaName) == "" {
		return fmt.Errorf("schema name is required")
	}
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schemaName}.Sanitize()); err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}
	return nil
}
