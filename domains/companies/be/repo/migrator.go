package repo

import (
	"context"
	"io/fs"

	"github.com/gridline-io/salesgrid/platform/go/persistence"
)

// CompanyMigrator applies the company migration set to freshly provisioned
// schemas. The source filesystem is fixed at construction so every company
// gets the same DDL.
type CompanyMigrator struct {
	runner *persistence.MigrationRunner
	source fs.FS
}

func NewCompanyMigrator(runner *persistence.MigrationRunner, source fs.FS) *CompanyMigrator {
	if runner == nil {
		panic("migration runner is required")
	}
	if source == nil {
		panic("migration source is required")
	}
	return &CompanyMigrator{runner: runner, source: source}
}

func (m *CompanyMigrator) ApplyCompany(ctx context.Context, schemaName string) (int, error) {
	return m.runner.Apply(ctx, schemaName, m.source)
}
