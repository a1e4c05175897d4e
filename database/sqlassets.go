package sqlassets

import (
	"embed"
	"io/fs"
)

//go:embed migrations/catalog/*.sql
var catalogFS embed.FS

//go:embed migrations/company/*.sql
var companyFS embed.FS

// CatalogMigrations returns the versioned migration set for the shared
// catalog schema, rooted so file names are the migration versions.
func CatalogMigrations() fs.FS {
	sub, err := fs.Sub(catalogFS, "migrations/catalog")
	if err != nil {
		panic(err)
	}
	return sub
}

// CompanyMigrations returns the versioned migration set applied to every
// freshly created company schema.
func CompanyMigrations() fs.FS {
	sub, err := fs.Sub(companyFS, "migrations/company")
	if err != nil {
		panic(err)
	}
	return sub
}
