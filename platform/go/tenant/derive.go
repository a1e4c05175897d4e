package tenant

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SchemaName derives the dedicated PostgreSQL schema name for a company from
// its id. The uuid hex is wrapped in underscores so the result can never
// collide with pg_* system schemas or the shared catalog schema, stays a
// legal unquoted identifier, and is injective over distinct ids.
func SchemaName(companyID uuid.UUID) string {
	return "_" + strings.ReplaceAll(companyID.String(), "-", "") + "_"
}

var companySchemaPattern = regexp.MustCompile(`^_[0-9a-f]{32}_$`)

// IsCompanySchema reports whether name has the exact shape produced by SchemaName.
func IsCompanySchema(name string) bool {
	return companySchemaPattern.MatchString(name)
}

// CompanyID recovers the company id from a schema name produced by SchemaName.
func CompanyID(schemaName string) (uuid.UUID, bool) {
	if !IsCompanySchema(schemaName) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.Trim(schemaName, "_"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
