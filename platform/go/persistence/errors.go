package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DuplicateError reports a unique-constraint violation mapped back to the
// offending business column.
type DuplicateError struct {
	Column string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Column)
}

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// uniqueViolation returns the violated constraint name when err is a
// PostgreSQL unique violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign-key
// violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}
