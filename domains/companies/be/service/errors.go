package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a company does not exist (or is inactive
// where a lookup filters to active companies).
var ErrNotFound = errors.New("company not found")

// ValidationError reports malformed input. It is raised before any database
// interaction and never triggers cleanup.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AlreadyExistsError reports a business-identifier collision; Field names
// the offending column ("gst_no" or "cin_no").
type AlreadyExistsError struct {
	Field string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("company with this %s already exists", e.Field)
}

// OperationError wraps a schema-creation or migration failure with the name
// of the failing operation.
type OperationError struct {
	Op  string
	Err error
}

func (e OperationError) Error() string {
	return fmt.Sprintf("company operation %s failed: %v", e.Op, e.Err)
}

func (e OperationError) Unwrap() error { return e.Err }
