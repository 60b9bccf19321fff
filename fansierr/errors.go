// Package fansierr defines the error taxonomy shared across the type
// translation, connection, discovery, and ingest layers.
package fansierr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors callers can match with errors.Is.
var (
	// ErrTypeNotMapped means no SQL-type mapping exists for a logical type,
	// or no pattern in a dialect's parser matched an engine type string.
	ErrTypeNotMapped = errors.New("fansigo: type not mapped")

	// ErrImplementationNotFound means no dialect is registered for the
	// requested engine, connection-string-builder type, or connection type.
	ErrImplementationNotFound = errors.New("fansigo: no dialect implementation registered")

	// ErrRuntimeName means an identifier is null, blank, or too long.
	ErrRuntimeName = errors.New("fansigo: invalid runtime name")

	// ErrColumnMapping means an input column has no matching destination
	// column during ingest and the caller did not opt into tolerating it.
	ErrColumnMapping = errors.New("fansigo: unmatched input column")

	// ErrNotSupported means an operation is well-defined but unavailable on
	// the active engine (SQLite MD5, PostgreSQL pivot, SQLite ALTER COLUMN).
	ErrNotSupported = errors.New("fansigo: not supported by this dialect")

	// ErrCircularDependency means ddl.TopologicalSort could not
	// order tables for drop because of a foreign-key cycle.
	ErrCircularDependency = errors.New("fansigo: circular foreign-key dependency")

	// ErrNoConnection means an operation was attempted with no usable
	// connection available (pool exhausted, acquire failed upstream).
	ErrNoConnection = errors.New("fansigo: no database connection")

	// ErrDanglingTransaction flags a transaction left open on a connection
	// being returned to the pool or disposed without commit/rollback.
	ErrDanglingTransaction = errors.New("fansigo: dangling transaction detected")

	// ErrPivotValuesRequired means a pivot aggregate was synthesized before
	// its distinct pivot values were discovered and attached to the
	// collection.
	ErrPivotValuesRequired = errors.New("fansigo: pivot values not discovered")
)

// AlterFailedError wraps a driver error raised while executing DDL, keeping
// the SQL that produced it so the caller can report it verbatim.
type AlterFailedError struct {
	SQL string
	Err error
}

func (e *AlterFailedError) Error() string {
	return fmt.Sprintf("fansigo: alter failed: %v\nSQL: %s", e.Err, e.SQL)
}

func (e *AlterFailedError) Unwrap() error { return e.Err }

// NewAlterFailed wraps err with the SQL that produced it.
func NewAlterFailed(sql string, err error) error {
	if err == nil {
		return nil
	}
	return &AlterFailedError{SQL: sql, Err: err}
}

// ValidationError names the row, column, and constraint that failed during
// bulk-ingest validation.
type ValidationError struct {
	SourceColumn string
	RowIndex     int // 1-based
	Value        any
	Constraint   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fansigo: validation failed for column %q row %d (value %v): %s",
		e.SourceColumn, e.RowIndex, e.Value, e.Constraint)
}

// NewValidation builds a *ValidationError; RowIndex is 1-based per spec.
func NewValidation(column string, rowIndex int, value any, constraint string) error {
	return &ValidationError{SourceColumn: column, RowIndex: rowIndex, Value: value, Constraint: constraint}
}

// NotSupported builds an ErrNotSupported-wrapping error with a reason.
func NotSupported(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotSupported, reason)
}

// TypeNotMapped builds an ErrTypeNotMapped-wrapping error naming the type.
func TypeNotMapped(what string) error {
	return fmt.Errorf("%w: %s", ErrTypeNotMapped, what)
}

// RuntimeNameError builds an ErrRuntimeName-wrapping error with a reason.
func RuntimeNameError(reason string) error {
	return fmt.Errorf("%w: %s", ErrRuntimeName, reason)
}

// ColumnMappingError builds an ErrColumnMapping-wrapping error naming the
// unmatched source column.
func ColumnMappingError(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnMapping, column)
}

// ImplementationNotFound builds an ErrImplementationNotFound-wrapping error
// naming what was looked up.
func ImplementationNotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrImplementationNotFound, what)
}

// CircularDependency builds an ErrCircularDependency-wrapping error naming
// the tables involved in the cycle.
func CircularDependency(tables []string) error {
	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(tables, " -> "))
}

// PivotValuesRequired builds an ErrPivotValuesRequired-wrapping error
// naming the engine whose pivot synthesis was attempted without values.
func PivotValuesRequired(engine string) error {
	return fmt.Errorf("%w: %s pivot synthesis needs discovered values; run the query from PivotDiscoveryQuery and attach its results with WithPivotValues", ErrPivotValuesRequired, engine)
}
