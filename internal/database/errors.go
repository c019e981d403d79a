package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrConfiguration means connection parameters are missing or invalid
	ErrConfiguration = errors.New("database configuration error")

	// ErrConnectivity means the store cannot be reached
	ErrConnectivity = errors.New("database connectivity error")

	// ErrInvalidArgument means the caller passed an entity that violates a model invariant
	ErrInvalidArgument = errors.New("invalid argument")
)

// IntegrityError reports a reference that must resolve but does not,
// or a generated key that could not be obtained after an insert.
type IntegrityError struct {
	Entity string
	ID     int64
	Msg    string
	Err    error
}

func (e *IntegrityError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "does not exist"
	}
	s := "integrity error: " + e.Entity
	if e.ID != 0 {
		s += fmt.Sprintf(" %d", e.ID)
	}
	s += ": " + msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// DataCorruptionError reports an enum column that is NULL or holds an unknown token
type DataCorruptionError struct {
	Table  string
	Column string
	RowID  int64
	Value  *string
}

func (e *DataCorruptionError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("data corruption: %s.%s of row %d is NULL", e.Table, e.Column, e.RowID)
	}
	return fmt.Sprintf("data corruption: %s.%s of row %d has unknown value %q", e.Table, e.Column, e.RowID, *e.Value)
}

// StorageError wraps any other unexpected failure of the underlying store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsIntegrity(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}

func IsDataCorruption(err error) bool {
	var target *DataCorruptionError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgErrorDetails extracts SQLSTATE and constraint name from either driver's error type
func pgErrorDetails(err error) (code, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error, constraint string) bool {
	code, name := pgErrorDetails(err)
	return code == pgUniqueViolation && name == constraint
}

func isForeignKeyViolation(err error) bool {
	code, _ := pgErrorDetails(err)
	return code == pgForeignKeyViolation
}

func stringPtr(s string) *string {
	return &s
}

// utcPtr normalises an optional instant to UTC; nil stays nil
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
