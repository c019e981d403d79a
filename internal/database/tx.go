package database

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// queryer is satisfied by both *sqlx.Conn and *sqlx.Tx, so lookups can run
// on the connection (or transaction) the calling operation already holds.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// RunInTx runs fn inside one transaction on conn. Any error from fn rolls the
// transaction back and is returned unchanged; a failing rollback is only logged.
func RunInTx(ctx context.Context, conn *sqlx.Conn, logger *logrus.Logger, fn func(tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin transaction", Err: err}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.WithError(rbErr).WithField("cause", err.Error()).Error("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit transaction", Err: err}
	}
	return nil
}

// loggerOrDiscard makes the diagnostics sink optional
func loggerOrDiscard(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}
