package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/smarttransit/carrier-reservations/internal/config"
)

// DB is the connection provider consumed by the repositories.
// Acquire hands out one dedicated connection; callers must Close it.
type DB interface {
	Acquire(ctx context.Context) (*sqlx.Conn, error)
	Get(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	Ping() error
	Close() error
}

// PostgresDB implements the DB interface using sqlx
type PostgresDB struct {
	*sqlx.DB
}

// NewPostgresDB wraps an already opened sqlx handle
func NewPostgresDB(db *sqlx.DB) *PostgresDB {
	return &PostgresDB{DB: db}
}

// NewConnection creates a new database connection
func NewConnection(cfg config.DatabaseConfig) (DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: database URL is required", ErrConfiguration)
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case "", "postgres":
		// lib/pq dials lazily; the ping below reports an unreachable store
		db, err = sqlx.Open("postgres", cfg.URL)
		if err != nil {
			err = fmt.Errorf("%w: failed to open database: %v", ErrConfiguration, err)
		}
	case "pgx":
		db, err = connectPgx(cfg.URL)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrConfiguration, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrConnectivity, err)
	}

	return &PostgresDB{DB: db}, nil
}

// connectPgx opens the database through the pgx stdlib driver. Transaction
// mode poolers (port 6543) get the simple protocol, since they cannot keep
// prepared statements between transactions.
func connectPgx(url string) (*sqlx.DB, error) {
	pgxConfig, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse database URL: %v", ErrConfiguration, err)
	}
	if strings.Contains(url, ":6543") {
		pgxConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	connStr := stdlib.RegisterConnConfig(pgxConfig)
	db, err := sqlx.Connect("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v", ErrConnectivity, err)
	}
	return db, nil
}

// Acquire checks out a dedicated connection from the pool
func (db *PostgresDB) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := db.DB.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return conn, nil
}

// Get wraps sqlx.Get
func (db *PostgresDB) Get(dest interface{}, query string, args ...interface{}) error {
	return db.DB.Get(dest, query, args...)
}

// Exec wraps sqlx.Exec
func (db *PostgresDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.DB.Exec(query, args...)
}

// Ping wraps sqlx.Ping
func (db *PostgresDB) Ping() error {
	return db.DB.Ping()
}

// Close wraps sqlx.Close
func (db *PostgresDB) Close() error {
	return db.DB.Close()
}
