package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// StopRepository handles database operations for the stops table
type StopRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewStopRepository creates a new StopRepository
func NewStopRepository(db DB, logger *logrus.Logger) *StopRepository {
	return &StopRepository{db: db, logger: loggerOrDiscard(logger)}
}

// AddStop inserts a stop and sets its generated ID
func (r *StopRepository) AddStop(ctx context.Context, stop *models.Stop) error {
	if stop == nil || stop.Name == "" {
		return fmt.Errorf("%w: stop name is required", ErrInvalidArgument)
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var id int64
	err = conn.QueryRowxContext(ctx,
		`INSERT INTO stops (name, city) VALUES ($1, $2) RETURNING id`,
		stop.Name, stop.City,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && id == 0) {
		return &IntegrityError{Entity: "stop", Msg: "insert returned no generated id"}
	}
	if err != nil {
		return &StorageError{Op: "insert stop", Err: err}
	}

	stop.ID = id
	return nil
}

// GetStopByID retrieves a stop by ID. A missing stop yields (nil, nil).
func (r *StopRepository) GetStopByID(ctx context.Context, id int64) (*models.Stop, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return r.getStopByID(ctx, conn, id)
}

// GetAllStops retrieves all stops ordered by name
func (r *StopRepository) GetAllStops(ctx context.Context) ([]models.Stop, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stops := []models.Stop{}
	if err := sqlx.SelectContext(ctx, conn, &stops, `SELECT id, name, city FROM stops ORDER BY name, id`); err != nil {
		return nil, &StorageError{Op: "list stops", Err: err}
	}
	return stops, nil
}

func (r *StopRepository) getStopByID(ctx context.Context, q queryer, id int64) (*models.Stop, error) {
	stop := &models.Stop{}
	err := sqlx.GetContext(ctx, q, stop, `SELECT id, name, city FROM stops WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get stop", Err: err}
	}
	return stop, nil
}
