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

// RouteRepository handles database operations for routes and their intermediate stops
type RouteRepository struct {
	db     DB
	stops  *StopRepository
	logger *logrus.Logger
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db DB, stops *StopRepository, logger *logrus.Logger) *RouteRepository {
	return &RouteRepository{db: db, stops: stops, logger: loggerOrDiscard(logger)}
}

type routeRow struct {
	ID                int64 `db:"id"`
	DepartureStopID   int64 `db:"departure_stop_id"`
	DestinationStopID int64 `db:"destination_stop_id"`
}

type intermediateStopRow struct {
	StopID    int64 `db:"stop_id"`
	StopOrder int   `db:"stop_order"`
}

// AddRoute persists a route and its intermediate stops in one transaction.
// Intermediate entries without an ID are skipped. On success route.ID is set;
// on any failure nothing is persisted.
func (r *RouteRepository) AddRoute(ctx context.Context, route *models.Route) error {
	if route == nil || route.DepartureStop == nil || route.DestinationStop == nil {
		return fmt.Errorf("%w: route departure and destination stops are required", ErrInvalidArgument)
	}
	if route.IsLoop() {
		r.logger.WithField("stop_id", route.DepartureStop.ID).
			Warn("Route departs from and arrives at the same stop")
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var routeID int64
	err = RunInTx(ctx, conn, r.logger, func(tx *sqlx.Tx) error {
		id, err := r.insertRoute(ctx, tx, route)
		if err != nil {
			return err
		}
		if err := r.insertIntermediateStops(ctx, tx, id, route.IntermediateStops); err != nil {
			return err
		}
		routeID = id
		return nil
	})
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"departure_stop_id":   route.DepartureStop.ID,
			"destination_stop_id": route.DestinationStop.ID,
		}).Error("Failed to add route")
		return err
	}

	route.ID = routeID
	r.logger.WithFields(logrus.Fields{
		"route_id": routeID,
		"label":    route.Label(),
	}).Info("Route created")
	return nil
}

func (r *RouteRepository) insertRoute(ctx context.Context, tx *sqlx.Tx, route *models.Route) (int64, error) {
	var id int64
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO routes (departure_stop_id, destination_stop_id) VALUES ($1, $2) RETURNING id`,
		route.DepartureStop.ID, route.DestinationStop.ID,
	).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, &IntegrityError{Entity: "route", Msg: "insert affected no rows"}
	case isForeignKeyViolation(err):
		return 0, &IntegrityError{Entity: "route", Msg: "departure or destination stop does not exist", Err: err}
	case err != nil:
		return 0, &StorageError{Op: "insert route", Err: err}
	case id == 0:
		return 0, &IntegrityError{Entity: "route", Msg: "insert returned no generated id"}
	}
	return id, nil
}

func (r *RouteRepository) insertIntermediateStops(ctx context.Context, tx *sqlx.Tx, routeID int64, stops []models.Stop) error {
	batch := make([]intermediateStopRow, 0, len(stops))
	for i, stop := range stops {
		if stop.ID == 0 {
			r.logger.WithFields(logrus.Fields{
				"route_id": routeID,
				"position": i,
			}).Warn("Skipping intermediate stop without an ID")
			continue
		}
		batch = append(batch, intermediateStopRow{StopID: stop.ID, StopOrder: len(batch) + 1})
	}
	if len(batch) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO route_intermediate_stops (route_id, stop_id, stop_order) VALUES ($1, $2, $3)`)
	if err != nil {
		return &StorageError{Op: "prepare intermediate stops insert", Err: err}
	}
	defer stmt.Close()

	for _, row := range batch {
		result, err := stmt.ExecContext(ctx, routeID, row.StopID, row.StopOrder)
		if isForeignKeyViolation(err) {
			return &IntegrityError{Entity: "stop", ID: row.StopID, Msg: "intermediate stop does not exist", Err: err}
		}
		if err != nil {
			return &StorageError{Op: "insert intermediate stop", Err: err}
		}
		affected, err := result.RowsAffected()
		if err != nil || affected == 0 {
			return &IntegrityError{
				Entity: "route",
				ID:     routeID,
				Msg:    fmt.Sprintf("intermediate stop %d at position %d was not stored", row.StopID, row.StopOrder),
				Err:    err,
			}
		}
	}
	return nil
}

// GetRouteByID retrieves a route with all stops resolved.
// A missing route yields (nil, nil); a dangling stop reference is an IntegrityError.
func (r *RouteRepository) GetRouteByID(ctx context.Context, id int64) (*models.Route, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return r.getRouteByID(ctx, conn, id)
}

// GetAllRoutes retrieves every route with all stops resolved
func (r *RouteRepository) GetAllRoutes(ctx context.Context) ([]models.Route, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []routeRow
	err = sqlx.SelectContext(ctx, conn, &rows,
		`SELECT id, departure_stop_id, destination_stop_id FROM routes ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "list routes", Err: err}
	}

	routes := make([]models.Route, 0, len(rows))
	for _, row := range rows {
		route, err := r.resolveRoute(ctx, conn, row)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	return routes, nil
}

func (r *RouteRepository) getRouteByID(ctx context.Context, q queryer, id int64) (*models.Route, error) {
	var row routeRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT id, departure_stop_id, destination_stop_id FROM routes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get route", Err: err}
	}
	return r.resolveRoute(ctx, q, row)
}

func (r *RouteRepository) resolveRoute(ctx context.Context, q queryer, row routeRow) (*models.Route, error) {
	departure, err := r.requireStop(ctx, q, row.DepartureStopID, row.ID, "departure")
	if err != nil {
		return nil, err
	}
	destination, err := r.requireStop(ctx, q, row.DestinationStopID, row.ID, "destination")
	if err != nil {
		return nil, err
	}

	var links []intermediateStopRow
	err = sqlx.SelectContext(ctx, q, &links,
		`SELECT stop_id, stop_order FROM route_intermediate_stops WHERE route_id = $1 ORDER BY stop_order`, row.ID)
	if err != nil {
		return nil, &StorageError{Op: "list intermediate stops", Err: err}
	}

	intermediate := make([]models.Stop, 0, len(links))
	for _, link := range links {
		stop, err := r.requireStop(ctx, q, link.StopID, row.ID, "intermediate")
		if err != nil {
			return nil, err
		}
		intermediate = append(intermediate, *stop)
	}

	return &models.Route{
		ID:                row.ID,
		DepartureStop:     departure,
		DestinationStop:   destination,
		IntermediateStops: intermediate,
	}, nil
}

func (r *RouteRepository) requireStop(ctx context.Context, q queryer, stopID, routeID int64, role string) (*models.Stop, error) {
	stop, err := r.stops.getStopByID(ctx, q, stopID)
	if err != nil {
		return nil, err
	}
	if stop == nil {
		r.logger.WithFields(logrus.Fields{
			"route_id": routeID,
			"stop_id":  stopID,
			"role":     role,
		}).Error("Route references a stop that does not exist")
		return nil, &IntegrityError{
			Entity: "stop",
			ID:     stopID,
			Msg:    fmt.Sprintf("%s stop of route %d does not exist", role, routeID),
		}
	}
	return stop, nil
}
