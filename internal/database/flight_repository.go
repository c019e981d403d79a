package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// FlightRepository handles database operations for the flights table
type FlightRepository struct {
	db     DB
	routes *RouteRepository
	logger *logrus.Logger
}

// NewFlightRepository creates a new FlightRepository
func NewFlightRepository(db DB, routes *RouteRepository, logger *logrus.Logger) *FlightRepository {
	return &FlightRepository{db: db, routes: routes, logger: loggerOrDiscard(logger)}
}

const flightColumns = `id, route_id, departure_date_time, arrival_date_time,
	total_seats, bus_model, price_per_seat, status`

type flightRow struct {
	ID                int64          `db:"id"`
	RouteID           int64          `db:"route_id"`
	DepartureDateTime time.Time      `db:"departure_date_time"`
	ArrivalDateTime   time.Time      `db:"arrival_date_time"`
	TotalSeats        int            `db:"total_seats"`
	BusModel          sql.NullString `db:"bus_model"`
	PricePerSeat      float64        `db:"price_per_seat"`
	Status            sql.NullString `db:"status"`
}

// AddFlight inserts a flight and sets its generated ID
func (r *FlightRepository) AddFlight(ctx context.Context, flight *models.Flight) error {
	if flight == nil {
		return fmt.Errorf("%w: flight is required", ErrInvalidArgument)
	}
	if err := flight.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	r.warnOnTimeAnomaly(flight)

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	query := `
		INSERT INTO flights (
			route_id, departure_date_time, arrival_date_time,
			total_seats, bus_model, price_per_seat, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err = conn.QueryRowxContext(ctx, query,
		flight.Route.ID, flight.DepartureDateTime.UTC(), flight.ArrivalDateTime.UTC(),
		flight.TotalSeats, flight.BusModel, flight.PricePerSeat, string(flight.Status),
	).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &IntegrityError{Entity: "flight", Msg: "insert affected no rows"}
	case isForeignKeyViolation(err):
		return &IntegrityError{Entity: "route", ID: flight.Route.ID, Msg: "referenced by new flight does not exist", Err: err}
	case err != nil:
		return &StorageError{Op: "insert flight", Err: err}
	case id == 0:
		return &IntegrityError{Entity: "flight", Msg: "insert returned no generated id"}
	}

	flight.ID = id
	r.logger.WithFields(logrus.Fields{
		"flight_id": id,
		"route_id":  flight.Route.ID,
		"departure": flight.DepartureDateTime,
	}).Info("Flight created")
	return nil
}

// UpdateFlight overwrites every field of an existing flight.
// Returns false when no flight has the given ID.
func (r *FlightRepository) UpdateFlight(ctx context.Context, flight *models.Flight) (bool, error) {
	if flight == nil || flight.ID == 0 {
		return false, fmt.Errorf("%w: flight id is required", ErrInvalidArgument)
	}
	if err := flight.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	r.warnOnTimeAnomaly(flight)

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	query := `
		UPDATE flights SET
			route_id = $1, departure_date_time = $2, arrival_date_time = $3,
			total_seats = $4, bus_model = $5, price_per_seat = $6, status = $7
		WHERE id = $8`

	result, err := conn.ExecContext(ctx, query,
		flight.Route.ID, flight.DepartureDateTime.UTC(), flight.ArrivalDateTime.UTC(),
		flight.TotalSeats, flight.BusModel, flight.PricePerSeat, string(flight.Status),
		flight.ID,
	)
	if isForeignKeyViolation(err) {
		return false, &IntegrityError{Entity: "route", ID: flight.Route.ID, Msg: fmt.Sprintf("referenced by flight %d does not exist", flight.ID), Err: err}
	}
	if err != nil {
		return false, &StorageError{Op: "update flight", Err: err}
	}
	return rowsAffected(result, "update flight")
}

// UpdateFlightStatus changes only the status of a flight.
// Returns false when no flight has the given ID.
func (r *FlightRepository) UpdateFlightStatus(ctx context.Context, id int64, status models.FlightStatus) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("%w: unknown flight status %q", ErrInvalidArgument, status)
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, `UPDATE flights SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return false, &StorageError{Op: "update flight status", Err: err}
	}
	return rowsAffected(result, "update flight status")
}

// GetAllFlights retrieves every flight ordered by departure
func (r *FlightRepository) GetAllFlights(ctx context.Context) ([]models.Flight, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []flightRow
	err = sqlx.SelectContext(ctx, conn, &rows,
		`SELECT `+flightColumns+` FROM flights ORDER BY departure_date_time, id`)
	if err != nil {
		return nil, &StorageError{Op: "list flights", Err: err}
	}
	return r.toFlights(ctx, conn, rows)
}

// GetFlightByID retrieves a flight with its route. A missing flight yields (nil, nil).
func (r *FlightRepository) GetFlightByID(ctx context.Context, id int64) (*models.Flight, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return r.getFlightByID(ctx, conn, id)
}

// GetFlightsByDate retrieves flights departing on the calendar day of date
func (r *FlightRepository) GetFlightsByDate(ctx context.Context, date time.Time) ([]models.Flight, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []flightRow
	err = sqlx.SelectContext(ctx, conn, &rows,
		`SELECT `+flightColumns+` FROM flights
		WHERE departure_date_time >= $1 AND departure_date_time < $2
		ORDER BY departure_date_time, id`,
		dayStart, dayEnd)
	if err != nil {
		return nil, &StorageError{Op: "list flights by date", Err: err}
	}
	return r.toFlights(ctx, conn, rows)
}

// GetOccupiedSeatsCount counts active (BOOKED or SOLD) tickets of a flight
func (r *FlightRepository) GetOccupiedSeatsCount(ctx context.Context, flightID int64) (int, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count int
	err = sqlx.GetContext(ctx, conn, &count,
		`SELECT COUNT(*) FROM tickets WHERE flight_id = $1 AND status IN ('BOOKED', 'SOLD')`, flightID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, &StorageError{Op: "count occupied seats", Err: err}
	}
	return count, nil
}

func (r *FlightRepository) getFlightByID(ctx context.Context, q queryer, id int64) (*models.Flight, error) {
	var row flightRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+flightColumns+` FROM flights WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get flight", Err: err}
	}
	return r.toFlight(ctx, q, row)
}

func (r *FlightRepository) toFlights(ctx context.Context, q queryer, rows []flightRow) ([]models.Flight, error) {
	flights := make([]models.Flight, 0, len(rows))
	for _, row := range rows {
		flight, err := r.toFlight(ctx, q, row)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *flight)
	}
	return flights, nil
}

func (r *FlightRepository) toFlight(ctx context.Context, q queryer, row flightRow) (*models.Flight, error) {
	status, err := r.parseStatus(row)
	if err != nil {
		return nil, err
	}

	route, err := r.routes.getRouteByID(ctx, q, row.RouteID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		r.logger.WithFields(logrus.Fields{
			"flight_id": row.ID,
			"route_id":  row.RouteID,
		}).Error("Flight references a route that does not exist")
		return nil, &IntegrityError{
			Entity: "route",
			ID:     row.RouteID,
			Msg:    fmt.Sprintf("referenced by flight %d does not exist", row.ID),
		}
	}

	flight := &models.Flight{
		ID:                row.ID,
		Route:             route,
		DepartureDateTime: row.DepartureDateTime.UTC(),
		ArrivalDateTime:   row.ArrivalDateTime.UTC(),
		TotalSeats:        row.TotalSeats,
		PricePerSeat:      row.PricePerSeat,
		Status:            status,
	}
	if row.BusModel.Valid {
		flight.BusModel = &row.BusModel.String
	}
	return flight, nil
}

func (r *FlightRepository) parseStatus(row flightRow) (models.FlightStatus, error) {
	if !row.Status.Valid {
		return "", &DataCorruptionError{Table: "flights", Column: "status", RowID: row.ID}
	}
	status, err := models.ParseFlightStatus(row.Status.String)
	if err != nil {
		return "", &DataCorruptionError{Table: "flights", Column: "status", RowID: row.ID, Value: stringPtr(row.Status.String)}
	}
	return status, nil
}

func (r *FlightRepository) warnOnTimeAnomaly(flight *models.Flight) {
	if flight.HasTimeAnomaly() {
		r.logger.WithFields(logrus.Fields{
			"flight_id": flight.ID,
			"departure": flight.DepartureDateTime,
			"arrival":   flight.ArrivalDateTime,
		}).Warn("Flight departs after it arrives")
	}
}

func rowsAffected(result sql.Result, op string) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: op, Err: err}
	}
	return affected > 0, nil
}
