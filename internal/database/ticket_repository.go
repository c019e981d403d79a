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

// TicketRepository handles ticket database operations and the sales/occupancy reports built on them
type TicketRepository struct {
	db         DB
	flights    *FlightRepository
	passengers *PassengerRepository
	logger     *logrus.Logger
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db DB, flights *FlightRepository, passengers *PassengerRepository, logger *logrus.Logger) *TicketRepository {
	return &TicketRepository{
		db:         db,
		flights:    flights,
		passengers: passengers,
		logger:     loggerOrDiscard(logger),
	}
}

const ticketColumns = `id, flight_id, passenger_id, seat_number, booking_date_time,
	booking_expiry_date_time, purchase_date_time, price_paid, status`

type ticketRow struct {
	ID                    int64          `db:"id"`
	FlightID              int64          `db:"flight_id"`
	PassengerID           int64          `db:"passenger_id"`
	SeatNumber            string         `db:"seat_number"`
	BookingDateTime       time.Time      `db:"booking_date_time"`
	BookingExpiryDateTime sql.NullTime   `db:"booking_expiry_date_time"`
	PurchaseDateTime      sql.NullTime   `db:"purchase_date_time"`
	PricePaid             float64        `db:"price_paid"`
	Status                sql.NullString `db:"status"`
}

// AddTicket inserts a ticket and sets its generated ID.
// It returns false, without error, when the seat already has an active ticket
// on that flight; the caller may retry with another seat.
func (r *TicketRepository) AddTicket(ctx context.Context, ticket *models.Ticket) (bool, error) {
	if ticket == nil {
		return false, fmt.Errorf("%w: ticket is required", ErrInvalidArgument)
	}
	if err := ticket.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if ticket.BookingDateTime.IsZero() {
		ticket.BookingDateTime = time.Now()
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	query := `
		INSERT INTO tickets (
			flight_id, passenger_id, seat_number, booking_date_time,
			booking_expiry_date_time, purchase_date_time, price_paid, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err = conn.QueryRowxContext(ctx, query,
		ticket.Flight.ID, ticket.Passenger.ID, ticket.SeatNumber, ticket.BookingDateTime.UTC(),
		utcPtr(ticket.BookingExpiryDateTime), utcPtr(ticket.PurchaseDateTime), ticket.PricePaid, string(ticket.Status),
	).Scan(&id)

	switch {
	case isUniqueViolation(err, activeSeatIndex):
		r.logger.WithFields(logrus.Fields{
			"flight_id": ticket.Flight.ID,
			"seat":      ticket.SeatNumber,
		}).Info("Seat already taken")
		return false, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, &IntegrityError{Entity: "ticket", Msg: "insert affected no rows"}
	case isForeignKeyViolation(err):
		return false, &IntegrityError{Entity: "ticket", Msg: "flight or passenger does not exist", Err: err}
	case err != nil:
		return false, &StorageError{Op: "insert ticket", Err: err}
	case id == 0:
		return false, &IntegrityError{Entity: "ticket", Msg: "insert returned no generated id"}
	}

	ticket.ID = id
	r.logger.WithFields(logrus.Fields{
		"ticket_id": id,
		"flight_id": ticket.Flight.ID,
		"seat":      ticket.SeatNumber,
		"status":    ticket.Status,
	}).Info("Ticket created")
	return true, nil
}

// UpdateTicketStatus overwrites a ticket's status. Moving to SOLD also records
// purchaseTime, which is then required; for other statuses it is ignored.
// The current status is not checked. Returns false when no ticket has the ID.
func (r *TicketRepository) UpdateTicketStatus(ctx context.Context, id int64, status models.TicketStatus, purchaseTime *time.Time) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("%w: unknown ticket status %q", ErrInvalidArgument, status)
	}
	if status == models.TicketStatusSold && purchaseTime == nil {
		return false, fmt.Errorf("%w: purchase time is required when selling a ticket", ErrInvalidArgument)
	}

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var result sql.Result
	if status == models.TicketStatusSold {
		result, err = conn.ExecContext(ctx,
			`UPDATE tickets SET status = $1, purchase_date_time = $2 WHERE id = $3`,
			string(status), purchaseTime.UTC(), id)
	} else {
		result, err = conn.ExecContext(ctx,
			`UPDATE tickets SET status = $1 WHERE id = $2`,
			string(status), id)
	}
	if isUniqueViolation(err, activeSeatIndex) {
		return false, fmt.Errorf("%w: seat of ticket %d is held by another active ticket", ErrInvalidArgument, id)
	}
	if err != nil {
		return false, &StorageError{Op: "update ticket status", Err: err}
	}
	return rowsAffected(result, "update ticket status")
}

// CancelExpiredBookings cancels BOOKED tickets whose hold expired before now
func (r *TicketRepository) CancelExpiredBookings(ctx context.Context, now time.Time) (int64, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, `
		UPDATE tickets SET status = 'CANCELLED'
		WHERE status = 'BOOKED'
		  AND booking_expiry_date_time IS NOT NULL
		  AND booking_expiry_date_time < $1`, now.UTC())
	if err != nil {
		return 0, &StorageError{Op: "cancel expired bookings", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "cancel expired bookings", Err: err}
	}
	return affected, nil
}

// GetOccupiedSeatsForFlight returns the seat labels held by active tickets
func (r *TicketRepository) GetOccupiedSeatsForFlight(ctx context.Context, flightID int64) (map[string]struct{}, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var seats []string
	err = sqlx.SelectContext(ctx, conn, &seats,
		`SELECT seat_number FROM tickets WHERE flight_id = $1 AND status IN ('BOOKED', 'SOLD')`, flightID)
	if err != nil {
		return nil, &StorageError{Op: "list occupied seats", Err: err}
	}

	occupied := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		occupied[seat] = struct{}{}
	}
	return occupied, nil
}

// GetTicketByID retrieves a ticket with flight and passenger resolved.
// A missing ticket yields (nil, nil).
func (r *TicketRepository) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var row ticketRow
	err = sqlx.GetContext(ctx, conn, &row, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get ticket", Err: err}
	}
	return r.toTicket(ctx, conn, row, nil)
}

// GetAllTickets retrieves all tickets, optionally only those with the given status
func (r *TicketRepository) GetAllTickets(ctx context.Context, statusFilter *models.TicketStatus) ([]models.Ticket, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	args := []interface{}{}
	if statusFilter != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*statusFilter))
	}
	query += ` ORDER BY booking_date_time, id`

	var rows []ticketRow
	if err := sqlx.SelectContext(ctx, conn, &rows, query, args...); err != nil {
		return nil, &StorageError{Op: "list tickets", Err: err}
	}
	return r.toTickets(ctx, conn, rows, nil)
}

// GetTicketsByFlightID retrieves every ticket of a flight ordered by seat
func (r *TicketRepository) GetTicketsByFlightID(ctx context.Context, flightID int64) ([]models.Ticket, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []ticketRow
	err = sqlx.SelectContext(ctx, conn, &rows,
		`SELECT `+ticketColumns+` FROM tickets WHERE flight_id = $1 ORDER BY seat_number, id`, flightID)
	if err != nil {
		return nil, &StorageError{Op: "list tickets by flight", Err: err}
	}
	return r.toTickets(ctx, conn, rows, nil)
}

// GetTicketsByPassengerID retrieves every ticket of a passenger.
// The passenger must exist; otherwise an IntegrityError is returned before tickets are queried.
func (r *TicketRepository) GetTicketsByPassengerID(ctx context.Context, passengerID int64) ([]models.Ticket, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	passenger, err := r.passengers.findByID(ctx, conn, passengerID)
	if err != nil {
		return nil, err
	}
	if passenger == nil {
		return nil, &IntegrityError{Entity: "passenger", ID: passengerID}
	}

	var rows []ticketRow
	err = sqlx.SelectContext(ctx, conn, &rows,
		`SELECT `+ticketColumns+` FROM tickets WHERE passenger_id = $1 ORDER BY booking_date_time, id`, passengerID)
	if err != nil {
		return nil, &StorageError{Op: "list tickets by passenger", Err: err}
	}
	return r.toTickets(ctx, conn, rows, passenger)
}

type routeSalesRow struct {
	RouteID     int64   `db:"route_id"`
	TotalSales  float64 `db:"total_sales"`
	TicketCount int     `db:"ticket_count"`
}

// GetSalesByRouteForPeriod sums SOLD tickets booked between the start and end
// dates (both days inclusive), keyed by route label. Routes that no longer
// resolve are reported under a placeholder label instead of failing the report.
func (r *TicketRepository) GetSalesByRouteForPeriod(ctx context.Context, start, end time.Time) (map[string]models.RouteSales, error) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	until := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `
		SELECT f.route_id,
		       COALESCE(SUM(t.price_paid), 0) AS total_sales,
		       COUNT(t.id) AS ticket_count
		FROM tickets t
		JOIN flights f ON f.id = t.flight_id
		WHERE t.status = 'SOLD'
		  AND t.booking_date_time >= $1
		  AND t.booking_date_time < $2
		GROUP BY f.route_id
		ORDER BY f.route_id`

	var rows []routeSalesRow
	if err := sqlx.SelectContext(ctx, conn, &rows, query, from, until); err != nil {
		return nil, &StorageError{Op: "aggregate sales by route", Err: err}
	}

	sales := make(map[string]models.RouteSales, len(rows))
	for _, row := range rows {
		label, err := r.routeLabel(ctx, conn, row.RouteID)
		if err != nil {
			return nil, err
		}
		sales[label] = sales[label].Add(models.RouteSales{
			TotalSales:  row.TotalSales,
			TicketCount: row.TicketCount,
		})
	}
	return sales, nil
}

// routeLabel names a route for the sales report. A route that is gone, or
// whose stops are gone, gets a placeholder; storage failures are returned.
func (r *TicketRepository) routeLabel(ctx context.Context, q queryer, routeID int64) (string, error) {
	route, err := r.flights.routes.getRouteByID(ctx, q, routeID)
	if err != nil && !IsIntegrity(err) {
		return "", err
	}
	if err != nil || route == nil {
		entry := r.logger.WithField("route_id", routeID)
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Warn("Sales report references a route that does not resolve")
		return models.UnknownRouteLabel(routeID), nil
	}
	return route.Label(), nil
}

type statusCountRow struct {
	Status sql.NullString `db:"status"`
	Count  int            `db:"count"`
}

// GetTicketCountsByStatus counts tickets per status. Every known status is
// present in the result; unknown persisted statuses are logged and skipped.
func (r *TicketRepository) GetTicketCountsByStatus(ctx context.Context) (map[models.TicketStatus]int, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []statusCountRow
	err = sqlx.SelectContext(ctx, conn, &rows,
		`SELECT status, COUNT(*) AS count FROM tickets GROUP BY status`)
	if err != nil {
		return nil, &StorageError{Op: "count tickets by status", Err: err}
	}

	counts := make(map[models.TicketStatus]int, len(models.TicketStatuses))
	for _, status := range models.TicketStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		status, err := models.ParseTicketStatus(row.Status.String)
		if !row.Status.Valid || err != nil {
			r.logger.WithFields(logrus.Fields{
				"status": row.Status.String,
				"null":   !row.Status.Valid,
				"count":  row.Count,
			}).Warn("Skipping tickets with unknown status in status counts")
			continue
		}
		counts[status] += row.Count
	}
	return counts, nil
}

func (r *TicketRepository) toTickets(ctx context.Context, q queryer, rows []ticketRow, passenger *models.Passenger) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, len(rows))
	for _, row := range rows {
		ticket, err := r.toTicket(ctx, q, row, passenger)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, nil
}

// toTicket resolves a row's references. A non-nil known passenger is reused
// instead of being looked up again.
func (r *TicketRepository) toTicket(ctx context.Context, q queryer, row ticketRow, known *models.Passenger) (*models.Ticket, error) {
	if !row.Status.Valid {
		return nil, &DataCorruptionError{Table: "tickets", Column: "status", RowID: row.ID}
	}
	status, err := models.ParseTicketStatus(row.Status.String)
	if err != nil {
		return nil, &DataCorruptionError{Table: "tickets", Column: "status", RowID: row.ID, Value: stringPtr(row.Status.String)}
	}

	flight, err := r.flights.getFlightByID(ctx, q, row.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, &IntegrityError{
			Entity: "flight",
			ID:     row.FlightID,
			Msg:    fmt.Sprintf("referenced by ticket %d does not exist", row.ID),
		}
	}

	passenger := known
	if passenger == nil || passenger.ID != row.PassengerID {
		passenger, err = r.passengers.findByID(ctx, q, row.PassengerID)
		if err != nil {
			return nil, err
		}
		if passenger == nil {
			return nil, &IntegrityError{
				Entity: "passenger",
				ID:     row.PassengerID,
				Msg:    fmt.Sprintf("referenced by ticket %d does not exist", row.ID),
			}
		}
	}

	ticket := &models.Ticket{
		ID:                    row.ID,
		Flight:                flight,
		Passenger:             passenger,
		SeatNumber:            row.SeatNumber,
		BookingDateTime:       row.BookingDateTime.UTC(),
		BookingExpiryDateTime: nullTimePtr(row.BookingExpiryDateTime),
		PurchaseDateTime:      nullTimePtr(row.PurchaseDateTime),
		PricePaid:             row.PricePaid,
		Status:                status,
	}
	return ticket, nil
}
