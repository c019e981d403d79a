package database

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seatTaken = &pq.Error{
	Code:       "23505",
	Constraint: activeSeatIndex,
	Message:    "duplicate key value violates unique constraint",
}

func newTicket(seat string) *models.Ticket {
	return &models.Ticket{
		Flight:          &models.Flight{ID: 7},
		Passenger:       &models.Passenger{ID: 21},
		SeatNumber:      seat,
		BookingDateTime: testDeparture.Add(-48 * time.Hour),
		PricePaid:       300,
		Status:          models.TicketStatusBooked,
	}
}

func ticketRows() *sqlmock.Rows {
	return sqlmock.NewRows(ticketRowColumns)
}

func TestAddTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("Success Without Expiry", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets
		ticket := newTicket("12")

		mock.ExpectQuery(`INSERT INTO tickets`).
			WithArgs(int64(7), int64(21), "12", ticket.BookingDateTime, nil, nil, 300.0, "BOOKED").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

		ok, err := repo.AddTicket(ctx, ticket)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(100), ticket.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Already Taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets
		ticket := newTicket("12")

		mock.ExpectQuery(`INSERT INTO tickets`).WillReturnError(seatTaken)

		ok, err := repo.AddTicket(ctx, ticket)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, ticket.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other Unique Violation Is A Storage Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`INSERT INTO tickets`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "tickets_pkey"})

		ok, err := repo.AddTicket(ctx, newTicket("12"))
		assert.False(t, ok)
		assert.True(t, IsStorage(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Flight", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`INSERT INTO tickets`).
			WillReturnError(&pq.Error{Code: "23503", Constraint: "tickets_flight_id_fkey"})

		_, err := repo.AddTicket(ctx, newTicket("12"))
		assert.True(t, IsIntegrity(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Seat", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		_, err := repo.AddTicket(ctx, newTicket(""))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("Database Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`INSERT INTO tickets`).WillReturnError(errors.New("broken pipe"))

		_, err := repo.AddTicket(ctx, newTicket("12"))
		assert.True(t, IsStorage(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFullFlightSeatConflict(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repos := newRepositories(db, nil)

	for seat := 1; seat <= 49; seat++ {
		mock.ExpectQuery(`INSERT INTO tickets`).
			WithArgs(int64(7), int64(21), strconv.Itoa(seat), sqlmock.AnyArg(), nil, nil, 300.0, "BOOKED").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(seat)))
	}
	mock.ExpectQuery(`INSERT INTO tickets`).
		WithArgs(int64(7), int64(21), "1", sqlmock.AnyArg(), nil, nil, 300.0, "BOOKED").
		WillReturnError(seatTaken)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(49))

	for seat := 1; seat <= 49; seat++ {
		ok, err := repos.tickets.AddTicket(ctx, newTicket(strconv.Itoa(seat)))
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := repos.tickets.AddTicket(ctx, newTicket("1"))
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := repos.flights.GetOccupiedSeatsCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 49, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTicketStatus(t *testing.T) {
	ctx := context.Background()
	purchased := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)

	t.Run("Sold Records Purchase Time", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectExec(`UPDATE tickets SET status = \$1, purchase_date_time = \$2 WHERE id = \$3`).
			WithArgs("SOLD", purchased, int64(100)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateTicketStatus(ctx, 100, models.TicketStatusSold, &purchased)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cancel Ignores Purchase Time", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectExec(`UPDATE tickets SET status = \$1 WHERE id = \$2`).
			WithArgs("CANCELLED", int64(100)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateTicketStatus(ctx, 100, models.TicketStatusCancelled, nil)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown ID", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectExec(`UPDATE tickets SET status`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateTicketStatus(ctx, 404, models.TicketStatusCancelled, nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Sold Without Purchase Time", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		_, err := repo.UpdateTicketStatus(ctx, 100, models.TicketStatusSold, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("Reactivation Collides With Active Ticket", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectExec(`UPDATE tickets SET status`).WillReturnError(seatTaken)

		ok, err := repo.UpdateTicketStatus(ctx, 100, models.TicketStatusBooked, nil)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSellThenListByPassenger(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := newRepositories(db, nil).tickets
	now := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	ticket := newTicket("5")

	mock.ExpectQuery(`INSERT INTO tickets`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectExec(`UPDATE tickets SET status = \$1, purchase_date_time = \$2`).
		WithArgs("SOLD", now, int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectPassenger(mock, 21)
	mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE passenger_id = \$1`).
		WithArgs(int64(21)).
		WillReturnRows(ticketRows().AddRow(
			int64(100), int64(7), int64(21), "5", ticket.BookingDateTime, nil, now, 300.0, "SOLD"))
	expectFlight(mock, 7, 10)

	ok, err := repo.AddTicket(ctx, ticket)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.UpdateTicketStatus(ctx, ticket.ID, models.TicketStatusSold, &now)
	require.NoError(t, err)
	require.True(t, ok)

	tickets, err := repo.GetTicketsByPassengerID(ctx, 21)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, models.TicketStatusSold, tickets[0].Status)
	require.NotNil(t, tickets[0].PurchaseDateTime)
	assert.True(t, now.Equal(*tickets[0].PurchaseDateTime))
	assert.Nil(t, tickets[0].BookingExpiryDateTime)
	assert.Equal(t, "Olena Kovalenko", tickets[0].Passenger.FullName)
	assert.Equal(t, "Kyiv–Lviv", tickets[0].Flight.Route.Label())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketTimesAreStoredAsUTC(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := newRepositories(db, nil).tickets

	kyiv := time.FixedZone("EET", 2*60*60)
	newYork := time.FixedZone("EST", -5*60*60)
	sold := time.Date(2026, 3, 13, 14, 0, 0, 0, kyiv)
	expiry := time.Date(2026, 3, 13, 14, 30, 0, 0, kyiv)

	ticket := newTicket("8")
	ticket.BookingDateTime = sold
	ticket.BookingExpiryDateTime = &expiry

	mock.ExpectQuery(`INSERT INTO tickets`).
		WithArgs(int64(7), int64(21), "8", sold.UTC(), expiry.UTC(), nil, 300.0, "BOOKED").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
	mock.ExpectExec(`UPDATE tickets SET status = \$1, purchase_date_time = \$2`).
		WithArgs("SOLD", sold.UTC(), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id = \$1`).
		WithArgs(int64(101)).
		WillReturnRows(ticketRows().AddRow(
			int64(101), int64(7), int64(21), "8", sold.In(newYork), expiry.In(newYork), sold.In(newYork), 300.0, "SOLD"))
	expectFlight(mock, 7, 10)
	expectPassenger(mock, 21)

	ok, err := repo.AddTicket(ctx, ticket)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.UpdateTicketStatus(ctx, 101, models.TicketStatusSold, &sold)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := repo.GetTicketByID(ctx, 101)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.PurchaseDateTime)
	assert.True(t, sold.Equal(*stored.PurchaseDateTime))
	assert.Equal(t, time.UTC, stored.PurchaseDateTime.Location())
	assert.Equal(t, time.UTC, stored.BookingDateTime.Location())
	require.NotNil(t, stored.BookingExpiryDateTime)
	assert.True(t, expiry.Equal(*stored.BookingExpiryDateTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTicketsByPassengerID(t *testing.T) {
	t.Run("Unknown Passenger Fails Before Tickets Are Read", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(passengerRowColumns))

		tickets, err := repo.GetTicketsByPassengerID(context.Background(), 404)
		assert.Nil(t, tickets)
		var integrityErr *IntegrityError
		require.ErrorAs(t, err, &integrityErr)
		assert.Equal(t, "passenger", integrityErr.Entity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetOccupiedSeatsForFlight(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newRepositories(db, nil).tickets

	mock.ExpectQuery(`SELECT seat_number FROM tickets WHERE flight_id = \$1 AND status IN \('BOOKED', 'SOLD'\)`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow("2").AddRow("5").AddRow("9"))

	occupied, err := repo.GetOccupiedSeatsForFlight(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, occupied, 3)

	free := models.FreeSeats(10, occupied)
	assert.Len(t, free, 7)
	for _, seat := range free {
		_, taken := occupied[seat]
		assert.False(t, taken, "seat %s is both free and occupied", seat)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllTickets(t *testing.T) {
	ctx := context.Background()

	t.Run("Filtered By Status", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets
		expiry := testDeparture.Add(-47 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE status = \$1 ORDER BY booking_date_time, id`).
			WithArgs("BOOKED").
			WillReturnRows(ticketRows().AddRow(
				int64(100), int64(7), int64(21), "5", testDeparture.Add(-48*time.Hour), expiry, nil, 300.0, "BOOKED"))
		expectFlight(mock, 7, 10)
		expectPassenger(mock, 21)

		status := models.TicketStatusBooked
		tickets, err := repo.GetAllTickets(ctx, &status)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		require.NotNil(t, tickets[0].BookingExpiryDateTime)
		assert.True(t, expiry.Equal(*tickets[0].BookingExpiryDateTime))
		assert.Nil(t, tickets[0].PurchaseDateTime)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Dangling Passenger Aborts Read", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`SELECT (.+) FROM tickets ORDER BY booking_date_time, id`).
			WillReturnRows(ticketRows().AddRow(
				int64(100), int64(7), int64(21), "5", testDeparture, nil, nil, 300.0, "BOOKED"))
		expectFlight(mock, 7, 10)
		mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE id = \$1`).
			WithArgs(int64(21)).
			WillReturnRows(sqlmock.NewRows(passengerRowColumns))

		tickets, err := repo.GetAllTickets(ctx, nil)
		assert.Nil(t, tickets)
		assert.True(t, IsIntegrity(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Status Is Data Corruption", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WillReturnRows(ticketRows().AddRow(
				int64(100), int64(7), int64(21), "5", testDeparture, nil, nil, 300.0, "REFUNDED"))

		_, err := repo.GetAllTickets(ctx, nil)
		assert.True(t, IsDataCorruption(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTicketByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newRepositories(db, nil).tickets

	mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(ticketRows())

	ticket, err := repo.GetTicketByID(context.Background(), 404)
	assert.NoError(t, err)
	assert.Nil(t, ticket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTicketsByFlightID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newRepositories(db, nil).tickets

	mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE flight_id = \$1 ORDER BY seat_number, id`).
		WithArgs(int64(7)).
		WillReturnRows(ticketRows())

	tickets, err := repo.GetTicketsByFlightID(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelExpiredBookings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newRepositories(db, nil).tickets
	now := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE tickets SET status = 'CANCELLED' WHERE status = 'BOOKED'`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	cancelled, err := repo.CancelExpiredBookings(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var salesColumns = []string{"route_id", "total_sales", "ticket_count"}

func TestGetSalesByRouteForPeriod(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)

	t.Run("Sums Sold Tickets Per Route", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`FROM tickets t JOIN flights f ON f.id = t.flight_id WHERE t.status = 'SOLD'`).
			WithArgs(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)).
			WillReturnRows(sqlmock.NewRows(salesColumns).AddRow(int64(10), 1050.75, 2))
		expectKyivLvivRoute(mock, 10)

		sales, err := repo.GetSalesByRouteForPeriod(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, map[string]models.RouteSales{
			"Kyiv–Lviv": {TotalSales: 1050.75, TicketCount: 2},
		}, sales)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleted Route Gets Placeholder Label", func(t *testing.T) {
		db, mock := newMockDB(t)
		logger, hook := newTestLogger()
		repo := newRepositories(db, logger).tickets

		mock.ExpectQuery(`FROM tickets t JOIN flights f`).
			WillReturnRows(sqlmock.NewRows(salesColumns).AddRow(int64(77), 200.0, 1))
		mock.ExpectQuery(`SELECT id, departure_stop_id, destination_stop_id FROM routes WHERE id = \$1`).
			WithArgs(int64(77)).
			WillReturnRows(sqlmock.NewRows(routeColumns))

		sales, err := repo.GetSalesByRouteForPeriod(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, models.RouteSales{TotalSales: 200, TicketCount: 1}, sales["unknown/deleted route, id=77"])
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Route Lookup Failure Fails The Report", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`FROM tickets t JOIN flights f`).
			WillReturnRows(sqlmock.NewRows(salesColumns).AddRow(int64(10), 600.0, 1))
		mock.ExpectQuery(`SELECT id, departure_stop_id, destination_stop_id FROM routes WHERE id = \$1`).
			WithArgs(int64(10)).
			WillReturnError(errors.New("driver: bad connection"))

		sales, err := repo.GetSalesByRouteForPeriod(ctx, start, end)
		assert.Nil(t, sales)
		assert.True(t, IsStorage(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Routes Sharing A Label Are Merged", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`FROM tickets t JOIN flights f`).
			WillReturnRows(sqlmock.NewRows(salesColumns).
				AddRow(int64(10), 600.0, 1).
				AddRow(int64(11), 450.75, 1))
		expectKyivLvivRoute(mock, 10)
		expectKyivLvivRoute(mock, 11)

		sales, err := repo.GetSalesByRouteForPeriod(ctx, start, end)
		require.NoError(t, err)
		assert.Equal(t, models.RouteSales{TotalSales: 1050.75, TicketCount: 2}, sales["Kyiv–Lviv"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTicketCountsByStatus(t *testing.T) {
	t.Run("Every Status Present", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := newRepositories(db, nil).tickets

		mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM tickets GROUP BY status`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("SOLD", 4))

		counts, err := repo.GetTicketCountsByStatus(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[models.TicketStatus]int{
			models.TicketStatusBooked:    0,
			models.TicketStatusSold:      4,
			models.TicketStatusCancelled: 0,
		}, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Status Is Skipped", func(t *testing.T) {
		db, mock := newMockDB(t)
		logger, hook := newTestLogger()
		repo := newRepositories(db, logger).tickets

		mock.ExpectQuery(`SELECT status, COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("BOOKED", 2).
				AddRow("REFUNDED", 1).
				AddRow(nil, 1))

		counts, err := repo.GetTicketCountsByStatus(context.Background())
		require.NoError(t, err)
		assert.Len(t, counts, 3)
		assert.Equal(t, 2, counts[models.TicketStatusBooked])
		assert.Len(t, hook.AllEntries(), 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
