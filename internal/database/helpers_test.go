package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var (
	stopColumns      = []string{"id", "name", "city"}
	routeColumns     = []string{"id", "departure_stop_id", "destination_stop_id"}
	linkColumns      = []string{"stop_id", "stop_order"}
	flightRowColumns = []string{
		"id", "route_id", "departure_date_time", "arrival_date_time",
		"total_seats", "bus_model", "price_per_seat", "status",
	}
	passengerRowColumns = []string{
		"id", "full_name", "document_type", "document_number",
		"phone_number", "email", "benefit_type",
	}
	ticketRowColumns = []string{
		"id", "flight_id", "passenger_id", "seat_number", "booking_date_time",
		"booking_expiry_date_time", "purchase_date_time", "price_paid", "status",
	}
)

var testDeparture = time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresDB(sqlx.NewDb(db, "postgres")), mock
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// repositories wires the full repository graph over one mock database
type repositories struct {
	stops      *StopRepository
	routes     *RouteRepository
	flights    *FlightRepository
	passengers *PassengerRepository
	tickets    *TicketRepository
}

func newRepositories(db DB, logger *logrus.Logger) repositories {
	stops := NewStopRepository(db, logger)
	routes := NewRouteRepository(db, stops, logger)
	flights := NewFlightRepository(db, routes, logger)
	passengers := NewPassengerRepository(db, logger)
	return repositories{
		stops:      stops,
		routes:     routes,
		flights:    flights,
		passengers: passengers,
		tickets:    NewTicketRepository(db, flights, passengers, logger),
	}
}

func expectStop(mock sqlmock.Sqlmock, id int64, name, city string) {
	mock.ExpectQuery(`SELECT id, name, city FROM stops WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(stopColumns).AddRow(id, name, city))
}

func expectMissingStop(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery(`SELECT id, name, city FROM stops WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(stopColumns))
}

// expectKyivLvivRoute expects the lookups that resolve route id into Kyiv–Lviv
// with no intermediate stops
func expectKyivLvivRoute(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery(`SELECT id, departure_stop_id, destination_stop_id FROM routes WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(routeColumns).AddRow(id, int64(1), int64(2)))
	expectStop(mock, 1, "Kyiv", "Kyiv")
	expectStop(mock, 2, "Lviv", "Lviv")
	mock.ExpectQuery(`SELECT stop_id, stop_order FROM route_intermediate_stops`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(linkColumns))
}

func flightRows(id, routeID int64, totalSeats int, status interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(flightRowColumns).AddRow(
		id, routeID, testDeparture, testDeparture.Add(7*time.Hour),
		totalSeats, "Neoplan N316", 600.0, status,
	)
}

// expectFlight expects a flight lookup whose route resolves to Kyiv–Lviv
func expectFlight(mock sqlmock.Sqlmock, id, routeID int64) {
	mock.ExpectQuery(`SELECT (.+) FROM flights WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(flightRows(id, routeID, 50, "PLANNED"))
	expectKyivLvivRoute(mock, routeID)
}

func passengerRows(id int64, document string) *sqlmock.Rows {
	return sqlmock.NewRows(passengerRowColumns).AddRow(
		id, "Olena Kovalenko", "PASSPORT", document, "+380501234567", nil, "STUDENT",
	)
}

func expectPassenger(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery(`SELECT (.+) FROM passengers WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(passengerRows(id, "FA123456"))
}
