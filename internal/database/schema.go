package database

import (
	"context"
	"fmt"
)

// Constraint names the repositories recognise in driver errors
const (
	activeSeatIndex        = "uq_tickets_active_seat"
	passengerDocumentIndex = "uq_passengers_document"
)

// schemaStatements creates the relational shape the repositories rely on.
// Statements are idempotent and run one at a time so both drivers accept them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stops (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		city VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id                  BIGSERIAL PRIMARY KEY,
		departure_stop_id   BIGINT NOT NULL REFERENCES stops (id),
		destination_stop_id BIGINT NOT NULL REFERENCES stops (id)
	)`,
	`CREATE TABLE IF NOT EXISTS route_intermediate_stops (
		route_id   BIGINT NOT NULL REFERENCES routes (id),
		stop_id    BIGINT NOT NULL REFERENCES stops (id),
		stop_order INTEGER NOT NULL,
		PRIMARY KEY (route_id, stop_order)
	)`,
	`CREATE TABLE IF NOT EXISTS flights (
		id                  BIGSERIAL PRIMARY KEY,
		route_id            BIGINT NOT NULL REFERENCES routes (id),
		departure_date_time TIMESTAMPTZ NOT NULL,
		arrival_date_time   TIMESTAMPTZ NOT NULL,
		total_seats         INTEGER NOT NULL CHECK (total_seats > 0),
		bus_model           VARCHAR(100),
		price_per_seat      NUMERIC(10, 2) NOT NULL CHECK (price_per_seat >= 0),
		status              VARCHAR(20) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_flights_departure ON flights (departure_date_time)`,
	`CREATE TABLE IF NOT EXISTS passengers (
		id              BIGSERIAL PRIMARY KEY,
		full_name       VARCHAR(255) NOT NULL,
		document_type   VARCHAR(50) NOT NULL,
		document_number VARCHAR(50) NOT NULL,
		phone_number    VARCHAR(20),
		email           VARCHAR(255),
		benefit_type    VARCHAR(20) NOT NULL DEFAULT 'NONE'
	)`,
	fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON passengers (document_type, document_number)`, passengerDocumentIndex),
	`CREATE TABLE IF NOT EXISTS tickets (
		id                       BIGSERIAL PRIMARY KEY,
		flight_id                BIGINT NOT NULL REFERENCES flights (id),
		passenger_id             BIGINT NOT NULL REFERENCES passengers (id),
		seat_number              VARCHAR(10) NOT NULL,
		booking_date_time        TIMESTAMPTZ NOT NULL,
		booking_expiry_date_time TIMESTAMPTZ,
		purchase_date_time       TIMESTAMPTZ,
		price_paid               NUMERIC(10, 2) NOT NULL CHECK (price_paid >= 0),
		status                   VARCHAR(20) NOT NULL
	)`,
	// At most one active ticket per seat; cancelled tickets free the seat.
	fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON tickets (flight_id, seat_number) WHERE status IN ('BOOKED', 'SOLD')`, activeSeatIndex),
	`CREATE INDEX IF NOT EXISTS idx_tickets_passenger ON tickets (passenger_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_booking_date ON tickets (booking_date_time)`,
}

// Tables lists the schema's tables in dependency order (children last)
var Tables = []string{
	"stops",
	"routes",
	"route_intermediate_stops",
	"flights",
	"passengers",
	"tickets",
}

// EnsureSchema creates any missing tables and indexes
func EnsureSchema(ctx context.Context, db DB) error {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, stmt := range schemaStatements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return &StorageError{Op: "apply schema", Err: err}
		}
	}
	return nil
}
