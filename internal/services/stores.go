package services

import (
	"context"
	"time"

	"github.com/smarttransit/carrier-reservations/internal/models"
)

// FlightStore is the part of the flight repository the services use
type FlightStore interface {
	GetFlightByID(ctx context.Context, id int64) (*models.Flight, error)
	GetFlightsByDate(ctx context.Context, date time.Time) ([]models.Flight, error)
	GetOccupiedSeatsCount(ctx context.Context, flightID int64) (int, error)
	UpdateFlightStatus(ctx context.Context, id int64, status models.FlightStatus) (bool, error)
}

// PassengerStore is the part of the passenger repository the services use
type PassengerStore interface {
	AddOrGetPassenger(ctx context.Context, candidate *models.Passenger) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Passenger, error)
}

// TicketStore is the part of the ticket repository the services use
type TicketStore interface {
	AddTicket(ctx context.Context, ticket *models.Ticket) (bool, error)
	UpdateTicketStatus(ctx context.Context, id int64, status models.TicketStatus, purchaseTime *time.Time) (bool, error)
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	GetOccupiedSeatsForFlight(ctx context.Context, flightID int64) (map[string]struct{}, error)
	GetSalesByRouteForPeriod(ctx context.Context, start, end time.Time) (map[string]models.RouteSales, error)
	GetTicketCountsByStatus(ctx context.Context) (map[models.TicketStatus]int, error)
	CancelExpiredBookings(ctx context.Context, now time.Time) (int64, error)
}
