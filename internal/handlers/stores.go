package handlers

import (
	"context"
	"time"

	"github.com/smarttransit/carrier-reservations/internal/models"
	"github.com/smarttransit/carrier-reservations/internal/services"
)

// StopCatalog is the part of the stop repository the API uses
type StopCatalog interface {
	AddStop(ctx context.Context, stop *models.Stop) error
	GetStopByID(ctx context.Context, id int64) (*models.Stop, error)
	GetAllStops(ctx context.Context) ([]models.Stop, error)
}

// RouteCatalog is the part of the route repository the API uses
type RouteCatalog interface {
	AddRoute(ctx context.Context, route *models.Route) error
	GetRouteByID(ctx context.Context, id int64) (*models.Route, error)
	GetAllRoutes(ctx context.Context) ([]models.Route, error)
}

// FlightCatalog is the part of the flight repository the API uses
type FlightCatalog interface {
	AddFlight(ctx context.Context, flight *models.Flight) error
	UpdateFlight(ctx context.Context, flight *models.Flight) (bool, error)
	GetFlightByID(ctx context.Context, id int64) (*models.Flight, error)
	GetAllFlights(ctx context.Context) ([]models.Flight, error)
	GetFlightsByDate(ctx context.Context, date time.Time) ([]models.Flight, error)
}

// PassengerDirectory is the part of the passenger repository the API uses
type PassengerDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.Passenger, error)
	FindByDocument(ctx context.Context, documentType, documentNumber string) (*models.Passenger, error)
	GetAllPassengers(ctx context.Context) ([]models.Passenger, error)
	UpdatePassenger(ctx context.Context, passenger *models.Passenger) (bool, error)
}

// TicketLedger is the read side of the ticket repository the API uses
type TicketLedger interface {
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	GetAllTickets(ctx context.Context, status *models.TicketStatus) ([]models.Ticket, error)
	GetTicketsByFlightID(ctx context.Context, flightID int64) ([]models.Ticket, error)
	GetTicketsByPassengerID(ctx context.Context, passengerID int64) ([]models.Ticket, error)
}

// BookingDesk is the booking workflow used by the ticket and flight endpoints
type BookingDesk interface {
	SeatMap(ctx context.Context, flightID int64) (*services.SeatMap, error)
	Book(ctx context.Context, req services.BookingRequest) (*models.Ticket, error)
	Sell(ctx context.Context, ticketID int64) (*models.Ticket, error)
	Cancel(ctx context.Context, ticketID int64) (*models.Ticket, error)
	ChangeFlightStatus(ctx context.Context, flightID int64, status models.FlightStatus) (*models.Flight, error)
}

// Reporter produces the management reports
type Reporter interface {
	SalesByRoute(ctx context.Context, start, end time.Time) (map[string]models.RouteSales, error)
	TicketCounts(ctx context.Context) (map[models.TicketStatus]int, error)
	FlightLoad(ctx context.Context, flightID int64) (*models.FlightLoad, error)
	DailyLoad(ctx context.Context, date time.Time) ([]models.FlightLoad, error)
}

// JobRunner exposes the background jobs to administrators
type JobRunner interface {
	RunReleaseExpiredHoldsNow(ctx context.Context) (int64, error)
	GetJobStatus() map[string]interface{}
}
