package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

var (
	// ErrFlightNotFound means no flight has the requested ID
	ErrFlightNotFound = errors.New("flight not found")

	// ErrTicketNotFound means no ticket has the requested ID
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrFlightNotBookable means the flight's status no longer accepts bookings
	ErrFlightNotBookable = errors.New("flight is not open for booking")

	// ErrInvalidSeat means the seat label is outside the flight's seat space
	ErrInvalidSeat = errors.New("seat does not exist on this flight")

	// ErrSeatTaken means another active ticket already holds the seat
	ErrSeatTaken = errors.New("seat is already taken")

	// ErrInvalidTransition means the requested status change breaks the lifecycle
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// BookingRequest describes a seat reservation made at the counter
type BookingRequest struct {
	FlightID   int64
	SeatNumber string
	Passenger  models.Passenger
	// PayNow sells the ticket immediately instead of holding the seat
	PayNow bool
}

// SeatMap lists occupied and free seats of a flight
type SeatMap struct {
	FlightID int64    `json:"flight_id"`
	Total    int      `json:"total_seats"`
	Occupied []string `json:"occupied"`
	Free     []string `json:"free"`
}

// BookingService implements the booking desk workflow on top of the repositories
type BookingService struct {
	flights      FlightStore
	passengers   PassengerStore
	tickets      TicketStore
	holdDuration time.Duration
	logger       *logrus.Logger
	now          func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	flights FlightStore,
	passengers PassengerStore,
	tickets TicketStore,
	holdDuration time.Duration,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		flights:      flights,
		passengers:   passengers,
		tickets:      tickets,
		holdDuration: holdDuration,
		logger:       logger,
		now:          time.Now,
	}
}

// SeatMap returns the occupied seats of a flight and their complement in 1..TotalSeats
func (s *BookingService) SeatMap(ctx context.Context, flightID int64) (*SeatMap, error) {
	flight, err := s.requireFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.tickets.GetOccupiedSeatsForFlight(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get occupied seats: %w", err)
	}

	return &SeatMap{
		FlightID: flightID,
		Total:    flight.TotalSeats,
		Occupied: models.SortedSeats(occupied),
		Free:     models.FreeSeats(flight.TotalSeats, occupied),
	}, nil
}

// Book reserves a seat for a passenger. The passenger is registered on first
// use of their document, the fare gets the passenger's benefit discount, and
// a held (BOOKED) ticket expires after the configured hold duration.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*models.Ticket, error) {
	flight, err := s.requireFlight(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if !flight.Status.IsBookable() {
		return nil, fmt.Errorf("%w: flight %d is %s", ErrFlightNotBookable, flight.ID, flight.Status.Label())
	}
	if !seatExists(req.SeatNumber, flight.TotalSeats) {
		return nil, fmt.Errorf("%w: seat %q, flight has %d seats", ErrInvalidSeat, req.SeatNumber, flight.TotalSeats)
	}

	passengerID, err := s.passengers.AddOrGetPassenger(ctx, &req.Passenger)
	if err != nil {
		return nil, fmt.Errorf("failed to register passenger: %w", err)
	}
	passenger, err := s.passengers.FindByID(ctx, passengerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load passenger: %w", err)
	}
	if passenger == nil {
		return nil, fmt.Errorf("passenger %d vanished after registration", passengerID)
	}

	now := s.now()
	ticket := &models.Ticket{
		Flight:          flight,
		Passenger:       passenger,
		SeatNumber:      req.SeatNumber,
		BookingDateTime: now,
		PricePaid:       passenger.EffectiveBenefit().ApplyTo(flight.PricePerSeat),
		Status:          models.TicketStatusBooked,
	}
	if req.PayNow {
		ticket.Status = models.TicketStatusSold
		ticket.PurchaseDateTime = &now
	} else {
		expiry := now.Add(s.holdDuration)
		ticket.BookingExpiryDateTime = &expiry
	}

	ok, err := s.tickets.AddTicket(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: seat %s on flight %d", ErrSeatTaken, req.SeatNumber, flight.ID)
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id":    ticket.ID,
		"flight_id":    flight.ID,
		"passenger_id": passenger.ID,
		"seat":         ticket.SeatNumber,
		"status":       ticket.Status,
		"price":        ticket.PricePaid,
	}).Info("Seat booked")
	return ticket, nil
}

// Sell completes payment for a held ticket
func (s *BookingService) Sell(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	ticket, err := s.requireTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsHoldExpired(s.now()) {
		return nil, fmt.Errorf("%w: hold of ticket %d has expired", ErrInvalidTransition, ticketID)
	}

	now := s.now()
	if err := s.changeTicketStatus(ctx, ticket, models.TicketStatusSold, &now); err != nil {
		return nil, err
	}
	ticket.Status = models.TicketStatusSold
	ticket.PurchaseDateTime = &now
	return ticket, nil
}

// Cancel releases the seat of a held or sold ticket
func (s *BookingService) Cancel(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	ticket, err := s.requireTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.changeTicketStatus(ctx, ticket, models.TicketStatusCancelled, nil); err != nil {
		return nil, err
	}
	ticket.Status = models.TicketStatusCancelled
	return ticket, nil
}

// ChangeFlightStatus moves a flight along its lifecycle
func (s *BookingService) ChangeFlightStatus(ctx context.Context, flightID int64, status models.FlightStatus) (*models.Flight, error) {
	flight, err := s.requireFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if !flight.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: flight %d from %s to %s", ErrInvalidTransition, flightID, flight.Status, status)
	}

	ok, err := s.flights.UpdateFlightStatus(ctx, flightID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update flight status: %w", err)
	}
	if !ok {
		return nil, ErrFlightNotFound
	}

	s.logger.WithFields(logrus.Fields{
		"flight_id": flightID,
		"from":      flight.Status,
		"to":        status,
	}).Info("Flight status changed")
	flight.Status = status
	return flight, nil
}

func (s *BookingService) changeTicketStatus(ctx context.Context, ticket *models.Ticket, status models.TicketStatus, purchaseTime *time.Time) error {
	if !ticket.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: ticket %d from %s to %s", ErrInvalidTransition, ticket.ID, ticket.Status, status)
	}

	ok, err := s.tickets.UpdateTicketStatus(ctx, ticket.ID, status, purchaseTime)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if !ok {
		return ErrTicketNotFound
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"from":      ticket.Status,
		"to":        status,
	}).Info("Ticket status changed")
	return nil
}

func (s *BookingService) requireFlight(ctx context.Context, flightID int64) (*models.Flight, error) {
	flight, err := s.flights.GetFlightByID(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	if flight == nil {
		return nil, ErrFlightNotFound
	}
	return flight, nil
}

func (s *BookingService) requireTicket(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// seatExists checks the label is one of "1".."total" in canonical form
func seatExists(seat string, total int) bool {
	n, err := strconv.Atoi(seat)
	if err != nil || strconv.Itoa(n) != seat {
		return false
	}
	return n >= 1 && n <= total
}
