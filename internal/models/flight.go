package models

import (
	"fmt"
	"time"
)

// FlightStatus represents the lifecycle status of a scheduled trip
type FlightStatus string

const (
	FlightStatusPlanned   FlightStatus = "PLANNED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
	FlightStatusArrived   FlightStatus = "ARRIVED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

// FlightStatuses lists every known flight status in lifecycle order
var FlightStatuses = []FlightStatus{
	FlightStatusPlanned,
	FlightStatusDelayed,
	FlightStatusDeparted,
	FlightStatusArrived,
	FlightStatusCancelled,
}

var flightStatusLabels = map[FlightStatus]string{
	FlightStatusPlanned:   "Planned",
	FlightStatusDelayed:   "Delayed",
	FlightStatusDeparted:  "Departed",
	FlightStatusArrived:   "Arrived",
	FlightStatusCancelled: "Cancelled",
}

// ParseFlightStatus converts a persisted token into a FlightStatus
func ParseFlightStatus(token string) (FlightStatus, error) {
	status := FlightStatus(token)
	if _, ok := flightStatusLabels[status]; !ok {
		return "", fmt.Errorf("unknown flight status %q", token)
	}
	return status, nil
}

// IsValid checks if the status is one of the known values
func (s FlightStatus) IsValid() bool {
	_, ok := flightStatusLabels[s]
	return ok
}

// Label returns the human readable name of the status
func (s FlightStatus) Label() string {
	if label, ok := flightStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal checks if no further transitions are expected
func (s FlightStatus) IsTerminal() bool {
	return s == FlightStatusArrived || s == FlightStatusCancelled
}

// IsBookable checks if tickets can still be sold for a flight in this status
func (s FlightStatus) IsBookable() bool {
	return s == FlightStatusPlanned || s == FlightStatusDelayed
}

// CanTransitionTo reports whether moving to next follows the flight lifecycle:
// PLANNED <-> DELAYED, PLANNED/DELAYED -> DEPARTED -> ARRIVED,
// any non-terminal -> CANCELLED.
// Repositories do not call this; legality is owned by the service layer.
func (s FlightStatus) CanTransitionTo(next FlightStatus) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	switch next {
	case FlightStatusCancelled:
		return true
	case FlightStatusPlanned:
		return s == FlightStatusDelayed
	case FlightStatusDelayed:
		return s == FlightStatusPlanned
	case FlightStatusDeparted:
		return s == FlightStatusPlanned || s == FlightStatusDelayed
	case FlightStatusArrived:
		return s == FlightStatusDeparted
	}
	return false
}

// Flight represents one scheduled run of a route
type Flight struct {
	ID                int64        `json:"id" db:"id"`
	Route             *Route       `json:"route"`
	DepartureDateTime time.Time    `json:"departure_date_time" db:"departure_date_time"`
	ArrivalDateTime   time.Time    `json:"arrival_date_time" db:"arrival_date_time"`
	TotalSeats        int          `json:"total_seats" db:"total_seats"`
	BusModel          *string      `json:"bus_model,omitempty" db:"bus_model"`
	PricePerSeat      float64      `json:"price_per_seat" db:"price_per_seat"`
	Status            FlightStatus `json:"status" db:"status"`
}

// Validate checks the invariants that must hold before a flight is persisted
func (f *Flight) Validate() error {
	if f.Route == nil || f.Route.ID == 0 {
		return fmt.Errorf("flight route is required")
	}
	if f.TotalSeats <= 0 {
		return fmt.Errorf("total_seats must be positive, got %d", f.TotalSeats)
	}
	if f.PricePerSeat < 0 {
		return fmt.Errorf("price_per_seat must not be negative, got %.2f", f.PricePerSeat)
	}
	if !f.Status.IsValid() {
		return fmt.Errorf("unknown flight status %q", f.Status)
	}
	return nil
}

// HasTimeAnomaly reports a departure scheduled after the arrival
func (f *Flight) HasTimeAnomaly() bool {
	return f.DepartureDateTime.After(f.ArrivalDateTime)
}

// Duration returns the scheduled travel time
func (f *Flight) Duration() time.Duration {
	return f.ArrivalDateTime.Sub(f.DepartureDateTime)
}
