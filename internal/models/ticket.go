package models

import (
	"fmt"
	"time"
)

// TicketStatus represents the lifecycle status of a ticket
type TicketStatus string

const (
	TicketStatusBooked    TicketStatus = "BOOKED"
	TicketStatusSold      TicketStatus = "SOLD"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// TicketStatuses lists every known ticket status
var TicketStatuses = []TicketStatus{
	TicketStatusBooked,
	TicketStatusSold,
	TicketStatusCancelled,
}

var ticketStatusLabels = map[TicketStatus]string{
	TicketStatusBooked:    "Booked",
	TicketStatusSold:      "Sold",
	TicketStatusCancelled: "Cancelled",
}

// ParseTicketStatus converts a persisted token into a TicketStatus
func ParseTicketStatus(token string) (TicketStatus, error) {
	status := TicketStatus(token)
	if _, ok := ticketStatusLabels[status]; !ok {
		return "", fmt.Errorf("unknown ticket status %q", token)
	}
	return status, nil
}

// IsValid checks if the status is one of the known values
func (s TicketStatus) IsValid() bool {
	_, ok := ticketStatusLabels[s]
	return ok
}

// Label returns the human readable name of the status
func (s TicketStatus) Label() string {
	if label, ok := ticketStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsActive checks if a ticket in this status occupies its seat
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusBooked || s == TicketStatusSold
}

// CanTransitionTo reports whether moving to next follows the ticket lifecycle:
// BOOKED -> SOLD, BOOKED -> CANCELLED, SOLD -> CANCELLED. CANCELLED is terminal.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	switch s {
	case TicketStatusBooked:
		return next == TicketStatusSold || next == TicketStatusCancelled
	case TicketStatusSold:
		return next == TicketStatusCancelled
	}
	return false
}

// Ticket is a claim on one seat of one flight for one passenger
type Ticket struct {
	ID                    int64        `json:"id" db:"id"`
	Flight                *Flight      `json:"flight"`
	Passenger             *Passenger   `json:"passenger"`
	SeatNumber            string       `json:"seat_number" db:"seat_number"`
	BookingDateTime       time.Time    `json:"booking_date_time" db:"booking_date_time"`
	BookingExpiryDateTime *time.Time   `json:"booking_expiry_date_time,omitempty" db:"booking_expiry_date_time"`
	PurchaseDateTime      *time.Time   `json:"purchase_date_time,omitempty" db:"purchase_date_time"`
	PricePaid             float64      `json:"price_paid" db:"price_paid"`
	Status                TicketStatus `json:"status" db:"status"`
}

// Validate checks the invariants that must hold before a ticket is persisted
func (t *Ticket) Validate() error {
	if t.Flight == nil || t.Flight.ID == 0 {
		return fmt.Errorf("ticket flight is required")
	}
	if t.Passenger == nil || t.Passenger.ID == 0 {
		return fmt.Errorf("ticket passenger is required")
	}
	if t.SeatNumber == "" {
		return fmt.Errorf("seat_number is required")
	}
	if t.PricePaid < 0 {
		return fmt.Errorf("price_paid must not be negative, got %.2f", t.PricePaid)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("unknown ticket status %q", t.Status)
	}
	return nil
}

// IsHoldExpired checks if a BOOKED ticket's hold has lapsed at the given time
func (t *Ticket) IsHoldExpired(now time.Time) bool {
	return t.Status == TicketStatusBooked &&
		t.BookingExpiryDateTime != nil &&
		t.BookingExpiryDateTime.Before(now)
}
