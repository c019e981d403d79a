package models

import "time"

// CreateStopRequest represents the request body for registering a stop
type CreateStopRequest struct {
	Name string `json:"name" binding:"required"`
	City string `json:"city"`
}

// CreateRouteRequest represents the request body for creating a route.
// IntermediateStopIDs are given in travel order.
type CreateRouteRequest struct {
	DepartureStopID     int64   `json:"departure_stop_id" binding:"required"`
	DestinationStopID   int64   `json:"destination_stop_id" binding:"required"`
	IntermediateStopIDs []int64 `json:"intermediate_stop_ids"`
}

// FlightRequest represents the request body for creating or replacing a flight
type FlightRequest struct {
	RouteID           int64        `json:"route_id" binding:"required"`
	DepartureDateTime time.Time    `json:"departure_date_time" binding:"required"`
	ArrivalDateTime   time.Time    `json:"arrival_date_time" binding:"required"`
	TotalSeats        int          `json:"total_seats" binding:"required,min=1"`
	BusModel          *string      `json:"bus_model,omitempty"`
	PricePerSeat      float64      `json:"price_per_seat" binding:"min=0"`
	Status            FlightStatus `json:"status,omitempty"`
}

// UpdateFlightStatusRequest represents the request body for a flight status change
type UpdateFlightStatusRequest struct {
	Status FlightStatus `json:"status" binding:"required"`
}

// PassengerRequest carries passenger details entered at the counter
type PassengerRequest struct {
	FullName       string      `json:"full_name" binding:"required"`
	DocumentType   string      `json:"document_type" binding:"required"`
	DocumentNumber string      `json:"document_number" binding:"required"`
	PhoneNumber    *string     `json:"phone_number,omitempty"`
	Email          *string     `json:"email,omitempty" binding:"omitempty,email"`
	BenefitType    BenefitType `json:"benefit_type,omitempty"`
}

// BookTicketRequest represents the request body for booking a seat
type BookTicketRequest struct {
	FlightID   int64            `json:"flight_id" binding:"required"`
	SeatNumber string           `json:"seat_number" binding:"required"`
	Passenger  PassengerRequest `json:"passenger" binding:"required"`
	PayNow     bool             `json:"pay_now"`
}

// SalesReportEntry is one row of the sales-by-route report
type SalesReportEntry struct {
	Route string `json:"route"`
	RouteSales
}
