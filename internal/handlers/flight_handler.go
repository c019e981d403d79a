package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// FlightHandler handles flight API endpoints
type FlightHandler struct {
	flights FlightCatalog
	routes  RouteCatalog
	tickets TicketLedger
	booking BookingDesk
	reports Reporter
	logger  *logrus.Logger
}

// NewFlightHandler creates a new FlightHandler
func NewFlightHandler(
	flights FlightCatalog,
	routes RouteCatalog,
	tickets TicketLedger,
	booking BookingDesk,
	reports Reporter,
	logger *logrus.Logger,
) *FlightHandler {
	return &FlightHandler{
		flights: flights,
		routes:  routes,
		tickets: tickets,
		booking: booking,
		reports: reports,
		logger:  logger,
	}
}

// ListFlights returns all flights, or those departing on ?date=YYYY-MM-DD
// GET /api/v1/flights
func (h *FlightHandler) ListFlights(c *gin.Context) {
	var (
		flights []models.Flight
		err     error
	)

	if c.Query("date") != "" {
		date, ok := parseDate(c, "date")
		if !ok {
			return
		}
		flights, err = h.flights.GetFlightsByDate(c.Request.Context(), date)
	} else {
		flights, err = h.flights.GetAllFlights(c.Request.Context())
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"flights": flights, "count": len(flights)})
}

// GetFlight returns a single flight
// GET /api/v1/flights/:id
func (h *FlightHandler) GetFlight(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	flight, err := h.flights.GetFlightByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if flight == nil {
		notFound(c, "Flight not found")
		return
	}
	c.JSON(http.StatusOK, flight)
}

// CreateFlight schedules a new flight on an existing route
// POST /api/v1/flights
func (h *FlightHandler) CreateFlight(c *gin.Context) {
	flight, ok := h.bindFlight(c)
	if !ok {
		return
	}

	if err := h.flights.AddFlight(c.Request.Context(), flight); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

// UpdateFlight replaces every field of a flight
// PUT /api/v1/flights/:id
func (h *FlightHandler) UpdateFlight(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	flight, ok := h.bindFlight(c)
	if !ok {
		return
	}
	flight.ID = id

	updated, err := h.flights.UpdateFlight(c.Request.Context(), flight)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !updated {
		notFound(c, "Flight not found")
		return
	}
	c.JSON(http.StatusOK, flight)
}

// UpdateFlightStatus moves a flight along its lifecycle
// PATCH /api/v1/flights/:id/status
func (h *FlightHandler) UpdateFlightStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateFlightStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.Status.IsValid() {
		badRequest(c, "unknown flight status "+string(req.Status))
		return
	}

	flight, err := h.booking.ChangeFlightStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

// GetSeatMap returns occupied and free seats of a flight
// GET /api/v1/flights/:id/seats
func (h *FlightHandler) GetSeatMap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	seatMap, err := h.booking.SeatMap(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, seatMap)
}

// GetFlightLoad returns the occupancy of a flight
// GET /api/v1/flights/:id/load
func (h *FlightHandler) GetFlightLoad(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	load, err := h.reports.FlightLoad(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, load)
}

// GetFlightTickets returns every ticket issued for a flight (the passenger manifest)
// GET /api/v1/flights/:id/tickets
func (h *FlightHandler) GetFlightTickets(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tickets, err := h.tickets.GetTicketsByFlightID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

func (h *FlightHandler) bindFlight(c *gin.Context) (*models.Flight, bool) {
	var req models.FlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	route, err := h.routes.GetRouteByID(c.Request.Context(), req.RouteID)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	if route == nil {
		badRequest(c, "route does not exist")
		return nil, false
	}

	status := req.Status
	if status == "" {
		status = models.FlightStatusPlanned
	}

	return &models.Flight{
		Route:             route,
		DepartureDateTime: req.DepartureDateTime,
		ArrivalDateTime:   req.ArrivalDateTime,
		TotalSeats:        req.TotalSeats,
		BusModel:          req.BusModel,
		PricePerSeat:      req.PricePerSeat,
		Status:            status,
	}, true
}
