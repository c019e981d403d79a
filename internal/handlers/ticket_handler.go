package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/middleware"
	"github.com/smarttransit/carrier-reservations/internal/models"
	"github.com/smarttransit/carrier-reservations/internal/services"
	"github.com/smarttransit/carrier-reservations/pkg/validator"
)

// TicketHandler handles ticket API endpoints
type TicketHandler struct {
	tickets        TicketLedger
	booking        BookingDesk
	phoneValidator *validator.PhoneValidator
	logger         *logrus.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(
	tickets TicketLedger,
	booking BookingDesk,
	phoneValidator *validator.PhoneValidator,
	logger *logrus.Logger,
) *TicketHandler {
	return &TicketHandler{
		tickets:        tickets,
		booking:        booking,
		phoneValidator: phoneValidator,
		logger:         logger,
	}
}

// BookTicket books (or with pay_now sells) a seat for a passenger
// POST /api/v1/tickets
func (h *TicketHandler) BookTicket(c *gin.Context) {
	var req models.BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	passenger, err := normalizePassenger(req.Passenger, h.phoneValidator)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	ticket, err := h.booking.Book(c.Request.Context(), services.BookingRequest{
		FlightID:   req.FlightID,
		SeatNumber: req.SeatNumber,
		Passenger:  passenger,
		PayNow:     req.PayNow,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit(c, ticket, "booked")
	c.JSON(http.StatusCreated, ticket)
}

// SellTicket completes payment for a held ticket
// POST /api/v1/tickets/:id/sell
func (h *TicketHandler) SellTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.booking.Sell(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit(c, ticket, "sold")
	c.JSON(http.StatusOK, ticket)
}

// CancelTicket releases the seat of a ticket
// POST /api/v1/tickets/:id/cancel
func (h *TicketHandler) CancelTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.booking.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit(c, ticket, "cancelled")
	c.JSON(http.StatusOK, ticket)
}

// GetTicket returns a single ticket
// GET /api/v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.tickets.GetTicketByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if ticket == nil {
		notFound(c, "Ticket not found")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// ListTickets returns all tickets, optionally filtered by ?status=
// GET /api/v1/tickets
func (h *TicketHandler) ListTickets(c *gin.Context) {
	var filter *models.TicketStatus
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseTicketStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		filter = &status
	}

	tickets, err := h.tickets.GetAllTickets(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

// audit records which operator changed a ticket
func (h *TicketHandler) audit(c *gin.Context, ticket *models.Ticket, action string) {
	fields := logrus.Fields{
		"action":    action,
		"ticket_id": ticket.ID,
		"seat":      ticket.SeatNumber,
	}
	if ticket.Flight != nil {
		fields["flight_id"] = ticket.Flight.ID
	}
	if operator, ok := middleware.GetOperatorContext(c); ok {
		fields["operator_id"] = operator.OperatorID
		fields["operator_login"] = operator.Login
	}
	h.logger.WithFields(fields).Info("Ticket audit")
}
