package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
	"github.com/smarttransit/carrier-reservations/pkg/validator"
)

// PassengerHandler handles passenger API endpoints
type PassengerHandler struct {
	passengers     PassengerDirectory
	tickets        TicketLedger
	phoneValidator *validator.PhoneValidator
	logger         *logrus.Logger
}

// NewPassengerHandler creates a new PassengerHandler
func NewPassengerHandler(
	passengers PassengerDirectory,
	tickets TicketLedger,
	phoneValidator *validator.PhoneValidator,
	logger *logrus.Logger,
) *PassengerHandler {
	return &PassengerHandler{
		passengers:     passengers,
		tickets:        tickets,
		phoneValidator: phoneValidator,
		logger:         logger,
	}
}

// ListPassengers returns every registered passenger
// GET /api/v1/passengers
func (h *PassengerHandler) ListPassengers(c *gin.Context) {
	passengers, err := h.passengers.GetAllPassengers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"passengers": passengers, "count": len(passengers)})
}

// GetPassenger returns a single passenger
// GET /api/v1/passengers/:id
func (h *PassengerHandler) GetPassenger(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	passenger, err := h.passengers.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if passenger == nil {
		notFound(c, "Passenger not found")
		return
	}
	c.JSON(http.StatusOK, passenger)
}

// LookupPassenger finds a passenger by identity document
// GET /api/v1/passengers/lookup?document_type=PASSPORT&document_number=AB123456
func (h *PassengerHandler) LookupPassenger(c *gin.Context) {
	docType, number, err := validator.NormalizeDocument(c.Query("document_type"), c.Query("document_number"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	passenger, err := h.passengers.FindByDocument(c.Request.Context(), docType, number)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if passenger == nil {
		notFound(c, "Passenger not found")
		return
	}
	c.JSON(http.StatusOK, passenger)
}

// UpdatePassenger replaces a passenger's details
// PUT /api/v1/passengers/:id
func (h *PassengerHandler) UpdatePassenger(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.PassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	passenger, err := normalizePassenger(req, h.phoneValidator)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	passenger.ID = id

	updated, err := h.passengers.UpdatePassenger(c.Request.Context(), &passenger)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !updated {
		notFound(c, "Passenger not found")
		return
	}
	c.JSON(http.StatusOK, passenger)
}

// GetPassengerTickets returns the travel history of a passenger
// GET /api/v1/passengers/:id/tickets
func (h *PassengerHandler) GetPassengerTickets(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	passenger, err := h.passengers.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if passenger == nil {
		notFound(c, "Passenger not found")
		return
	}

	tickets, err := h.tickets.GetTicketsByPassengerID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"passenger": passenger, "tickets": tickets, "count": len(tickets)})
}

// normalizePassenger canonicalises counter input so one document maps to one passenger
func normalizePassenger(req models.PassengerRequest, phones *validator.PhoneValidator) (models.Passenger, error) {
	docType, number, err := validator.NormalizeDocument(req.DocumentType, req.DocumentNumber)
	if err != nil {
		return models.Passenger{}, err
	}

	benefit, known := models.ParseBenefitType(strings.ToUpper(string(req.BenefitType)))
	if !known {
		return models.Passenger{}, fmt.Errorf("unknown benefit type %q", req.BenefitType)
	}

	passenger := models.Passenger{
		FullName:       strings.Join(strings.Fields(req.FullName), " "),
		DocumentType:   docType,
		DocumentNumber: number,
		Email:          req.Email,
		BenefitType:    benefit,
	}

	if req.PhoneNumber != nil && strings.TrimSpace(*req.PhoneNumber) != "" {
		phone, err := phones.Validate(*req.PhoneNumber)
		if err != nil {
			return models.Passenger{}, fmt.Errorf("phone_number: %w", err)
		}
		passenger.PhoneNumber = &phone
	}
	return passenger, nil
}
