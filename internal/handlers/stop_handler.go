package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// StopHandler handles stop API endpoints
type StopHandler struct {
	stops  StopCatalog
	logger *logrus.Logger
}

// NewStopHandler creates a new StopHandler
func NewStopHandler(stops StopCatalog, logger *logrus.Logger) *StopHandler {
	return &StopHandler{stops: stops, logger: logger}
}

// ListStops returns every stop
// GET /api/v1/stops
func (h *StopHandler) ListStops(c *gin.Context) {
	stops, err := h.stops.GetAllStops(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stops": stops, "count": len(stops)})
}

// GetStop returns a single stop
// GET /api/v1/stops/:id
func (h *StopHandler) GetStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stop, err := h.stops.GetStopByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if stop == nil {
		notFound(c, "Stop not found")
		return
	}
	c.JSON(http.StatusOK, stop)
}

// CreateStop registers a new stop
// POST /api/v1/stops
func (h *StopHandler) CreateStop(c *gin.Context) {
	var req models.CreateStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	stop := &models.Stop{
		Name: strings.TrimSpace(req.Name),
		City: strings.TrimSpace(req.City),
	}
	if err := h.stops.AddStop(c.Request.Context(), stop); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, stop)
}
