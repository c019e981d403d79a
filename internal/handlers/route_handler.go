package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// RouteHandler handles route API endpoints
type RouteHandler struct {
	routes RouteCatalog
	stops  StopCatalog
	logger *logrus.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(routes RouteCatalog, stops StopCatalog, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{routes: routes, stops: stops, logger: logger}
}

// ListRoutes returns every route with its stops in travel order
// GET /api/v1/routes
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	routes, err := h.routes.GetAllRoutes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes, "count": len(routes)})
}

// GetRoute returns a single route
// GET /api/v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	route, err := h.routes.GetRouteByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if route == nil {
		notFound(c, "Route not found")
		return
	}
	c.JSON(http.StatusOK, route)
}

// CreateRoute creates a route from existing stops
// POST /api/v1/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	ids := append([]int64{req.DepartureStopID, req.DestinationStopID}, req.IntermediateStopIDs...)
	resolved := make([]models.Stop, 0, len(ids))
	for _, id := range ids {
		stop, err := h.stops.GetStopByID(ctx, id)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if stop == nil {
			badRequest(c, fmt.Sprintf("stop %d does not exist", id))
			return
		}
		resolved = append(resolved, *stop)
	}

	route := &models.Route{
		DepartureStop:     &resolved[0],
		DestinationStop:   &resolved[1],
		IntermediateStops: resolved[2:],
	}
	if err := h.routes.AddRoute(ctx, route); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}
