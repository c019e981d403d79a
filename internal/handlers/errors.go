package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/database"
	"github.com/smarttransit/carrier-reservations/internal/services"
)

const dateLayout = "2006-01-02"

// respondError maps domain and storage errors onto HTTP responses.
// Anything unexpected is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status, code := classify(err)

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
		"code":   code,
	})

	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("Request failed")
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": http.StatusText(status), "code": code})
	default:
		entry.Debug("Request rejected")
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrFlightNotFound):
		return http.StatusNotFound, "FLIGHT_NOT_FOUND"
	case errors.Is(err, services.ErrTicketNotFound):
		return http.StatusNotFound, "TICKET_NOT_FOUND"
	case errors.Is(err, services.ErrSeatTaken):
		return http.StatusConflict, "SEAT_TAKEN"
	case errors.Is(err, services.ErrFlightNotBookable):
		return http.StatusConflict, "FLIGHT_NOT_BOOKABLE"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, services.ErrInvalidSeat):
		return http.StatusBadRequest, "INVALID_SEAT"
	case errors.Is(err, services.ErrInvalidPeriod):
		return http.StatusBadRequest, "INVALID_PERIOD"
	case errors.Is(err, database.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, database.ErrConnectivity):
		return http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE"
	case database.IsDataCorruption(err):
		return http.StatusInternalServerError, "DATA_CORRUPTION"
	case database.IsIntegrity(err):
		return http.StatusInternalServerError, "INTEGRITY_VIOLATION"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message, "code": "NOT_FOUND"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "INVALID_REQUEST"})
}

// parseID reads a positive int64 path parameter, writing a 400 when it is malformed
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseDate reads a YYYY-MM-DD query parameter, writing a 400 when it is missing or malformed
func parseDate(c *gin.Context, name string) (time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		badRequest(c, name+" is required (YYYY-MM-DD)")
		return time.Time{}, false
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		badRequest(c, "invalid "+name+", expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
