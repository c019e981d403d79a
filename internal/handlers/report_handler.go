package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/models"
)

// ReportHandler handles management report endpoints
type ReportHandler struct {
	reports Reporter
	logger  *logrus.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports Reporter, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// GetSalesByRoute returns sold ticket totals per route for an inclusive date range
// GET /api/v1/reports/sales?from=2026-03-01&to=2026-03-31
func (h *ReportHandler) GetSalesByRoute(c *gin.Context) {
	from, ok := parseDate(c, "from")
	if !ok {
		return
	}
	to, ok := parseDate(c, "to")
	if !ok {
		return
	}

	sales, err := h.reports.SalesByRoute(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries := make([]models.SalesReportEntry, 0, len(sales))
	var total models.RouteSales
	for label, s := range sales {
		entries = append(entries, models.SalesReportEntry{Route: label, RouteSales: s})
		total = total.Add(s)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalSales != entries[j].TotalSales {
			return entries[i].TotalSales > entries[j].TotalSales
		}
		return entries[i].Route < entries[j].Route
	})

	c.JSON(http.StatusOK, gin.H{
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
		"routes": entries,
		"total":  total,
	})
}

// GetTicketCounts returns the number of tickets in every status
// GET /api/v1/reports/ticket-counts
func (h *ReportHandler) GetTicketCounts(c *gin.Context) {
	counts, err := h.reports.TicketCounts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// GetDailyLoad returns the occupancy of every flight departing on ?date=
// GET /api/v1/reports/daily-load?date=2026-03-14
func (h *ReportHandler) GetDailyLoad(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	loads, err := h.reports.DailyLoad(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format(dateLayout), "flights": loads, "count": len(loads)})
}
