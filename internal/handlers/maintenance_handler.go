package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MaintenanceHandler exposes background job controls to administrators
type MaintenanceHandler struct {
	jobs   JobRunner
	logger *logrus.Logger
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(jobs JobRunner, logger *logrus.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{jobs: jobs, logger: logger}
}

// GetJobStatus reports the scheduler state
// GET /api/v1/admin/jobs
func (h *MaintenanceHandler) GetJobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobs.GetJobStatus())
}

// ReleaseExpiredHolds runs the expired-hold sweep immediately
// POST /api/v1/admin/jobs/release-expired-holds
func (h *MaintenanceHandler) ReleaseExpiredHolds(c *gin.Context) {
	released, err := h.jobs.RunReleaseExpiredHoldsNow(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Expired holds released",
		"released": released,
	})
}
