// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	batches interface{ Len() int }
}

// NewHealthHandler creates a new health handler. batches may be nil.
func NewHealthHandler(version string, batches interface{ Len() int }) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		batches: batches,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.batches != nil {
		resp["batches"] = h.batches.Len()
	}
	return c.JSON(http.StatusOK, resp)
}
