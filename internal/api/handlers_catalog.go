// handlers_catalog.go - Theme and preset catalog handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/certstudio/backend/internal/layout"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/theme"
)

// CatalogHandlerImpl implements the CatalogHandler interface
type CatalogHandlerImpl struct {
	themes  *theme.Registry
	presets *layout.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(themes *theme.Registry, presets *layout.Catalog) CatalogHandler {
	return &CatalogHandlerImpl{themes: themes, presets: presets}
}

// HandleGetThemes returns the theme table
func (h *CatalogHandlerImpl) HandleGetThemes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.themes.Table())
}

// HandleListPresets returns summaries of every preset
func (h *CatalogHandlerImpl) HandleListPresets(c echo.Context) error {
	presets, err := h.presets.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list presets", err)
	}
	out := make([]models.PresetSummary, 0, len(presets))
	for _, p := range presets {
		out = append(out, p.Summary())
	}
	return c.JSON(http.StatusOK, out)
}

// HandleGetPreset returns one preset document
func (h *CatalogHandlerImpl) HandleGetPreset(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}
	p, err := h.presets.Get(c.Request().Context(), name)
	if err != nil {
		return FromDomainError(err)
	}
	return c.JSON(http.StatusOK, p)
}
