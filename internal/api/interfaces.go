// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/workspace"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// CatalogHandler serves themes and layout presets
type CatalogHandler interface {
	HandleGetThemes(c echo.Context) error
	HandleListPresets(c echo.Context) error
	HandleGetPreset(c echo.Context) error
}

// BatchHandler handles batch lifecycle, data and background operations
type BatchHandler interface {
	HandleCreateBatch(c echo.Context) error
	HandleListBatches(c echo.Context) error
	HandleGetBatch(c echo.Context) error
	HandleDeleteBatch(c echo.Context) error
	HandleKeepAlive(c echo.Context) error
	HandlePasteData(c echo.Context) error
	HandleUploadData(c echo.Context) error
	HandleUploadBackground(c echo.Context) error
	HandleGetBackground(c echo.Context) error
	HandleGenerate(c echo.Context) error
}

// ElementHandler handles element state and control panel operations
type ElementHandler interface {
	HandleGetElements(c echo.Context) error
	HandleGetElementsMsgpack(c echo.Context) error
	HandlePatchElement(c echo.Context) error
	HandleSelectElement(c echo.Context) error
	HandleCenterElement(c echo.Context) error
	HandleLockElement(c echo.Context) error
	HandleTransformElement(c echo.Context) error
	HandleGetPanel(c echo.Context) error
	HandleApplyPreset(c echo.Context) error
	HandleSavePreset(c echo.Context) error
}

// SlideHandler serves slide projections and rasters
type SlideHandler interface {
	HandleGetSlides(c echo.Context) error
	HandleGetSlidePNG(c echo.Context) error
	HandleResizeSlide(c echo.Context) error
}

// ExportHandler handles PDF export jobs
type ExportHandler interface {
	HandleStartExport(c echo.Context) error
	HandleGetExport(c echo.Context) error
	HandleExportProgressStream(c echo.Context) error
	HandleDownloadExport(c echo.Context) error
	HandleDeleteExport(c echo.Context) error
}

// LiveHandler handles the websocket live-edit protocol
type LiveHandler interface {
	HandleWebSocket(c echo.Context) error
}

// BatchManager defines the interface for batch management
// This allows mocking in tests
type BatchManager interface {
	Create() (*workspace.Batch, error)
	Get(id string) (*workspace.Batch, error)
	Delete(id string) error
	Touch(id string) bool
	List(ctx context.Context) []models.BatchSummary
}
