// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/certstudio/backend/internal/export"
	"github.com/certstudio/backend/internal/jobs"
	"github.com/certstudio/backend/internal/layout"
	"github.com/certstudio/backend/internal/storage"
	"github.com/certstudio/backend/internal/theme"
	"github.com/certstudio/backend/internal/workspace"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store          storage.Store
	ExportStore    storage.Store // defaults to Store
	Batches        *workspace.Manager
	Jobs           *jobs.Manager
	Themes         *theme.Registry
	Presets        *layout.Catalog
	Exporter       *export.Exporter
	Version        string
	MaxUploadBytes int64
	WSMaxMessageKB int
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Catalog CatalogHandler
	Batch   BatchHandler
	Element ElementHandler
	Slide   SlideHandler
	Export  ExportHandler
	Live    LiveHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	exportStore := deps.ExportStore
	if exportStore == nil {
		exportStore = deps.Store
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Batches),
		Catalog: NewCatalogHandler(deps.Themes, deps.Presets),
		Batch:   NewBatchHandler(deps.Batches, deps.Store, deps.MaxUploadBytes),
		Element: NewElementHandler(deps.Batches),
		Slide:   NewSlideHandler(deps.Batches),
		Export:  NewExportHandler(deps.Batches, deps.Jobs, deps.Exporter, exportStore),
		Live:    NewLiveHandler(deps.Batches, deps.WSMaxMessageKB),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Catalog routes
	e.GET("/api/themes", handlers.Catalog.HandleGetThemes)
	e.GET("/api/presets", handlers.Catalog.HandleListPresets)
	e.GET("/api/presets/:name", handlers.Catalog.HandleGetPreset)

	// Batch routes
	batchGroup := e.Group("/api/batches")
	batchGroup.POST("", handlers.Batch.HandleCreateBatch)
	batchGroup.GET("", handlers.Batch.HandleListBatches)
	batchGroup.GET("/:id", handlers.Batch.HandleGetBatch)
	batchGroup.DELETE("/:id", handlers.Batch.HandleDeleteBatch)
	batchGroup.POST("/:id/keepalive", handlers.Batch.HandleKeepAlive)
	batchGroup.POST("/:id/data", handlers.Batch.HandlePasteData)
	batchGroup.POST("/:id/data/file", handlers.Batch.HandleUploadData)
	batchGroup.POST("/:id/background", handlers.Batch.HandleUploadBackground)
	batchGroup.GET("/:id/background", handlers.Batch.HandleGetBackground)
	batchGroup.POST("/:id/generate", handlers.Batch.HandleGenerate)

	// Element routes
	batchGroup.GET("/:id/elements", handlers.Element.HandleGetElements)
	batchGroup.GET("/:id/elements/msgpack", handlers.Element.HandleGetElementsMsgpack)
	batchGroup.PATCH("/:id/elements/:type", handlers.Element.HandlePatchElement)
	batchGroup.POST("/:id/elements/:type/select", handlers.Element.HandleSelectElement)
	batchGroup.POST("/:id/elements/:type/center", handlers.Element.HandleCenterElement)
	batchGroup.POST("/:id/elements/:type/lock", handlers.Element.HandleLockElement)
	batchGroup.POST("/:id/elements/:type/transform", handlers.Element.HandleTransformElement)
	batchGroup.GET("/:id/panel", handlers.Element.HandleGetPanel)
	batchGroup.POST("/:id/presets/apply", handlers.Element.HandleApplyPreset)
	batchGroup.POST("/:id/presets", handlers.Element.HandleSavePreset)

	// Slide routes
	batchGroup.GET("/:id/slides", handlers.Slide.HandleGetSlides)
	batchGroup.GET("/:id/slides/:index/png", handlers.Slide.HandleGetSlidePNG)
	batchGroup.PUT("/:id/slides/:index/size", handlers.Slide.HandleResizeSlide)

	// Export job routes
	batchGroup.POST("/:id/export", handlers.Export.HandleStartExport)
	exportGroup := e.Group("/api/export")
	exportGroup.GET("/:jobId", handlers.Export.HandleGetExport)
	exportGroup.GET("/:jobId/progress", handlers.Export.HandleExportProgressStream)
	exportGroup.GET("/:jobId/download", handlers.Export.HandleDownloadExport)
	exportGroup.DELETE("/:jobId", handlers.Export.HandleDeleteExport)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/batches/:id/ws", handlers.Live.HandleWebSocket)
}

// MiddlewareOptions toggles the optional middleware
type MiddlewareOptions struct {
	AllowOrigins   []string
	RequestLogging bool
	BodyLimit      string
	Compression    bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())

	if len(opts.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		}))
	}

	if opts.RequestLogging {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Skipper: quietPath,
			Format:  "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.Compression {
		// SSE and websocket responses must not be buffered by gzip
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasSuffix(p, "/progress") || strings.HasSuffix(p, "/ws") || strings.HasSuffix(p, "/png")
			},
		}))
	}
}

// quietPath skips request logs for polling endpoints
func quietPath(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/health" || p == "/api/health" || strings.HasSuffix(p, "/progress") || strings.HasSuffix(p, "/keepalive")
}
