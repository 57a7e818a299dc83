package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/certstudio/backend/internal/api"
	"github.com/certstudio/backend/internal/config"
	"github.com/certstudio/backend/internal/export"
	"github.com/certstudio/backend/internal/fonts"
	"github.com/certstudio/backend/internal/jobs"
	"github.com/certstudio/backend/internal/layout"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/storage"
	"github.com/certstudio/backend/internal/theme"
	"github.com/certstudio/backend/internal/web"
	"github.com/certstudio/backend/internal/workspace"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "CertStudio.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	embeddedMode := web.HasEmbeddedFiles()

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}
	exportStore, err := storage.NewLocalStore(cfg.Storage.ExportsDirectory)
	if err != nil {
		fmt.Printf("Failed to initialize export storage: %v\n", err)
		os.Exit(1)
	}

	// Themes fall back to the built-in table
	themes, err := theme.Load(cfg.Storage.ThemeFile)
	if err != nil {
		fmt.Printf("Warning: theme file not loaded: %v\n", err)
	}

	presets, presetBackend := openPresets(cfg)

	measurer, err := fonts.NewMeasurer()
	if err != nil {
		fmt.Printf("Failed to load fonts: %v\n", err)
		os.Exit(1)
	}
	raster, err := preview.NewRasterizer()
	if err != nil {
		fmt.Printf("Failed to initialize rasterizer: %v\n", err)
		os.Exit(1)
	}

	batchMgr := workspace.NewManager(workspace.Options{
		Themes:         themes,
		Presets:        presets,
		Measurer:       measurer,
		Raster:         raster,
		Backgrounds:    fileStore,
		RowIndex:       cfg.Advanced.RowIndexBackend,
		TempDir:        cfg.Storage.TempDirectory,
		MemoryLimit:    cfg.Advanced.DuckDBMemoryLimit,
		ReferenceWidth: cfg.Preview.ReferenceWidth,
		Debounce:       time.Duration(cfg.Preview.DebounceMs) * time.Millisecond,
		FrameInterval:  time.Duration(cfg.Preview.FrameIntervalMs) * time.Millisecond,
		MaxBatches:     cfg.Processing.MaxBatches,
	})
	defer batchMgr.Close()

	jobMgr := jobs.NewManager(exportStore, cfg.Processing.MaxConcurrentExports)

	// Start background cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			batchMgr.CleanupOldBatches(time.Duration(cfg.Processing.BatchTimeoutMinutes) * time.Minute)
			jobMgr.CleanupOldJobs(time.Duration(cfg.Processing.ExportRetentionMinutes) * time.Minute)
		}
	}()

	handlers := api.NewHandlers(&api.Dependencies{
		Store:          fileStore,
		ExportStore:    exportStore,
		Batches:        batchMgr,
		Jobs:           jobMgr,
		Themes:         themes,
		Presets:        presets,
		Exporter:       export.NewExporter(themes, measurer),
		Version:        Version,
		MaxUploadBytes: cfg.GetMaxUploadBytes(),
		WSMaxMessageKB: cfg.Advanced.WebSocketMaxMessageSize,
	})

	e := echo.New()
	e.HideBanner = true

	api.SetupMiddleware(e, api.MiddlewareOptions{
		AllowOrigins:   cfg.GetAllowOrigins(),
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		BodyLimit:      cfg.Server.BodyLimit,
		Compression:    cfg.Processing.EnableCompression,
	})

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/ws") ||
				strings.HasSuffix(path, "/progress") ||
				strings.HasSuffix(path, "/download") ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
		ErrorMessage: "Request timeout",
	}))

	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		} else {
			fmt.Println("Serving embedded editor from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           CertStudio Certificate Server                   ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Presets:    %-45s║\n", presetBackend)
	fmt.Printf("║  Row Index:  %-45s║\n", cfg.Advanced.RowIndexBackend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}

// openPresets layers the built-in presets under the configured user store.
// An unreachable redis falls back to the preset directory.
func openPresets(cfg *config.AppConfig) (*layout.Catalog, string) {
	if strings.EqualFold(cfg.Presets.Backend, "redis") {
		client := layout.NewRedisClient(layout.RedisOptions{
			Addr:     cfg.Presets.RedisAddress,
			Password: cfg.Presets.RedisPassword,
			DB:       cfg.Presets.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := client.Ping(ctx).Err()
		if err == nil {
			return layout.NewCatalog(layout.NewRedisStore(client, cfg.Presets.RedisPrefix)), "redis " + cfg.Presets.RedisAddress
		}
		fmt.Printf("Warning: redis %s unreachable, using preset directory: %v\n", cfg.Presets.RedisAddress, err)
		client.Close()
	}

	store, err := layout.NewFileStore(cfg.Storage.PresetsDirectory)
	if err != nil {
		fmt.Printf("Warning: preset directory unavailable, built-in presets only: %v\n", err)
		return layout.NewCatalog(nil), "built-in"
	}
	return layout.NewCatalog(store), "file"
}
