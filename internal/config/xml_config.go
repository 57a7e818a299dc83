// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"CertStudio"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Preview and sync timing
	Preview PreviewConfig `xml:"Preview"`

	// Layout preset backend
	Presets PresetsConfig `xml:"Presets"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	ExportsDirectory string `xml:"ExportsDirectory"`
	TempDirectory    string `xml:"TempDirectory"`
	PresetsDirectory string `xml:"PresetsDirectory"`
	ThemeFile        string `xml:"ThemeFile"`
	MaxUploadSizeMB  int    `xml:"MaxUploadSizeMB"`
}

// PreviewConfig contains preview geometry and sync timing
type PreviewConfig struct {
	ReferenceWidth  float64 `xml:"ReferenceWidth"`
	DebounceMs      int     `xml:"DebounceMs"`
	FrameIntervalMs int     `xml:"FrameIntervalMs"`
}

// PresetsConfig selects where user presets are stored
type PresetsConfig struct {
	Backend       string `xml:"Backend"` // "file" or "redis"
	RedisAddress  string `xml:"RedisAddress"`
	RedisPassword string `xml:"RedisPassword"`
	RedisDB       int    `xml:"RedisDB"`
	RedisPrefix   string `xml:"RedisPrefix"`
}

// ProcessingConfig contains batch and export settings
type ProcessingConfig struct {
	MaxBatches             int  `xml:"MaxBatches"`
	BatchTimeoutMinutes    int  `xml:"BatchTimeoutMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	MaxConcurrentExports   int  `xml:"MaxConcurrentExports"`
	ExportRetentionMinutes int  `xml:"ExportRetentionMinutes"`
	EnableCompression      bool `xml:"EnableCompression"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	RowIndexBackend         string `xml:"RowIndexBackend"` // "memory" or "duckdb"
	DuckDBMemoryLimit       string `xml:"DuckDBMemoryLimit"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			ExportsDirectory: "./data/exports",
			TempDirectory:    "./data/temp",
			PresetsDirectory: "./data/presets",
			ThemeFile:        "",
			MaxUploadSizeMB:  32,
		},
		Preview: PreviewConfig{
			ReferenceWidth:  800,
			DebounceMs:      50,
			FrameIntervalMs: 16,
		},
		Presets: PresetsConfig{
			Backend:     "file",
			RedisPrefix: "certstudio:",
		},
		Processing: ProcessingConfig{
			MaxBatches:             10,
			BatchTimeoutMinutes:    60,
			CleanupIntervalMinutes: 5,
			MaxConcurrentExports:   2,
			ExportRetentionMinutes: 60,
			EnableCompression:      true,
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			RowIndexBackend:         "memory",
			DuckDBMemoryLimit:       "256MB",
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Unmarshal over the defaults so missing elements keep them
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- CertStudio Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the server cannot run with
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch strings.ToLower(c.Presets.Backend) {
	case "", "file":
	case "redis":
		if c.Presets.RedisAddress == "" {
			return fmt.Errorf("redis preset backend needs a RedisAddress")
		}
	default:
		return fmt.Errorf("unknown preset backend %q", c.Presets.Backend)
	}
	switch strings.ToLower(c.Advanced.RowIndexBackend) {
	case "", "memory", "duckdb":
	default:
		return fmt.Errorf("unknown row index backend %q", c.Advanced.RowIndexBackend)
	}
	if c.Preview.ReferenceWidth <= 0 {
		return fmt.Errorf("preview reference width must be positive, got %v", c.Preview.ReferenceWidth)
	}
	if c.Preview.DebounceMs < 0 || c.Preview.FrameIntervalMs < 0 {
		return fmt.Errorf("preview timings must not be negative")
	}
	if c.Processing.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %d minutes", c.Processing.CleanupIntervalMinutes)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every directory still under the default data root
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		old := c.Storage.DataDirectory
		c.Storage.DataDirectory = dataDir
		for _, dir := range []*string{&c.Storage.UploadsDirectory, &c.Storage.ExportsDirectory, &c.Storage.TempDirectory, &c.Storage.PresetsDirectory} {
			if rel, err := filepath.Rel(old, *dir); err == nil && !strings.HasPrefix(rel, "..") {
				*dir = filepath.Join(dataDir, rel)
			}
		}
	}

	if presetsDir := os.Getenv("PRESETS_DIR"); presetsDir != "" {
		c.Storage.PresetsDirectory = presetsDir
	}

	// REDIS_ADDR switches presets to redis
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Presets.Backend = "redis"
		c.Presets.RedisAddress = addr
	}

	if backend := os.Getenv("ROW_INDEX"); backend != "" {
		c.Advanced.RowIndexBackend = backend
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, dir := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.ExportsDirectory,
		&c.Storage.TempDirectory,
		&c.Storage.PresetsDirectory,
		&c.Storage.ThemeFile,
	} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(configDir, *dir)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetAllowOrigins splits the comma-separated origin list
func (c *AppConfig) GetAllowOrigins() []string {
	if !c.Server.EnableCORS {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

// GetMaxUploadBytes returns the upload limit in bytes
func (c *AppConfig) GetMaxUploadBytes() int64 {
	return int64(c.Storage.MaxUploadSizeMB) << 20
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.ExportsDirectory,
		c.Storage.TempDirectory,
		c.Storage.PresetsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
