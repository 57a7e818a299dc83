package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CertStudio.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 800.0, cfg.Preview.ReferenceWidth)
	assert.Equal(t, 50, cfg.Preview.DebounceMs)
	assert.Equal(t, "file", cfg.Presets.Backend)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, int64(32<<20), cfg.GetMaxUploadBytes())

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.PresetsDirectory)
	assert.DirExists(t, cfg.Storage.ExportsDirectory)
}

func TestLoadConfigKeepsDefaultsForMissingElements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CertStudio.config")
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<CertStudio>
  <Server><Port>9100</Port></Server>
  <Advanced><RowIndexBackend>duckdb</RowIndexBackend></Advanced>
</CertStudio>`
	require.NoError(t, os.WriteFile(path, []byte(xmlDoc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "duckdb", cfg.Advanced.RowIndexBackend)
	assert.Equal(t, 16, cfg.Preview.FrameIntervalMs)
	assert.Equal(t, 10, cfg.Processing.MaxBatches)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CertStudio.config")
	dataDir := t.TempDir()
	t.Setenv("PORT", "9200")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ROW_INDEX", "duckdb")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dataDir, "uploads"), cfg.GetUploadDir())
	assert.Equal(t, "redis", cfg.Presets.Backend)
	assert.Equal(t, "localhost:6379", cfg.Presets.RedisAddress)
	assert.Equal(t, "duckdb", cfg.Advanced.RowIndexBackend)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Presets.Backend = "redis"
	assert.Error(t, cfg.Validate())
	cfg.Presets.RedisAddress = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg.Advanced.RowIndexBackend = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Processing.CleanupIntervalMinutes = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Preview.ReferenceWidth = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigRejectsZeroCleanupInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CertStudio.config")
	xmlDoc := `<CertStudio><Processing><CleanupIntervalMinutes>0</CleanupIntervalMinutes></Processing></CertStudio>`
	require.NoError(t, os.WriteFile(path, []byte(xmlDoc), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetAllowOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.AllowOrigins = " http://a.test , ,http://b.test"
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetAllowOrigins())

	cfg.Server.AllowOrigins = ""
	assert.Equal(t, []string{"*"}, cfg.GetAllowOrigins())

	cfg.Server.EnableCORS = false
	assert.Nil(t, cfg.GetAllowOrigins())
}
