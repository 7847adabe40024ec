package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/all_data.csv", cfg.Dataset.SourceURI)
	assert.Equal(t, "2006-01-02 15:04:05", cfg.Dataset.TimestampLayout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "reports", cfg.Export.OutputDir)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("SHOPPULSE_SERVER_PORT", "9090")
	t.Setenv("SHOPPULSE_DATASET_SOURCE_URI", "https://example.com/orders.csv")
	t.Setenv("SHOPPULSE_LOGGING_LEVEL", "debug")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://example.com/orders.csv", cfg.Dataset.SourceURI)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 3000
dataset:
  source_uri: file.csv
  timestamp_layout: "2006-01-02 15:04:05"
logging:
  level: warn
  output: stdout
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	cfg, err := LoadFromFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "file.csv", cfg.Dataset.SourceURI)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromFile_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 3000\n"), 0644))

	t.Setenv("SHOPPULSE_SERVER_PORT", "4000")

	cfg, err := LoadFromFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestLoadFromFile_InvalidLevel(t *testing.T) {
	t.Setenv("SHOPPULSE_LOGGING_LEVEL", "loud")

	_, err := LoadFromFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromFile_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server: [not a map"), 0644))

	_, err := LoadFromFile(configFile)
	require.Error(t, err)
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Port: 8081}
	assert.Equal(t, ":8081", s.Addr())
}
