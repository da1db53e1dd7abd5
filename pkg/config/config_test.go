package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Contains(t, cfg.Search.URLTemplate, "%s")
	assert.NotEmpty(t, cfg.Search.UserAgent)
	assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Download.Timeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
search:
  timeout: 20s
download:
  timeout: 5s
  downloads_per_minute: 30
server:
  addr: ":9090"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 20*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 30, cfg.Download.DownloadsPerMinute)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DOWLOADIMG_OUTPUT_DIR", "/data/images")
	t.Setenv("DOWLOADIMG_SERVERLESS", "true")
	t.Setenv("DOWLOADIMG_DOWNLOAD_TIMEOUT", "8s")
	t.Setenv("DOWLOADIMG_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/data/images", cfg.Output.BaseDirectory)
	assert.True(t, cfg.Output.Serverless)
	assert.Equal(t, 8*time.Second, cfg.Download.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url template", func(c *Config) { c.Search.URLTemplate = "" }},
		{"template without placeholder", func(c *Config) { c.Search.URLTemplate = "https://example.com/search" }},
		{"zero search timeout", func(c *Config) { c.Search.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.Search.MaxRetries = -1 }},
		{"zero download timeout", func(c *Config) { c.Download.Timeout = 0 }},
		{"download timeout above cap", func(c *Config) { c.Download.Timeout = 20 * time.Second }},
		{"zero pace", func(c *Config) { c.Download.DownloadsPerMinute = 0 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":7070"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, ":7070", loaded.Server.Addr)
}
