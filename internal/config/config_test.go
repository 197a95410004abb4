package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcx-health/scanbar/internal/decode"
)

func newTestLoader() *Loader {
	return &Loader{v: viper.New()}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := newTestLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1200, cfg.Pipeline.MaxWidth)
	assert.True(t, cfg.Pipeline.TryHarder)
	assert.Empty(t, cfg.Pipeline.Formats)

	assert.True(t, cfg.Resolver.Enabled)
	assert.Equal(t, "https://world.openfoodfacts.org", cfg.Resolver.BaseURL)
	assert.Equal(t, 15, cfg.Resolver.TimeoutSec)
	assert.Equal(t, 86400, cfg.Resolver.CacheTTLSec)

	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, 256, cfg.Audit.BufferSize)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Server.MaxUploadMB)
	assert.False(t, cfg.Server.RateLimitEnabled)
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scanbar.yaml")
	content := `
log_level: debug
pipeline:
  max_width: 800
  formats: ["ean13", "upca"]
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 800, cfg.Pipeline.MaxWidth)
	assert.Equal(t, []string{"ean13", "upca"}, cfg.Pipeline.Formats)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, 50, cfg.Server.MaxUploadMB)
}

func TestLoadWithMissingFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile("/nonexistent/scanbar.yaml")
	assert.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("SCANBAR_SERVER_PORT", "9999")
	t.Setenv("SCANBAR_LOG_LEVEL", "warn")

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := newTestLoader().Load()
		require.NoError(t, err)
		return cfg
	}

	cfg := base(t)
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Pipeline.MaxWidth = 0
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Pipeline.Formats = []string{"qr"}
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Server.MaxUploadMB = 0
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Resolver.TimeoutSec = 0
	assert.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Audit.Enabled = true
	cfg.Audit.DBPath = ""
	assert.Error(t, cfg.Validate())
}

func TestDecodeFormats(t *testing.T) {
	cfg, err := newTestLoader().Load()
	require.NoError(t, err)

	assert.Len(t, cfg.DecodeFormats(), 7, "empty list selects every symbology")

	cfg.Pipeline.Formats = []string{"ean13", "code128"}
	formats := cfg.DecodeFormats()
	assert.Equal(t, []decode.Format{decode.FormatEAN13, decode.FormatCode128}, formats)
}
