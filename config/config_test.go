package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psxscraper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFileDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := LoadFromFile(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://dps.psx.com.pk/indices", cfg.URL)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "kse100_index.csv", cfg.IndexFile)
	assert.Equal(t, "kse100_constituents.csv", cfg.ConstituentsFile)
	assert.Equal(t, RendererBrowser, cfg.Renderer)
	assert.True(t, cfg.Progress)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10*time.Second, cfg.Browser.SettleDelay)
	assert.Equal(t, 20*time.Second, cfg.Browser.WaitTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Empty(t, cfg.Cache.Addr)
	assert.Zero(t, cfg.Cache.TTL)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultLayout, cfg.Layout)
}

func TestLoadFromFileOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, `
renderer: http
output_dir: /tmp/psx
browser:
  settle_delay: 2s
  wait_timeout: 45s
cache:
  addr: localhost:6379
  ttl: 5m
server:
  port: 9090
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, RendererHTTP, cfg.Renderer)
	assert.Equal(t, "/tmp/psx", cfg.OutputDir)
	assert.Equal(t, 2*time.Second, cfg.Browser.SettleDelay)
	assert.Equal(t, 45*time.Second, cfg.Browser.WaitTimeout)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PSX_BROWSER_WAIT_TIMEOUT", "1m")
	t.Setenv("PSX_LOG_LEVEL", "debug")

	cfg, err := LoadFromFile(writeConfig(t, "browser:\n  wait_timeout: 5s\n"))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Browser.WaitTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestPortEnv(t *testing.T) {
	t.Setenv("PORT", "7070")
	cfg, err := LoadFromFile(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)

	t.Setenv("PORT", "not-a-port")
	_, err = LoadFromFile(writeConfig(t, "{}\n"))
	assert.Error(t, err)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("PORT", "")

	tests := []struct {
		name string
		body string
	}{
		{"unknown renderer", "renderer: selenium\n"},
		{"unknown layout", "layout: lse\n"},
		{"zero wait timeout", "browser:\n  wait_timeout: 0s\n"},
		{"negative settle delay", "browser:\n  settle_delay: -1s\n"},
		{"empty url", "url: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestResolveLayout(t *testing.T) {
	layout, err := ResolveLayout(DefaultLayoutName)
	require.NoError(t, err)
	assert.Equal(t, "KSE100", layout.Index.Marker)
	assert.Equal(t, 7, layout.Constituents.MinCells)
	assert.Equal(t, 7, layout.Constituents.Volume)
	assert.Equal(t, 9, layout.Constituents.MarketCap)

	_, err = ResolveLayout("missing")
	assert.Error(t, err)
}
