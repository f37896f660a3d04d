package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psxscraper/browser"
	"psxscraper/config"
	"psxscraper/httpfetch"
)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psxscraper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))
	c, err := config.LoadFromFile(path)
	require.NoError(t, err)
	return c
}

func flagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestApplyFlags(t *testing.T) {
	c := loadTestConfig(t)
	dir := t.TempDir()

	cmd := flagCommand(t, "--renderer", "http", "--output-dir", dir, "--url", "http://localhost/indices", "--log-level", "debug")
	require.NoError(t, applyFlags(cmd, c))

	assert.Equal(t, config.RendererHTTP, c.Renderer)
	assert.Equal(t, dir, c.OutputDir)
	assert.Equal(t, "http://localhost/indices", c.URL)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestApplyFlagsKeepsUnsetValues(t *testing.T) {
	c := loadTestConfig(t)
	url := c.URL

	require.NoError(t, applyFlags(flagCommand(t), c))
	assert.Equal(t, url, c.URL)
	assert.Equal(t, config.RendererBrowser, c.Renderer)
}

func TestApplyFlagsRejectsUnknownRenderer(t *testing.T) {
	c := loadTestConfig(t)
	assert.Error(t, applyFlags(flagCommand(t, "--renderer", "curl"), c))
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, l.GetLevel())

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestNewRenderer(t *testing.T) {
	c := loadTestConfig(t)
	logger := log.New(io.Discard)

	assert.IsType(t, &browser.Renderer{}, newRenderer(c, logger))

	c.Renderer = config.RendererHTTP
	assert.IsType(t, &httpfetch.Client{}, newRenderer(c, logger))
}

func TestNewAppWithoutCache(t *testing.T) {
	c := loadTestConfig(t)
	c.OutputDir = filepath.Join(t.TempDir(), "out")

	a, err := newApp(context.Background(), c, log.New(io.Discard))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.cache)
	assert.Equal(t, filepath.Join(c.OutputDir, "kse100_index.csv"), a.store.Path(c.IndexFile))
}
