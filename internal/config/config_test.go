package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	c := Get()
	assert.Equal(t, DefaultBaseURL, c.GoogleBooks.BaseURL)
	assert.Equal(t, 15*time.Second, c.Network.ConnectTimeout)
	assert.Equal(t, 10*time.Second, c.Network.ReadTimeout)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
	assert.True(t, c.History.Enabled)
	assert.Equal(t, 20, c.History.Limit)
}

func TestInitReadsConfigFile(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`google_books:
  base_url: http://localhost:9999/volumes
network:
  read_timeout: 3s
history:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	require.NoError(t, Init(path))
	c := Get()
	assert.Equal(t, "http://localhost:9999/volumes", c.GoogleBooks.BaseURL)
	assert.Equal(t, 3*time.Second, c.Network.ReadTimeout)
	assert.Equal(t, 15*time.Second, c.Network.ConnectTimeout)
	assert.False(t, c.History.Enabled)
}

func TestEnvOverride(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("BOOKSEARCH_LOG_LEVEL", "debug")

	require.NoError(t, Init(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Equal(t, "debug", Get().Log.Level)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs/x.log"), expandPath("~/logs/x.log"))
	assert.Equal(t, "/var/log/x.log", expandPath("/var/log/x.log"))
}
