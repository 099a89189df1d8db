package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv removes keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad(t *testing.T) {
	t.Run("Uses the defaults", func(t *testing.T) {
		unsetenv(t, "CHESSTEMPO_URL", "CHESSTEMPO_DELAY", "CHESSTEMPO_NO_CLEAR", "CHESSTEMPO_JOURNAL")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:9999/api", cfg.BaseURL)
		assert.Equal(t, time.Second, cfg.Delay)
		assert.False(t, cfg.NoClear)
		assert.Empty(t, cfg.Journal)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Reads the environment", func(t *testing.T) {
		t.Setenv("CHESSTEMPO_URL", "http://games.local:8080/api")
		t.Setenv("CHESSTEMPO_DELAY", "250ms")
		t.Setenv("CHESSTEMPO_NO_CLEAR", "true")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "http://games.local:8080/api", cfg.BaseURL)
		assert.Equal(t, 250*time.Millisecond, cfg.Delay)
		assert.True(t, cfg.NoClear)
	})

	t.Run("Reads a YAML file", func(t *testing.T) {
		unsetenv(t, "CHESSTEMPO_URL", "CHESSTEMPO_JOURNAL")

		path := filepath.Join(t.TempDir(), "chesstempo.yaml")
		require.NoError(t, os.WriteFile(path, []byte("url: http://10.0.0.2:9999/api\njournal: games.db\n"), 0o600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "http://10.0.0.2:9999/api", cfg.BaseURL)
		assert.Equal(t, "games.db", cfg.Journal)
	})

	t.Run("Fails on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{BaseURL: "not a url", Verbosity: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{BaseURL: "http://127.0.0.1:9999/api", Delay: -time.Second}
	assert.Error(t, cfg.Validate())

	cfg = &Config{BaseURL: "http://127.0.0.1:9999/api", Verbosity: 11}
	assert.Error(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(buf, 1)

	log.V(1).Info("Move submitted", "move", "e2e4")
	log.V(2).Info("Response body")

	assert.Contains(t, buf.String(), "chesstempo: ")
	assert.Contains(t, buf.String(), `"msg"="Move submitted"`)
	assert.Contains(t, buf.String(), `"move"="e2e4"`)
	assert.NotContains(t, buf.String(), "Response body")

	NewLogger(buf, 0)
}
