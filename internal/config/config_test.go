package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the overrides for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvEco, EnvPort, EnvHost, EnvLogLevel, EnvJournal} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if !cfg.EcoEnabled() {
		t.Fatalf("eco mode should default to enabled")
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Fatalf("expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoadParsesYaml(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "stradmind.yaml")
	body := strings.TrimSpace(`
version: 1
server:
  host: 127.0.0.1
  port: 9100
  read_timeout: 3s
eco: false
log:
  level: DEBUG
journal:
  path: /tmp/ritual.log
`)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9100 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Fatalf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Fatalf("write timeout default not applied: %s", cfg.Server.WriteTimeout)
	}
	if cfg.EcoEnabled() {
		t.Fatalf("eco should be disabled by file")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level should be normalized, got %q", cfg.Log.Level)
	}
	if cfg.Journal.Path != "/tmp/ritual.log" {
		t.Fatalf("journal path = %q", cfg.Journal.Path)
	}
}

func TestLoadValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "stradmind.yaml")
	require.NoError(t, WriteDefault(path))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.True(t, cfg.EcoEnabled())
	assert.Empty(t, cfg.Journal.Path)

	require.NoError(t, os.WriteFile(path, []byte("version: 1\nserver:\n  port: 7000\n"), 0644))
	require.NoError(t, WriteDefault(path), "existing file must be kept")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Run("PORT and HOST override file values", func(t *testing.T) {
		t.Setenv(EnvPort, "9001")
		t.Setenv(EnvHost, "127.0.0.1")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 9001, cfg.Server.Port)
		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	})

	t.Run("invalid PORT is ignored", func(t *testing.T) {
		t.Setenv(EnvPort, "99999")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPort, cfg.Server.Port)
	})

	t.Run("ECO accepts 1/true/yes", func(t *testing.T) {
		for _, value := range []string{"1", "true", "TRUE", "yes", " Yes "} {
			t.Setenv(EnvEco, value)
			cfg, err := Load("")
			require.NoError(t, err)
			assert.True(t, cfg.EcoEnabled(), value)
		}
	})

	t.Run("ECO anything else disables", func(t *testing.T) {
		for _, value := range []string{"0", "false", "no", "off", ""} {
			t.Setenv(EnvEco, value)
			cfg, err := Load("")
			require.NoError(t, err)
			assert.False(t, cfg.EcoEnabled(), value)
		}
	})

	t.Run("log level and journal", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "warn")
		t.Setenv(EnvJournal, "/var/log/ritual.log")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "/var/log/ritual.log", cfg.Journal.Path)
	})
}
