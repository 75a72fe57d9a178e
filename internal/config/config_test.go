package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "havenclean.db", cfg.Database.Path)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Sweeper.IntervalDuration())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
database:
  path: /var/lib/havenclean/data.db
sweeper:
  enabled: true
  interval: 30m
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/havenclean/data.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Sweeper.IntervalDuration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("HAVENCLEAN_TEST_DB_DIR", "/tmp/haven")
	path := writeConfig(t, `
database:
  path: $HAVENCLEAN_TEST_DB_DIR/data.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/haven/data.db", cfg.Database.Path)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("HAVENCLEAN_ADDR", ":7070")
	t.Setenv("HAVENCLEAN_LOG_LEVEL", "warn")
	path := writeConfig(t, `
server:
  addr: ":9090"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestNATSEnvEnablesEvents(t *testing.T) {
	t.Setenv("HAVENCLEAN_NATS_URL", "nats://broker:4222")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "nats://broker:4222", cfg.Events.URL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad log level", "logging:\n  level: verbose\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"sweeper interval too short", "sweeper:\n  enabled: true\n  interval: 5s\n"},
		{"empty addr", "server:\n  addr: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
