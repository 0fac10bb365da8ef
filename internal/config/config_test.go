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
	path := filepath.Join(t.TempDir(), "sub5.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefaults(t *testing.T) {
	d := Default()
	assert.Equal(t, 5*time.Minute, d.Dashboard.RefreshInterval)
	assert.Equal(t, 5*time.Second, d.Dashboard.SyncReloadDelay)
	assert.Equal(t, 5*time.Second, d.Dashboard.NotificationTTL)
	assert.Equal(t, 0, d.Dashboard.Retries)
	assert.Equal(t, 14, d.Server.DaysToSync)
	assert.NoError(t, d.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[dashboard]
base_url = "https://training.example.com"
refresh_interval = "1m"
locale = "en"
retries = 2

[server]
listen = "127.0.0.1:9000"
days_to_sync = 30
no_sync = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://training.example.com", cfg.Dashboard.BaseURL)
	assert.Equal(t, time.Minute, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, "en", cfg.Dashboard.Locale)
	assert.Equal(t, 2, cfg.Dashboard.Retries)
	assert.Equal(t, 5*time.Second, cfg.Dashboard.NotificationTTL, "unset keys keep defaults")
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, 30, cfg.Server.DaysToSync)
	assert.True(t, cfg.Server.NoSync)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax error", `[dashboard`},
		{"unknown key", "[dashboard]\ncolour = \"red\"\n"},
		{"bad url", "[dashboard]\nbase_url = \"localhost\"\n"},
		{"negative retries", "[dashboard]\nretries = -1\n"},
		{"zero refresh", "[dashboard]\nrefresh_interval = \"0s\"\n"},
		{"zero days", "[server]\ndays_to_sync = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
