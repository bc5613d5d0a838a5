package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalYAML = `
telegram:
  token: test-token
web:
  base_url: https://dl.example.com
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, []int64{defaultAdminID}, cfg.Core.Telegram.Admins)
	assert.Equal(t, 20, cfg.Catalog.FetchLimit)
	assert.Equal(t, 5, cfg.Catalog.PageSize)
	assert.Equal(t, 2, cfg.Catalog.MinNameLen)
	assert.Equal(t, 10, cfg.Catalog.MinDescLen)
	assert.False(t, cfg.Catalog.SkipConfirmation)
	assert.Equal(t, 10, cfg.Session.SweepIntervalMinutes)
	assert.Equal(t, 30, cfg.Session.MaxIdleMinutes)
	assert.Equal(t, "longpoll", cfg.Core.Telegram.RunMode)
}

func TestLoadYAMLOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: test-token
  admins: [1, 2, 3]
web:
  base_url: https://dl.example.com
http:
  port: 8080
catalog:
  page_size: 7
  skip_confirmation: true
session:
  max_idle_minutes: 45
`))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, cfg.Core.Telegram.Admins)
	assert.True(t, cfg.Core.Telegram.IsAdmin(2))
	assert.False(t, cfg.Core.Telegram.IsAdmin(99))
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 7, cfg.Catalog.PageSize)
	assert.True(t, cfg.Catalog.SkipConfirmation)
	assert.Equal(t, 45, cfg.Session.MaxIdleMinutes)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ADMINS", "11,22")
	t.Setenv("WEB_URL", "https://env.example.com")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, []int64{11, 22}, cfg.Core.Telegram.Admins)
	assert.Equal(t, "https://env.example.com", cfg.Web.BaseURL)
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	_, err := Load(writeConfig(t, "web:\n  base_url: https://x.example.com\n"))
	assert.Error(t, err, "token required")

	_, err = Load(writeConfig(t, "telegram:\n  token: tok\n"))
	assert.Error(t, err, "web url required")
}
