package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
env: prod
server:
  port: "9090"
  request_timeout: 3s
store:
  backend: sqlite
  sqlite_path: /tmp/wedmatch.db
settings:
  interaction.super_like_daily_cap: "7"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 7, NewSettings(cfg.Settings).GetInt("interaction.super_like_daily_cap", 5))
}

func TestValidateRejectsMissingBackendParams(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "postgres"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PostgresDSN")
}

func TestSettingsEnvWinsOverMap(t *testing.T) {
	s := NewSettings(map[string]string{"interaction.max_scan": "100", "interaction.flag": "yes?"})
	assert.Equal(t, 100, s.GetInt("interaction.max_scan", 2000))
	t.Setenv("SETTING_INTERACTION_MAX_SCAN", "50")
	assert.Equal(t, 50, s.GetInt("interaction.max_scan", 2000))
	assert.Equal(t, 9, s.GetInt("missing.key", 9))
	assert.True(t, s.GetBool("interaction.flag", true))
}
