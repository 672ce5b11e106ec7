package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "importq.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, "127.0.0.1:8250", cfg.Server.Addr)
	assert.Equal(t, "gemini-2.5-flash", cfg.Insights.Model)
	assert.Equal(t, 10, cfg.Insights.MaxSampleRows)
	assert.False(t, cfg.Insights.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log-level = "debug"
seq-url = "http://localhost:5341"

[store]
kind = "sqlite"
path = "/var/lib/importq/tables.db"

[server]
addr = "0.0.0.0:9000"

[insights]
enabled = true
api-key-env = "MY_KEY"

[query]
max-rows = 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:5341", cfg.SeqURL)
	assert.Equal(t, StoreSQLite, cfg.Store.Kind)
	assert.Equal(t, "/var/lib/importq/tables.db", cfg.Store.Path)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.True(t, cfg.Insights.Enabled)
	assert.Equal(t, "MY_KEY", cfg.Insights.APIKeyEnv)
	assert.Equal(t, "gemini-2.5-flash", cfg.Insights.Model, "unset keys keep defaults")
	assert.Equal(t, 500, cfg.Query.MaxRows)
}

func TestLoadDefaultsStorePath(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[store]\nkind = \"json\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Store.Path)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "log-levle = \"debug\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log-levle")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log-level"},
		{"bad store", func(c *Config) { c.Store.Kind = "redis" }, "invalid store kind"},
		{"json without path", func(c *Config) { c.Store.Kind = StoreJSON; c.Store.Path = "" }, "requires a path"},
		{"bad addr", func(c *Config) { c.Server.Addr = "localhost" }, "bad server addr"},
		{"negative max rows", func(c *Config) { c.Query.MaxRows = -1 }, "max-rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("IMPORTQ_TEST_KEY", "secret")
	cfg := Default()
	cfg.Insights.APIKeyEnv = "IMPORTQ_TEST_KEY"
	assert.Equal(t, "secret", cfg.Insights.APIKey())
}

func TestExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "importq.example.toml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StoreSQLite, cfg.Store.Kind)
	assert.Equal(t, "importq.db", cfg.Store.Path)
	assert.Equal(t, 10000, cfg.Query.MaxRows)
	assert.Empty(t, cfg.SeqURL)
}
