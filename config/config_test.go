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
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 4, cfg.Scan.RegionConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Scan.ProbeTimeout)
	assert.Equal(t, StoreDynamoDB, cfg.Store.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":9000"
aws:
  region: eu-west-1
scan:
  region_concurrency: 2
  probe_timeout: 10s
store:
  backend: bolt
  bolt_path: /tmp/scans.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, 2, cfg.Scan.RegionConcurrency)
	assert.Equal(t, 10*time.Second, cfg.Scan.ProbeTimeout)
	assert.Equal(t, StoreBolt, cfg.Store.Backend)
	// Unset fields keep defaults
	assert.Equal(t, 3, cfg.Scan.ProbeRetries)
	assert.Equal(t, 2*time.Minute, cfg.Scan.RecommendTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CLOUDPILLAR_DYNAMODB_TABLE", "ScansOverride")
	path := writeConfig(t, `
store:
  backend: dynamodb
  table: Scans
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ScansOverride", cfg.Store.Table)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Scan.RegionConcurrency = 0 }},
		{"zero probe timeout", func(c *Config) { c.Scan.ProbeTimeout = 0 }},
		{"zero retries", func(c *Config) { c.Scan.ProbeRetries = 0 }},
		{"missing region", func(c *Config) { c.AWS.Region = "" }},
		{"missing table", func(c *Config) { c.Store.Table = "" }},
		{"bolt without path", func(c *Config) { c.Store.Backend = StoreBolt }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
