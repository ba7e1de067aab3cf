package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["serve"])
	assert.True(t, names["scan"])
}

func TestLoadConfigDefaults(t *testing.T) {
	configPath = ""
	cfg, err := loadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 4, cfg.Scan.RegionConcurrency)
}

func TestLoadConfigMissingFile(t *testing.T) {
	configPath = "/nonexistent/config.yaml"
	defer func() { configPath = "" }()

	_, err := loadConfig()
	assert.Error(t, err)
}
