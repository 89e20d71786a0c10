package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "CLIA", cfg.Reconcile.KeyColumn)
	assert.Equal(t, "reject", cfg.Reconcile.BaselineDuplicates)
	assert.Zero(t, cfg.Reconcile.MaxClosedRatio)
	assert.Equal(t, ",", cfg.Input.Delimiter)
	assert.False(t, cfg.Input.Headerless)
	assert.Equal(t, 4, cfg.Input.Concurrency)
	assert.Equal(t, "Output", cfg.Output.Dir)
	assert.Equal(t, "clia", cfg.Output.Prefix)
	assert.Equal(t, 20, cfg.Output.MaxRows)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "registry", cfg.Storage.Bucket)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()

	yamlBody := "output:\n  max_rows: 5\n  prefix: from_yaml\nreconcile:\n  key_column: LAB_ID\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OUTPUT_PREFIX=from_env_file\n"), 0o644))

	// Registered with t.Setenv so values set by the .env file are restored.
	t.Setenv("OUTPUT_PREFIX", "")
	t.Setenv("INPUT_HEADERLESS", "true")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Output.MaxRows)
	assert.Equal(t, "from_env_file", cfg.Output.Prefix)
	assert.Equal(t, "LAB_ID", cfg.Reconcile.KeyColumn)
	assert.True(t, cfg.Input.Headerless)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output: [unclosed"), 0o644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
