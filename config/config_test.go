package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "random", cfg.Strategy)
}

func TestLoadDecodesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: pct\nnumber_of_iterations: 50\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pct", cfg.Strategy)
	assert.Equal(t, 50, cfg.NumberOfIterations)
}

func TestLoadDecodesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weave.toml")
	require.NoError(t, os.WriteFile(path, []byte("strategy = \"probabilistic\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "probabilistic", cfg.Strategy)
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weave.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestLoadAppliesEnvOverridesOnTopOfFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: random\n"), 0o644))

	t.Setenv("WEAVE_STRATEGY", "pct")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pct", cfg.Strategy)
}
