package hubconfig_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnet/hub/internal/hubconfig"
)

func TestLoad_Defaults(t *testing.T) {
	tmp := t.TempDir()
	cfg, err := hubconfig.Load([]string{
		"-data-dir", filepath.Join(tmp, "data"),
		"-shared-dir", filepath.Join(tmp, "shared"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfg, err := hubconfig.Load([]string{
		"-port", "8080",
		"-log-level", "debug",
		"-data-dir", filepath.Join(tmp, "data"),
		"-shared-dir", filepath.Join(tmp, "shared"),
	})
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidPortRejected(t *testing.T) {
	tmp := t.TempDir()
	_, err := hubconfig.Load([]string{
		"-port", "70000",
		"-data-dir", filepath.Join(tmp, "data"),
		"-shared-dir", filepath.Join(tmp, "shared"),
	})
	require.Error(t, err)
}

func TestDBPath(t *testing.T) {
	tmp := t.TempDir()
	cfg, err := hubconfig.Load([]string{
		"-data-dir", filepath.Join(tmp, "data"),
		"-shared-dir", filepath.Join(tmp, "shared"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "data", "hub.db"), cfg.DBPath())
}
