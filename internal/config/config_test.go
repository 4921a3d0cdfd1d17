package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spindle/internal/executor"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Capacity)
	assert.Equal(t, executor.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "rclcpp", cfg.Semantics)
	assert.Equal(t, "any", cfg.Trigger)
	assert.Equal(t, 100*time.Millisecond, cfg.Period)
	assert.Equal(t, 10, cfg.Cycles)
	assert.Empty(t, cfg.Journal)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
capacity: 16
timeout: 250ms
semantics: let
trigger: all
period: 20ms
cycles: 3
journal: /tmp/journal.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Capacity)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "let", cfg.Semantics)
	assert.Equal(t, "all", cfg.Trigger)
	assert.Equal(t, 20*time.Millisecond, cfg.Period)
	assert.Equal(t, 3, cfg.Cycles)
	assert.Equal(t, "/tmp/journal.db", cfg.Journal)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 0\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("semantics: quantum\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("trigger: sometimes\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestConfig_Values(t *testing.T) {
	cfg := Default()

	s, err := cfg.SemanticsValue()
	require.NoError(t, err)
	assert.Equal(t, executor.SemanticsRclcppLike, s)

	cfg.Semantics = "let"
	s, err = cfg.SemanticsValue()
	require.NoError(t, err)
	assert.Equal(t, executor.SemanticsLET, s)

	trig, err := cfg.TriggerValue()
	require.NoError(t, err)
	assert.NotNil(t, trig)
}

func TestConfig_Options(t *testing.T) {
	cfg := Default()
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	cfg.Trigger = "bogus"
	_, err = cfg.Options()
	assert.Error(t, err)
}
