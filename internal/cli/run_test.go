package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spindle/internal/trace"
)

func TestRun_DemoLoopWithJournal(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "journal.db")
	cfgPath := filepath.Join(dir, "spindle.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
capacity: 4
timeout: 50ms
period: 10ms
cycles: 3
journal: `+journal+`
`), 0o644))

	stdout, _, err := execute(t, "run", "--config", cfgPath, "--trace-name", "smoke")
	require.NoError(t, err)
	assert.Contains(t, stdout, "spun 3 cycles")
	assert.Contains(t, stdout, `journaled trace "smoke"`)

	store, err := trace.Open(journal)
	require.NoError(t, err)
	defer store.Close()
	events, err := store.ReadTrace(context.Background(), "smoke")
	require.NoError(t, err)
	assert.NotEmpty(t, events, "the run journaled its dispatch trace")
}

func TestRun_BadConfigSurfaces(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("capacity: -1\n"), 0o644))
	_, _, err := execute(t, "run", "--config", cfgPath)
	assert.Error(t, err)
}
