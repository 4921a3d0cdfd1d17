package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEvents() []Event {
	return []Event{
		{Seq: 1, Cycle: 1, Op: OpWait, Detail: "ready"},
		{Seq: 2, Cycle: 1, Op: OpTrigger, Detail: "fired"},
		{Seq: 3, Cycle: 1, Op: OpTake, Kind: "subscription", Slot: 0},
		{Seq: 4, Cycle: 1, Op: OpExecute, Kind: "subscription", Slot: 0},
	}
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTrace(ctx, "run-1", sampleEvents()))

	got, err := s.ReadTrace(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, sampleEvents(), got)
}

func TestStore_WriteReplacesPriorTrace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTrace(ctx, "run", sampleEvents()))
	replacement := []Event{{Seq: 1, Cycle: 1, Op: OpWait, Detail: "timeout"}}
	require.NoError(t, s.WriteTrace(ctx, "run", replacement))

	got, err := s.ReadTrace(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
}

func TestStore_ReadMissingTrace(t *testing.T) {
	s := testStore(t)
	got, err := s.ReadTrace(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_WriteRequiresName(t *testing.T) {
	s := testStore(t)
	assert.Error(t, s.WriteTrace(context.Background(), "", nil))
}

func TestStore_ListTraces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTrace(ctx, "first", sampleEvents()))
	require.NoError(t, s.WriteTrace(ctx, "second", sampleEvents()[:2]))

	infos, err := s.ListTraces(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "second", infos[0].Name, "newest first")
	assert.Equal(t, 2, infos[0].Events)
	assert.Equal(t, "first", infos[1].Name)
	assert.Equal(t, 4, infos[1].Events)
}

func TestStore_OpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.WriteTrace(context.Background(), "keep", sampleEvents()))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.ReadTrace(context.Background(), "keep")
	require.NoError(t, err)
	assert.Len(t, got, 4, "reopening preserves stored traces")
}
