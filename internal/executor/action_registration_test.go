package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spindle/internal/action"
	"github.com/roach88/spindle/internal/mem"
)

// Registration of action endpoints uses the real in-memory transport:
// what matters here is the census arithmetic, which depends on the
// endpoint's reported sub-entity counts.

func actionFixtures(t *testing.T) (*mem.Transport, *mem.ActionServer, *mem.ActionClient) {
	t.Helper()
	tr := mem.NewTransport()
	t.Cleanup(tr.Shutdown)
	srv, err := tr.NewActionServer("act")
	require.NoError(t, err)
	cli, err := tr.NewActionClient("act")
	require.NoError(t, err)
	return tr, srv, cli
}

func clientCallbacks() action.ClientCallbacks {
	return action.ClientCallbacks{
		Goal:   func(*action.GoalHandle, bool, any) {},
		Result: func(*action.GoalHandle, any, any) {},
	}
}

func serverCallbacks() action.ServerCallbacks {
	return action.ServerCallbacks{
		Goal:   func(*action.GoalHandle, any) action.GoalDecision { return action.GoalAccepted },
		Cancel: func(*action.GoalHandle, any) bool { return true },
	}
}

func TestExecutor_AddActionClient_Census(t *testing.T) {
	tr, _, cli := actionFixtures(t)
	e, err := New(tr, 4)
	require.NoError(t, err)

	var result []byte
	engine, err := e.AddActionClient(cli, 2, &result, nil, clientCallbacks(), nil)
	require.NoError(t, err)
	require.NotNil(t, engine)

	assert.Equal(t, 1, e.Len())
	assert.Equal(t, 1, e.info.actionClients)
	// The endpoint's sub-entities feed the wait-set sizing.
	assert.Equal(t, 2, e.info.entities.Subscriptions)
	assert.Equal(t, 3, e.info.entities.Clients)
	assert.Equal(t, 2, engine.FreeGoalSlots())

	require.NoError(t, e.RemoveActionClient(cli))
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, 0, e.info.actionClients)
	assert.Equal(t, 0, e.info.entities.Subscriptions)
	assert.Equal(t, 0, e.info.entities.Clients)
}

func TestExecutor_AddActionServer_Census(t *testing.T) {
	tr, srv, _ := actionFixtures(t)
	e, err := New(tr, 4)
	require.NoError(t, err)

	requests := []any{&[]byte{}, &[]byte{}}
	engine, err := e.AddActionServer(srv, requests, serverCallbacks(), nil)
	require.NoError(t, err)
	require.NotNil(t, engine)

	assert.Equal(t, 1, e.info.actionServers)
	assert.Equal(t, 3, e.info.entities.Services)
	assert.Equal(t, 1, e.info.entities.Timers)
	assert.Equal(t, 2, engine.FreeGoalSlots())

	require.NoError(t, e.RemoveActionServer(srv))
	assert.Equal(t, 0, e.info.actionServers)
	assert.Equal(t, 0, e.info.entities.Services)
	assert.Equal(t, 0, e.info.entities.Timers)
}

func TestExecutor_AddActionClient_Validation(t *testing.T) {
	tr, _, cli := actionFixtures(t)
	e, err := New(tr, 4)
	require.NoError(t, err)

	_, err = e.AddActionClient(nil, 1, &[]byte{}, nil, clientCallbacks(), nil)
	assert.True(t, IsInvalidArgument(err))

	_, err = e.AddActionClient(cli, 0, &[]byte{}, nil, clientCallbacks(), nil)
	assert.True(t, IsInvalidArgument(err), "bad pool size surfaces as invalid argument")
	assert.Equal(t, 0, e.Len())
}
