package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
)

var (
	_ core.TaskStore = (*Store)(nil)
	_ core.Pinger    = (*Store)(nil)
)

func TestStore(t *testing.T) {
	testutil.RunTaskStoreSuite(t, func(t *testing.T) core.TaskStore {
		s, err := Open(MemoryPath)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	task, err := core.NewTask("durable", "survives restarts")
	require.NoError(t, err)
	_, err = s.Save(ctx, task.MarkComplete())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get(ctx, task.ID, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "durable", got.Title)
	assert.Equal(t, core.TaskCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestStore_PingAfterClose(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.KindStorage, core.KindOf(err))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}
