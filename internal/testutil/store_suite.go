package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
)

// RunTaskStoreSuite checks a core.TaskStore implementation against the
// behavior every backend shares. newStore must return an empty store.
func RunTaskStoreSuite(t *testing.T, newStore func(t *testing.T) core.TaskStore) {
	t.Helper()
	ctx := context.Background()

	mustTask := func(t *testing.T, title, userID string) core.Task {
		t.Helper()
		task, err := core.NewTask(title, "about "+title)
		require.NoError(t, err)
		task.UserID = userID
		return task
	}

	t.Run("SaveGetRoundtrip", func(t *testing.T) {
		s := newStore(t)
		task := mustTask(t, "Buy milk", "")

		saved, err := s.Save(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, task.ID, saved.ID)

		got, ok, err := s.Get(ctx, task.ID, "")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, task.Title, got.Title)
		assert.Equal(t, task.Description, got.Description)
		assert.Equal(t, core.TaskPending, got.Status)
		assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.Get(ctx, "missing", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("InsertionOrder", func(t *testing.T) {
		s := newStore(t)
		titles := []string{"first", "second", "third"}
		for _, title := range titles {
			_, err := s.Save(ctx, mustTask(t, title, ""))
			require.NoError(t, err)
		}

		all, err := s.GetAll(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, title := range titles {
			assert.Equal(t, title, all[i].Title)
		}
	})

	t.Run("SaveReplacesInPlace", func(t *testing.T) {
		s := newStore(t)
		a := mustTask(t, "a", "")
		b := mustTask(t, "b", "")
		_, _ = s.Save(ctx, a)
		_, _ = s.Save(ctx, b)

		a.Title = "a2"
		_, err := s.Save(ctx, a)
		require.NoError(t, err)

		all, err := s.GetAll(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "a2", all[0].Title)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		s := newStore(t)
		task := mustTask(t, "write report", "")
		_, err := s.Save(ctx, task)
		require.NoError(t, err)

		done := task.MarkComplete()
		_, err = s.Update(ctx, done)
		require.NoError(t, err)

		got, ok, err := s.Get(ctx, task.ID, "")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, core.TaskCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Update(ctx, mustTask(t, "ghost", ""))
		require.Error(t, err)
		assert.Equal(t, core.KindNotFound, core.KindOf(err))
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		task := mustTask(t, "temp", "")
		_, _ = s.Save(ctx, task)

		deleted, err := s.Delete(ctx, task.ID, "")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.Delete(ctx, task.ID, "")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("QueryFilters", func(t *testing.T) {
		s := newStore(t)
		milk := mustTask(t, "Buy milk", "alice")
		bread := mustTask(t, "Buy bread", "bob")
		report := mustTask(t, "Write report", "alice")
		for _, task := range []core.Task{milk, bread.MarkComplete(), report} {
			_, err := s.Save(ctx, task)
			require.NoError(t, err)
		}

		pending, err := s.Query(ctx, core.TaskFilter{Status: core.TaskPending})
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		alice, err := s.Query(ctx, core.TaskFilter{UserID: "alice"})
		require.NoError(t, err)
		assert.Len(t, alice, 2)

		buy, err := s.Query(ctx, core.TaskFilter{Keyword: "BUY"})
		require.NoError(t, err)
		require.Len(t, buy, 2)
		assert.Equal(t, "Buy milk", buy[0].Title)

		none, err := s.Query(ctx, core.TaskFilter{Keyword: "nothing"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("UserScoping", func(t *testing.T) {
		s := newStore(t)
		task := mustTask(t, "private", "alice")
		_, _ = s.Save(ctx, task)

		_, ok, err := s.Get(ctx, task.ID, "bob")
		require.NoError(t, err)
		assert.False(t, ok)

		deleted, err := s.Delete(ctx, task.ID, "bob")
		require.NoError(t, err)
		assert.False(t, deleted)

		_, ok, err = s.Get(ctx, task.ID, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Clear", func(t *testing.T) {
		s := newStore(t)
		_, _ = s.Save(ctx, mustTask(t, "a", "alice"))
		_, _ = s.Save(ctx, mustTask(t, "b", "bob"))
		_, _ = s.Save(ctx, mustTask(t, "c", "bob"))

		n, err := s.Clear(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = s.Clear(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		all, err := s.GetAll(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("RejectsInvalidTask", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(ctx, core.Task{ID: "x", Status: core.TaskPending})
		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
	})
}
