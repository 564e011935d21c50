package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
	"github.com/hupe1980/taskmesh/storage"
)

func newApp(t *testing.T, p *testutil.RecordingPresenter) (*App, *taskmesh.TaskMesh, *storage.InMemoryStore) {
	t.Helper()
	store := storage.NewInMemoryStore()
	m := taskmesh.New(func(o *taskmesh.Options) {
		o.Store = store
		o.Presenter = p
	})
	m.Start(context.Background())
	t.Cleanup(func() { m.Stop(context.Background()) })
	return New(m), m, store
}

func allTasks(t *testing.T, store *storage.InMemoryStore) []core.Task {
	t.Helper()
	tasks, err := store.GetAll(context.Background(), "")
	require.NoError(t, err)
	return tasks
}

func TestApp_AddCompleteQuit(t *testing.T) {
	p := testutil.NewRecordingPresenter(
		"1", "Buy milk", "",
		"2",
		"4", "1",
		"q",
	)
	p.QueueConfirm(true, true)
	a, _, store := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))

	tasks := allTasks(t, store)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, core.TaskCompleted, tasks[0].Status)

	assert.Contains(t, p.Messages(), "Task added successfully!")
	assert.Contains(t, p.Messages(), "Task completed!")
	assert.Len(t, p.CallsTo("DisplayWelcome"), 1)
	assert.Len(t, p.CallsTo("DisplayGoodbye"), 1)

	listed := p.CallsTo("DisplayTasks")
	require.NotEmpty(t, listed)
	assert.Equal(t, "All Tasks", listed[0].Args[1])
}

func TestApp_UpdateTask(t *testing.T) {
	p := testutil.NewRecordingPresenter(
		"1", "Buy milk", "",
		"3", "1", "Buy oat milk", "from the corner shop",
	)
	a, _, store := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))

	tasks := allTasks(t, store)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy oat milk", tasks[0].Title)
	assert.Equal(t, "from the corner shop", tasks[0].Description)
	assert.Contains(t, p.Messages(), "Task updated successfully!")
}

func TestApp_UpdateWithoutChanges(t *testing.T) {
	p := testutil.NewRecordingPresenter(
		"1", "Buy milk", "",
		"3", "1", "", "",
	)
	a, _, _ := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, p.Messages(), "No changes made")
}

func TestApp_DeleteCancelledThenConfirmed(t *testing.T) {
	p := testutil.NewRecordingPresenter(
		"1", "temp", "",
		"5", "1",
		"5", "1",
	)
	p.QueueConfirm(false, true)
	a, _, store := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, p.Messages(), "Cancelled")
	assert.Contains(t, p.Messages(), "Task deleted!")
	assert.Empty(t, allTasks(t, store))
}

func TestApp_ViewTask(t *testing.T) {
	p := testutil.NewRecordingPresenter("1", "Buy milk", "details", "6", "1")
	a, _, _ := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))

	shown := p.CallsTo("DisplayTask")
	require.Len(t, shown, 1)
	task := shown[0].Args[0].(core.Task)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "details", task.Description)
}

func TestApp_EmptyListsAndUnknownOptions(t *testing.T) {
	p := testutil.NewRecordingPresenter("3", "4", "5", "6", "x")
	a, _, _ := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))

	msgs := p.Messages()
	assert.Contains(t, msgs, "No tasks to update")
	assert.Contains(t, msgs, "No pending tasks to complete")
	assert.Contains(t, msgs, "No tasks to delete")
	assert.Contains(t, msgs, "No tasks to view")
	assert.Contains(t, msgs, "Unknown option: x")
}

func TestApp_InvalidSelectionIsReported(t *testing.T) {
	p := testutil.NewRecordingPresenter("1", "Buy milk", "", "6", "9")
	a, _, _ := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, p.Messages(), "invalid selection: 9 (field: selection)")
	assert.Empty(t, p.CallsTo("DisplayTask"))
}

func TestApp_QuitDeclined(t *testing.T) {
	p := testutil.NewRecordingPresenter("q", "q")
	p.QueueConfirm(false, true)
	a, _, _ := newApp(t, p)

	require.NoError(t, a.Run(context.Background()))
	assert.Len(t, p.CallsTo("Confirm"), 2)
}

func TestApp_StopsWhenRouterStops(t *testing.T) {
	p := testutil.NewRecordingPresenter("1")
	a, m, _ := newApp(t, p)

	_, err := m.Send(context.Background(), "system_shutdown", nil)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	assert.Empty(t, p.CallsTo("DisplayMenu"))
	assert.Len(t, p.CallsTo("DisplayGoodbye"), 1)
}

func TestApp_ContextCancelled(t *testing.T) {
	a, _, _ := newApp(t, testutil.NewRecordingPresenter("2", "2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Run(ctx), context.Canceled)
}

func TestApp_UserScope(t *testing.T) {
	p := testutil.NewRecordingPresenter("1", "mine", "")
	store := storage.NewInMemoryStore()
	m := taskmesh.New(func(o *taskmesh.Options) {
		o.Store = store
		o.Presenter = p
	})
	m.Start(context.Background())
	defer m.Stop(context.Background())

	a := New(m, func(o *Options) { o.UserID = "alice" })
	require.NoError(t, a.Run(context.Background()))

	tasks := allTasks(t, store)
	require.Len(t, tasks, 1)
	assert.Equal(t, "alice", tasks[0].UserID)
}
