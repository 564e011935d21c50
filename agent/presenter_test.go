package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
)

func sampleTasks(t *testing.T, titles ...string) []core.Task {
	t.Helper()
	out := make([]core.Task, 0, len(titles))
	for _, title := range titles {
		task, err := core.NewTask(title, "")
		require.NoError(t, err)
		out = append(out, task)
	}
	return out
}

func TestPresenterAgent_DisplayMenu(t *testing.T) {
	p := testutil.NewRecordingPresenter()
	a := NewPresenterAgent(p)

	require.True(t, send(t, a, "ui_display_menu", core.Payload{}).IsSuccess())
	calls := p.CallsTo("DisplayMenu")
	require.Len(t, calls, 1)
	assert.Equal(t, "Todo App Menu", calls[0].Args[0])
	assert.Equal(t, MainMenu, calls[0].Args[1])

	custom := []any{map[string]any{"key": "a", "label": "Alpha"}, []any{"b", "Beta"}}
	require.True(t, send(t, a, "ui_display_menu", core.Payload{"title": "Pick", "options": custom}).IsSuccess())
	calls = p.CallsTo("DisplayMenu")
	assert.Equal(t, []core.MenuOption{{Key: "a", Label: "Alpha"}, {Key: "b", Label: "Beta"}}, calls[1].Args[1])

	resp := send(t, a, "ui_display_menu", core.Payload{"options": "nope"})
	assert.Equal(t, core.KindValidation, resp.ErrorKind())
}

func TestPresenterAgent_Input(t *testing.T) {
	p := testutil.NewRecordingPresenter("2", "Buy milk", "", "", "new description")
	a := NewPresenterAgent(p)

	resp := send(t, a, "ui_get_choice", core.Payload{})
	result, _ := resp.ResultMap()
	assert.Equal(t, "2", result["choice"])

	resp = send(t, a, "ui_get_task_details", core.Payload{})
	result, _ = resp.ResultMap()
	assert.Equal(t, "Buy milk", result["title"])
	assert.Nil(t, result["description"])

	resp = send(t, a, "ui_get_update_details", core.Payload{"current_title": "Buy milk"})
	require.True(t, resp.IsSuccess())
	result, _ = resp.ResultMap()
	assert.Equal(t, "Buy milk", result["title"], "empty input keeps the current title")
	assert.Equal(t, "new description", result["description"])
	assert.Contains(t, p.Messages(), "Current description: No description")
}

func TestPresenterAgent_InputExhausted(t *testing.T) {
	a := NewPresenterAgent(testutil.NewRecordingPresenter())

	resp := send(t, a, "ui_get_choice", core.Payload{})
	assert.Equal(t, core.KindUnexpected, resp.ErrorKind())
	assert.Equal(t, "internal error: read choice: EOF", resp.ErrorMessage())
}

func TestPresenterAgent_Display(t *testing.T) {
	p := testutil.NewRecordingPresenter()
	a := NewPresenterAgent(p)
	tasks := sampleTasks(t, "one", "two")

	resp := send(t, a, "ui_display_tasks", core.Payload{"tasks": tasks, "title": "All"})
	result, _ := resp.ResultMap()
	assert.Equal(t, 2, result["displayed"])

	require.True(t, send(t, a, "ui_display_task", core.Payload{"task": tasks[0]}).IsSuccess())
	require.True(t, send(t, a, "ui_display_message", core.Payload{"message": "done", "type": "success"}).IsSuccess())
	require.True(t, send(t, a, "ui_welcome", core.Payload{"app_name": "Todo", "version": "1.2.3"}).IsSuccess())
	require.True(t, send(t, a, "ui_goodbye", core.Payload{}).IsSuccess())

	msgs := p.CallsTo("DisplayMessage")
	require.Len(t, msgs, 1)
	assert.Equal(t, core.MessageSuccess, msgs[0].Args[0])
	assert.Equal(t, []any{"Todo", "1.2.3"}, p.CallsTo("DisplayWelcome")[0].Args)
	assert.Len(t, p.CallsTo("DisplayGoodbye"), 1)

	resp = send(t, a, "ui_display_task", core.Payload{})
	assert.Equal(t, core.KindValidation, resp.ErrorKind())
}

func TestPresenterAgent_Confirm(t *testing.T) {
	p := testutil.NewRecordingPresenter()
	p.QueueConfirm(true)
	a := NewPresenterAgent(p)

	resp := send(t, a, "ui_confirm", core.Payload{"prompt": "Delete?"})
	result, _ := resp.ResultMap()
	assert.Equal(t, true, result["confirmed"])

	resp = send(t, a, "ui_confirm", core.Payload{"default": false})
	result, _ = resp.ResultMap()
	assert.Equal(t, false, result["confirmed"])

	resp = send(t, a, "ui_confirm", core.Payload{"default": "yes"})
	assert.Equal(t, core.KindValidation, resp.ErrorKind())
}

func TestPresenterAgent_SelectTask(t *testing.T) {
	tasks := sampleTasks(t, "one", "two", "three")

	tests := []struct {
		name    string
		answer  string
		tasks   []core.Task
		wantID  string
		wantErr string
	}{
		{name: "Valid", answer: "2", tasks: tasks, wantID: tasks[1].ID},
		{name: "NotANumber", answer: "abc", tasks: tasks, wantErr: "invalid number: abc (field: selection)"},
		{name: "OutOfRange", answer: "4", tasks: tasks, wantErr: "invalid selection: 4 (field: selection)"},
		{name: "Zero", answer: "0", tasks: tasks, wantErr: "invalid selection: 0 (field: selection)"},
		{name: "NoTasks", answer: "1", tasks: []core.Task{}, wantErr: "no tasks available to select (field: tasks)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewPresenterAgent(testutil.NewRecordingPresenter(tt.answer))
			resp := send(t, a, "ui_select_task", core.Payload{"tasks": tt.tasks})

			if tt.wantErr != "" {
				require.False(t, resp.IsSuccess())
				assert.Equal(t, core.KindValidation, resp.ErrorKind())
				assert.Equal(t, tt.wantErr, resp.ErrorMessage())
				return
			}
			require.True(t, resp.IsSuccess(), resp.ErrorMessage())
			result, _ := resp.ResultMap()
			assert.Equal(t, tt.wantID, result["task_id"])
		})
	}
}
