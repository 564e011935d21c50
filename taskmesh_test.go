package taskmesh

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/storage"
)

func newStarted(t *testing.T, optFns ...func(o *Options)) *TaskMesh {
	t.Helper()
	m := New(optFns...)
	m.Start(context.Background())
	t.Cleanup(func() { m.Stop(context.Background()) })
	return m
}

func mustSend(t *testing.T, m *TaskMesh, action string, payload core.Payload) core.Response {
	t.Helper()
	resp, err := m.Send(context.Background(), action, payload)
	require.NoError(t, err)
	require.True(t, resp.IsValid())
	return resp
}

func TestScenario_AddTask(t *testing.T) {
	m := newStarted(t)

	resp := mustSend(t, m, "task_add", core.Payload{"title": "Buy milk"})
	require.True(t, resp.IsSuccess(), resp.ErrorMessage())
	result, _ := resp.ResultMap()
	task, err := core.TaskFromValue(result["task"])
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, core.TaskPending, task.Status)

	resp = mustSend(t, m, "task_list", nil)
	result, _ = resp.ResultMap()
	assert.Equal(t, 1, result["count"])
}

func TestScenario_ListCompleted(t *testing.T) {
	m := newStarted(t)

	var ids []string
	for _, title := range []string{"Buy milk", "Write report", "Call mom"} {
		resp := mustSend(t, m, "task_add", core.Payload{"title": title})
		result, _ := resp.ResultMap()
		task, err := core.TaskFromValue(result["task"])
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	require.True(t, mustSend(t, m, "task_complete", core.Payload{"task_id": ids[1]}).IsSuccess())

	resp := mustSend(t, m, "task_list", core.Payload{"status": "completed"})
	require.True(t, resp.IsSuccess())
	result, _ := resp.ResultMap()
	assert.Equal(t, 1, result["count"])
	tasks := result["tasks"].([]core.Task)
	assert.Equal(t, "Write report", tasks[0].Title)
	assert.Equal(t, core.TaskCompleted, tasks[0].Status)
}

func TestScenario_UnknownAction(t *testing.T) {
	m := newStarted(t)

	resp := mustSend(t, m, "bogus_op", nil)
	require.False(t, resp.IsSuccess())
	assert.Equal(t, core.KindRouting, resp.ErrorKind())
	assert.Equal(t, "unknown action: bogus_op (expected prefixes: task_, storage_, ui_, system_)", resp.ErrorMessage())
}

func TestScenario_SystemStatus(t *testing.T) {
	m := newStarted(t)

	resp := mustSend(t, m, "system_status", nil)
	require.True(t, resp.IsSuccess())
	result, _ := resp.ResultMap()
	assert.Equal(t, 3, result["total_agents"])

	for _, d := range result["agents"].([]core.AgentDescriptor) {
		assert.Equal(t, core.AgentActive, d.Status, d.Name)
		assert.Equal(t, Version, d.Version)
	}
}

func TestShutdownLeavesAgentsActive(t *testing.T) {
	m := newStarted(t)

	require.True(t, mustSend(t, m, "system_shutdown", nil).IsSuccess())
	assert.False(t, m.Running())
	for _, a := range m.Orchestrator().Agents() {
		assert.Equal(t, core.AgentActive, a.Status())
	}

	m.Stop(context.Background())
	for _, a := range m.Orchestrator().Agents() {
		assert.Equal(t, core.AgentInactive, a.Status())
	}
}

func TestStorageFailureMarksAgentError(t *testing.T) {
	m := newStarted(t, func(o *Options) { o.Store = testutil.FailingStore{} })

	resp := mustSend(t, m, "system_agents", nil)
	result, _ := resp.ResultMap()
	agents := result["agents"].([]core.AgentDescriptor)
	assert.Equal(t, core.AgentError, agents[0].Status)

	resp = mustSend(t, m, "task_add", core.Payload{"title": "x"})
	assert.Equal(t, core.KindStorage, resp.ErrorKind())
}

func TestUIThroughOrchestrator(t *testing.T) {
	p := testutil.NewRecordingPresenter("1")
	m := newStarted(t, func(o *Options) { o.Presenter = p })

	resp := mustSend(t, m, "ui_get_choice", nil)
	result, _ := resp.ResultMap()
	assert.Equal(t, "1", result["choice"])
	assert.Len(t, p.CallsTo("Choice"), 1)
}

func TestChatRoute(t *testing.T) {
	store := storage.NewInMemoryStore()
	llm := model.NewScriptedModel("test").
		AddFunctionCall("c1", "add_task", `{"title":"Buy milk"}`).
		AddText("Done.")

	var logs bytes.Buffer
	m := newStarted(t, func(o *Options) {
		o.Store = store
		o.Model = llm
		o.MaxChatIterations = 3
		o.Logger = logging.New(logging.Config{Level: logging.LogLevelDebug, Format: "json", Output: &logs})
	})
	require.True(t, m.ChatEnabled())

	resp, err := m.Send(context.Background(), "chat_send", core.Payload{"message": "add buy milk"}, core.WithCorrelationID("corr-chat"))
	require.NoError(t, err)
	require.True(t, resp.IsSuccess(), resp.ErrorMessage())
	result, _ := resp.ResultMap()
	assert.Equal(t, "Done.", result["reply"])
	assert.Equal(t, 1, store.Len())

	// every hop of chat -> task -> storage carries the caller's correlation id
	dispatched := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if entry["msg"] != "dispatching action" {
			continue
		}
		action, _ := entry["action"].(string)
		corr, _ := entry["correlation_id"].(string)
		dispatched[action] = corr
	}
	assert.Equal(t, "corr-chat", dispatched["chat_send"])
	assert.Equal(t, "corr-chat", dispatched["task_add"])
	assert.Equal(t, "corr-chat", dispatched["storage_save"])

	status := mustSend(t, m, "system_status", nil)
	sr, _ := status.ResultMap()
	assert.Equal(t, 4, sr["total_agents"])
}

func TestChatRouteDisabledWithoutModel(t *testing.T) {
	m := newStarted(t)
	assert.False(t, m.ChatEnabled())

	resp := mustSend(t, m, "chat_send", core.Payload{"message": "hi"})
	assert.Equal(t, core.KindRouting, resp.ErrorKind())
}

func TestSendRejectsInvalidEnvelope(t *testing.T) {
	m := newStarted(t)
	_, err := m.Send(context.Background(), "  ", nil)
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}
