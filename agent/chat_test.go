package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/session"
	"github.com/hupe1980/taskmesh/storage"
)

// newChatFixture wires a chat agent to a recording router that forwards
// task_* envelopes to a real task agent.
func newChatFixture(t *testing.T, llm model.Model, optFns ...func(o *ChatOptions)) (*ChatAgent, *testutil.RecordingHandler) {
	t.Helper()
	ctx := context.Background()

	sa := NewStorageAgent(storage.NewInMemoryStore())
	ta := NewTaskAgent(sa)
	sa.Start(ctx)
	ta.Start(ctx)

	router := testutil.NewRecordingHandler("router")
	router.Reply = func(msg core.Message) core.Response {
		if strings.HasPrefix(msg.Action(), "task_") {
			return ta.Handle(ctx, msg)
		}
		resp, _ := core.NewErrorResponse(msg.RequestID(), "router", core.KindRouting, "unknown action: "+msg.Action())
		return resp
	}

	return NewChatAgent(llm, router, optFns...), router
}

func chatResult(t *testing.T, resp core.Response) map[string]any {
	t.Helper()
	require.True(t, resp.IsSuccess(), resp.ErrorMessage())
	result, ok := resp.ResultMap()
	require.True(t, ok)
	return result
}

func TestChatAgent_ToolRoundTrip(t *testing.T) {
	llm := model.NewScriptedModel("test").
		AddFunctionCall("call-1", "add_task", `{"title":"Buy milk"}`).
		AddText("Added Buy milk.")
	chat, router := newChatFixture(t, llm)

	msg := testutil.NewMessageBuilder("chat_send").
		With("message", "please add buy milk").
		With("user_id", "alice").
		Correlation("corr-9").
		Build()
	result := chatResult(t, chat.Handle(context.Background(), msg))

	assert.Equal(t, "Added Buy milk.", result["reply"])
	assert.Equal(t, 2, result["iterations"])
	assert.Equal(t, []ToolAction{{Tool: "add_task", OK: true}}, result["actions"])
	convID, _ := result["conversation_id"].(string)
	require.NotEmpty(t, convID)

	sent := router.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "task_add", sent[0].Action())
	assert.Equal(t, "corr-9", sent[0].CorrelationID())
	assert.Equal(t, ChatAgentName, sent[0].Sender())
	assert.Equal(t, "router", sent[0].Recipient())
	assert.Equal(t, "alice", sent[0].Payload()["user_id"])

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].Instructions, "You are chat_assistant")
	assert.Len(t, reqs[0].Tools, 8)

	last := reqs[1].Contents[len(reqs[1].Contents)-1]
	assert.Equal(t, model.RoleTool, last.Role)
	fr, ok := last.Parts[0].(model.FunctionResponsePart)
	require.True(t, ok)
	assert.Equal(t, "call-1", fr.FunctionResponse.ID)
	assert.Empty(t, fr.FunctionResponse.Error)

	history := chatResult(t, send(t, chat, "chat_history", core.Payload{"conversation_id": convID}))
	assert.Equal(t, 4, history["count"])
}

func TestChatAgent_ContinuesConversation(t *testing.T) {
	llm := model.NewScriptedModel("test").AddText("first").AddText("second")
	chat, _ := newChatFixture(t, llm)

	first := chatResult(t, send(t, chat, "chat_send", core.Payload{"message": "hello"}))
	convID := first["conversation_id"].(string)

	second := chatResult(t, send(t, chat, "chat_send", core.Payload{"message": "again", "conversation_id": convID}))
	assert.Equal(t, "second", second["reply"])
	assert.Equal(t, []ToolAction{}, second["actions"])

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Contents, 3)
}

func TestChatAgent_ToolFailuresReachTheModel(t *testing.T) {
	llm := model.NewScriptedModel("test").
		AddFunctionCall("c1", "fly", `{}`).
		AddFunctionCall("c2", "complete_task", `{"task_id":"missing"}`).
		AddFunctionCall("c3", "get_task", `{}`).
		AddText("Sorry, that did not work.")
	chat, router := newChatFixture(t, llm)

	result := chatResult(t, send(t, chat, "chat_send", core.Payload{"message": "do things"}))
	actions := result["actions"].([]ToolAction)
	require.Len(t, actions, 3)

	assert.False(t, actions[0].OK)
	assert.Equal(t, "unknown tool: fly", actions[0].Error)

	assert.False(t, actions[1].OK)
	assert.Contains(t, actions[1].Error, "NOT_FOUND")
	assert.Contains(t, actions[1].Error, "task not found: missing")

	assert.False(t, actions[2].OK)
	assert.Contains(t, actions[2].Error, "VALIDATION_ERROR")

	// only complete_task reached the router
	assert.Equal(t, []string{"task_complete"}, router.Actions())
}

func TestChatAgent_IterationLimit(t *testing.T) {
	llm := model.NewScriptedModel("test").
		AddFunctionCall("c1", "list_tasks", `{}`).
		AddFunctionCall("c2", "list_tasks", `{}`).
		AddFunctionCall("c3", "list_tasks", `{}`)
	chat, _ := newChatFixture(t, llm, func(o *ChatOptions) { o.MaxIterations = 2 })

	resp := send(t, chat, "chat_send", core.Payload{"message": "loop forever"})
	require.False(t, resp.IsSuccess())
	assert.Equal(t, core.KindUnexpected, resp.ErrorKind())
	assert.Equal(t, "internal error: no final reply after 2 model rounds", resp.ErrorMessage())
}

func TestChatAgent_HistoryAndReset(t *testing.T) {
	chat, _ := newChatFixture(t, model.NewScriptedModel("test"))

	result := chatResult(t, send(t, chat, "chat_send", core.Payload{"message": "ping", "conversation_id": "conv-1"}))
	assert.Equal(t, "Scripted response to: ping", result["reply"])
	assert.Equal(t, "conv-1", result["conversation_id"])

	reset := chatResult(t, send(t, chat, "chat_reset", core.Payload{"conversation_id": "conv-1"}))
	assert.Equal(t, true, reset["reset"])

	resp := send(t, chat, "chat_history", core.Payload{"conversation_id": "conv-1"})
	assert.Equal(t, core.KindNotFound, resp.ErrorKind())
	assert.Equal(t, "conversation not found: conv-1", resp.ErrorMessage())

	reset = chatResult(t, send(t, chat, "chat_reset", core.Payload{"conversation_id": "conv-1"}))
	assert.Equal(t, false, reset["reset"])
}

func TestChatAgent_Validation(t *testing.T) {
	chat, _ := newChatFixture(t, model.NewScriptedModel("test"))

	resp := send(t, chat, "chat_send", core.Payload{})
	assert.Equal(t, core.KindValidation, resp.ErrorKind())
	assert.Equal(t, "missing 'message' in payload (field: message)", resp.ErrorMessage())

	resp = send(t, chat, "chat_history", core.Payload{})
	assert.Equal(t, core.KindValidation, resp.ErrorKind())
}

func TestChatAgent_TrimsHistory(t *testing.T) {
	chat, _ := newChatFixture(t, model.NewScriptedModel("test"), func(o *ChatOptions) { o.MaxHistoryMessages = 3 })

	for _, text := range []string{"one", "two", "three"} {
		chatResult(t, send(t, chat, "chat_send", core.Payload{"message": text, "conversation_id": "c"}))
	}

	history := chatResult(t, send(t, chat, "chat_history", core.Payload{"conversation_id": "c"}))
	messages := history["messages"].([]model.Content)
	require.NotEmpty(t, messages)
	assert.LessOrEqual(t, len(messages), 3)
	assert.Equal(t, model.RoleUser, messages[0].Role)
}

type failingConversations struct{}

func (failingConversations) Load(context.Context, string) ([]model.Content, bool, error) {
	return nil, false, testutil.ErrStoreUnavailable
}

func (failingConversations) Save(context.Context, string, []model.Content) error {
	return testutil.ErrStoreUnavailable
}

func (failingConversations) Delete(context.Context, string) (bool, error) {
	return false, testutil.ErrStoreUnavailable
}

func TestChatAgent_ConversationStore(t *testing.T) {
	store := session.NewInMemoryStore()
	chat, _ := newChatFixture(t, model.NewScriptedModel("test"), func(o *ChatOptions) { o.Conversations = store })

	chatResult(t, send(t, chat, "chat_send", core.Payload{"message": "ping", "conversation_id": "c1"}))
	assert.Equal(t, 1, store.Len())

	history, ok, err := store.Load(context.Background(), "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, history, 2)
}

func TestChatAgent_ConversationStoreFailure(t *testing.T) {
	chat, _ := newChatFixture(t, model.NewScriptedModel("test"), func(o *ChatOptions) { o.Conversations = failingConversations{} })

	resp := send(t, chat, "chat_send", core.Payload{"message": "ping"})
	assert.Equal(t, core.KindStorage, resp.ErrorKind())
	assert.Equal(t, "storage load conversation failed: store unavailable", resp.ErrorMessage())

	resp = send(t, chat, "chat_reset", core.Payload{"conversation_id": "c1"})
	assert.Equal(t, core.KindStorage, resp.ErrorKind())
}
