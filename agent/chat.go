package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/session"
	"github.com/hupe1980/taskmesh/tool"
)

// DefaultChatInstruction is the system prompt used when none is configured.
const DefaultChatInstruction = `You are {{ .agent }}, an assistant that manages the user's task list.
Use the provided tools to add, list, update, complete, reopen, search and delete tasks.
Always look up task ids with list_tasks or search_tasks before acting on an existing task.
Reply briefly and confirm what you changed. Today is {{ .date }}.`

// ConversationStore keeps chat histories keyed by conversation id.
type ConversationStore interface {
	Load(ctx context.Context, id string) ([]model.Content, bool, error)
	Save(ctx context.Context, id string, history []model.Content) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ChatOptions configures a ChatAgent.
type ChatOptions struct {
	Options

	// Instruction is the system prompt. Template keys: agent, date,
	// user_id, conversation_id.
	Instruction Instruction
	// Tools exposed to the model. Defaults to tool.TaskTools().
	Tools []tool.Tool
	// MaxIterations bounds model rounds per chat_send.
	MaxIterations int
	// MaxHistoryMessages bounds the stored conversation length.
	MaxHistoryMessages int
	// Conversations stores histories. Defaults to session.NewInMemoryStore().
	Conversations ConversationStore
}

// ChatAgent lets a language model drive the task agents. Every tool call the
// model makes becomes an envelope sent through the router, carrying the
// correlation id of the chat request.
type ChatAgent struct {
	*BaseAgent

	llm         model.Model
	router      core.Handler
	routerName  string
	instruction Instruction
	tools       []tool.Tool
	toolIndex   map[string]tool.Tool
	maxIter     int
	maxHistory  int

	conversations ConversationStore
}

// NewChatAgent creates a chat agent using llm that sends tool envelopes to
// router.
func NewChatAgent(llm model.Model, router core.Handler, optFns ...func(o *ChatOptions)) *ChatAgent {
	opts := ChatOptions{
		Options:            buildOptions(ChatAgentName, nil),
		Instruction:        NewInstructionFromText(DefaultChatInstruction),
		MaxIterations:      8,
		MaxHistoryMessages: 40,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Tools == nil {
		opts.Tools = tool.TaskTools()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 1
	}
	if opts.Conversations == nil {
		opts.Conversations = session.NewInMemoryStore()
	}

	routerName := "orchestrator"
	if named, ok := router.(interface{ Name() string }); ok {
		routerName = named.Name()
	}

	a := &ChatAgent{
		BaseAgent:     opts.base("chat"),
		llm:           llm,
		router:        router,
		routerName:    routerName,
		instruction:   opts.Instruction,
		tools:         opts.Tools,
		toolIndex:     make(map[string]tool.Tool, len(opts.Tools)),
		maxIter:       opts.MaxIterations,
		maxHistory:    opts.MaxHistoryMessages,
		conversations: opts.Conversations,
	}
	for _, t := range opts.Tools {
		a.toolIndex[t.Name()] = t
	}

	a.Register("chat_send", a.send)
	a.Register("chat_history", a.history)
	a.Register("chat_reset", a.reset)

	return a
}

// Handle serves chat_* actions.
func (a *ChatAgent) Handle(ctx context.Context, msg core.Message) core.Response {
	return a.Dispatch(ctx, msg)
}

// Model returns the underlying language model.
func (a *ChatAgent) Model() model.Model { return a.llm }

// ToolAction records one tool call made while serving chat_send.
type ToolAction struct {
	Tool  string `json:"tool"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (a *ChatAgent) send(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	text, err := p.String("message")
	if err != nil {
		return nil, err
	}
	convID, _, err := p.OptionalString("conversation_id")
	if err != nil {
		return nil, err
	}
	if convID == "" {
		convID = core.NewID()
	}
	userID, _, err := p.OptionalString("user_id")
	if err != nil {
		return nil, err
	}

	instructions, err := a.instruction.Resolve(ctx, map[string]any{
		"agent":           a.Name(),
		"date":            time.Now().Format("2006-01-02"),
		"user_id":         userID,
		"conversation_id": convID,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve instruction: %w", err)
	}

	previous, _, err := a.conversations.Load(ctx, convID)
	if err != nil {
		return nil, core.NewStorageError("load conversation", err)
	}
	history := append(previous, model.NewTextContent(model.RoleUser, text))
	defs := tool.Definitions(a.tools)
	var actions []ToolAction

	for round := 1; round <= a.maxIter; round++ {
		resp, err := model.Collect(ctx, a.llm, model.Request{
			Instructions: instructions,
			Contents:     history,
			Tools:        defs,
		})
		if err != nil {
			return nil, fmt.Errorf("model generate: %w", err)
		}
		history = append(history, resp.Content)

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			if err := a.conversations.Save(ctx, convID, trimHistory(history, a.maxHistory)); err != nil {
				return nil, core.NewStorageError("save conversation", err)
			}
			if actions == nil {
				actions = []ToolAction{}
			}
			return map[string]any{
				"reply":           resp.Content.Text(),
				"conversation_id": convID,
				"actions":         actions,
				"iterations":      round,
			}, nil
		}

		results := make([]model.Part, 0, len(calls))
		for _, call := range calls {
			fr := a.callTool(ctx, msg, userID, call)
			action := ToolAction{Tool: call.Name, OK: fr.Error == "", Error: fr.Error}
			actions = append(actions, action)
			results = append(results, model.FunctionResponsePart{FunctionResponse: fr})
		}
		history = append(history, model.Content{Role: model.RoleTool, Parts: results})
	}

	return nil, fmt.Errorf("no final reply after %d model rounds", a.maxIter)
}

func (a *ChatAgent) callTool(ctx context.Context, msg core.Message, userID string, call model.FunctionCall) model.FunctionResponse {
	fr := model.FunctionResponse{ID: call.ID, Name: call.Name}

	t, ok := a.toolIndex[call.Name]
	if !ok {
		fr.Error = fmt.Sprintf("unknown tool: %s", call.Name)
		return fr
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			fr.Error = fmt.Sprintf("invalid arguments: %v", err)
			return fr
		}
	}

	result, err := t.Call(&tool.Context{
		Context:        ctx,
		Router:         a.router,
		Sender:         a.Name(),
		Recipient:      a.routerName,
		CorrelationID:  msg.CorrelationID(),
		UserID:         userID,
		FunctionCallID: call.ID,
		Logger:         a.Logger(),
	}, args)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Response = result
	return fr
}

func (a *ChatAgent) history(ctx context.Context, msg core.Message) (any, error) {
	convID, err := msg.Payload().String("conversation_id")
	if err != nil {
		return nil, err
	}

	conv, ok, err := a.conversations.Load(ctx, convID)
	if err != nil {
		return nil, core.NewStorageError("load conversation", err)
	}
	if !ok {
		return nil, core.NewNotFoundError("conversation", convID)
	}
	return map[string]any{
		"conversation_id": convID,
		"messages":        conv,
		"count":           len(conv),
	}, nil
}

func (a *ChatAgent) reset(ctx context.Context, msg core.Message) (any, error) {
	convID, err := msg.Payload().String("conversation_id")
	if err != nil {
		return nil, err
	}

	existed, err := a.conversations.Delete(ctx, convID)
	if err != nil {
		return nil, core.NewStorageError("delete conversation", err)
	}
	return map[string]any{"conversation_id": convID, "reset": existed}, nil
}

// trimHistory bounds history to max entries. Trimming never starts the
// conversation with a tool or assistant turn. Concurrent sends on one
// conversation are last-writer-wins.
func trimHistory(history []model.Content, limit int) []model.Content {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
		for len(history) > 0 && history[0].Role != model.RoleUser {
			history = history[1:]
		}
	}
	return history
}
