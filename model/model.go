package model

import (
	"context"
	"errors"
	"sync"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []Content        `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Content      Content     `json:"content"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the chat agent to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call and returns the final (non-partial)
// response. Partial chunks are concatenated when no final chunk arrives.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final   *Response
		partial Content
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.Role = r.Content.Role
				partial.Parts = append(partial.Parts, r.Content.Parts...)
				continue
			}
			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if final != nil {
		return *final, nil
	}
	if len(partial.Parts) > 0 {
		return Response{Content: partial, FinishReason: "stop"}, nil
	}
	return Response{}, errors.New("model returned no response")
}

// ScriptedModel is a deterministic in-memory Model useful for tests, demos
// and offline runs. It replays queued responses in order and falls back to
// echoing the last user text once the script is exhausted.
type ScriptedModel struct {
	info Info

	mu       sync.Mutex
	script   []Content
	requests []Request
}

// NewScriptedModel constructs a ScriptedModel with tool support enabled.
func NewScriptedModel(name string) *ScriptedModel {
	return &ScriptedModel{info: Info{Name: name, Provider: "scripted", SupportsTools: true}}
}

// AddText queues a plain text reply.
func (m *ScriptedModel) AddText(text string) *ScriptedModel {
	return m.Add(NewTextContent(RoleAssistant, text))
}

// AddFunctionCall queues a reply requesting a single tool call.
func (m *ScriptedModel) AddFunctionCall(id, name, arguments string) *ScriptedModel {
	return m.Add(Content{Role: RoleAssistant, Parts: []Part{FunctionCallPart{FunctionCall: FunctionCall{ID: id, Name: name, Arguments: arguments}}}})
}

// Add queues an arbitrary reply.
func (m *ScriptedModel) Add(c Content) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, c)
	return m
}

// Requests returns the requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var next *Content
	if len(m.script) > 0 {
		next = &m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		if next == nil {
			if len(req.Contents) == 0 {
				errCh <- errors.New("no contents provided")
				return
			}
			var text string
			for i := len(req.Contents) - 1; i >= 0; i-- {
				if req.Contents[i].Role == RoleUser {
					text = req.Contents[i].Text()
					break
				}
			}
			c := NewTextContent(RoleAssistant, "Scripted response to: "+text)
			next = &c
		}

		reason := "stop"
		if len(next.FunctionCalls()) > 0 {
			reason = "tool_calls"
		}
		respCh <- Response{Content: *next, FinishReason: reason}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
