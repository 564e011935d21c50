// Package tool implements the function / tool calling subsystem that lets the
// chat agent turn model function calls into action envelopes with schema
// validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
)

// Tool defines the interface for capabilities exposed to a language model.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is provided to the model to explain when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with already decoded arguments.
	Call(tc *Context, args map[string]any) (any, error)
}

// Context gives a tool everything it needs to act on behalf of the request
// being served: the router to send envelopes to and the identity and
// correlation id they must carry.
type Context struct {
	context.Context

	// Router receives the envelopes built by Send.
	Router core.Handler
	// Sender names the agent on whose behalf envelopes are sent.
	Sender string
	// Recipient names the router; defaults to "orchestrator".
	Recipient string
	// CorrelationID ties sub-envelopes to the originating request.
	CorrelationID string
	// UserID scopes task actions; empty means unscoped.
	UserID string
	// FunctionCallID is the id of the model function call being served.
	FunctionCallID string
	// Logger receives tool diagnostics.
	Logger logging.Logger
}

// Send builds an envelope for action and hands it to the router.
func (tc *Context) Send(action string, payload core.Payload) (core.Response, error) {
	recipient := tc.Recipient
	if recipient == "" {
		recipient = "orchestrator"
	}
	msg, err := core.NewMessage(tc.Sender, recipient, action, payload, core.WithCorrelationID(tc.CorrelationID))
	if err != nil {
		return core.Response{}, err
	}
	return tc.Router.Handle(tc, msg), nil
}

func (tc *Context) logger() logging.Logger {
	if tc.Logger == nil {
		return logging.NoOpLogger{}
	}
	return tc.Logger
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Definitions converts tools into model tool declarations.
func Definitions(tools []Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}
