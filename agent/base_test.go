package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
)

type echoAgent struct {
	*BaseAgent
}

func (a *echoAgent) Handle(ctx context.Context, msg core.Message) core.Response {
	return a.Dispatch(ctx, msg)
}

func newEchoAgent() *echoAgent {
	a := &echoAgent{BaseAgent: NewBaseAgent("echo", func(o *BaseOptions) { o.Version = "2.1.0" })}
	a.Register("echo_say", func(_ context.Context, msg core.Message) (any, error) {
		return map[string]any{"said": msg.Payload()["text"]}, nil
	})
	a.Register("echo_fail", func(context.Context, core.Message) (any, error) {
		return nil, errors.New("boom")
	})
	a.Register("echo_invalid", func(context.Context, core.Message) (any, error) {
		return nil, core.NewValidationError("text", "text is required")
	})
	a.Register("echo_panic", func(context.Context, core.Message) (any, error) {
		panic("kaboom")
	})
	return a
}

var _ core.Agent = (*echoAgent)(nil)

func TestNewBaseAgent(t *testing.T) {
	t.Run("BlankNamePanics", func(t *testing.T) {
		assert.Panics(t, func() { NewBaseAgent("  ") })
	})

	t.Run("InvalidVersionFallsBack", func(t *testing.T) {
		a := NewBaseAgent("x", func(o *BaseOptions) { o.Version = "v1" })
		assert.Equal(t, DefaultVersion, a.Version())
	})

	t.Run("StartsInactive", func(t *testing.T) {
		a := newEchoAgent()
		assert.Equal(t, core.AgentInactive, a.Status())
		assert.Equal(t, "2.1.0", a.Version())
	})
}

func TestBaseAgent_Registry(t *testing.T) {
	a := newEchoAgent()
	assert.Equal(t, []string{"echo_fail", "echo_invalid", "echo_panic", "echo_say"}, a.SupportedActions())

	a.Register("echo_extra", func(context.Context, core.Message) (any, error) { return "extra", nil })
	assert.Contains(t, a.SupportedActions(), "echo_extra")

	d := a.Describe()
	assert.Equal(t, "echo", d.Name)
	assert.Equal(t, "2.1.0", d.Version)
	assert.Len(t, d.SupportedActions, 5)
}

func TestBaseAgent_Lifecycle(t *testing.T) {
	ctx := context.Background()
	a := newEchoAgent()

	a.Start(ctx)
	a.Start(ctx)
	assert.Equal(t, core.AgentActive, a.Status())

	a.Stop(ctx)
	a.Stop(ctx)
	assert.Equal(t, core.AgentInactive, a.Status())

	a.SetStatus(core.AgentError)
	assert.Equal(t, core.AgentError, a.Describe().Status)
}

func TestBaseAgent_Dispatch(t *testing.T) {
	ctx := context.Background()
	a := newEchoAgent()
	a.Start(ctx)

	t.Run("Success", func(t *testing.T) {
		msg := testutil.NewMessageBuilder("echo_say").With("text", "hi").Build()
		resp := a.Handle(ctx, msg)

		require.True(t, resp.IsSuccess())
		assert.Equal(t, msg.RequestID(), resp.RequestID())
		assert.Equal(t, "echo", resp.Sender())
		result, ok := resp.ResultMap()
		require.True(t, ok)
		assert.Equal(t, "hi", result["said"])
	})

	t.Run("UnknownAction", func(t *testing.T) {
		resp := a.Handle(ctx, testutil.NewMessageBuilder("echo_missing").Build())
		assert.False(t, resp.IsSuccess())
		assert.Equal(t, core.KindRouting, resp.ErrorKind())
		assert.Equal(t, "unknown echo action: echo_missing", resp.ErrorMessage())
	})

	t.Run("PlainErrorIsInternal", func(t *testing.T) {
		resp := a.Handle(ctx, testutil.NewMessageBuilder("echo_fail").Build())
		assert.Equal(t, core.KindUnexpected, resp.ErrorKind())
		assert.Equal(t, "internal error: boom", resp.ErrorMessage())
		assert.Nil(t, resp.Result())
	})

	t.Run("CategorizedErrorKeepsText", func(t *testing.T) {
		resp := a.Handle(ctx, testutil.NewMessageBuilder("echo_invalid").Build())
		assert.Equal(t, core.KindValidation, resp.ErrorKind())
		assert.Equal(t, "text is required (field: text)", resp.ErrorMessage())
	})

	t.Run("PanicIsContained", func(t *testing.T) {
		msg := testutil.NewMessageBuilder("echo_panic").Build()
		resp := a.Handle(ctx, msg)
		assert.True(t, resp.IsValid())
		assert.Equal(t, msg.RequestID(), resp.RequestID())
		assert.Equal(t, "internal error: panic: kaboom", resp.ErrorMessage())
		assert.Equal(t, core.AgentActive, a.Status())
	})
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "internal error: oops", ErrorText(errors.New("oops")))
	assert.Equal(t, "task not found: 42", ErrorText(core.NewNotFoundError("task", "42")))

	peer, err := core.NewErrorResponse("req-1", "peer", core.KindUnexpected, "internal error: disk on fire")
	require.NoError(t, err)
	assert.Equal(t, "internal error: disk on fire", ErrorText(core.ResponseError(peer)))
}
