package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
	"github.com/hupe1980/taskmesh/storage"
)

// stubAgent records lifecycle calls into a shared journal and answers
// through handle.
type stubAgent struct {
	*agent.BaseAgent
	journal *[]string
	handle  func(ctx context.Context, msg core.Message) core.Response
}

func newStubAgent(name string, journal *[]string) *stubAgent {
	a := &stubAgent{BaseAgent: agent.NewBaseAgent(name), journal: journal}
	a.Register(name+"_ping", func(context.Context, core.Message) (any, error) {
		return map[string]any{"pong": name}, nil
	})
	return a
}

func (a *stubAgent) Start(ctx context.Context) {
	*a.journal = append(*a.journal, "start:"+a.Name())
	a.BaseAgent.Start(ctx)
}

func (a *stubAgent) Stop(ctx context.Context) {
	*a.journal = append(*a.journal, "stop:"+a.Name())
	a.BaseAgent.Stop(ctx)
}

func (a *stubAgent) Handle(ctx context.Context, msg core.Message) core.Response {
	if a.handle != nil {
		return a.handle(ctx, msg)
	}
	return a.Dispatch(ctx, msg)
}

func handle(t *testing.T, o *Orchestrator, action string, payload core.Payload) (core.Message, core.Response) {
	t.Helper()
	b := testutil.NewMessageBuilder(action)
	for k, v := range payload {
		b.With(k, v)
	}
	msg := b.Build()
	resp := o.Handle(context.Background(), msg)
	require.True(t, resp.IsValid())
	assert.Equal(t, msg.RequestID(), resp.RequestID())
	return msg, resp
}

func newTaskOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	sa := agent.NewStorageAgent(storage.NewInMemoryStore())
	ta := agent.NewTaskAgent(sa)

	o := New()
	o.RegisterAgent(sa)
	o.RegisterAgent(ta)
	o.Start(context.Background())
	t.Cleanup(func() { o.Stop(context.Background()) })
	return o
}

func TestOrchestrator_Route(t *testing.T) {
	o := New(WithRoutes(
		Route{Prefix: "task_", Agent: "first"},
		Route{Prefix: "task_a", Agent: "second"},
		Route{Prefix: "system_", Agent: DefaultName},
	))

	target, ok := o.Route("task_add")
	require.True(t, ok)
	assert.Equal(t, "first", target, "first declared prefix wins")

	_, ok = o.Route("nothing")
	assert.False(t, ok)

	assert.Equal(t, []string{"task_", "task_a", "system_"}, o.Prefixes())
}

func TestOrchestrator_DefaultRoutes(t *testing.T) {
	o := New(WithRoute("chat_", "chat_assistant"))
	assert.Equal(t, []string{"task_", "storage_", "ui_", "system_", "chat_"}, o.Prefixes())
	assert.Equal(t, DefaultName, o.Routes()[3].Agent)
}

func TestOrchestrator_RenamedServesSystemActions(t *testing.T) {
	o := New(func(op *Options) { op.Name = "router" })
	o.Start(context.Background())
	defer o.Stop(context.Background())

	assert.Equal(t, "router", o.Routes()[3].Agent)

	_, resp := handle(t, o, "system_status", nil)
	require.True(t, resp.IsSuccess(), resp.ErrorMessage())
	assert.Equal(t, "router", resp.Sender())
	result, _ := resp.ResultMap()
	assert.Equal(t, "router", result["orchestrator"].(map[string]any)["name"])

	target, ok := o.Route("system_agents")
	require.True(t, ok)
	assert.Equal(t, "router", target)
}

func TestOrchestrator_RoutingFailures(t *testing.T) {
	o := newTaskOrchestrator(t)

	_, resp := handle(t, o, "launch_rocket", nil)
	assert.Equal(t, core.KindRouting, resp.ErrorKind())
	assert.Equal(t, "unknown action: launch_rocket (expected prefixes: task_, storage_, ui_, system_)", resp.ErrorMessage())
	assert.Equal(t, DefaultName, resp.Sender())

	_, resp = handle(t, o, "ui_display_menu", nil)
	assert.Equal(t, core.KindRouting, resp.ErrorKind())
	assert.Equal(t, "agent not registered: ui_controller", resp.ErrorMessage())

	_, resp = handle(t, o, "system_reboot", nil)
	assert.Equal(t, core.KindRouting, resp.ErrorKind())
	assert.Equal(t, "unknown system action: system_reboot", resp.ErrorMessage())

	_, resp = handle(t, o, "task_fly", nil)
	assert.Equal(t, "unknown task action: task_fly", resp.ErrorMessage())
	assert.Equal(t, agent.TaskAgentName, resp.Sender())
}

func TestOrchestrator_ForwardsToAgents(t *testing.T) {
	o := newTaskOrchestrator(t)

	_, resp := handle(t, o, "task_add", core.Payload{"title": "Buy milk"})
	require.True(t, resp.IsSuccess(), resp.ErrorMessage())
	assert.Equal(t, agent.TaskAgentName, resp.Sender())

	_, resp = handle(t, o, "storage_get_all", nil)
	require.True(t, resp.IsSuccess())
	result, _ := resp.ResultMap()
	assert.Equal(t, 1, result["count"])

	_, resp = handle(t, o, "task_get", core.Payload{"task_id": "missing"})
	assert.Equal(t, core.KindNotFound, resp.ErrorKind())
	assert.Equal(t, "task not found: missing", resp.ErrorMessage())
}

func TestOrchestrator_Lifecycle(t *testing.T) {
	var journal []string
	a := newStubAgent("alpha", &journal)
	b := newStubAgent("beta", &journal)

	o := New()
	o.RegisterAgent(a)
	o.RegisterAgent(b)
	o.RegisterAgent(newStubAgent("alpha", &journal))
	require.Len(t, o.Agents(), 2)
	assert.Equal(t, "alpha", o.Agents()[0].Name(), "re-registration keeps the original position")

	ctx := context.Background()
	assert.False(t, o.Running())

	o.Start(ctx)
	assert.True(t, o.Running())
	assert.Equal(t, core.AgentActive, o.Status())
	assert.Equal(t, core.AgentActive, b.Status())

	o.Stop(ctx)
	assert.False(t, o.Running())
	assert.Equal(t, core.AgentInactive, o.Status())
	assert.Equal(t, core.AgentInactive, b.Status())

	assert.Equal(t, []string{"start:alpha", "start:beta", "stop:alpha", "stop:beta"}, journal)
	assert.Equal(t, core.AgentInactive, a.Status(), "replaced agent is not started")
}

func TestOrchestrator_FaultContainment(t *testing.T) {
	var journal []string
	panicky := newStubAgent("panicky", &journal)
	panicky.handle = func(context.Context, core.Message) core.Response { panic("exploded") }
	broken := newStubAgent("broken", &journal)
	broken.handle = func(context.Context, core.Message) core.Response { return core.Response{} }

	o := New(WithRoutes(
		Route{Prefix: "panic_", Agent: "panicky"},
		Route{Prefix: "broken_", Agent: "broken"},
	))
	o.RegisterAgent(panicky)
	o.RegisterAgent(broken)
	o.Start(context.Background())

	_, resp := handle(t, o, "panic_now", nil)
	assert.Equal(t, core.KindRouting, resp.ErrorKind())
	assert.Equal(t, "error routing to panicky: exploded", resp.ErrorMessage())

	_, resp = handle(t, o, "broken_now", nil)
	assert.Equal(t, "error routing to broken: invalid response", resp.ErrorMessage())

	assert.True(t, o.Running())
	assert.Equal(t, core.AgentActive, panicky.Status())
}

func TestOrchestrator_SystemFaults(t *testing.T) {
	o := New()
	o.Register("system_boom", func(context.Context, core.Message) (any, error) { panic("boom") })
	o.Register("system_disk", func(context.Context, core.Message) (any, error) { return nil, errors.New("disk gone") })
	o.Register("system_missing", func(context.Context, core.Message) (any, error) {
		return nil, core.NewNotFoundError("agent", "ghost")
	})
	o.Start(context.Background())
	defer o.Stop(context.Background())

	_, resp := handle(t, o, "system_boom", nil)
	assert.Equal(t, core.KindUnexpected, resp.ErrorKind())
	assert.Equal(t, "system error: panic: boom", resp.ErrorMessage())

	_, resp = handle(t, o, "system_disk", nil)
	assert.Equal(t, core.KindUnexpected, resp.ErrorKind())
	assert.Equal(t, "system error: disk gone", resp.ErrorMessage())

	_, resp = handle(t, o, "system_missing", nil)
	assert.Equal(t, core.KindNotFound, resp.ErrorKind())
	assert.Equal(t, "agent not found: ghost", resp.ErrorMessage())

	assert.True(t, o.Running())
	_, resp = handle(t, o, "system_status", nil)
	assert.True(t, resp.IsSuccess())
}

func TestOrchestrator_SystemActions(t *testing.T) {
	o := newTaskOrchestrator(t)

	t.Run("Status", func(t *testing.T) {
		_, resp := handle(t, o, "system_status", nil)
		require.True(t, resp.IsSuccess())
		result, _ := resp.ResultMap()

		info := result["orchestrator"].(map[string]any)
		assert.Equal(t, DefaultName, info["name"])
		assert.Equal(t, agent.DefaultVersion, info["version"])
		assert.Equal(t, core.AgentActive, info["status"])
		assert.Equal(t, true, info["running"])

		assert.Equal(t, 2, result["total_agents"])
		agents := result["agents"].([]core.AgentDescriptor)
		assert.Equal(t, agent.StorageAgentName, agents[0].Name)
		assert.Equal(t, core.AgentActive, agents[1].Status)
	})

	t.Run("Agents", func(t *testing.T) {
		_, resp := handle(t, o, "system_agents", nil)
		result, _ := resp.ResultMap()
		assert.Equal(t, 2, result["count"])
	})

	t.Run("Routes", func(t *testing.T) {
		_, resp := handle(t, o, "system_routes", nil)
		result, _ := resp.ResultMap()
		assert.Equal(t, DefaultRoutes(), result["routes"])
	})

	t.Run("Shutdown", func(t *testing.T) {
		_, resp := handle(t, o, "system_shutdown", nil)
		require.True(t, resp.IsSuccess())
		result, _ := resp.ResultMap()
		assert.Equal(t, true, result["shutdown"])

		assert.False(t, o.Running())
		for _, a := range o.Agents() {
			assert.Equal(t, core.AgentActive, a.Status(), "shutdown leaves agent statuses alone")
		}

		// the orchestrator still answers after a shutdown request
		_, resp = handle(t, o, "system_status", nil)
		result, _ = resp.ResultMap()
		assert.Equal(t, false, result["orchestrator"].(map[string]any)["running"])
	})
}

func TestOrchestrator_Describe(t *testing.T) {
	o := New()
	d := o.Describe()
	assert.Equal(t, DefaultName, d.Name)
	assert.Equal(t, []string{"system_agents", "system_routes", "system_shutdown", "system_status"}, d.SupportedActions)
}
