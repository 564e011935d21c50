package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

// Orchestrator routes envelopes to registered agents by action prefix and
// coordinates their lifecycle.
//
// It is itself an agent: actions routed to its own name (system_* by
// default) are served from its own registry. The route table and the agent
// set are expected to be populated before Start; later mutation is safe but
// not part of the routing contract.
type Orchestrator struct {
	*agent.BaseAgent

	logger logging.Logger
	routes []Route

	mu      sync.RWMutex // guards agents, order and running
	agents  map[string]core.Agent
	order   []string
	running bool
}

// New creates an orchestrator with DefaultRoutes unless overridden.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Name:    DefaultName,
		Version: agent.DefaultVersion,
		Routes:  DefaultRoutes(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	routes := append([]Route(nil), opts.Routes...)
	if opts.Name != DefaultName {
		// routes to the default name stay served by the renamed orchestrator
		for i := range routes {
			if routes[i].Agent == DefaultName {
				routes[i].Agent = opts.Name
			}
		}
	}

	o := &Orchestrator{
		BaseAgent: agent.NewBaseAgent(opts.Name, func(bo *agent.BaseOptions) {
			bo.Version = opts.Version
			bo.Namespace = "system"
			bo.Logger = opts.Logger
		}),
		logger: logging.With(opts.Logger, "agent", opts.Name),
		routes: routes,
		agents: make(map[string]core.Agent),
	}

	o.Register("system_status", o.systemStatus)
	o.Register("system_agents", o.systemAgents)
	o.Register("system_shutdown", o.systemShutdown)
	o.Register("system_routes", o.systemRoutes)

	return o
}

// RegisterAgent adds a to the routing set. Registering a name twice replaces
// the earlier agent but keeps its start/stop position.
func (o *Orchestrator) RegisterAgent(a core.Agent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	name := a.Name()
	if _, exists := o.agents[name]; !exists {
		o.order = append(o.order, name)
	}
	o.agents[name] = a
	o.logger.Info("agent registered", "registered", name, "actions", len(a.SupportedActions()))
}

// Agent returns the registered agent with name.
func (o *Orchestrator) Agent(name string) (core.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.agents[name]
	return a, ok
}

// Agents returns the registered agents in registration order.
func (o *Orchestrator) Agents() []core.Agent {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]core.Agent, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.agents[name])
	}
	return out
}

// Routes returns a copy of the route table in declaration order.
func (o *Orchestrator) Routes() []Route {
	return append([]Route(nil), o.routes...)
}

// Prefixes returns the declared prefixes in order.
func (o *Orchestrator) Prefixes() []string {
	out := make([]string, len(o.routes))
	for i, r := range o.routes {
		out[i] = r.Prefix
	}
	return out
}

// Route resolves the agent name serving action. The first declared prefix
// that action starts with wins.
func (o *Orchestrator) Route(action string) (string, bool) {
	for _, r := range o.routes {
		if strings.HasPrefix(action, r.Prefix) {
			return r.Agent, true
		}
	}
	return "", false
}

// Running reports whether the orchestrator accepts work. system_shutdown and
// Stop clear the flag.
func (o *Orchestrator) Running() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running
}

// Start activates the orchestrator and then every registered agent in
// registration order.
func (o *Orchestrator) Start(ctx context.Context) {
	o.BaseAgent.Start(ctx)

	o.mu.Lock()
	o.running = true
	o.mu.Unlock()

	for _, a := range o.Agents() {
		a.Start(ctx)
	}
	o.logger.Info("orchestrator started", "agents", len(o.order))
}

// Stop clears the running flag, stops every registered agent in
// registration order and finally deactivates the orchestrator.
func (o *Orchestrator) Stop(ctx context.Context) {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	for _, a := range o.Agents() {
		a.Stop(ctx)
	}
	o.BaseAgent.Stop(ctx)
	o.logger.Info("orchestrator stopped")
}

// Handle routes msg and always returns a valid response carrying the
// message's request id.
func (o *Orchestrator) Handle(ctx context.Context, msg core.Message) core.Response {
	action := msg.Action()

	target, ok := o.Route(action)
	if !ok {
		o.logger.Warn("unroutable action", "action", action, "correlation_id", msg.CorrelationID())
		return o.ErrorResponse(msg.RequestID(), core.KindRouting,
			fmt.Sprintf("unknown action: %s (expected prefixes: %s)", action, strings.Join(o.Prefixes(), ", ")))
	}

	if target == o.Name() {
		return o.handleSystem(ctx, msg)
	}

	a, ok := o.Agent(target)
	if !ok {
		return o.ErrorResponse(msg.RequestID(), core.KindRouting, fmt.Sprintf("agent not registered: %s", target))
	}

	o.logger.Debug("routing message", "action", action, "target", target,
		"request_id", msg.RequestID(), "correlation_id", msg.CorrelationID())

	return o.forward(ctx, target, a, msg)
}

func (o *Orchestrator) handleSystem(ctx context.Context, msg core.Message) (resp core.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = o.ErrorResponse(msg.RequestID(), core.KindUnexpected, fmt.Sprintf("system error: %v", r))
		}
	}()

	resp = o.Dispatch(ctx, msg)
	if !resp.IsSuccess() && resp.ErrorKind() == core.KindUnexpected {
		resp = o.ErrorResponse(msg.RequestID(), core.KindUnexpected,
			"system error: "+strings.TrimPrefix(resp.ErrorMessage(), "internal error: "))
	}
	return resp
}

// forward hands msg to a unchanged. Faults escaping the agent become routing
// failures; the agent's own error responses pass through untouched.
func (o *Orchestrator) forward(ctx context.Context, name string, a core.Agent, msg core.Message) (resp core.Response) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("agent panicked", "target", name, "action", msg.Action(), "panic", r)
			resp = o.ErrorResponse(msg.RequestID(), core.KindRouting, fmt.Sprintf("error routing to %s: %v", name, r))
		}
	}()

	resp = a.Handle(ctx, msg)
	if !resp.IsValid() {
		return o.ErrorResponse(msg.RequestID(), core.KindRouting, fmt.Sprintf("error routing to %s: invalid response", name))
	}
	return resp
}

func (o *Orchestrator) descriptors() []core.AgentDescriptor {
	agents := o.Agents()
	out := make([]core.AgentDescriptor, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.Describe())
	}
	return out
}

func (o *Orchestrator) systemStatus(_ context.Context, _ core.Message) (any, error) {
	agents := o.descriptors()
	return map[string]any{
		"orchestrator": map[string]any{
			"name":    o.Name(),
			"version": o.Version(),
			"status":  o.Status(),
			"running": o.Running(),
		},
		"agents":       agents,
		"total_agents": len(agents),
	}, nil
}

func (o *Orchestrator) systemAgents(_ context.Context, _ core.Message) (any, error) {
	agents := o.descriptors()
	return map[string]any{"agents": agents, "count": len(agents)}, nil
}

// systemShutdown only clears the running flag; agent statuses are left as
// they are until Stop.
func (o *Orchestrator) systemShutdown(_ context.Context, msg core.Message) (any, error) {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	o.logger.Info("shutdown requested", "sender", msg.Sender(), "correlation_id", msg.CorrelationID())
	return map[string]any{"shutdown": true}, nil
}

func (o *Orchestrator) systemRoutes(_ context.Context, _ core.Message) (any, error) {
	routes := o.Routes()
	return map[string]any{"routes": routes, "count": len(routes)}, nil
}
