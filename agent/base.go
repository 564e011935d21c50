package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

// DefaultVersion is assigned to agents constructed without a version.
const DefaultVersion = "1.0.0"

// BaseOptions configures a BaseAgent.
type BaseOptions struct {
	// Version is the semantic version reported by Describe. Invalid or empty
	// values fall back to DefaultVersion.
	Version string
	// Namespace names the agent's action family in "unknown action" errors
	// (for example "task"). Defaults to the agent name.
	Namespace string
	// Logger receives dispatch diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// BaseAgent bundles the action registry, lifecycle status and the envelope
// helpers shared by every agent. Embed it in concrete agents, register the
// agent's actions in the constructor and implement Handle (usually by
// delegating to Dispatch). All exported methods are goroutine-safe.
type BaseAgent struct {
	name      string
	version   string
	namespace string
	logger    logging.Logger

	mu       sync.RWMutex // guards status and handlers
	status   core.AgentStatus
	handlers map[string]core.ActionFunc
}

// NewBaseAgent constructs an inactive BaseAgent. It panics when name is
// blank since every envelope produced by the agent must name its sender.
func NewBaseAgent(name string, optFns ...func(o *BaseOptions)) *BaseAgent {
	name = strings.TrimSpace(name)
	if name == "" {
		panic("agent: name must not be empty")
	}

	opts := BaseOptions{Version: DefaultVersion, Namespace: name, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	logger := logging.With(opts.Logger, "agent", name)

	if err := core.ValidateVersion(opts.Version); err != nil {
		logger.Warn("invalid agent version, using default", "version", opts.Version, "default", DefaultVersion)
		opts.Version = DefaultVersion
	}

	return &BaseAgent{
		name:      name,
		version:   opts.Version,
		namespace: opts.Namespace,
		logger:    logger,
		status:    core.AgentInactive,
		handlers:  make(map[string]core.ActionFunc),
	}
}

// Name returns the agent's unique routing name.
func (b *BaseAgent) Name() string { return b.name }

// Version returns the semantic version.
func (b *BaseAgent) Version() string { return b.version }

// Logger returns the agent bound logger.
func (b *BaseAgent) Logger() logging.Logger { return b.logger }

// Status returns the current lifecycle status.
func (b *BaseAgent) Status() core.AgentStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetStatus forces a lifecycle status, typically core.AgentError when a
// collaborator failed to come up.
func (b *BaseAgent) SetStatus(s core.AgentStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

// Register binds action to fn. Registering an existing action replaces its
// handler; the change is visible to SupportedActions immediately.
func (b *BaseAgent) Register(action string, fn core.ActionFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = fn
}

// SupportedActions returns the registered action names, sorted.
func (b *BaseAgent) SupportedActions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	actions := make([]string, 0, len(b.handlers))
	for a := range b.handlers {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// Start marks the agent active. Calling it on an active agent is a no-op.
func (b *BaseAgent) Start(_ context.Context) {
	b.mu.Lock()
	prev := b.status
	b.status = core.AgentActive
	b.mu.Unlock()

	if prev != core.AgentActive {
		b.logger.Info("agent started", "version", b.version)
	}
}

// Stop marks the agent inactive. Calling it on an inactive agent is a no-op.
func (b *BaseAgent) Stop(_ context.Context) {
	b.mu.Lock()
	prev := b.status
	b.status = core.AgentInactive
	b.mu.Unlock()

	if prev != core.AgentInactive {
		b.logger.Info("agent stopped")
	}
}

// Describe returns a snapshot of the agent's identity.
func (b *BaseAgent) Describe() core.AgentDescriptor {
	return core.AgentDescriptor{
		Name:             b.name,
		Status:           b.Status(),
		Version:          b.version,
		SupportedActions: b.SupportedActions(),
	}
}

// SuccessResponse builds a success envelope answering requestID.
func (b *BaseAgent) SuccessResponse(requestID string, result any) core.Response {
	resp, err := core.NewSuccessResponse(requestID, b.name, result)
	if err != nil {
		return b.fallbackResponse(err)
	}
	return resp
}

// ErrorResponse builds an error envelope answering requestID. A blank
// message is replaced so the envelope stays valid.
func (b *BaseAgent) ErrorResponse(requestID string, kind core.ErrorKind, msg string) core.Response {
	if strings.TrimSpace(msg) == "" {
		msg = "internal error: unknown failure"
	}
	resp, err := core.NewErrorResponse(requestID, b.name, kind, msg)
	if err != nil {
		return b.fallbackResponse(err)
	}
	return resp
}

// fallbackResponse is reached only for envelopes with an empty request id,
// which NewMessage never produces.
func (b *BaseAgent) fallbackResponse(cause error) core.Response {
	resp, err := core.NewErrorResponse(core.NewID(), b.name, core.KindUnexpected, fmt.Sprintf("internal error: %v", cause))
	if err != nil {
		panic(err)
	}
	return resp
}

// Dispatch resolves msg.Action() in the registry and runs its handler.
//
// Unknown actions yield a routing error. Handler errors are translated by
// category: taxonomy errors keep their text, anything else (panics
// included) is reported as an internal error. The agent's status is never
// changed by a failing handler.
func (b *BaseAgent) Dispatch(ctx context.Context, msg core.Message) core.Response {
	action := msg.Action()

	b.mu.RLock()
	fn, ok := b.handlers[action]
	b.mu.RUnlock()

	if !ok {
		return b.ErrorResponse(msg.RequestID(), core.KindRouting, fmt.Sprintf("unknown %s action: %s", b.namespace, action))
	}

	log := logging.With(b.logger, "action", action, "request_id", msg.RequestID(), "correlation_id", msg.CorrelationID())
	log.Debug("dispatching action", "sender", msg.Sender())

	result, err := invoke(ctx, fn, msg)
	if err != nil {
		kind := core.KindOf(err)
		log.Warn("action failed", "kind", kind, "error", err)
		return b.ErrorResponse(msg.RequestID(), kind, ErrorText(err))
	}

	log.Debug("action completed")
	return b.SuccessResponse(msg.RequestID(), result)
}

// ErrorText renders err for an error response: taxonomy errors keep their
// text, anything else is prefixed as an internal error.
func ErrorText(err error) string {
	var cerr *core.Error
	if errors.As(err, &cerr) || core.KindOf(err) != core.KindUnexpected {
		return err.Error()
	}
	return fmt.Sprintf("internal error: %v", err)
}

func invoke(ctx context.Context, fn core.ActionFunc, msg core.Message) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, msg)
}
