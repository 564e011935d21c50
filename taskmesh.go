// Package taskmesh provides a high-level façade that assembles the task
// management agents behind an orchestrator. Most applications interact with
// this package by:
//  1. Creating a TaskMesh via New() (optionally overriding the in-memory store,
//     the presenter, the logger or plugging in a chat model)
//  2. Starting it with Start()
//  3. Sending action envelopes with Send() or Handle()
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable store (storage/sqlite), a console
// presenter and a structured logger.
package taskmesh

import (
	"context"
	"io"
	"strings"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/console"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/orchestrator"
	"github.com/hupe1980/taskmesh/storage"
)

// Version is the application version reported by the façade.
const Version = "1.0.0"

// DefaultSender names the envelopes created by Send.
const DefaultSender = "app"

// Options configures the TaskMesh instance.
type Options struct {
	// Store persists tasks. Defaults to storage.NewInMemoryStore().
	Store core.TaskStore

	// Presenter renders ui_* actions. Defaults to a console reading from an
	// empty input and discarding output.
	Presenter core.Presenter

	// Model enables the chat agent and the chat_ route when set.
	Model model.Model

	// MaxChatIterations bounds model rounds per chat_send (0 keeps the chat
	// agent default).
	MaxChatIterations int

	// ChatInstruction overrides the chat system prompt.
	ChatInstruction string

	// Version is reported by system_status.
	Version string

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// TaskMesh is the assembled agent system.
type TaskMesh struct {
	opts         Options
	orchestrator *orchestrator.Orchestrator
	storage      *agent.StorageAgent
	tasks        *agent.TaskAgent
	ui           *agent.PresenterAgent
	chat         *agent.ChatAgent
}

// New wires storage, task and presenter agents (plus the chat agent when a
// model is configured) behind an orchestrator. The agents are registered in
// that order and are started by Start.
func New(optFns ...func(o *Options)) *TaskMesh {
	opts := Options{
		Version: Version,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = storage.NewInMemoryStore()
	}
	if opts.Presenter == nil {
		opts.Presenter = console.New(strings.NewReader(""), io.Discard)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	agentOpts := func(o *agent.Options) {
		o.Version = opts.Version
		o.Logger = opts.Logger
	}

	orchOpts := []func(o *orchestrator.Options){
		orchestrator.WithLogger(opts.Logger),
		orchestrator.WithVersion(opts.Version),
	}
	if opts.Model != nil {
		orchOpts = append(orchOpts, orchestrator.WithRoute("chat_", agent.ChatAgentName))
	}

	m := &TaskMesh{opts: opts, orchestrator: orchestrator.New(orchOpts...)}

	m.storage = agent.NewStorageAgent(opts.Store, agentOpts)
	m.tasks = agent.NewTaskAgent(m.storage, agentOpts)
	m.ui = agent.NewPresenterAgent(opts.Presenter, agentOpts)

	m.orchestrator.RegisterAgent(m.storage)
	m.orchestrator.RegisterAgent(m.tasks)
	m.orchestrator.RegisterAgent(m.ui)

	if opts.Model != nil {
		m.chat = agent.NewChatAgent(opts.Model, m.orchestrator, func(o *agent.ChatOptions) {
			agentOpts(&o.Options)
			if opts.MaxChatIterations > 0 {
				o.MaxIterations = opts.MaxChatIterations
			}
			if opts.ChatInstruction != "" {
				o.Instruction = agent.NewInstructionFromText(opts.ChatInstruction)
			}
		})
		m.orchestrator.RegisterAgent(m.chat)
	}

	return m
}

// Start activates the orchestrator and every agent.
func (m *TaskMesh) Start(ctx context.Context) { m.orchestrator.Start(ctx) }

// Stop deactivates every agent and the orchestrator.
func (m *TaskMesh) Stop(ctx context.Context) { m.orchestrator.Stop(ctx) }

// Running reports whether the orchestrator still accepts work.
func (m *TaskMesh) Running() bool { return m.orchestrator.Running() }

// Handle routes msg through the orchestrator.
func (m *TaskMesh) Handle(ctx context.Context, msg core.Message) core.Response {
	return m.orchestrator.Handle(ctx, msg)
}

// Send builds an envelope from DefaultSender to the orchestrator and routes
// it. The error is non-nil only when the envelope itself is invalid.
func (m *TaskMesh) Send(ctx context.Context, action string, payload core.Payload, optFns ...func(o *core.MessageOptions)) (core.Response, error) {
	msg, err := core.NewMessage(DefaultSender, m.orchestrator.Name(), action, payload, optFns...)
	if err != nil {
		return core.Response{}, err
	}
	return m.orchestrator.Handle(ctx, msg), nil
}

// Orchestrator returns the underlying router.
func (m *TaskMesh) Orchestrator() *orchestrator.Orchestrator { return m.orchestrator }

// ChatEnabled reports whether a chat model is wired.
func (m *TaskMesh) ChatEnabled() bool { return m.chat != nil }
