package agent

import "github.com/hupe1980/taskmesh/logging"

// Well-known agent names used by the default route table.
const (
	StorageAgentName   = "storage_handler"
	TaskAgentName      = "task_manager"
	PresenterAgentName = "ui_controller"
	ChatAgentName      = "chat_assistant"
)

// Options carries the identity settings shared by the concrete agents.
type Options struct {
	// Name overrides the agent's routing name.
	Name string
	// Version overrides DefaultVersion.
	Version string
	// Logger receives dispatch diagnostics.
	Logger logging.Logger
}

func buildOptions(defaultName string, optFns []func(o *Options)) Options {
	opts := Options{Name: defaultName, Version: DefaultVersion, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

func (o Options) base(namespace string) *BaseAgent {
	return NewBaseAgent(o.Name, func(bo *BaseOptions) {
		bo.Version = o.Version
		bo.Namespace = namespace
		bo.Logger = o.Logger
	})
}
