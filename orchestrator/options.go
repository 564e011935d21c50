package orchestrator

import "github.com/hupe1980/taskmesh/logging"

// DefaultName is the orchestrator's own routing name.
const DefaultName = "orchestrator"

// Route maps an action prefix to the name of the agent serving it.
type Route struct {
	Prefix string `json:"prefix"`
	Agent  string `json:"agent"`
}

// DefaultRoutes returns the standard route table in declaration order.
func DefaultRoutes() []Route {
	return []Route{
		{Prefix: "task_", Agent: "task_manager"},
		{Prefix: "storage_", Agent: "storage_handler"},
		{Prefix: "ui_", Agent: "ui_controller"},
		{Prefix: "system_", Agent: DefaultName},
	}
}

// Options configures an Orchestrator using the functional options pattern.
//
// Example:
//
//	o := orchestrator.New(
//	    orchestrator.WithRoute("chat_", "chat_assistant"),
//	    orchestrator.WithLogger(logger),
//	)
type Options struct {
	// Name is the orchestrator's routing name. Routes whose agent equals Name
	// are served by the orchestrator's own system actions. When Name differs
	// from DefaultName, routes pointing at DefaultName are rewritten to Name.
	Name string

	// Version reported by system_status.
	Version string

	// Routes is the ordered prefix table. The first declared prefix that
	// matches an action wins.
	Routes []Route

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithRoute appends a route after the existing ones.
func WithRoute(prefix, agent string) func(o *Options) {
	return func(o *Options) {
		o.Routes = append(o.Routes, Route{Prefix: prefix, Agent: agent})
	}
}

// WithRoutes replaces the route table.
func WithRoutes(routes ...Route) func(o *Options) {
	return func(o *Options) {
		o.Routes = append([]Route(nil), routes...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithVersion sets the reported version.
func WithVersion(version string) func(o *Options) {
	return func(o *Options) {
		o.Version = version
	}
}
