// Package logging provides a minimal logging interface and adapters for taskmesh.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that agents and the orchestrator use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - With for binding attributes such as the agent name
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelDebug, Format: "json"})
//	mesh := taskmesh.New(func(o *taskmesh.Options) { o.Logger = logger })
package logging
