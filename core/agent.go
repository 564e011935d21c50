package core

import (
	"context"
	"fmt"
	"regexp"
)

// AgentStatus is the lifecycle state of an agent.
type AgentStatus string

const (
	// AgentInactive is the initial state and the state after Stop.
	AgentInactive AgentStatus = "inactive"
	// AgentActive is the state after Start.
	AgentActive AgentStatus = "active"
	// AgentError marks an agent whose collaborators failed to come up.
	AgentError AgentStatus = "error"
)

// String returns the status name.
func (s AgentStatus) String() string { return string(s) }

// AgentDescriptor is a point-in-time snapshot of an agent's identity.
type AgentDescriptor struct {
	Name             string      `json:"name"`
	Status           AgentStatus `json:"status"`
	Version          string      `json:"version"`
	SupportedActions []string    `json:"supported_actions"`
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ValidateVersion checks a MAJOR.MINOR.PATCH version string.
func ValidateVersion(v string) error {
	if !versionPattern.MatchString(v) {
		return NewValidationError("version", fmt.Sprintf("invalid version %q, expected MAJOR.MINOR.PATCH", v))
	}
	return nil
}

// Handler accepts request envelopes and always answers with a valid
// Response. Agents and the orchestrator both implement it; peers only ever
// talk to each other through a Handler.
type Handler interface {
	Handle(ctx context.Context, msg Message) Response
}

// Agent defines the capability set every taskmesh agent implements.
//
// Implementations must:
//   - Answer every Message with a Response carrying the message's request id
//   - Never let a handler fault escape Handle
//   - Keep Start and Stop idempotent
type Agent interface {
	Handler
	Name() string
	Version() string
	Status() AgentStatus
	SupportedActions() []string
	Start(ctx context.Context)
	Stop(ctx context.Context)
	Describe() AgentDescriptor
}

// ActionFunc serves one registered action. A returned value becomes the
// success result; a returned error is translated into an error response by
// the agent boundary.
type ActionFunc func(ctx context.Context, msg Message) (any, error)
