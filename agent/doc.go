// Package agent contains the concrete agents of taskmesh and the BaseAgent
// they embed. The package focuses on three concerns:
//
//  1. Lifecycle and action registry plumbing (BaseAgent)
//  2. Task management agents (TaskAgent, StorageAgent, PresenterAgent)
//  3. A model driven chat agent that turns tool calls into envelopes (ChatAgent)
//
// Design principles:
//   - Agents never call each other directly; every interaction is a
//     core.Message answered by a core.Response through a core.Handler
//   - Dispatch never fails: handler errors and panics become error responses
//   - Correlation ids are propagated on every envelope an agent sends on
//     behalf of a request
//   - Extensibility: embed BaseAgent, Register actions and implement Handle
//
// Persistence, model specifics and the tool registry live in their own
// packages (storage, model, tool) to avoid cyclic deps.
package agent
