// Package core provides the foundational types and interfaces shared by every
// taskmesh component. It defines the abstractions for:
//
//   - Envelopes (Message requests and Response replies) with constructor
//     enforced invariants
//   - Agents (independently addressable units exposing named actions)
//   - The error taxonomy used to translate failures into error responses
//   - Task records and the small capability interfaces (TaskStore, Presenter)
//     that concrete agents consume
//
// The package intentionally keeps implementation concerns (routing, concrete
// agents, persistence, terminal I/O) out of scope so alternative backends can
// be plugged in at assembly time without touching the core.
package core
