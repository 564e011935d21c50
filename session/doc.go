// Package session houses implementations of agent.ConversationStore, the
// per-conversation history kept by the chat agent.
//
// Add additional backends (Redis, SQL, etc.) in sub-packages without changing
// any calling code; only the wiring layer decides which implementation to
// instantiate.
package session
