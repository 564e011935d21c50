// Package model defines the provider-agnostic abstractions used by the chat
// agent to talk to language models.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Normalize tool / function call representation (ToolDefinition, FunctionCall)
//   - Facilitate deterministic tests and offline runs (ScriptedModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface in their own
// sub-packages so the agents remain decoupled from vendor SDKs.
package model
