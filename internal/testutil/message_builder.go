package testutil

import (
	"github.com/hupe1980/taskmesh/core"
)

// MessageBuilder provides a fluent helper for constructing envelopes in
// tests.
// Example:
//
//	msg := NewMessageBuilder("task_add").With("title", "Buy milk").Build()
//
// Sender defaults to "test" and recipient to "orchestrator".
type MessageBuilder struct {
	sender        string
	recipient     string
	action        string
	payload       core.Payload
	correlationID string
	requestID     string
}

// NewMessageBuilder creates a builder for action.
func NewMessageBuilder(action string) *MessageBuilder {
	return &MessageBuilder{sender: "test", recipient: "orchestrator", action: action, payload: core.Payload{}}
}

// From sets the sender (chainable).
func (b *MessageBuilder) From(sender string) *MessageBuilder { b.sender = sender; return b }

// To sets the recipient (chainable).
func (b *MessageBuilder) To(recipient string) *MessageBuilder { b.recipient = recipient; return b }

// With sets a payload key (chainable).
func (b *MessageBuilder) With(key string, value any) *MessageBuilder {
	b.payload[key] = value
	return b
}

// Correlation sets the correlation id (chainable).
func (b *MessageBuilder) Correlation(id string) *MessageBuilder { b.correlationID = id; return b }

// RequestID overrides the generated request id (chainable).
func (b *MessageBuilder) RequestID(id string) *MessageBuilder { b.requestID = id; return b }

// Build returns the message. It panics on invalid input since builders are
// only used with literal test data.
func (b *MessageBuilder) Build() core.Message {
	return core.MustNewMessage(b.sender, b.recipient, b.action, b.payload, func(o *core.MessageOptions) {
		if b.correlationID != "" {
			o.CorrelationID = b.correlationID
		}
		if b.requestID != "" {
			o.RequestID = b.requestID
		}
	})
}
