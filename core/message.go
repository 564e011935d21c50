package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUID string used for request, correlation and
// record identifiers.
func NewID() string { return uuid.NewString() }

// MessageOptions customizes optional Message fields.
type MessageOptions struct {
	// RequestID overrides the generated request id.
	RequestID string
	// CorrelationID ties the message to an existing causal chain. A fresh id
	// is generated when empty.
	CorrelationID string
	// Timestamp overrides the creation time.
	Timestamp time.Time
}

// WithCorrelationID propagates an existing correlation id.
func WithCorrelationID(id string) func(o *MessageOptions) {
	return func(o *MessageOptions) { o.CorrelationID = id }
}

// WithRequestID pins the request id.
func WithRequestID(id string) func(o *MessageOptions) {
	return func(o *MessageOptions) { o.RequestID = id }
}

// Message is the immutable request envelope exchanged between agents.
//
// Every Message carries a unique request id used to match its Response, and a
// correlation id shared by every envelope created while serving the same
// top-level request. A Message can only be obtained through NewMessage so its
// sender, recipient and action are always non-empty.
type Message struct {
	requestID     string
	sender        string
	recipient     string
	action        string
	payload       Payload
	timestamp     time.Time
	correlationID string
}

// NewMessage builds a validated request envelope. sender, recipient and
// action are trimmed and must be non-empty.
func NewMessage(sender, recipient, action string, payload Payload, optFns ...func(o *MessageOptions)) (Message, error) {
	opts := MessageOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	sender = strings.TrimSpace(sender)
	recipient = strings.TrimSpace(recipient)
	action = strings.TrimSpace(action)

	if sender == "" {
		return Message{}, NewValidationError("sender", "message sender must not be empty")
	}
	if recipient == "" {
		return Message{}, NewValidationError("recipient", "message recipient must not be empty")
	}
	if action == "" {
		return Message{}, NewValidationError("action", "message action must not be empty")
	}

	if opts.RequestID == "" {
		opts.RequestID = NewID()
	}
	if opts.CorrelationID == "" {
		opts.CorrelationID = NewID()
	}
	if opts.Timestamp.IsZero() {
		opts.Timestamp = time.Now().UTC()
	}

	return Message{
		requestID:     opts.RequestID,
		sender:        sender,
		recipient:     recipient,
		action:        action,
		payload:       payload.Clone(),
		timestamp:     opts.Timestamp,
		correlationID: opts.CorrelationID,
	}, nil
}

// MustNewMessage is like NewMessage but panics on invalid input. Intended for
// tests and static wiring.
func MustNewMessage(sender, recipient, action string, payload Payload, optFns ...func(o *MessageOptions)) Message {
	msg, err := NewMessage(sender, recipient, action, payload, optFns...)
	if err != nil {
		panic(err)
	}
	return msg
}

// RequestID returns the unique request identifier.
func (m Message) RequestID() string { return m.requestID }

// Sender returns the originating agent name.
func (m Message) Sender() string { return m.sender }

// Recipient returns the intended agent name. Routing is driven by the action
// prefix, the recipient is informational.
func (m Message) Recipient() string { return m.recipient }

// Action returns the requested action name.
func (m Message) Action() string { return m.action }

// Payload returns a copy of the action arguments.
func (m Message) Payload() Payload { return m.payload.Clone() }

// Timestamp returns the creation time.
func (m Message) Timestamp() time.Time { return m.timestamp }

// CorrelationID returns the id shared by the whole causal chain.
func (m Message) CorrelationID() string { return m.correlationID }

// MarshalJSON encodes the envelope with snake_case keys.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		RequestID     string    `json:"request_id"`
		Sender        string    `json:"sender"`
		Recipient     string    `json:"recipient"`
		Action        string    `json:"action"`
		Payload       Payload   `json:"payload"`
		Timestamp     time.Time `json:"timestamp"`
		CorrelationID string    `json:"correlation_id"`
	}{m.requestID, m.sender, m.recipient, m.action, m.payload, m.timestamp, m.correlationID})
}
