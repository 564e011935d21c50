package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResponseStatus is the outcome of a handled Message.
type ResponseStatus string

const (
	// StatusSuccess marks a response carrying an optional result.
	StatusSuccess ResponseStatus = "success"
	// StatusError marks a response carrying a non-empty error message.
	StatusError ResponseStatus = "error"
)

// Response is the immutable reply envelope.
//
// The constructors enforce the envelope invariant: a success response never
// carries an error message, an error response always carries one and never
// carries a result. The zero value is not a valid response (see IsValid).
type Response struct {
	requestID string
	sender    string
	status    ResponseStatus
	result    any
	errMsg    string
	errKind   ErrorKind
	timestamp time.Time
}

// NewResponse validates and builds a response of any status.
func NewResponse(requestID, sender string, status ResponseStatus, result any, errMsg string) (Response, error) {
	kind := ErrorKind("")
	if status == StatusError {
		kind = KindUnexpected
	}
	return newResponse(requestID, sender, status, result, errMsg, kind)
}

// NewSuccessResponse builds a success response. result may be nil.
func NewSuccessResponse(requestID, sender string, result any) (Response, error) {
	return newResponse(requestID, sender, StatusSuccess, result, "", "")
}

// NewErrorResponse builds an error response of the given kind.
func NewErrorResponse(requestID, sender string, kind ErrorKind, message string) (Response, error) {
	if kind == "" {
		kind = KindUnexpected
	}
	return newResponse(requestID, sender, StatusError, nil, message, kind)
}

func newResponse(requestID, sender string, status ResponseStatus, result any, errMsg string, kind ErrorKind) (Response, error) {
	if strings.TrimSpace(requestID) == "" {
		return Response{}, NewValidationError("request_id", "response request id must not be empty")
	}
	if strings.TrimSpace(sender) == "" {
		return Response{}, NewValidationError("sender", "response sender must not be empty")
	}

	switch status {
	case StatusSuccess:
		if errMsg != "" {
			return Response{}, NewValidationError("error", "success response must not carry an error")
		}
	case StatusError:
		if strings.TrimSpace(errMsg) == "" {
			return Response{}, NewValidationError("error", "error response requires an error message")
		}
		if result != nil {
			return Response{}, NewValidationError("result", "error response must not carry a result")
		}
	default:
		return Response{}, NewValidationError("status", fmt.Sprintf("invalid response status %q", status))
	}

	return Response{
		requestID: requestID,
		sender:    sender,
		status:    status,
		result:    result,
		errMsg:    errMsg,
		errKind:   kind,
		timestamp: time.Now().UTC(),
	}, nil
}

// RequestID returns the id of the Message this response answers.
func (r Response) RequestID() string { return r.requestID }

// Sender returns the responding agent name.
func (r Response) Sender() string { return r.sender }

// Status returns the outcome.
func (r Response) Status() ResponseStatus { return r.status }

// Result returns the success payload, nil for error responses.
func (r Response) Result() any { return r.result }

// ErrorMessage returns the error text, empty for success responses.
func (r Response) ErrorMessage() string { return r.errMsg }

// ErrorKind returns the taxonomy category of an error response.
func (r Response) ErrorKind() ErrorKind { return r.errKind }

// Timestamp returns the creation time.
func (r Response) Timestamp() time.Time { return r.timestamp }

// IsSuccess reports whether the status is success.
func (r Response) IsSuccess() bool { return r.status == StatusSuccess }

// IsValid reports whether r was built by one of the constructors.
func (r Response) IsValid() bool {
	return r.requestID != "" && r.sender != "" && (r.status == StatusSuccess || r.status == StatusError)
}

// ResultMap returns the result when it is a map[string]any.
func (r Response) ResultMap() (map[string]any, bool) {
	m, ok := r.result.(map[string]any)
	return m, ok
}

// MarshalJSON encodes the envelope with snake_case keys.
func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		RequestID string         `json:"request_id"`
		Sender    string         `json:"sender"`
		Status    ResponseStatus `json:"status"`
		Result    any            `json:"result,omitempty"`
		Error     string         `json:"error,omitempty"`
		ErrorKind ErrorKind      `json:"error_kind,omitempty"`
		Timestamp time.Time      `json:"timestamp"`
	}{r.requestID, r.sender, r.status, r.result, r.errMsg, r.errKind, r.timestamp})
}
