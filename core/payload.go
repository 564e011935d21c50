package core

import (
	"fmt"
	"math"
	"strings"
)

// Payload is the open key/value mapping carried by a Message. Handlers read
// it through the typed accessors, which fail with validation errors naming
// the offending key.
type Payload map[string]any

// Clone returns a shallow copy. A nil payload clones to an empty one.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Value returns the raw value stored under key.
func (p Payload) Value(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Has reports whether key is present with a non-nil value.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the trimmed, non-blank string stored under key.
func (p Payload) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", NewValidationError(key, fmt.Sprintf("missing '%s' in payload", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", NewValidationError(key, fmt.Sprintf("'%s' must be a string, got %T", key, v))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewValidationError(key, fmt.Sprintf("missing '%s' in payload", key))
	}
	return s, nil
}

// OptionalString returns the string stored under key. ok is false when the
// key is absent or nil. The value is returned untrimmed.
func (p Payload) OptionalString(key string) (s string, ok bool, err error) {
	v, present := p[key]
	if !present || v == nil {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", false, NewValidationError(key, fmt.Sprintf("'%s' must be a string, got %T", key, v))
	}
	return s, true, nil
}

// Bool returns the boolean stored under key or def when absent.
func (p Payload) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, NewValidationError(key, fmt.Sprintf("'%s' must be a boolean, got %T", key, v))
	}
	return b, nil
}

// Int returns the integer stored under key or def when absent. Whole JSON
// numbers (float64) are accepted.
func (p Payload) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			break
		}
		if n < float64(math.MinInt) || n >= -float64(math.MinInt) {
			return def, NewValidationError(key, fmt.Sprintf("'%s' is out of range: %v", key, v))
		}
		return int(n), nil
	}
	return def, NewValidationError(key, fmt.Sprintf("'%s' must be an integer, got %v", key, v))
}

// Slice returns the list stored under key. Absent keys yield nil.
func (p Payload) Slice(key string) ([]any, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch s := v.(type) {
	case []any:
		return s, nil
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, nil
	case []Task:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, nil
	}
	return nil, NewValidationError(key, fmt.Sprintf("'%s' must be a list, got %T", key, v))
}
