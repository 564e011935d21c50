package util

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// ValidationError reports the first argument that does not match a schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema derives an object schema from the exported fields of a struct.
//
// Field tags drive the result:
//
//	json:"name,omitempty"   property name; omitempty or a pointer makes it optional
//	description:"..."       property description
//	enum:"a,b"              allowed values
//
// Non-struct inputs yield an empty object schema.
func CreateSchema(v any) map[string]any {
	props := map[string]any{}
	out := map[string]any{"type": "object", "properties": props}

	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return out
	}

	var required []string
	for _, f := range reflect.VisibleFields(t) {
		name, optional, ok := jsonField(f)
		if !ok {
			continue
		}

		prop := map[string]any{"type": jsonType(f.Type)}
		if d := f.Tag.Get("description"); d != "" {
			prop["description"] = d
		}
		if e := f.Tag.Get("enum"); e != "" {
			prop["enum"] = strings.Split(e, ",")
		}
		props[name] = prop

		if !optional {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// jsonField resolves the property name of f. ok is false for unexported,
// embedded or json:"-" fields.
func jsonField(f reflect.StructField) (name string, optional, ok bool) {
	if !f.IsExported() || f.Anonymous {
		return "", false, false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, false
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	optional = f.Type.Kind() == reflect.Ptr
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" {
			optional = true
		}
	}
	return name, optional, true
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

// ValidateParameters checks params against an object schema: required
// fields, property types and enums. Unknown fields are accepted.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range stringList(schema["required"]) {
		if v, ok := params[name]; !ok || v == nil {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := props[name].(map[string]any)
		if !ok || value == nil {
			continue
		}

		want, _ := prop["type"].(string)
		if !matchesType(value, want) {
			return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("expected type %s, got %T", want, value)}
		}

		if allowed := stringList(prop["enum"]); len(allowed) > 0 && !contains(allowed, fmt.Sprint(value)) {
			return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("must be one of %v", allowed)}
		}
	}
	return nil
}

// stringList accepts both []string (Go literals) and []any (decoded JSON).
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func matchesType(value any, want string) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch n := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			// decoded JSON numbers
			return n == math.Trunc(n) && !math.IsInf(n, 0)
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
