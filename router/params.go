package router

import (
	"fmt"
	"strings"
)

// ValidationError reports a caller contract violation: a missing or
// contradictory parameter. It is raised before any upstream call and
// always tells the caller what to do next.
type ValidationError struct {
	Param    string
	Message  string
	Guidance string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("router: invalid parameter %q: %s", e.Param, e.Message)
	if e.Guidance != "" {
		msg += "; " + e.Guidance
	}
	return msg
}

// Params is the loosely-typed argument bag of one tool call. Typed
// accessors validate at the router boundary so handler bodies never do
// ad-hoc type checks.
type Params map[string]any

// String returns a string parameter, or "" when absent.
func (p Params) String(key string) string {
	v, _ := p[key].(string)
	return strings.TrimSpace(v)
}

// Has reports whether the parameter was supplied at all.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Bool returns a boolean parameter, defaulting to false.
func (p Params) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// Int returns an integer parameter. JSON numbers arrive as float64.
func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// StringSlice accepts either a JSON array of strings or a single
// comma-separated string.
func (p Params) StringSlice(key string) []string {
	switch v := p[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// requireString validates that a string parameter is present and non-empty.
func requireString(p Params, key string) (string, error) {
	if s := p.String(key); s != "" {
		return s, nil
	}
	return "", &ValidationError{
		Param:    key,
		Message:  "required",
		Guidance: fmt.Sprintf("supply a non-empty %q", key),
	}
}

// requireRef validates that at least one identifying parameter is present.
func requireRef(p Params, keys ...string) error {
	for _, key := range keys {
		if p.String(key) != "" {
			return nil
		}
	}
	return &ValidationError{
		Param:    strings.Join(keys, "|"),
		Message:  "no identifying parameter supplied",
		Guidance: fmt.Sprintf("provide one of: %s", strings.Join(keys, ", ")),
	}
}
