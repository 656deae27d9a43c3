package format

// simplify collapses reference sub-objects to primitive identifiers and
// trims custom fields. Applied at minimal/standard only; detailed
// payloads pass through untouched.
func simplify(item map[string]any, allCustomFields bool) map[string]any {
	out := make(map[string]any, len(item))
	for key, value := range item {
		if key == "custom_fields" {
			out[key] = simplifyCustomFields(value, allCustomFields)
			continue
		}
		out[key] = simplifyValue(value)
	}
	return out
}

func simplifyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if collapsed, ok := collapseRef(v); ok {
			return collapsed
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = simplifyValue(item)
		}
		return out
	default:
		return value
	}
}

// collapseRef reduces a reference object to its primitive identity. A
// status object becomes its status name, a user becomes its username,
// and a generic {id, name} reference becomes its name.
func collapseRef(m map[string]any) (any, bool) {
	if s, ok := m["status"].(string); ok {
		return s, true
	}
	if s, ok := m["priority"].(string); ok {
		return s, true
	}
	if s, ok := m["username"].(string); ok {
		return s, true
	}
	if _, hasID := m["id"]; hasID {
		if name, ok := m["name"].(string); ok && name != "" {
			return name, true
		}
		return m["id"], true
	}
	return nil, false
}

// simplifyCustomFields filters custom fields to value-bearing entries
// (unless allCustomFields) and strips per-field configuration metadata,
// leaving {id, name, type, value}.
func simplifyCustomFields(value any, allCustomFields bool) any {
	fields, ok := value.([]any)
	if !ok {
		return value
	}
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		field, ok := f.(map[string]any)
		if !ok {
			continue
		}
		val, hasValue := field["value"]
		if !hasValue || isEmptyValue(val) {
			if !allCustomFields {
				continue
			}
			val = nil
			hasValue = false
		}
		trimmed := map[string]any{
			"id":   field["id"],
			"name": field["name"],
			"type": field["type"],
		}
		if hasValue {
			trimmed["value"] = val
		}
		out = append(out, trimmed)
	}
	return out
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// elideEmpty recursively removes nulls, empty arrays, and empty objects
// so known-empty placeholders are never serialized.
func elideEmpty(item map[string]any) map[string]any {
	out := make(map[string]any, len(item))
	for key, value := range item {
		cleaned, keep := elideValue(value)
		if keep {
			out[key] = cleaned
		}
	}
	return out
}

func elideValue(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case map[string]any:
		cleaned := elideEmpty(v)
		if len(cleaned) == 0 {
			return nil, false
		}
		return cleaned, true
	case []any:
		cleaned := make([]any, 0, len(v))
		for _, item := range v {
			if c, keep := elideValue(item); keep {
				cleaned = append(cleaned, c)
			}
		}
		if len(cleaned) == 0 {
			return nil, false
		}
		return cleaned, true
	default:
		return value, true
	}
}
