package router

import (
	"errors"

	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/resolve"
)

// Mutation responses are deliberately tiny confirmations. The caller
// already knows what it sent; echoing the full entity back would undo
// the formatter's payload discipline.

func createEnvelope(e clickup.Entity) map[string]any {
	out := map[string]any{
		"success": true,
		"id":      e.ID(),
		"name":    e.Name(),
	}
	if u, ok := e["url"].(string); ok && u != "" {
		out["url"] = u
	}
	if s := statusName(e); s != "" {
		out["status"] = s
	}
	return out
}

func updateEnvelope(id, name string, updatedFields []string) map[string]any {
	return map[string]any{
		"success":        true,
		"id":             id,
		"name":           name,
		"updated_fields": updatedFields,
	}
}

func deleteEnvelope(id, name string) map[string]any {
	out := map[string]any{
		"success": true,
		"id":      id,
		"deleted": true,
	}
	if name != "" {
		out["name"] = name
	}
	return out
}

// statusName collapses ClickUp's status object to its display string.
func statusName(e clickup.Entity) string {
	switch s := e["status"].(type) {
	case string:
		return s
	case map[string]any:
		if name, ok := s["status"].(string); ok {
			return name
		}
	}
	return ""
}

// ErrorPayload translates a routing error into the structured shape the
// protocol boundary serializes. Every payload carries a stable code and
// enough guidance for the caller to self-correct without a round-trip
// to documentation.
func ErrorPayload(err error) map[string]any {
	var verr *ValidationError
	if errors.As(err, &verr) {
		p := map[string]any{
			"code":    "validation_error",
			"message": verr.Message,
			"param":   verr.Param,
		}
		if verr.Guidance != "" {
			p["guidance"] = verr.Guidance
		}
		return p
	}

	if errors.Is(err, resolve.ErrNoReference) {
		return map[string]any{
			"code":     "validation_error",
			"message":  err.Error(),
			"param":    "id|custom_id|name",
			"guidance": "identify the entity by id, custom_id, or name",
		}
	}

	var nferr *resolve.NotFoundError
	if errors.As(err, &nferr) {
		return map[string]any{
			"code":     "not_found",
			"message":  nferr.Error(),
			"type":     string(nferr.Type),
			"query":    nferr.Query,
			"guidance": "check the workspace tree for valid names, or pass an explicit id",
		}
	}

	var amberr *resolve.AmbiguousError
	if errors.As(err, &amberr) {
		candidates := make([]map[string]any, 0, len(amberr.Candidates))
		for _, c := range amberr.Candidates {
			entry := map[string]any{"id": c.ID, "name": c.Name}
			if c.ContainerName != "" {
				entry["container"] = c.ContainerName
			}
			candidates = append(candidates, entry)
		}
		return map[string]any{
			"code":       "ambiguous_reference",
			"message":    amberr.Error(),
			"type":       string(amberr.Type),
			"query":      amberr.Query,
			"candidates": candidates,
			"guidance":   "retry with the id of the intended entity, or add a container hint",
		}
	}

	var rlerr *clickup.RateLimitError
	if errors.As(err, &rlerr) {
		return map[string]any{
			"code":        "rate_limited",
			"message":     rlerr.Error(),
			"retry_after": rlerr.RetryAfter.Seconds(),
			"guidance":    "the upstream API is throttling; retry after the given delay",
		}
	}

	var aerr *clickup.APIError
	if errors.As(err, &aerr) {
		return map[string]any{
			"code":          "upstream_error",
			"message":       aerr.Message,
			"upstream_code": aerr.Code,
			"status":        aerr.StatusCode,
		}
	}

	if errors.Is(err, ErrUnknownAction) {
		return map[string]any{
			"code":    "unknown_action",
			"message": err.Error(),
		}
	}

	return map[string]any{
		"code":    "internal_error",
		"message": err.Error(),
	}
}
