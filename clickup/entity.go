package clickup

import "time"

// EntityType discriminates the kinds of upstream records the adapter
// returns. The shaping core treats entity bodies as opaque; the type is
// what selects field projections and resolver candidate pools.
type EntityType string

const (
	TypeTask   EntityType = "task"
	TypeList   EntityType = "list"
	TypeFolder EntityType = "folder"
	TypeSpace  EntityType = "space"
	TypeTag    EntityType = "tag"
	TypeDoc    EntityType = "doc"
	TypeMember EntityType = "member"
)

// Entity is a raw upstream record. ClickUp responses are deliberately
// kept as decoded JSON objects: the formatter projects fields by name,
// and a typed struct per endpoint would force it to round-trip through
// reflection anyway.
type Entity map[string]any

// ID returns the entity's stable identifier, or "" if absent.
func (e Entity) ID() string {
	return e.str("id")
}

// Name returns the entity's display name. Members and tags carry their
// name under "username"/"name" depending on endpoint.
func (e Entity) Name() string {
	if n := e.str("name"); n != "" {
		return n
	}
	return e.str("username")
}

// CustomID returns the user-assigned short code (tasks only), or "".
func (e Entity) CustomID() string {
	return e.str("custom_id")
}

// DateUpdated returns the entity's last-update time. ClickUp encodes
// timestamps as millisecond strings; a zero time means unknown.
func (e Entity) DateUpdated() time.Time {
	return e.millis("date_updated")
}

func (e Entity) str(key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

func (e Entity) millis(key string) time.Time {
	var ms int64
	switch v := e[key].(type) {
	case string:
		for _, c := range v {
			if c < '0' || c > '9' {
				return time.Time{}
			}
			ms = ms*10 + int64(c-'0')
		}
	case float64:
		ms = int64(v)
	default:
		return time.Time{}
	}
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
