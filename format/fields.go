package format

import "github.com/jonwraymond/clickops/clickup"

// Field projections per entity type. The minimal set is a strict subset
// of standard; detailed is every field the upstream returned, so the
// subset chain holds by construction.
var minimalFields = map[clickup.EntityType][]string{
	clickup.TypeTask:   {"id", "custom_id", "name", "status"},
	clickup.TypeList:   {"id", "name"},
	clickup.TypeFolder: {"id", "name"},
	clickup.TypeSpace:  {"id", "name"},
	clickup.TypeTag:    {"name"},
	clickup.TypeDoc:    {"id", "name"},
	clickup.TypeMember: {"id", "username"},
}

var standardExtras = map[clickup.EntityType][]string{
	clickup.TypeTask:   {"priority", "due_date", "start_date", "assignees", "tags", "list", "folder", "parent", "url", "custom_fields"},
	clickup.TypeList:   {"status", "task_count", "folder", "space", "archived", "due_date"},
	clickup.TypeFolder: {"space", "task_count", "lists", "archived"},
	clickup.TypeSpace:  {"statuses", "private", "archived"},
	clickup.TypeTag:    {"tag_fg", "tag_bg", "creator"},
	clickup.TypeDoc:    {"parent", "creator", "date_created", "date_updated", "public"},
	clickup.TypeMember: {"email", "initials", "role", "color"},
}

// fieldsFor returns the projection for a type at a level, or nil when
// every field should be kept (detailed, or an unknown type).
func fieldsFor(typ clickup.EntityType, level DetailLevel) []string {
	if level == Detailed {
		return nil
	}
	base, ok := minimalFields[typ]
	if !ok {
		return nil
	}
	if level == Minimal {
		return base
	}
	return append(append([]string(nil), base...), standardExtras[typ]...)
}
