package server

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonwraymond/clickops/router"
)

// toolSpec describes one tool's schema: its description, safety
// annotations, and the parameters beyond the shared set.
type toolSpec struct {
	title       string
	description string
	readOnly    bool
	destructive bool
	extraParams []mcp.ToolOption
}

var toolSpecs = map[string]toolSpec{
	"tasks": {
		title: "Manage Tasks",
		description: `Create, read, update, delete, move, duplicate, comment on, and
search tasks. Identify a task by id, custom_id (e.g. "ENG-123"), or name.
Moving a task preserves its type, custom field values, and dates.`,
		destructive: true,
		extraParams: []mcp.ToolOption{
			mcp.WithString("custom_id", mcp.Description("User-assigned short code, matched case-sensitively")),
			mcp.WithString("new_name", mcp.Description("Replacement name for update/duplicate")),
			mcp.WithString("description", mcp.Description("Task description (create/update)")),
			mcp.WithString("status", mcp.Description("Status name; must exist in the task's list")),
			mcp.WithNumber("priority", mcp.Description("1=urgent, 2=high, 3=normal, 4=low")),
			mcp.WithNumber("due_date", mcp.Description("Due date as a unix millisecond timestamp")),
			mcp.WithString("list_id", mcp.Description("Target list ID (create/search)")),
			mcp.WithString("list_name", mcp.Description("Target list name (create/search)")),
			mcp.WithString("target_list_id", mcp.Description("Destination list ID (move/duplicate)")),
			mcp.WithString("target_list_name", mcp.Description("Destination list name (move/duplicate)")),
			mcp.WithObject("custom_fields", mcp.Description("Custom field values keyed by field name or ID (create/update)")),
			mcp.WithString("comment", mcp.Description("Comment text (comment action)")),
			mcp.WithString("query", mcp.Description("Name substring filter (search)")),
			mcp.WithString("statuses", mcp.Description("Comma-separated status filter (search)")),
			mcp.WithString("assignees", mcp.Description("Comma-separated assignee IDs (search)")),
			mcp.WithBoolean("include_closed", mcp.Description("Include closed tasks in search results")),
			mcp.WithNumber("offset", mcp.Description("Pagination offset (search)")),
			mcp.WithNumber("limit", mcp.Description("Pagination limit, default 50 (search)")),
		},
	},
	"containers": {
		title: "Manage Lists and Folders",
		description: `Create, read, update, delete, and enumerate the containers tasks
live in. Set kind to "list" or "folder" ("space" is readable only).`,
		destructive: true,
		extraParams: []mcp.ToolOption{
			mcp.WithString("kind", mcp.Description("Container kind: list, folder, or space")),
			mcp.WithString("new_name", mcp.Description("Replacement name (update)")),
			mcp.WithString("content", mcp.Description("Container description (create/update)")),
			mcp.WithString("folder_id", mcp.Description("Parent folder ID for lists")),
			mcp.WithString("folder_name", mcp.Description("Parent folder name for lists")),
		},
	},
	"tags": {
		title: "Manage Tags",
		description: `List, create, apply, and remove space tags. Tag names are checked
against the space when a space reference is supplied, so typos fail with the
valid set. Use refresh after editing tags in the ClickUp UI.`,
		extraParams: []mcp.ToolOption{
			mcp.WithString("tag", mcp.Description("Tag name")),
			mcp.WithString("custom_id", mcp.Description("Task custom ID (apply/remove)")),
			mcp.WithString("foreground", mcp.Description("Tag foreground color, hex (create)")),
			mcp.WithString("background", mcp.Description("Tag background color, hex (create)")),
		},
	},
	"members": {
		title: "Workspace Members",
		description: `List workspace members or find one by username or email.
Member IDs are what task assignee parameters expect.`,
		readOnly: true,
		extraParams: []mcp.ToolOption{
			mcp.WithString("query", mcp.Description("Username or email to find")),
		},
	},
	"docs": {
		title: "Workspace Docs",
		description: `List, read, and create workspace docs.`,
		extraParams: []mcp.ToolOption{
			mcp.WithString("visibility", mcp.Description("Doc visibility (create)")),
		},
	},
	"workspace": {
		title: "Workspace Tree",
		description: `Return the space / folder / list hierarchy with IDs and names.
Cheap and cached: call this first to orient yourself, then reference
containers by name elsewhere.`,
		readOnly: true,
	},
}

// sharedParams are accepted by every tool: the action selector, entity
// references, container hints, and response shaping controls.
func sharedParams(actionHelp string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform; one of: "+actionHelp),
		),
		mcp.WithString("id", mcp.Description("Entity ID; fastest and never ambiguous")),
		mcp.WithString("name", mcp.Description("Entity name; matched case- and punctuation-insensitively")),
		mcp.WithString("space_id", mcp.Description("Space ID, as a scope or container hint")),
		mcp.WithString("space_name", mcp.Description("Space name, as a scope or container hint")),
		mcp.WithString("detail_level", mcp.Description("Response verbosity: minimal, standard (default), or detailed")),
		mcp.WithString("fields", mcp.Description("Comma-separated exact field projection, overriding detail_level")),
		mcp.WithBoolean("include_empty_fields", mcp.Description("Keep null/empty fields instead of eliding them")),
		mcp.WithBoolean("all_custom_fields", mcp.Description("Include custom fields without a value set")),
		mcp.WithBoolean("with_metadata", mcp.Description("Attach shaping metadata (applied level, size estimate, pagination)")),
	}
}

func buildTool(name string, spec toolSpec, r *router.Router) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(spec.description),
		mcp.WithTitleAnnotation(spec.title),
		mcp.WithReadOnlyHintAnnotation(spec.readOnly),
		mcp.WithDestructiveHintAnnotation(spec.destructive),
		mcp.WithIdempotentHintAnnotation(spec.readOnly),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	opts = append(opts, sharedParams(actionList(r, name))...)
	opts = append(opts, spec.extraParams...)
	return mcp.NewTool(name, opts...)
}
