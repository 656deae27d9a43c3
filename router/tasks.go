package router

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/jonwraymond/clickops/cache"
	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/format"
	"github.com/jonwraymond/clickops/resolve"
)

// taskRef builds the loose reference for task-identifying parameters.
func taskRef(p Params) resolve.Ref {
	return resolve.Ref{
		ID:            p.String("id"),
		CustomID:      p.String("custom_id"),
		Name:          p.String("name"),
		ContainerHint: containerHint(p),
	}
}

func containerHint(p Params) string {
	for _, key := range []string{"list_name", "list_id", "folder_name", "space_name"} {
		if v := p.String(key); v != "" {
			return v
		}
	}
	return ""
}

func (r *Router) createTask(ctx context.Context, p Params) (any, error) {
	name, err := requireString(p, "name")
	if err != nil {
		return nil, err
	}
	if err := requireRef(p, "list_id", "list_name"); err != nil {
		return nil, err
	}

	listID, err := r.resolver.Resolve(ctx, clickup.TypeList, resolve.Ref{
		ID:            p.String("list_id"),
		Name:          p.String("list_name"),
		ContainerHint: firstNonEmpty(p.String("folder_name"), p.String("space_name")),
	})
	if err != nil {
		return nil, err
	}

	attrs := map[string]any{"name": name}
	taskAttrsFrom(p, attrs, nil)

	if status := p.String("status"); status != "" {
		if err := r.validateStatus(ctx, listID, status); err != nil {
			return nil, err
		}
	}
	if cf, ok := p["custom_fields"].(map[string]any); ok && len(cf) > 0 {
		fields, err := r.resolveCustomFields(ctx, listID, cf)
		if err != nil {
			return nil, err
		}
		attrs["custom_fields"] = fields
	}

	created, err := r.store.Create(ctx, clickup.TypeTask, clickup.Parent{Type: clickup.TypeList, ID: listID}, attrs)
	if err != nil {
		return nil, err
	}

	r.invalidateSearches(listID)
	return createEnvelope(created), nil
}

func (r *Router) getTask(ctx context.Context, p Params) (any, error) {
	if err := requireRef(p, "id", "custom_id", "name"); err != nil {
		return nil, err
	}
	id, err := r.resolver.Resolve(ctx, clickup.TypeTask, taskRef(p))
	if err != nil {
		return nil, err
	}
	task, err := r.store.Get(ctx, clickup.TypeTask, id)
	if err != nil {
		return nil, err
	}
	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entity(clickup.TypeTask, task, opts), nil
}

// updatableTaskFields fixes the order updated_fields is reported in.
var updatableTaskFields = []string{
	"name", "description", "status", "priority",
	"due_date", "start_date", "time_estimate", "assignees", "parent",
}

func (r *Router) updateTask(ctx context.Context, p Params) (any, error) {
	if err := requireRef(p, "id", "custom_id", "name"); err != nil {
		return nil, err
	}
	id, err := r.resolver.Resolve(ctx, clickup.TypeTask, taskRef(p))
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]any)
	var updated []string
	// "name" doubles as a lookup parameter; a rename uses "new_name".
	if p.Has("new_name") {
		attrs["name"] = p.String("new_name")
		updated = append(updated, "name")
	}
	taskAttrsFrom(p, attrs, &updated)

	if len(attrs) == 0 && !p.Has("custom_fields") {
		return nil, &ValidationError{
			Param:    "attributes",
			Message:  "nothing to update",
			Guidance: "supply at least one of: new_name, " + strings.Join(updatableTaskFields[1:], ", ") + ", custom_fields",
		}
	}

	// Validate the status against the task's list before mutating.
	current, err := r.store.Get(ctx, clickup.TypeTask, id)
	if err != nil {
		return nil, err
	}
	listID := taskListID(current)
	if status := p.String("status"); status != "" {
		if err := r.validateStatus(ctx, listID, status); err != nil {
			return nil, err
		}
	}
	if cf, ok := p["custom_fields"].(map[string]any); ok && len(cf) > 0 {
		fields, err := r.resolveCustomFields(ctx, listID, cf)
		if err != nil {
			return nil, err
		}
		attrs["custom_fields"] = fields
		updated = append(updated, "custom_fields")
	}

	result, err := r.store.Update(ctx, clickup.TypeTask, id, attrs)
	if err != nil {
		return nil, err
	}

	r.invalidateSearches(listID)
	name := result.Name()
	if name == "" {
		name = current.Name()
	}
	return updateEnvelope(id, name, updated), nil
}

func (r *Router) deleteTask(ctx context.Context, p Params) (any, error) {
	if err := requireRef(p, "id", "custom_id", "name"); err != nil {
		return nil, err
	}
	id, err := r.resolver.Resolve(ctx, clickup.TypeTask, taskRef(p))
	if err != nil {
		return nil, err
	}

	task, err := r.store.Get(ctx, clickup.TypeTask, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, clickup.TypeTask, id); err != nil {
		return nil, err
	}

	r.invalidateSearches(taskListID(task))
	return deleteEnvelope(id, task.Name()), nil
}

// moveTask relocates a task by snapshot, create-in-target, then delete.
// The create runs first so a failure can never lose the original. The
// task type discriminator (custom_item_id) is carried across, as are
// custom field values.
func (r *Router) moveTask(ctx context.Context, p Params) (any, error) {
	if err := requireRef(p, "id", "custom_id", "name"); err != nil {
		return nil, err
	}
	if err := requireRef(p, "target_list_id", "target_list_name"); err != nil {
		return nil, err
	}

	id, err := r.resolver.Resolve(ctx, clickup.TypeTask, taskRef(p))
	if err != nil {
		return nil, err
	}
	targetID, err := r.resolver.Resolve(ctx, clickup.TypeList, resolve.Ref{
		ID:            p.String("target_list_id"),
		Name:          p.String("target_list_name"),
		ContainerHint: firstNonEmpty(p.String("target_folder_name"), p.String("target_space_name")),
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := r.store.Get(ctx, clickup.TypeTask, id)
	if err != nil {
		return nil, err
	}
	sourceListID := taskListID(snapshot)
	if sourceListID == targetID {
		return nil, &ValidationError{
			Param:    "target_list_id|target_list_name",
			Message:  "task is already in that list",
			Guidance: "pick a different target list",
		}
	}

	attrs := snapshotAttrs(snapshot)
	// The source status may not exist in the target list.
	if status, ok := attrs["status"].(string); ok {
		if r.validateStatus(ctx, targetID, status) != nil {
			delete(attrs, "status")
		}
	}

	created, err := r.store.Create(ctx, clickup.TypeTask, clickup.Parent{Type: clickup.TypeList, ID: targetID}, attrs)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, clickup.TypeTask, id); err != nil {
		return nil, fmt.Errorf("router: task copied to target as %s but deleting the original %s failed: %w; delete it manually to finish the move",
			created.ID(), id, err)
	}

	r.invalidateSearches(sourceListID, targetID)
	return map[string]any{
		"success":  true,
		"id":       created.ID(),
		"old_id":   id,
		"name":     created.Name(),
		"moved_to": targetID,
	}, nil
}

func (r *Router) duplicateTask(ctx context.Context, p Params) (any, error) {
	if err := requireRef(p, "id", "custom_id", "name"); err != nil {
		return nil, err
	}
	id, err := r.resolver.Resolve(ctx, clickup.TypeTask, taskRef(p))
	if err != nil {
		return nil, err
	}

	snapshot, err := r.store.Get(ctx, clickup.TypeTask, id)
	if err != nil {
		return nil, err
	}

	targetID := taskListID(snapshot)
	if p.String("target_list_id") != "" || p.String("target_list_name") != "" {
		targetID, err = r.resolver.Resolve(ctx, clickup.TypeList, resolve.Ref{
			ID:   p.String("target_list_id"),
			Name: p.String("target_list_name"),
		})
		if err != nil {
			return nil, err
		}
	}

	attrs := snapshotAttrs(snapshot)
	if newName := p.String("new_name"); newName != "" {
		attrs["name"] = newName
	} else {
		attrs["name"] = snapshot.Name() + " (copy)"
	}

	created, err := r.store.Create(ctx, clickup.TypeTask, clickup.Parent{Type: clickup.TypeList, ID: targetID}, attrs)
	if err != nil {
		return nil, err
	}

	r.invalidateSearches(targetID)
	return createEnvelope(created), nil
}

func (r *Router) commentTask(ctx context.Context, p Params) (any, error) {
	if err := requireRef(p, "id", "custom_id", "name"); err != nil {
		return nil, err
	}
	text, err := requireString(p, "comment")
	if err != nil {
		return nil, err
	}
	id, err := r.resolver.Resolve(ctx, clickup.TypeTask, taskRef(p))
	if err != nil {
		return nil, err
	}
	comment, err := r.store.Comment(ctx, id, text)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"success": true, "id": id}
	if cid := comment.ID(); cid != "" {
		out["comment_id"] = cid
	}
	return out, nil
}

func (r *Router) searchTasks(ctx context.Context, p Params) (any, error) {
	scope := "team"
	var listID string
	if p.String("list_id") != "" || p.String("list_name") != "" {
		var err error
		listID, err = r.resolver.Resolve(ctx, clickup.TypeList, resolve.Ref{
			ID:            p.String("list_id"),
			Name:          p.String("list_name"),
			ContainerHint: firstNonEmpty(p.String("folder_name"), p.String("space_name")),
		})
		if err != nil {
			return nil, err
		}
		scope = listID
	}

	values := url.Values{}
	keyParams := map[string]any{"list": listID}
	for _, status := range p.StringSlice("statuses") {
		values.Add("statuses[]", status)
	}
	if s := p.StringSlice("statuses"); len(s) > 0 {
		keyParams["statuses"] = s
	}
	for _, a := range p.StringSlice("assignees") {
		values.Add("assignees[]", a)
	}
	if a := p.StringSlice("assignees"); len(a) > 0 {
		keyParams["assignees"] = a
	}
	if p.Bool("include_closed") {
		values.Set("include_closed", "true")
		keyParams["include_closed"] = true
	}
	if p.Bool("subtasks") {
		values.Set("subtasks", "true")
		keyParams["subtasks"] = true
	}

	tasks, err := r.searchUpstream(ctx, scope, listID, values, keyParams)
	if err != nil {
		return nil, err
	}

	if q := p.String("query"); q != "" {
		tasks = filterByName(tasks, q)
	}

	offset := p.Int("offset", 0)
	limit := p.Int("limit", 50)
	window, page := format.Paginate(tasks, offset, limit)

	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	res := r.formatter.Entities(clickup.TypeTask, window, opts)
	if res.Metadata != nil {
		res.Metadata.Page = &page
	} else if page.HasMore || offset > 0 {
		res.Metadata = &format.Metadata{DetailLevel: format.Standard, Page: &page}
	}
	return res, nil
}

// searchUpstream reads task search results through the search cache.
func (r *Router) searchUpstream(ctx context.Context, scope, listID string, values url.Values, keyParams map[string]any) ([]clickup.Entity, error) {
	fetch := func(ctx context.Context) (any, error) {
		return r.store.Search(ctx, clickup.TypeTask, clickup.Filter{
			ContainerID: listID,
			Params:      values,
		})
	}

	if r.searches == nil {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]clickup.Entity), nil
	}

	key, err := cache.SearchKey(string(clickup.TypeTask), keyParams)
	if err != nil {
		return nil, err
	}
	if v, ok := r.searches.Get(scope, key); ok {
		r.metrics.RecordCache(ctx, "search", true)
		return v.([]clickup.Entity), nil
	}
	r.metrics.RecordCache(ctx, "search", false)
	v, err := r.searches.GetOrSet(ctx, scope, key, fetch)
	if err != nil {
		return nil, err
	}
	return v.([]clickup.Entity), nil
}

// invalidateSearches drops cached search results for the given lists
// and the team-wide scope, then warms the affected list searches.
func (r *Router) invalidateSearches(listIDs ...string) {
	if r.searches == nil {
		return
	}
	r.searches.Invalidate("team")
	for _, id := range listIDs {
		if id == "" {
			continue
		}
		r.searches.Invalidate(id)
		listID := id
		r.warm("tasks:"+listID, func(ctx context.Context) error {
			_, err := r.searchUpstream(ctx, listID, listID, url.Values{}, map[string]any{"list": listID})
			return err
		})
	}
}

// validateStatus rejects a status that the list does not define,
// enumerating the valid set so the caller can pick without a retry
// loop. Lists that expose no status set are not validated.
func (r *Router) validateStatus(ctx context.Context, listID, status string) error {
	if listID == "" {
		return nil
	}
	list, err := r.store.Get(ctx, clickup.TypeList, listID)
	if err != nil {
		return err
	}
	raw, ok := list["statuses"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	valid := make([]string, 0, len(raw))
	for _, s := range raw {
		if m, ok := s.(map[string]any); ok {
			if name, ok := m["status"].(string); ok {
				if strings.EqualFold(name, status) {
					return nil
				}
				valid = append(valid, name)
			}
		}
	}
	return &ValidationError{
		Param:    "status",
		Message:  fmt.Sprintf("%q is not a status of list %s", status, listID),
		Guidance: "valid statuses: " + strings.Join(valid, ", "),
	}
}

// resolveCustomFields translates values keyed by field name or ID into
// the [{id, value}] payload the upstream expects, validating every key
// against the list's field definitions. Keys are processed in sorted
// order so the payload is deterministic.
func (r *Router) resolveCustomFields(ctx context.Context, listID string, supplied map[string]any) ([]map[string]any, error) {
	defs, err := r.customFields(ctx, listID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]bool, len(defs))
	byName := make(map[string]string, len(defs))
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		byID[d.ID()] = true
		byName[strings.ToLower(d.Name())] = d.ID()
		names = append(names, d.Name())
	}

	keys := make([]string, 0, len(supplied))
	for k := range supplied {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		id := k
		if !byID[k] {
			resolved, ok := byName[strings.ToLower(k)]
			if !ok {
				return nil, &ValidationError{
					Param:    "custom_fields",
					Message:  fmt.Sprintf("no custom field %q on list %s", k, listID),
					Guidance: "defined fields: " + strings.Join(names, ", "),
				}
			}
			id = resolved
		}
		out = append(out, map[string]any{"id": id, "value": supplied[k]})
	}
	return out, nil
}

// taskAttrsFrom copies optional task attributes from the parameter bag.
// When updated is non-nil it records which fields were supplied, in the
// fixed updatableTaskFields order.
func taskAttrsFrom(p Params, attrs map[string]any, updated *[]string) {
	record := func(field string) {
		if updated != nil {
			*updated = append(*updated, field)
		}
	}
	for _, field := range updatableTaskFields {
		if field == "name" || !p.Has(field) {
			continue
		}
		switch field {
		case "priority":
			attrs[field] = p.Int(field, 0)
		case "due_date", "start_date", "time_estimate":
			attrs[field] = int64(p.Int(field, 0))
		case "assignees":
			attrs[field] = assigneeIDs(p.StringSlice(field))
		default:
			attrs[field] = p.String(field)
		}
		record(field)
	}
	if tags := p.StringSlice("tags"); len(tags) > 0 {
		attrs["tags"] = tags
		record("tags")
	}
}

// snapshotAttrs rebuilds the creation payload from a fetched task, for
// move and duplicate.
func snapshotAttrs(task clickup.Entity) map[string]any {
	attrs := map[string]any{"name": task.Name()}

	if d, ok := task["description"].(string); ok && d != "" {
		attrs["description"] = d
	}
	if s := statusName(task); s != "" {
		attrs["status"] = s
	}
	if pr, ok := task["priority"].(map[string]any); ok {
		if id, ok := pr["id"].(string); ok {
			if n, err := strconv.Atoi(id); err == nil {
				attrs["priority"] = n
			}
		}
	}
	for _, field := range []string{"due_date", "start_date", "time_estimate"} {
		switch v := task[field].(type) {
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				attrs[field] = n
			}
		case float64:
			if v > 0 {
				attrs[field] = int64(v)
			}
		}
	}
	if raw, ok := task["assignees"].([]any); ok {
		var ids []any
		for _, a := range raw {
			if m, ok := a.(map[string]any); ok {
				if id, ok := m["id"]; ok {
					ids = append(ids, id)
				}
			}
		}
		if len(ids) > 0 {
			attrs["assignees"] = ids
		}
	}
	if raw, ok := task["tags"].([]any); ok {
		var names []string
		for _, t := range raw {
			if m, ok := t.(map[string]any); ok {
				if name, ok := m["name"].(string); ok {
					names = append(names, name)
				}
			}
		}
		if len(names) > 0 {
			attrs["tags"] = names
		}
	}
	// custom_item_id discriminates the task type; losing it would turn
	// a milestone or bug back into a plain task on the other side.
	if v, ok := task["custom_item_id"]; ok && v != nil {
		attrs["custom_item_id"] = v
	}
	if raw, ok := task["custom_fields"].([]any); ok {
		var fields []map[string]any
		for _, f := range raw {
			m, ok := f.(map[string]any)
			if !ok {
				continue
			}
			if value, ok := m["value"]; ok && value != nil {
				fields = append(fields, map[string]any{"id": m["id"], "value": value})
			}
		}
		if len(fields) > 0 {
			attrs["custom_fields"] = fields
		}
	}
	return attrs
}

// taskListID reads the containing list's ID off a fetched task.
func taskListID(task clickup.Entity) string {
	if list, ok := task["list"].(map[string]any); ok {
		return clickup.Entity(list).ID()
	}
	return ""
}

// assigneeIDs converts assignee parameters to the numeric IDs the
// upstream expects, passing through anything non-numeric untouched.
func assigneeIDs(raw []string) []any {
	out := make([]any, 0, len(raw))
	for _, s := range raw {
		if n, err := strconv.Atoi(s); err == nil {
			out = append(out, n)
		} else {
			out = append(out, s)
		}
	}
	return out
}

// filterByName keeps tasks whose name contains the query,
// case-insensitively.
func filterByName(tasks []clickup.Entity, query string) []clickup.Entity {
	q := strings.ToLower(query)
	out := make([]clickup.Entity, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Name()), q) {
			out = append(out, t)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
