package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/clickops/cache"
	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/format"
	"github.com/jonwraymond/clickops/observe"
	"github.com/jonwraymond/clickops/resolve"
)

// recordedMetrics captures cache lookup events by "namespace:outcome".
type recordedMetrics struct {
	mu    sync.Mutex
	cache map[string]int
}

func (m *recordedMetrics) RecordCall(ctx context.Context, meta observe.CallMeta, d time.Duration, err error) {
}

func (m *recordedMetrics) RecordCache(ctx context.Context, namespace string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		m.cache = make(map[string]int)
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cache[namespace+":"+outcome]++
}

func (m *recordedMetrics) RecordUpstream(ctx context.Context, method string, status int) {}

func (m *recordedMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[key]
}

var _ observe.Metrics = (*recordedMetrics)(nil)

// fakeStore is an in-memory Store seeded with a small workspace:
// space S1 "Engineering" holding folder F1 "Backend" (list L1 "Sprint")
// and folderless list L2 "Backlog", plus space S2 "Marketing".
type fakeStore struct {
	mu          sync.Mutex
	tasks       map[string]clickup.Entity
	nextID      int
	deleted     []string
	createOrder []string
	tagged      []string
	untagged    []string
	searchCalls map[string]int
	fieldsCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: map[string]clickup.Entity{
			"T1": {
				"id": "T1", "name": "Email Digest", "custom_id": "ENG-1",
				"date_updated":   "1700000000000",
				"status":         map[string]any{"status": "open"},
				"priority":       map[string]any{"id": "2", "priority": "high"},
				"custom_item_id": float64(1002),
				"due_date":       "1800000000000",
				"list":           map[string]any{"id": "L1", "name": "Sprint"},
				"assignees":      []any{map[string]any{"id": float64(7), "username": "jane"}},
				"tags":           []any{map[string]any{"name": "urgent"}},
				"custom_fields": []any{
					map[string]any{"id": "cf1", "name": "Severity", "type": "drop_down", "value": "sev2"},
				},
			},
			"T2": {
				"id": "T2", "name": "Weekly Report",
				"date_updated": "1700000100000",
				"status":       map[string]any{"status": "open"},
				"list":         map[string]any{"id": "L1", "name": "Sprint"},
			},
		},
		nextID:      2,
		searchCalls: make(map[string]int),
	}
}

func (s *fakeStore) countSearch(typ clickup.EntityType, container string) {
	s.searchCalls[string(typ)+":"+container]++
}

func (s *fakeStore) searchCount(typ clickup.EntityType, container string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCalls[string(typ)+":"+container]
}

func (s *fakeStore) Get(ctx context.Context, typ clickup.EntityType, id string) (clickup.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch typ {
	case clickup.TypeTask:
		if t, ok := s.tasks[id]; ok {
			return t, nil
		}
		return nil, &clickup.APIError{StatusCode: 404, Message: "task not found"}
	case clickup.TypeList:
		switch id {
		case "L1":
			return clickup.Entity{
				"id": "L1", "name": "Sprint",
				"statuses": []any{
					map[string]any{"status": "open"},
					map[string]any{"status": "in progress"},
					map[string]any{"status": "done"},
				},
			}, nil
		case "L2":
			return clickup.Entity{"id": "L2", "name": "Backlog"}, nil
		}
	case clickup.TypeSpace:
		if id == "S1" {
			return clickup.Entity{"id": "S1", "name": "Engineering"}, nil
		}
	case clickup.TypeDoc:
		if id == "D1" {
			return clickup.Entity{"id": "D1", "name": "Runbook", "date_updated": "1700000000000"}, nil
		}
	}
	return nil, &clickup.APIError{StatusCode: 404, Message: "not found"}
}

func (s *fakeStore) Create(ctx context.Context, typ clickup.EntityType, parent clickup.Parent, attrs map[string]any) (clickup.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("T%d", s.nextID)
	s.createOrder = append(s.createOrder, id)

	e := clickup.Entity{"id": id}
	for k, v := range attrs {
		e[k] = v
	}
	if typ == clickup.TypeTask {
		e["list"] = map[string]any{"id": parent.ID}
		s.tasks[id] = e
	}
	return e, nil
}

func (s *fakeStore) Update(ctx context.Context, typ clickup.EntityType, id string, attrs map[string]any) (clickup.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if typ == clickup.TypeTask {
		t, ok := s.tasks[id]
		if !ok {
			return nil, &clickup.APIError{StatusCode: 404, Message: "task not found"}
		}
		for k, v := range attrs {
			t[k] = v
		}
		return t, nil
	}
	return clickup.Entity{"id": id, "name": fmt.Sprint(attrs["name"])}, nil
}

func (s *fakeStore) Delete(ctx context.Context, typ clickup.EntityType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	delete(s.tasks, id)
	return nil
}

func (s *fakeStore) Search(ctx context.Context, typ clickup.EntityType, filter clickup.Filter) ([]clickup.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countSearch(typ, filter.ContainerID)

	switch typ {
	case clickup.TypeSpace:
		return []clickup.Entity{
			{"id": "S1", "name": "Engineering"},
			{"id": "S2", "name": "Marketing"},
		}, nil
	case clickup.TypeFolder:
		if filter.ContainerID == "S1" {
			return []clickup.Entity{{
				"id": "F1", "name": "Backend",
				"lists": []any{map[string]any{"id": "L1", "name": "Sprint"}},
			}}, nil
		}
		return nil, nil
	case clickup.TypeList:
		if filter.ContainerID == "S1" {
			return []clickup.Entity{{"id": "L2", "name": "Backlog"}}, nil
		}
		return nil, nil
	case clickup.TypeTask:
		var out []clickup.Entity
		for _, t := range s.tasks {
			if filter.ContainerID == "" || taskListID(t) == filter.ContainerID {
				out = append(out, t)
			}
		}
		return out, nil
	case clickup.TypeTag:
		if filter.ContainerID == "S1" {
			return []clickup.Entity{
				{"name": "urgent", "tag_fg": "#fff"},
				{"name": "blocked", "tag_fg": "#000"},
			}, nil
		}
		return nil, nil
	case clickup.TypeMember:
		return []clickup.Entity{
			{"id": float64(7), "username": "jane", "email": "jane@example.com"},
			{"id": float64(8), "username": "omar", "email": "omar@example.com"},
		}, nil
	case clickup.TypeDoc:
		return []clickup.Entity{{"id": "D1", "name": "Runbook", "date_updated": "1700000000000"}}, nil
	}
	return nil, fmt.Errorf("unexpected search type %q", typ)
}

func (s *fakeStore) Fields(ctx context.Context, listID string) ([]clickup.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldsCalls++
	if listID == "L1" {
		return []clickup.Entity{
			{"id": "cf1", "name": "Severity", "type": "drop_down"},
			{"id": "cf2", "name": "Environment", "type": "short_text"},
		}, nil
	}
	return nil, nil
}

func (s *fakeStore) fieldsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fieldsCalls
}

func (s *fakeStore) AddTag(ctx context.Context, taskID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagged = append(s.tagged, taskID+":"+tag)
	return nil
}

func (s *fakeStore) RemoveTag(ctx context.Context, taskID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untagged = append(s.untagged, taskID+":"+tag)
	return nil
}

func (s *fakeStore) Comment(ctx context.Context, taskID, text string) (clickup.Entity, error) {
	return clickup.Entity{"id": "C1"}, nil
}

var _ Store = (*fakeStore)(nil)

func newTestRouter(t *testing.T, store Store) *Router {
	t.Helper()
	cs := cache.NewStore(cache.Options{SweepInterval: -1})
	t.Cleanup(cs.Close)
	return New(Deps{
		Store:       store,
		Formatter:   format.New(format.Config{}),
		Caches:      cache.NewDomain(cs, cache.DomainTTLs{}),
		SearchCache: cache.NewNamespace(cs, "search", time.Minute),
		WarmTimeout: time.Second,
	})
}

func routeData(t *testing.T, r *Router, tool, action string, p Params) map[string]any {
	t.Helper()
	out, err := r.Route(context.Background(), tool, action, p)
	if err != nil {
		t.Fatalf("%s.%s: %v", tool, action, err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("%s.%s returned %T, want map", tool, action, out)
	}
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRoute_UnknownToolAndAction(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	_, err := r.Route(context.Background(), "nope", "get", Params{})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("unknown tool error = %v", err)
	}

	_, err = r.Route(context.Background(), "tasks", "explode", Params{})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("unknown action error = %v", err)
	}
	// The error enumerates the valid action set.
	for _, action := range []string{"create", "get", "move", "search"} {
		if !strings.Contains(err.Error(), action) {
			t.Errorf("error does not list action %q: %v", action, err)
		}
	}
}

func TestCreateTask_ResolvesListByName(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	out := routeData(t, r, "tasks", "create", Params{
		"name":      "New Task",
		"list_name": "sprint", // normalized match against "Sprint"
		"status":    "open",
	})
	if out["success"] != true {
		t.Fatalf("create response = %v", out)
	}

	created := store.tasks[out["id"].(string)]
	if taskListID(created) != "L1" {
		t.Errorf("task created in list %q, want L1", taskListID(created))
	}
}

func TestCreateTask_RequiresNameAndList(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	var verr *ValidationError
	_, err := r.Route(context.Background(), "tasks", "create", Params{"list_id": "L1"})
	if !errors.As(err, &verr) || verr.Param != "name" {
		t.Fatalf("missing name error = %v", err)
	}

	_, err = r.Route(context.Background(), "tasks", "create", Params{"name": "x"})
	if !errors.As(err, &verr) {
		t.Fatalf("missing list error = %v", err)
	}
}

func TestCreateTask_RejectsInvalidStatusEnumeratingValid(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	_, err := r.Route(context.Background(), "tasks", "create", Params{
		"name": "x", "list_id": "L1", "status": "finished",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, want := range []string{"open", "in progress", "done"} {
		if !strings.Contains(verr.Guidance, want) {
			t.Errorf("guidance does not enumerate %q: %s", want, verr.Guidance)
		}
	}
}

func TestCreateTask_ResolvesCustomFieldNames(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	out := routeData(t, r, "tasks", "create", Params{
		"name":    "Incident",
		"list_id": "L1",
		"custom_fields": map[string]any{
			"severity": "sev1", // matched against "Severity" case-insensitively
			"cf2":      "prod", // matched by field ID
		},
	})

	created := store.tasks[out["id"].(string)]
	fields, _ := created["custom_fields"].([]map[string]any)
	if len(fields) != 2 {
		t.Fatalf("custom_fields = %v", created["custom_fields"])
	}
	// Keys are resolved in sorted order: "cf2" before "severity".
	if fields[0]["id"] != "cf2" || fields[0]["value"] != "prod" {
		t.Errorf("field 0 = %v", fields[0])
	}
	if fields[1]["id"] != "cf1" || fields[1]["value"] != "sev1" {
		t.Errorf("field 1 = %v", fields[1])
	}

	// Definitions are cached; a second resolution fetches nothing.
	routeData(t, r, "tasks", "create", Params{
		"name": "Another", "list_id": "L1",
		"custom_fields": map[string]any{"Severity": "sev3"},
	})
	if n := store.fieldsCount(); n != 1 {
		t.Errorf("field definitions fetched %d times, want 1 (cached)", n)
	}
}

func TestCreateTask_UnknownCustomFieldEnumeratesDefined(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	_, err := r.Route(context.Background(), "tasks", "create", Params{
		"name": "x", "list_id": "L1",
		"custom_fields": map[string]any{"urgency": "high"},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Param != "custom_fields" {
		t.Fatalf("expected custom_fields validation error, got %v", err)
	}
	for _, want := range []string{"Severity", "Environment"} {
		if !strings.Contains(verr.Guidance, want) {
			t.Errorf("guidance does not enumerate %q: %s", want, verr.Guidance)
		}
	}
}

func TestUpdateTask_CustomFieldsAlone(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	out := routeData(t, r, "tasks", "update", Params{
		"id":            "T1",
		"custom_fields": map[string]any{"environment": "staging"},
	})
	fields, _ := out["updated_fields"].([]string)
	if len(fields) != 1 || fields[0] != "custom_fields" {
		t.Errorf("updated_fields = %v, want [custom_fields]", fields)
	}
	cfs, _ := store.tasks["T1"]["custom_fields"].([]map[string]any)
	if len(cfs) != 1 || cfs[0]["id"] != "cf2" || cfs[0]["value"] != "staging" {
		t.Errorf("custom_fields = %v", store.tasks["T1"]["custom_fields"])
	}
}

func TestGetTask_ByCustomID(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	out, err := r.Route(context.Background(), "tasks", "get", Params{"custom_id": "ENG-1"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	res, ok := out.(format.Result)
	if !ok {
		t.Fatalf("get returned %T, want format.Result", out)
	}
	data := res.Data.(map[string]any)
	if data["id"] != "T1" {
		t.Errorf("resolved id = %v, want T1", data["id"])
	}
	// Standard level collapses the status object to its name.
	if data["status"] != "open" {
		t.Errorf("status = %v, want open", data["status"])
	}
}

func TestUpdateTask_ReportsUpdatedFields(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	out := routeData(t, r, "tasks", "update", Params{
		"id":       "T1",
		"new_name": "Email Digest v2",
		"status":   "done",
	})
	fields, _ := out["updated_fields"].([]string)
	if len(fields) != 2 || fields[0] != "name" || fields[1] != "status" {
		t.Errorf("updated_fields = %v, want [name status]", fields)
	}
	if store.tasks["T1"]["name"] != "Email Digest v2" {
		t.Errorf("name not updated: %v", store.tasks["T1"]["name"])
	}
}

func TestUpdateTask_NothingToUpdate(t *testing.T) {
	r := newTestRouter(t, newFakeStore())
	_, err := r.Route(context.Background(), "tasks", "update", Params{"id": "T1"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMoveTask_PreservesTypeAndCustomFields(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	out := routeData(t, r, "tasks", "move", Params{
		"id":             "T1",
		"target_list_id": "L2",
	})
	if out["success"] != true || out["old_id"] != "T1" {
		t.Fatalf("move response = %v", out)
	}

	newID := out["id"].(string)
	moved := store.tasks[newID]
	if moved == nil {
		t.Fatal("moved task not created")
	}
	if moved["custom_item_id"] != float64(1002) {
		t.Errorf("custom_item_id = %v, want 1002: the task type must survive the move", moved["custom_item_id"])
	}
	cfs, _ := moved["custom_fields"].([]map[string]any)
	if len(cfs) != 1 || cfs[0]["value"] != "sev2" {
		t.Errorf("custom field values not carried: %v", moved["custom_fields"])
	}
	if moved["due_date"] != int64(1800000000000) {
		t.Errorf("due_date = %v", moved["due_date"])
	}
	// L2 has no status set, so the source status rides along.
	if moved["status"] != "open" {
		t.Errorf("status = %v, want open", moved["status"])
	}

	// Create precedes delete so a failure cannot lose the task.
	if len(store.createOrder) == 0 || len(store.deleted) == 0 {
		t.Fatal("move did not both create and delete")
	}
	if store.deleted[0] != "T1" {
		t.Errorf("deleted %v, want T1", store.deleted)
	}
	if _, still := store.tasks["T1"]; still {
		t.Error("original task still present after move")
	}
}

func TestMoveTask_SameListRejected(t *testing.T) {
	r := newTestRouter(t, newFakeStore())
	_, err := r.Route(context.Background(), "tasks", "move", Params{
		"id": "T1", "target_list_id": "L1",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDuplicateTask_KeepsOriginal(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	out := routeData(t, r, "tasks", "duplicate", Params{"id": "T1"})
	if _, still := store.tasks["T1"]; !still {
		t.Error("duplicate removed the original")
	}
	dup := store.tasks[out["id"].(string)]
	if dup["name"] != "Email Digest (copy)" {
		t.Errorf("copy name = %v", dup["name"])
	}
}

func TestSearchTasks_CachesByScope(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := r.Route(ctx, "tasks", "search", Params{"list_id": "L1"}); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}
	if n := store.searchCount(clickup.TypeTask, "L1"); n != 1 {
		t.Errorf("upstream searched %d times, want 1 (cached)", n)
	}
}

func TestSearchTasks_MutationInvalidatesScope(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)
	ctx := context.Background()

	if _, err := r.Route(ctx, "tasks", "search", Params{"list_id": "L1"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	before := store.searchCount(clickup.TypeTask, "L1")

	if _, err := r.Route(ctx, "tasks", "create", Params{"name": "y", "list_id": "L1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Invalidation triggers a background warm-up of the list scope.
	waitFor(t, "search warm-up", func() bool {
		return store.searchCount(clickup.TypeTask, "L1") > before
	})
}

func TestSearchTasks_QueryFilterAndPagination(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	out, err := r.Route(context.Background(), "tasks", "search", Params{
		"list_id": "L1", "query": "email", "with_metadata": true,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	res := out.(format.Result)
	if res.Metadata == nil || res.Metadata.Page == nil {
		t.Fatal("expected page metadata")
	}
	if res.Metadata.Page.Total != 1 {
		t.Errorf("query filter kept %d tasks, want 1", res.Metadata.Page.Total)
	}
}

func TestWorkspaceTree_CachedAcrossCalls(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)
	ctx := context.Background()

	first := routeData(t, r, "workspace", "tree", Params{})
	routeData(t, r, "workspace", "tree", Params{})

	if n := store.searchCount(clickup.TypeSpace, ""); n != 1 {
		t.Errorf("spaces fetched %d times, want 1", n)
	}

	counts := first["counts"].(map[string]int)
	if counts["spaces"] != 2 || counts["folders"] != 1 || counts["lists"] != 2 {
		t.Errorf("counts = %v", counts)
	}

	_, err := r.Route(ctx, "containers", "create", Params{
		"kind": "list", "name": "Inbox", "space_id": "S1",
	})
	if err != nil {
		t.Fatalf("create container: %v", err)
	}
	waitFor(t, "hierarchy warm-up", func() bool {
		return store.searchCount(clickup.TypeSpace, "") > 1
	})
}

func TestRouter_RecordsCacheTraffic(t *testing.T) {
	store := newFakeStore()
	cs := cache.NewStore(cache.Options{SweepInterval: -1})
	t.Cleanup(cs.Close)
	metrics := &recordedMetrics{}
	r := New(Deps{
		Store:       store,
		Formatter:   format.New(format.Config{}),
		Caches:      cache.NewDomain(cs, cache.DomainTTLs{}),
		SearchCache: cache.NewNamespace(cs, "search", time.Minute),
		Metrics:     metrics,
		WarmTimeout: time.Second,
	})

	routeData(t, r, "workspace", "tree", Params{})
	routeData(t, r, "workspace", "tree", Params{})
	if n := metrics.count("hierarchy:miss"); n != 1 {
		t.Errorf("hierarchy misses = %d, want 1", n)
	}
	if n := metrics.count("hierarchy:hit"); n != 1 {
		t.Errorf("hierarchy hits = %d, want 1", n)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := r.Route(ctx, "tasks", "search", Params{"list_id": "L1"}); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}
	if n := metrics.count("search:miss"); n != 1 {
		t.Errorf("search misses = %d, want 1", n)
	}
	if n := metrics.count("search:hit"); n != 1 {
		t.Errorf("search hits = %d, want 1", n)
	}
}

func TestResolver_AmbiguousNameNarrowedByContainer(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	// "Sprint" exists once; resolving it plainly works.
	id, err := r.resolver.Resolve(context.Background(), clickup.TypeList, resolve.Ref{Name: "Sprint"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "L1" {
		t.Errorf("resolved %q, want L1", id)
	}
}

func TestTags_ApplyChecksSpaceWhenGiven(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	_, err := r.Route(context.Background(), "tags", "apply", Params{
		"id": "T1", "tag": "nonexistent", "space_id": "S1",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(verr.Guidance, "urgent") || !strings.Contains(verr.Guidance, "blocked") {
		t.Errorf("guidance does not enumerate existing tags: %s", verr.Guidance)
	}
	if len(store.tagged) != 0 {
		t.Error("tag applied despite failed validation")
	}

	out := routeData(t, r, "tags", "apply", Params{
		"id": "T1", "tag": "urgent", "space_id": "S1",
	})
	if out["success"] != true || len(store.tagged) != 1 {
		t.Errorf("apply = %v, tagged = %v", out, store.tagged)
	}
}

func TestMembers_FindByEmailAndName(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	out, err := r.Route(context.Background(), "members", "find", Params{"query": "jane@example.com"})
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	data := out.(format.Result).Data.(map[string]any)
	if data["username"] != "jane" {
		t.Errorf("email lookup found %v", data["username"])
	}

	out, err = r.Route(context.Background(), "members", "find", Params{"query": "omar"})
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	data = out.(format.Result).Data.(map[string]any)
	if data["username"] != "omar" {
		t.Errorf("name lookup found %v", data["username"])
	}
}

func TestErrorPayload_Shapes(t *testing.T) {
	nf := &resolve.NotFoundError{Type: clickup.TypeTask, Query: "ghost", Normalized: "ghost"}
	p := ErrorPayload(nf)
	if p["code"] != "not_found" || p["query"] != "ghost" {
		t.Errorf("not found payload = %v", p)
	}

	amb := &resolve.AmbiguousError{
		Type:  clickup.TypeList,
		Query: "sprint",
		Candidates: []resolve.Candidate{
			{ID: "L1", Name: "Sprint", ContainerName: "Backend"},
			{ID: "L9", Name: "Sprint", ContainerName: "Frontend"},
		},
	}
	p = ErrorPayload(amb)
	if p["code"] != "ambiguous_reference" {
		t.Errorf("code = %v", p["code"])
	}
	if cands := p["candidates"].([]map[string]any); len(cands) != 2 {
		t.Errorf("candidates = %v", cands)
	}

	p = ErrorPayload(&ValidationError{Param: "status", Message: "bad", Guidance: "pick one"})
	if p["code"] != "validation_error" || p["param"] != "status" {
		t.Errorf("validation payload = %v", p)
	}

	// A reference with no identifying field at all is a caller contract
	// violation, not an internal failure.
	p = ErrorPayload(resolve.ErrNoReference)
	if p["code"] != "validation_error" {
		t.Errorf("no-reference payload = %v", p)
	}

	p = ErrorPayload(errors.New("boom"))
	if p["code"] != "internal_error" {
		t.Errorf("fallback payload = %v", p)
	}
}

func TestFormatOptions_InvalidDetailLevel(t *testing.T) {
	_, err := formatOptions(Params{"detail_level": "verbose"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Param != "detail_level" {
		t.Fatalf("error = %v", err)
	}
}
