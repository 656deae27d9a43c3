package cache

import (
	"context"
	"testing"
	"time"
)

func TestNamespace_ScopedInvalidation(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	tags := NewNamespace(s, "tags", time.Minute)
	tags.Set("space1", "all", []string{"bug", "feature"})
	tags.Set("space2", "all", []string{"ops"})

	if removed := tags.Invalidate("space1"); removed != 1 {
		t.Errorf("Invalidate removed %d, want 1", removed)
	}
	if _, ok := tags.Get("space1", "all"); ok {
		t.Error("invalidated scope should miss")
	}
	if _, ok := tags.Get("space2", "all"); !ok {
		t.Error("other scope must survive scoped invalidation")
	}
}

func TestNamespace_InvalidateAll(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	members := NewNamespace(s, "members", time.Minute)
	members.Set("team", "all", 1)
	members.Set("team2", "all", 2)
	other := NewNamespace(s, "tags", time.Minute)
	other.Set("space", "all", 3)

	if removed := members.InvalidateAll(); removed != 2 {
		t.Errorf("InvalidateAll removed %d, want 2", removed)
	}
	if _, ok := other.Get("space", "all"); !ok {
		t.Error("other namespace must survive InvalidateAll")
	}
}

func TestNamespace_GetOrSet(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	hier := NewNamespace(s, "hierarchy", time.Minute)
	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return "tree", nil
	}

	for i := 0; i < 3; i++ {
		got, err := hier.GetOrSet(context.Background(), "team", "tree", fetch)
		if err != nil || got != "tree" {
			t.Fatalf("GetOrSet = (%v, %v)", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
}

func TestNewDomain_Defaults(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	d := NewDomain(s, DomainTTLs{})
	if d.Hierarchy.ttl != DefaultHierarchyTTL {
		t.Errorf("Hierarchy TTL = %v", d.Hierarchy.ttl)
	}
	if d.Members.ttl != DefaultMembersTTL {
		t.Errorf("Members TTL = %v", d.Members.ttl)
	}
	if d.Tags.ttl != DefaultTagsTTL {
		t.Errorf("Tags TTL = %v", d.Tags.ttl)
	}
	if d.CustomFields.ttl != DefaultCustomFieldsTTL {
		t.Errorf("CustomFields TTL = %v", d.CustomFields.ttl)
	}
}

func TestSearchKey_Deterministic(t *testing.T) {
	a, err := SearchKey("task", map[string]any{"list": "42", "archived": false, "tags": []any{"a", "b"}})
	if err != nil {
		t.Fatalf("SearchKey failed: %v", err)
	}
	b, err := SearchKey("task", map[string]any{"tags": []any{"a", "b"}, "archived": false, "list": "42"})
	if err != nil {
		t.Fatalf("SearchKey failed: %v", err)
	}
	if a != b {
		t.Errorf("same params should produce same key: %q vs %q", a, b)
	}

	c, _ := SearchKey("task", map[string]any{"list": "43"})
	if a == c {
		t.Error("different params should produce different keys")
	}
}
