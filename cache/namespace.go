package cache

import (
	"context"
	"regexp"
	"time"
)

// Namespace scopes a Store under a fixed prefix with its own default
// TTL. Keys have the shape "<namespace>:<scope>:<rest>", where scope is
// typically a container ID, so invalidation can target one container
// without touching the rest of the namespace.
type Namespace struct {
	store *Store
	name  string
	ttl   time.Duration
}

// NewNamespace creates a namespace on top of store with the given
// default TTL.
func NewNamespace(store *Store, name string, ttl time.Duration) *Namespace {
	return &Namespace{store: store, name: name, ttl: ttl}
}

// Key builds the namespaced key for a scope and subkey.
func (n *Namespace) Key(scope, rest string) string {
	return n.name + ":" + scope + ":" + rest
}

// Get retrieves a namespaced value.
func (n *Namespace) Get(scope, rest string) (any, bool) {
	return n.store.Get(n.Key(scope, rest))
}

// Set stores a namespaced value with the namespace TTL.
func (n *Namespace) Set(scope, rest string, value any) {
	n.store.Set(n.Key(scope, rest), value, n.ttl)
}

// GetOrSet reads through the namespace with the namespace TTL.
func (n *Namespace) GetOrSet(ctx context.Context, scope, rest string, fetch func(ctx context.Context) (any, error)) (any, error) {
	return n.store.GetOrSet(ctx, n.Key(scope, rest), n.ttl, fetch)
}

// Invalidate removes all entries for one scope and returns the count.
func (n *Namespace) Invalidate(scope string) int {
	count, err := n.store.ClearPattern("^" + regexp.QuoteMeta(n.name+":"+scope+":"))
	if err != nil {
		// QuoteMeta guarantees a valid pattern.
		return 0
	}
	return count
}

// InvalidateAll removes every entry in the namespace.
func (n *Namespace) InvalidateAll() int {
	count, err := n.store.ClearPattern("^" + regexp.QuoteMeta(n.name+":"))
	if err != nil {
		return 0
	}
	return count
}

// Default TTLs per domain namespace, tuned by expected churn: the
// hierarchy tree changes often, tag and custom-field definitions rarely.
const (
	DefaultHierarchyTTL    = 5 * time.Minute
	DefaultMembersTTL      = 10 * time.Minute
	DefaultTagsTTL         = 15 * time.Minute
	DefaultCustomFieldsTTL = 30 * time.Minute
)

// DomainTTLs overrides the per-namespace TTLs. Zero values use defaults.
type DomainTTLs struct {
	Hierarchy    time.Duration
	Members      time.Duration
	Tags         time.Duration
	CustomFields time.Duration
}

// Domain bundles the namespaces the router reads through.
type Domain struct {
	Hierarchy    *Namespace
	Members      *Namespace
	Tags         *Namespace
	CustomFields *Namespace
}

// NewDomain creates the domain namespaces on a shared store.
func NewDomain(store *Store, ttls DomainTTLs) *Domain {
	if ttls.Hierarchy <= 0 {
		ttls.Hierarchy = DefaultHierarchyTTL
	}
	if ttls.Members <= 0 {
		ttls.Members = DefaultMembersTTL
	}
	if ttls.Tags <= 0 {
		ttls.Tags = DefaultTagsTTL
	}
	if ttls.CustomFields <= 0 {
		ttls.CustomFields = DefaultCustomFieldsTTL
	}
	return &Domain{
		Hierarchy:    NewNamespace(store, "hierarchy", ttls.Hierarchy),
		Members:      NewNamespace(store, "members", ttls.Members),
		Tags:         NewNamespace(store, "tags", ttls.Tags),
		CustomFields: NewNamespace(store, "customfields", ttls.CustomFields),
	}
}
