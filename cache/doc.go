// Package cache provides the in-memory TTL cache backing the response
// shaping layer.
//
// It offers a generic Store with lazy expiry, pattern invalidation, and
// single-flight read-through, plus domain namespaces (hierarchy,
// members, tags, custom fields) with churn-tuned TTLs and container
// scoped invalidation. The cache is best-effort: it is an optimization,
// never a correctness dependency.
package cache
