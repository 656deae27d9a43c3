package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/jonwraymond/clickops/clickup"
)

// Ref is a loose reference to an entity. Exactly one resolution path is
// taken, in priority order: ID, CustomID, Name.
type Ref struct {
	ID            string
	CustomID      string
	Name          string
	ContainerHint string // container name or ID used to narrow ambiguous name matches
}

// Candidate is one entry in the resolver's search space.
type Candidate struct {
	ID            string
	Name          string
	CustomID      string
	ContainerID   string
	ContainerName string
	UpdatedAt     time.Time
}

// Lister supplies the candidate pool for a type. Implementations
// usually read through the cache to the upstream store.
type Lister interface {
	ListCandidates(ctx context.Context, typ clickup.EntityType) ([]Candidate, error)
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context, typ clickup.EntityType) ([]Candidate, error)

func (f ListerFunc) ListCandidates(ctx context.Context, typ clickup.EntityType) ([]Candidate, error) {
	return f(ctx, typ)
}

// Resolver translates loose references into canonical entity IDs.
type Resolver struct {
	lister Lister
}

// New creates a Resolver over the given candidate source.
func New(lister Lister) *Resolver {
	return &Resolver{lister: lister}
}

// Resolve returns the entity ID for ref.
//
// An explicit ID is returned unchecked: the caller is trusted and a
// validation round-trip would double every tool call's latency. A
// CustomID is matched case-sensitively. A name goes through normalized
// exact matching, then substring scoring, with the container hint as a
// narrowing filter when matches tie. Truly ambiguous references fail
// with *AmbiguousError listing every remaining candidate.
func (r *Resolver) Resolve(ctx context.Context, typ clickup.EntityType, ref Ref) (string, error) {
	if ref.ID != "" {
		return ref.ID, nil
	}
	if ref.CustomID == "" && ref.Name == "" {
		return "", ErrNoReference
	}

	candidates, err := r.lister.ListCandidates(ctx, typ)
	if err != nil {
		return "", err
	}

	if ref.CustomID != "" {
		return resolveCustomID(typ, ref.CustomID, candidates)
	}
	return resolveName(typ, ref, candidates)
}

func resolveCustomID(typ clickup.EntityType, customID string, candidates []Candidate) (string, error) {
	var matches []Candidate
	for _, c := range candidates {
		if c.CustomID == customID {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Type: typ, Query: customID, Normalized: customID}
	case 1:
		return matches[0].ID, nil
	default:
		return "", &AmbiguousError{Type: typ, Query: customID, Candidates: matches}
	}
}

func resolveName(typ clickup.EntityType, ref Ref, candidates []Candidate) (string, error) {
	id, ambiguous := matchName(ref.Name, candidates)
	if id != "" {
		return id, nil
	}

	if len(ambiguous) > 1 && ref.ContainerHint != "" {
		narrowed := filterByContainer(ambiguous, ref.ContainerHint)
		if len(narrowed) > 0 {
			id, ambiguous = matchName(ref.Name, narrowed)
			if id != "" {
				return id, nil
			}
		}
	}

	if len(ambiguous) > 1 {
		return "", &AmbiguousError{Type: typ, Query: ref.Name, Candidates: ambiguous}
	}
	return "", &NotFoundError{Type: typ, Query: ref.Name, Normalized: normalizeName(ref.Name)}
}

// matchName returns either a single winning ID or the set of
// equally-good candidates still in contention (empty when nothing
// matched at all).
func matchName(query string, candidates []Candidate) (string, []Candidate) {
	normQuery := normalizeName(query)

	// Tier 1: exact normalized match.
	var exact []Candidate
	for _, c := range candidates {
		if normalizeName(c.Name) == normQuery {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0].ID, nil
	}
	if len(exact) > 1 {
		return "", exact
	}

	// Tier 2: substring containment, scored by overlap length.
	best := 0
	var scored []Candidate
	for _, c := range candidates {
		score := containmentScore(normQuery, normalizeName(c.Name))
		if score == 0 {
			continue
		}
		if score > best {
			best = score
			scored = scored[:0]
		}
		if score == best {
			scored = append(scored, c)
		}
	}
	if len(scored) == 0 {
		return "", nil
	}
	if len(scored) == 1 {
		return scored[0].ID, nil
	}

	// Equal scores: most recently updated wins, if one is strictly newer.
	newest := scored[0]
	unique := true
	for _, c := range scored[1:] {
		if c.UpdatedAt.After(newest.UpdatedAt) {
			newest = c
			unique = true
		} else if c.UpdatedAt.Equal(newest.UpdatedAt) {
			unique = false
		}
	}
	if unique && !newest.UpdatedAt.IsZero() {
		return newest.ID, nil
	}
	return "", scored
}

func containmentScore(query, name string) int {
	if query == "" || name == "" {
		return 0
	}
	if strings.Contains(name, query) {
		return len(query)
	}
	if strings.Contains(query, name) {
		return len(name)
	}
	return 0
}

func filterByContainer(candidates []Candidate, hint string) []Candidate {
	normHint := normalizeName(hint)
	var out []Candidate
	for _, c := range candidates {
		if c.ContainerID == hint || normalizeName(c.ContainerName) == normHint {
			out = append(out, c)
		}
	}
	return out
}

// normalizeName lower-cases and strips the punctuation that upstream
// names commonly vary in (hyphens, dots, underscores), so that
// "E-Mail Automation" and "email automation" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case '-', '.', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
