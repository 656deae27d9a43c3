package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/clickops/clickup"
)

// ErrNoReference indicates the caller supplied no identifying field at
// all. This is a caller contract violation, not a failed lookup.
var ErrNoReference = errors.New("resolve: provide an id, customId, or name")

// NotFoundError indicates no candidate matched the reference. It keeps
// the normalized query so callers can see what was actually compared.
type NotFoundError struct {
	Type       clickup.EntityType
	Query      string
	Normalized string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolve: no %s matches %q (normalized %q); use an ID instead of a name, or check the name for typos", e.Type, e.Query, e.Normalized)
}

// AmbiguousError indicates multiple candidates tied for best match. It
// carries the full candidate list so a human or agent can pick one; the
// resolver never guesses among truly ambiguous matches.
type AmbiguousError struct {
	Type       clickup.EntityType
	Query      string
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = fmt.Sprintf("%s (id %s)", c.Name, c.ID)
	}
	return fmt.Sprintf("resolve: %d %ss match %q: %s; choose one by ID or supply a containerHint",
		len(e.Candidates), e.Type, e.Query, strings.Join(names, ", "))
}
