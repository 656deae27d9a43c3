package router

import (
	"context"
	"strings"

	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/resolve"
)

func (r *Router) listMembers(ctx context.Context, p Params) (any, error) {
	members, err := r.members(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entities(clickup.TypeMember, members, opts), nil
}

// findMember resolves one workspace member by username or email.
// An exact email match wins outright; otherwise the query goes through
// the same fuzzy name resolution as every other entity type.
func (r *Router) findMember(ctx context.Context, p Params) (any, error) {
	query, err := requireString(p, "query")
	if err != nil {
		return nil, err
	}

	members, err := r.members(ctx)
	if err != nil {
		return nil, err
	}

	var match clickup.Entity
	if strings.Contains(query, "@") {
		for _, m := range members {
			if email, ok := m["email"].(string); ok && strings.EqualFold(email, query) {
				match = m
				break
			}
		}
	}
	if match == nil {
		id, err := r.resolver.Resolve(ctx, clickup.TypeMember, resolve.Ref{Name: query})
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if memberID(m) == id {
				match = m
				break
			}
		}
	}
	if match == nil {
		return nil, &resolve.NotFoundError{Type: clickup.TypeMember, Query: query, Normalized: strings.ToLower(query)}
	}

	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entity(clickup.TypeMember, match, opts), nil
}
