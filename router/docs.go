package router

import (
	"context"

	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/resolve"
)

func (r *Router) listDocs(ctx context.Context, p Params) (any, error) {
	docs, err := r.store.Search(ctx, clickup.TypeDoc, clickup.Filter{})
	if err != nil {
		return nil, err
	}
	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entities(clickup.TypeDoc, docs, opts), nil
}

func (r *Router) getDoc(ctx context.Context, p Params) (any, error) {
	if err := requireRef(p, "id", "name"); err != nil {
		return nil, err
	}
	id, err := r.resolver.Resolve(ctx, clickup.TypeDoc, resolve.Ref{
		ID:   p.String("id"),
		Name: p.String("name"),
	})
	if err != nil {
		return nil, err
	}
	doc, err := r.store.Get(ctx, clickup.TypeDoc, id)
	if err != nil {
		return nil, err
	}
	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entity(clickup.TypeDoc, doc, opts), nil
}

func (r *Router) createDoc(ctx context.Context, p Params) (any, error) {
	name, err := requireString(p, "name")
	if err != nil {
		return nil, err
	}
	attrs := map[string]any{"name": name}
	if v := p.String("visibility"); v != "" {
		attrs["visibility"] = v
	}
	created, err := r.store.Create(ctx, clickup.TypeDoc, clickup.Parent{}, attrs)
	if err != nil {
		return nil, err
	}
	return createEnvelope(created), nil
}
