package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/resolve"
)

func (r *Router) resolveSpace(ctx context.Context, p Params) (string, error) {
	if err := requireRef(p, "space_id", "space_name"); err != nil {
		return "", err
	}
	return r.resolver.Resolve(ctx, clickup.TypeSpace, resolve.Ref{
		ID:   p.String("space_id"),
		Name: p.String("space_name"),
	})
}

func (r *Router) listTags(ctx context.Context, p Params) (any, error) {
	spaceID, err := r.resolveSpace(ctx, p)
	if err != nil {
		return nil, err
	}
	tags, err := r.tags(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entities(clickup.TypeTag, tags, opts), nil
}

func (r *Router) createTag(ctx context.Context, p Params) (any, error) {
	spaceID, err := r.resolveSpace(ctx, p)
	if err != nil {
		return nil, err
	}
	name, err := requireString(p, "tag")
	if err != nil {
		return nil, err
	}

	tag := map[string]any{"name": name}
	if fg := p.String("foreground"); fg != "" {
		tag["tag_fg"] = fg
	}
	if bg := p.String("background"); bg != "" {
		tag["tag_bg"] = bg
	}

	if _, err := r.store.Create(ctx, clickup.TypeTag,
		clickup.Parent{Type: clickup.TypeSpace, ID: spaceID},
		map[string]any{"tag": tag}); err != nil {
		return nil, err
	}

	r.invalidateTags(spaceID)
	return map[string]any{"success": true, "name": name, "space_id": spaceID}, nil
}

// applyTag attaches an existing space tag to a task. When the caller
// identifies the space, the tag name is checked against it first so a
// typo fails with the valid set instead of silently creating nothing.
func (r *Router) applyTag(ctx context.Context, p Params) (any, error) {
	return r.toggleTag(ctx, p, r.store.AddTag)
}

func (r *Router) removeTag(ctx context.Context, p Params) (any, error) {
	return r.toggleTag(ctx, p, r.store.RemoveTag)
}

func (r *Router) toggleTag(ctx context.Context, p Params, op func(ctx context.Context, taskID, tag string) error) (any, error) {
	if err := requireRef(p, "id", "custom_id", "name"); err != nil {
		return nil, err
	}
	tagName, err := requireString(p, "tag")
	if err != nil {
		return nil, err
	}

	if p.String("space_id") != "" || p.String("space_name") != "" {
		if err := r.checkTagExists(ctx, p, tagName); err != nil {
			return nil, err
		}
	}

	taskID, err := r.resolver.Resolve(ctx, clickup.TypeTask, taskRef(p))
	if err != nil {
		return nil, err
	}
	if err := op(ctx, taskID, tagName); err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "id": taskID, "tag": tagName}, nil
}

func (r *Router) checkTagExists(ctx context.Context, p Params, tagName string) error {
	spaceID, err := r.resolveSpace(ctx, p)
	if err != nil {
		return err
	}
	tags, err := r.tags(ctx, spaceID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.EqualFold(t.Name(), tagName) {
			return nil
		}
		names = append(names, t.Name())
	}
	return &ValidationError{
		Param:    "tag",
		Message:  fmt.Sprintf("tag %q does not exist in space %s", tagName, spaceID),
		Guidance: "existing tags: " + strings.Join(names, ", "),
	}
}

func (r *Router) refreshTags(ctx context.Context, p Params) (any, error) {
	spaceID, err := r.resolveSpace(ctx, p)
	if err != nil {
		return nil, err
	}
	r.invalidateTags(spaceID)
	return map[string]any{"success": true, "space_id": spaceID}, nil
}

func (r *Router) invalidateTags(spaceID string) {
	if r.caches == nil {
		return
	}
	r.caches.Tags.Invalidate(spaceID)
	r.warm("tags:"+spaceID, func(ctx context.Context) error {
		_, err := r.tags(ctx, spaceID)
		return err
	})
}
