package router

import (
	"context"
	"fmt"

	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/resolve"
)

// containerKind validates the "kind" discriminator of container
// operations. Mutations cover lists and folders; spaces are readable
// but managed in the ClickUp UI.
func containerKind(p Params, allowSpace bool) (clickup.EntityType, error) {
	kind := p.String("kind")
	switch kind {
	case "list":
		return clickup.TypeList, nil
	case "folder":
		return clickup.TypeFolder, nil
	case "space":
		if allowSpace {
			return clickup.TypeSpace, nil
		}
	}
	valid := "list or folder"
	if allowSpace {
		valid = "list, folder, or space"
	}
	return "", &ValidationError{
		Param:    "kind",
		Message:  fmt.Sprintf("unknown container kind %q", kind),
		Guidance: "use " + valid,
	}
}

func (r *Router) createContainer(ctx context.Context, p Params) (any, error) {
	kind, err := containerKind(p, false)
	if err != nil {
		return nil, err
	}
	name, err := requireString(p, "name")
	if err != nil {
		return nil, err
	}

	var parent clickup.Parent
	switch kind {
	case clickup.TypeFolder:
		if err := requireRef(p, "space_id", "space_name"); err != nil {
			return nil, err
		}
		spaceID, err := r.resolver.Resolve(ctx, clickup.TypeSpace, resolve.Ref{
			ID: p.String("space_id"), Name: p.String("space_name"),
		})
		if err != nil {
			return nil, err
		}
		parent = clickup.Parent{Type: clickup.TypeSpace, ID: spaceID}
	case clickup.TypeList:
		// Lists live in a folder when one is given, otherwise directly
		// in a space.
		if p.String("folder_id") != "" || p.String("folder_name") != "" {
			folderID, err := r.resolver.Resolve(ctx, clickup.TypeFolder, resolve.Ref{
				ID:            p.String("folder_id"),
				Name:          p.String("folder_name"),
				ContainerHint: p.String("space_name"),
			})
			if err != nil {
				return nil, err
			}
			parent = clickup.Parent{Type: clickup.TypeFolder, ID: folderID}
		} else {
			if err := requireRef(p, "space_id", "space_name", "folder_id", "folder_name"); err != nil {
				return nil, err
			}
			spaceID, err := r.resolver.Resolve(ctx, clickup.TypeSpace, resolve.Ref{
				ID: p.String("space_id"), Name: p.String("space_name"),
			})
			if err != nil {
				return nil, err
			}
			parent = clickup.Parent{Type: clickup.TypeSpace, ID: spaceID}
		}
	}

	attrs := map[string]any{"name": name}
	if c := p.String("content"); c != "" {
		attrs["content"] = c
	}

	created, err := r.store.Create(ctx, kind, parent, attrs)
	if err != nil {
		return nil, err
	}

	r.invalidateHierarchy()
	return createEnvelope(created), nil
}

func (r *Router) getContainer(ctx context.Context, p Params) (any, error) {
	kind, err := containerKind(p, true)
	if err != nil {
		return nil, err
	}
	if err := requireRef(p, "id", "name"); err != nil {
		return nil, err
	}

	id, err := r.resolver.Resolve(ctx, kind, resolve.Ref{
		ID:            p.String("id"),
		Name:          p.String("name"),
		ContainerHint: firstNonEmpty(p.String("folder_name"), p.String("space_name")),
	})
	if err != nil {
		return nil, err
	}

	entity, err := r.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entity(kind, entity, opts), nil
}

func (r *Router) updateContainer(ctx context.Context, p Params) (any, error) {
	kind, err := containerKind(p, false)
	if err != nil {
		return nil, err
	}
	if err := requireRef(p, "id", "name"); err != nil {
		return nil, err
	}

	id, err := r.resolver.Resolve(ctx, kind, resolve.Ref{
		ID:            p.String("id"),
		Name:          p.String("name"),
		ContainerHint: firstNonEmpty(p.String("folder_name"), p.String("space_name")),
	})
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]any)
	var updated []string
	if p.Has("new_name") {
		attrs["name"] = p.String("new_name")
		updated = append(updated, "name")
	}
	if p.Has("content") {
		attrs["content"] = p.String("content")
		updated = append(updated, "content")
	}
	if len(attrs) == 0 {
		return nil, &ValidationError{
			Param:    "attributes",
			Message:  "nothing to update",
			Guidance: "supply new_name or content",
		}
	}

	result, err := r.store.Update(ctx, kind, id, attrs)
	if err != nil {
		return nil, err
	}

	r.invalidateHierarchy()
	return updateEnvelope(id, result.Name(), updated), nil
}

func (r *Router) deleteContainer(ctx context.Context, p Params) (any, error) {
	kind, err := containerKind(p, false)
	if err != nil {
		return nil, err
	}
	if err := requireRef(p, "id", "name"); err != nil {
		return nil, err
	}

	id, err := r.resolver.Resolve(ctx, kind, resolve.Ref{
		ID:            p.String("id"),
		Name:          p.String("name"),
		ContainerHint: firstNonEmpty(p.String("folder_name"), p.String("space_name")),
	})
	if err != nil {
		return nil, err
	}

	if err := r.store.Delete(ctx, kind, id); err != nil {
		return nil, err
	}

	r.invalidateHierarchy()
	if r.searches != nil && kind == clickup.TypeList {
		r.searches.Invalidate(id)
	}
	return deleteEnvelope(id, p.String("name")), nil
}

func (r *Router) listContainers(ctx context.Context, p Params) (any, error) {
	kind, err := containerKind(p, true)
	if err != nil {
		return nil, err
	}

	var filter clickup.Filter
	switch kind {
	case clickup.TypeSpace:
		// team-wide, no container
	case clickup.TypeFolder:
		if err := requireRef(p, "space_id", "space_name"); err != nil {
			return nil, err
		}
		spaceID, err := r.resolver.Resolve(ctx, clickup.TypeSpace, resolve.Ref{
			ID: p.String("space_id"), Name: p.String("space_name"),
		})
		if err != nil {
			return nil, err
		}
		filter = clickup.Filter{ContainerType: clickup.TypeSpace, ContainerID: spaceID}
	case clickup.TypeList:
		if p.String("folder_id") != "" || p.String("folder_name") != "" {
			folderID, err := r.resolver.Resolve(ctx, clickup.TypeFolder, resolve.Ref{
				ID:            p.String("folder_id"),
				Name:          p.String("folder_name"),
				ContainerHint: p.String("space_name"),
			})
			if err != nil {
				return nil, err
			}
			filter = clickup.Filter{ContainerType: clickup.TypeFolder, ContainerID: folderID}
		} else {
			if err := requireRef(p, "space_id", "space_name", "folder_id", "folder_name"); err != nil {
				return nil, err
			}
			spaceID, err := r.resolver.Resolve(ctx, clickup.TypeSpace, resolve.Ref{
				ID: p.String("space_id"), Name: p.String("space_name"),
			})
			if err != nil {
				return nil, err
			}
			filter = clickup.Filter{ContainerType: clickup.TypeSpace, ContainerID: spaceID}
		}
	}

	entities, err := r.store.Search(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	opts, err := formatOptions(p)
	if err != nil {
		return nil, err
	}
	return r.formatter.Entities(kind, entities, opts), nil
}
