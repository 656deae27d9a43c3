package router

import (
	"context"
	"fmt"

	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/resolve"
)

// TreeList is a list node in the workspace hierarchy.
type TreeList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TreeFolder is a folder node with its lists.
type TreeFolder struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Lists []TreeList `json:"lists"`
}

// TreeSpace is a space node with its folders and folderless lists.
type TreeSpace struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Folders []TreeFolder `json:"folders"`
	Lists   []TreeList   `json:"lists"`
}

// hierarchy returns the workspace tree, reading through the hierarchy
// cache. The tree backs both the workspace tool and name resolution
// for containers.
func (r *Router) hierarchy(ctx context.Context) ([]TreeSpace, error) {
	fetch := func(ctx context.Context) (any, error) {
		return r.fetchHierarchy(ctx)
	}

	if r.caches == nil {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]TreeSpace), nil
	}

	if v, ok := r.caches.Hierarchy.Get("team", "tree"); ok {
		r.metrics.RecordCache(ctx, "hierarchy", true)
		return v.([]TreeSpace), nil
	}
	r.metrics.RecordCache(ctx, "hierarchy", false)

	v, err := r.caches.Hierarchy.GetOrSet(ctx, "team", "tree", fetch)
	if err != nil {
		return nil, err
	}
	return v.([]TreeSpace), nil
}

func (r *Router) fetchHierarchy(ctx context.Context) ([]TreeSpace, error) {
	spaces, err := r.store.Search(ctx, clickup.TypeSpace, clickup.Filter{})
	if err != nil {
		return nil, err
	}

	tree := make([]TreeSpace, 0, len(spaces))
	for _, space := range spaces {
		node := TreeSpace{ID: space.ID(), Name: space.Name()}

		folders, err := r.store.Search(ctx, clickup.TypeFolder, clickup.Filter{
			ContainerType: clickup.TypeSpace,
			ContainerID:   space.ID(),
		})
		if err != nil {
			return nil, err
		}
		for _, folder := range folders {
			fnode := TreeFolder{ID: folder.ID(), Name: folder.Name()}
			// Folder responses embed their lists.
			if lists, ok := folder["lists"].([]any); ok {
				for _, raw := range lists {
					if l, ok := raw.(map[string]any); ok {
						fnode.Lists = append(fnode.Lists, TreeList{
							ID:   clickup.Entity(l).ID(),
							Name: clickup.Entity(l).Name(),
						})
					}
				}
			}
			node.Folders = append(node.Folders, fnode)
		}

		folderless, err := r.store.Search(ctx, clickup.TypeList, clickup.Filter{
			ContainerType: clickup.TypeSpace,
			ContainerID:   space.ID(),
		})
		if err != nil {
			return nil, err
		}
		for _, list := range folderless {
			node.Lists = append(node.Lists, TreeList{ID: list.ID(), Name: list.Name()})
		}

		tree = append(tree, node)
	}
	return tree, nil
}

// invalidateHierarchy drops the cached tree and schedules a warm-up.
func (r *Router) invalidateHierarchy() {
	if r.caches == nil {
		return
	}
	r.caches.Hierarchy.Invalidate("team")
	r.warm("hierarchy", func(ctx context.Context) error {
		_, err := r.hierarchy(ctx)
		return err
	})
}

// members returns the workspace members, reading through the members cache.
func (r *Router) members(ctx context.Context) ([]clickup.Entity, error) {
	fetch := func(ctx context.Context) (any, error) {
		return r.store.Search(ctx, clickup.TypeMember, clickup.Filter{})
	}

	if r.caches == nil {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]clickup.Entity), nil
	}

	if v, ok := r.caches.Members.Get("team", "all"); ok {
		r.metrics.RecordCache(ctx, "members", true)
		return v.([]clickup.Entity), nil
	}
	r.metrics.RecordCache(ctx, "members", false)

	v, err := r.caches.Members.GetOrSet(ctx, "team", "all", fetch)
	if err != nil {
		return nil, err
	}
	return v.([]clickup.Entity), nil
}

// tags returns a space's tags, reading through the tags cache.
func (r *Router) tags(ctx context.Context, spaceID string) ([]clickup.Entity, error) {
	fetch := func(ctx context.Context) (any, error) {
		return r.store.Search(ctx, clickup.TypeTag, clickup.Filter{
			ContainerType: clickup.TypeSpace,
			ContainerID:   spaceID,
		})
	}

	if r.caches == nil {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]clickup.Entity), nil
	}

	if v, ok := r.caches.Tags.Get(spaceID, "all"); ok {
		r.metrics.RecordCache(ctx, "tags", true)
		return v.([]clickup.Entity), nil
	}
	r.metrics.RecordCache(ctx, "tags", false)

	v, err := r.caches.Tags.GetOrSet(ctx, spaceID, "all", fetch)
	if err != nil {
		return nil, err
	}
	return v.([]clickup.Entity), nil
}

// customFields returns a list's custom field definitions, reading
// through the custom-fields cache. Definitions churn rarely, so this
// namespace carries the longest TTL of the domain.
func (r *Router) customFields(ctx context.Context, listID string) ([]clickup.Entity, error) {
	fetch := func(ctx context.Context) (any, error) {
		return r.store.Fields(ctx, listID)
	}

	if r.caches == nil {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]clickup.Entity), nil
	}

	if v, ok := r.caches.CustomFields.Get(listID, "defs"); ok {
		r.metrics.RecordCache(ctx, "customfields", true)
		return v.([]clickup.Entity), nil
	}
	r.metrics.RecordCache(ctx, "customfields", false)

	v, err := r.caches.CustomFields.GetOrSet(ctx, listID, "defs", fetch)
	if err != nil {
		return nil, err
	}
	return v.([]clickup.Entity), nil
}

// listCandidates feeds the resolver's search space per entity type.
func (r *Router) listCandidates(ctx context.Context, typ clickup.EntityType) ([]resolve.Candidate, error) {
	switch typ {
	case clickup.TypeSpace, clickup.TypeFolder, clickup.TypeList:
		return r.containerCandidates(ctx, typ)
	case clickup.TypeTask:
		return r.taskCandidates(ctx)
	case clickup.TypeMember:
		return r.memberCandidates(ctx)
	case clickup.TypeDoc:
		return r.docCandidates(ctx)
	default:
		return nil, fmt.Errorf("router: cannot resolve entities of type %q by name", typ)
	}
}

func (r *Router) containerCandidates(ctx context.Context, typ clickup.EntityType) ([]resolve.Candidate, error) {
	tree, err := r.hierarchy(ctx)
	if err != nil {
		return nil, err
	}

	var out []resolve.Candidate
	for _, space := range tree {
		switch typ {
		case clickup.TypeSpace:
			out = append(out, resolve.Candidate{ID: space.ID, Name: space.Name})
		case clickup.TypeFolder:
			for _, folder := range space.Folders {
				out = append(out, resolve.Candidate{
					ID: folder.ID, Name: folder.Name,
					ContainerID: space.ID, ContainerName: space.Name,
				})
			}
		case clickup.TypeList:
			for _, folder := range space.Folders {
				for _, list := range folder.Lists {
					out = append(out, resolve.Candidate{
						ID: list.ID, Name: list.Name,
						ContainerID: folder.ID, ContainerName: folder.Name,
					})
				}
			}
			for _, list := range space.Lists {
				out = append(out, resolve.Candidate{
					ID: list.ID, Name: list.Name,
					ContainerID: space.ID, ContainerName: space.Name,
				})
			}
		}
	}
	return out, nil
}

func (r *Router) taskCandidates(ctx context.Context) ([]resolve.Candidate, error) {
	tasks, err := r.store.Search(ctx, clickup.TypeTask, clickup.Filter{})
	if err != nil {
		return nil, err
	}

	out := make([]resolve.Candidate, 0, len(tasks))
	for _, task := range tasks {
		c := resolve.Candidate{
			ID:        task.ID(),
			Name:      task.Name(),
			CustomID:  task.CustomID(),
			UpdatedAt: task.DateUpdated(),
		}
		if list, ok := task["list"].(map[string]any); ok {
			c.ContainerID = clickup.Entity(list).ID()
			c.ContainerName = clickup.Entity(list).Name()
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Router) memberCandidates(ctx context.Context) ([]resolve.Candidate, error) {
	members, err := r.members(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]resolve.Candidate, 0, len(members))
	for _, m := range members {
		out = append(out, resolve.Candidate{ID: memberID(m), Name: m.Name()})
	}
	return out, nil
}

func (r *Router) docCandidates(ctx context.Context) ([]resolve.Candidate, error) {
	docs, err := r.store.Search(ctx, clickup.TypeDoc, clickup.Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]resolve.Candidate, 0, len(docs))
	for _, d := range docs {
		out = append(out, resolve.Candidate{ID: d.ID(), Name: d.Name(), UpdatedAt: d.DateUpdated()})
	}
	return out, nil
}

// memberID stringifies the numeric user ID ClickUp returns.
func memberID(m clickup.Entity) string {
	switch v := m["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
