package router

import "context"

// workspaceTree returns the cached space/folder/list hierarchy. This is
// the cheap orientation call agents make before anything else, so it
// reads through the hierarchy cache rather than fanning out upstream on
// every invocation.
func (r *Router) workspaceTree(ctx context.Context, p Params) (any, error) {
	tree, err := r.hierarchy(ctx)
	if err != nil {
		return nil, err
	}

	spaces, folders, lists := len(tree), 0, 0
	for _, s := range tree {
		folders += len(s.Folders)
		lists += len(s.Lists)
		for _, f := range s.Folders {
			lists += len(f.Lists)
		}
	}

	return map[string]any{
		"spaces": tree,
		"counts": map[string]int{
			"spaces":  spaces,
			"folders": folders,
			"lists":   lists,
		},
	}, nil
}
