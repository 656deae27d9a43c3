package clickup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Parent identifies the container an entity is created inside. Tasks
// live in lists, lists in folders or directly in spaces, folders and
// tags in spaces, docs in the workspace itself.
type Parent struct {
	Type EntityType
	ID   string
}

// Filter scopes a Search call. A zero ContainerID means team-wide.
type Filter struct {
	ContainerType EntityType
	ContainerID   string
	Params        url.Values // passed through as query parameters
}

// Get fetches one entity by ID.
func (c *Client) Get(ctx context.Context, typ EntityType, id string) (Entity, error) {
	switch typ {
	case TypeTask:
		return c.get(ctx, "/v2/task/"+url.PathEscape(id))
	case TypeList:
		return c.get(ctx, "/v2/list/"+url.PathEscape(id))
	case TypeFolder:
		return c.get(ctx, "/v2/folder/"+url.PathEscape(id))
	case TypeSpace:
		return c.get(ctx, "/v2/space/"+url.PathEscape(id))
	case TypeDoc:
		return c.get(ctx, fmt.Sprintf("/v3/workspaces/%s/docs/%s", c.cfg.TeamID, url.PathEscape(id)))
	default:
		return nil, fmt.Errorf("clickup: get not supported for type %q", typ)
	}
}

// Create creates an entity inside the given parent.
func (c *Client) Create(ctx context.Context, typ EntityType, parent Parent, attrs map[string]any) (Entity, error) {
	path, err := c.createPath(typ, parent)
	if err != nil {
		return nil, err
	}
	raw, err := c.Request(ctx, http.MethodPost, path, attrs)
	if err != nil {
		return nil, err
	}
	return decodeEntity(raw)
}

func (c *Client) createPath(typ EntityType, parent Parent) (string, error) {
	pid := url.PathEscape(parent.ID)
	switch typ {
	case TypeTask:
		if parent.Type != TypeList {
			return "", fmt.Errorf("clickup: tasks are created in lists, got parent %q", parent.Type)
		}
		return "/v2/list/" + pid + "/task", nil
	case TypeList:
		switch parent.Type {
		case TypeFolder:
			return "/v2/folder/" + pid + "/list", nil
		case TypeSpace:
			return "/v2/space/" + pid + "/list", nil
		}
		return "", fmt.Errorf("clickup: lists are created in folders or spaces, got parent %q", parent.Type)
	case TypeFolder:
		if parent.Type != TypeSpace {
			return "", fmt.Errorf("clickup: folders are created in spaces, got parent %q", parent.Type)
		}
		return "/v2/space/" + pid + "/folder", nil
	case TypeTag:
		if parent.Type != TypeSpace {
			return "", fmt.Errorf("clickup: tags are created in spaces, got parent %q", parent.Type)
		}
		return "/v2/space/" + pid + "/tag", nil
	case TypeDoc:
		return fmt.Sprintf("/v3/workspaces/%s/docs", c.cfg.TeamID), nil
	default:
		return "", fmt.Errorf("clickup: create not supported for type %q", typ)
	}
}

// Update mutates an entity in place. Only the supplied attributes are sent.
func (c *Client) Update(ctx context.Context, typ EntityType, id string, attrs map[string]any) (Entity, error) {
	var path string
	switch typ {
	case TypeTask:
		path = "/v2/task/" + url.PathEscape(id)
	case TypeList:
		path = "/v2/list/" + url.PathEscape(id)
	case TypeFolder:
		path = "/v2/folder/" + url.PathEscape(id)
	default:
		return nil, fmt.Errorf("clickup: update not supported for type %q", typ)
	}
	raw, err := c.Request(ctx, http.MethodPut, path, attrs)
	if err != nil {
		return nil, err
	}
	return decodeEntity(raw)
}

// Delete removes an entity.
func (c *Client) Delete(ctx context.Context, typ EntityType, id string) error {
	var path string
	switch typ {
	case TypeTask:
		path = "/v2/task/" + url.PathEscape(id)
	case TypeList:
		path = "/v2/list/" + url.PathEscape(id)
	case TypeFolder:
		path = "/v2/folder/" + url.PathEscape(id)
	default:
		return fmt.Errorf("clickup: delete not supported for type %q", typ)
	}
	_, err := c.Request(ctx, http.MethodDelete, path, nil)
	return err
}

// Search lists entities of a type within the filter's container, or
// team-wide when no container is given.
func (c *Client) Search(ctx context.Context, typ EntityType, filter Filter) ([]Entity, error) {
	path, key, err := c.searchPath(typ, filter)
	if err != nil {
		return nil, err
	}
	raw, err := c.Request(ctx, http.MethodGet, path+queryString(filter.Params), nil)
	if err != nil {
		return nil, err
	}
	if key == "members" {
		// Members hang off the team object rather than a plain envelope.
		team, err := decodeEntity(raw)
		if err != nil {
			return nil, err
		}
		return memberEntities(team), nil
	}
	return decodeListOf(raw, key)
}

func (c *Client) searchPath(typ EntityType, filter Filter) (path, key string, err error) {
	cid := url.PathEscape(filter.ContainerID)
	switch typ {
	case TypeTask:
		if filter.ContainerID != "" {
			return "/v2/list/" + cid + "/task", "tasks", nil
		}
		return "/v2/team/" + c.cfg.TeamID + "/task", "tasks", nil
	case TypeList:
		if filter.ContainerType == TypeSpace {
			return "/v2/space/" + cid + "/list", "lists", nil
		}
		if filter.ContainerID != "" {
			return "/v2/folder/" + cid + "/list", "lists", nil
		}
		return "", "", fmt.Errorf("clickup: listing lists requires a folder or space")
	case TypeFolder:
		if filter.ContainerID == "" {
			return "", "", fmt.Errorf("clickup: listing folders requires a space")
		}
		return "/v2/space/" + cid + "/folder", "folders", nil
	case TypeSpace:
		return "/v2/team/" + c.cfg.TeamID + "/space", "spaces", nil
	case TypeTag:
		if filter.ContainerID == "" {
			return "", "", fmt.Errorf("clickup: listing tags requires a space")
		}
		return "/v2/space/" + cid + "/tag", "tags", nil
	case TypeDoc:
		return fmt.Sprintf("/v3/workspaces/%s/docs", c.cfg.TeamID), "docs", nil
	case TypeMember:
		return "/v2/team/" + c.cfg.TeamID, "members", nil
	default:
		return "", "", fmt.Errorf("clickup: search not supported for type %q", typ)
	}
}

func memberEntities(team Entity) []Entity {
	inner, _ := team["team"].(map[string]any)
	if inner == nil {
		inner = team
	}
	rawMembers, _ := inner["members"].([]any)
	members := make([]Entity, 0, len(rawMembers))
	for _, m := range rawMembers {
		wrapper, ok := m.(map[string]any)
		if !ok {
			continue
		}
		// Each element wraps the user: {"user": {...}, "invited_by": ...}
		if user, ok := wrapper["user"].(map[string]any); ok {
			members = append(members, Entity(user))
			continue
		}
		members = append(members, Entity(wrapper))
	}
	return members
}

// Fields lists the custom field definitions configured on a list. The
// definitions change rarely; callers are expected to cache them.
func (c *Client) Fields(ctx context.Context, listID string) ([]Entity, error) {
	raw, err := c.Request(ctx, http.MethodGet, "/v2/list/"+url.PathEscape(listID)+"/field", nil)
	if err != nil {
		return nil, err
	}
	return decodeListOf(raw, "fields")
}

// AddTag applies an existing space tag to a task.
func (c *Client) AddTag(ctx context.Context, taskID, tag string) error {
	path := fmt.Sprintf("/v2/task/%s/tag/%s", url.PathEscape(taskID), url.PathEscape(tag))
	_, err := c.Request(ctx, http.MethodPost, path, nil)
	return err
}

// RemoveTag removes a tag from a task.
func (c *Client) RemoveTag(ctx context.Context, taskID, tag string) error {
	path := fmt.Sprintf("/v2/task/%s/tag/%s", url.PathEscape(taskID), url.PathEscape(tag))
	_, err := c.Request(ctx, http.MethodDelete, path, nil)
	return err
}

// Comment posts a comment on a task.
func (c *Client) Comment(ctx context.Context, taskID, text string) (Entity, error) {
	path := "/v2/task/" + url.PathEscape(taskID) + "/comment"
	raw, err := c.Request(ctx, http.MethodPost, path, map[string]any{"comment_text": text})
	if err != nil {
		return nil, err
	}
	return decodeEntity(raw)
}
