package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/clickops/cache"
	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/format"
	"github.com/jonwraymond/clickops/observe"
	"github.com/jonwraymond/clickops/resolve"
)

// ErrUnknownAction is wrapped with the offending tool/action pair.
var ErrUnknownAction = errors.New("router: unknown action")

// Store is the upstream entity store the router drives. *clickup.Client
// satisfies it; tests use an in-memory fake.
type Store interface {
	Get(ctx context.Context, typ clickup.EntityType, id string) (clickup.Entity, error)
	Create(ctx context.Context, typ clickup.EntityType, parent clickup.Parent, attrs map[string]any) (clickup.Entity, error)
	Update(ctx context.Context, typ clickup.EntityType, id string, attrs map[string]any) (clickup.Entity, error)
	Delete(ctx context.Context, typ clickup.EntityType, id string) error
	Search(ctx context.Context, typ clickup.EntityType, filter clickup.Filter) ([]clickup.Entity, error)
	Fields(ctx context.Context, listID string) ([]clickup.Entity, error)
	AddTag(ctx context.Context, taskID, tag string) error
	RemoveTag(ctx context.Context, taskID, tag string) error
	Comment(ctx context.Context, taskID, text string) (clickup.Entity, error)
}

// Deps are the collaborators a Router is built from.
type Deps struct {
	Store     Store
	Formatter *format.Formatter
	Caches    *cache.Domain
	// SearchCache holds short-lived search results keyed by container.
	SearchCache *cache.Namespace
	Logger      observe.Logger
	// Metrics records cache hit/miss traffic. Default: discard.
	Metrics observe.Metrics
	// WarmTimeout bounds background cache repopulation. Default: 30s.
	WarmTimeout time.Duration
}

type handler func(ctx context.Context, p Params) (any, error)

// Router consolidates many upstream operations behind few tool entry
// points. It validates parameters per action, resolves loose entity
// references, invokes the store, and shapes results through the
// formatter. Mutations invalidate affected cache scopes and warm them
// again in the background.
type Router struct {
	store     Store
	formatter *format.Formatter
	resolver  *resolve.Resolver
	caches    *cache.Domain
	searches  *cache.Namespace
	logger    observe.Logger
	metrics   observe.Metrics
	warmAfter time.Duration

	tools map[string]map[string]handler
}

// New creates a Router.
func New(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = observe.NopLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.NopMetrics()
	}
	if deps.WarmTimeout <= 0 {
		deps.WarmTimeout = 30 * time.Second
	}

	r := &Router{
		store:     deps.Store,
		formatter: deps.Formatter,
		caches:    deps.Caches,
		searches:  deps.SearchCache,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		warmAfter: deps.WarmTimeout,
	}
	r.resolver = resolve.New(resolve.ListerFunc(r.listCandidates))

	r.tools = map[string]map[string]handler{
		"tasks": {
			"create":    r.createTask,
			"get":       r.getTask,
			"update":    r.updateTask,
			"delete":    r.deleteTask,
			"move":      r.moveTask,
			"duplicate": r.duplicateTask,
			"comment":   r.commentTask,
			"search":    r.searchTasks,
		},
		"containers": {
			"create": r.createContainer,
			"get":    r.getContainer,
			"update": r.updateContainer,
			"delete": r.deleteContainer,
			"list":   r.listContainers,
		},
		"tags": {
			"list":    r.listTags,
			"create":  r.createTag,
			"apply":   r.applyTag,
			"remove":  r.removeTag,
			"refresh": r.refreshTags,
		},
		"members": {
			"list": r.listMembers,
			"find": r.findMember,
		},
		"docs": {
			"list":   r.listDocs,
			"get":    r.getDoc,
			"create": r.createDoc,
		},
		"workspace": {
			"tree": r.workspaceTree,
		},
	}

	return r
}

// Actions returns the closed action set for a tool, for schema listing.
func (r *Router) Actions(tool string) []string {
	actions := make([]string, 0, len(r.tools[tool]))
	for name := range r.tools[tool] {
		actions = append(actions, name)
	}
	return actions
}

// Route dispatches one tool invocation. Validation and resolution
// errors are raised before any upstream mutation is attempted.
func (r *Router) Route(ctx context.Context, tool, action string, p Params) (any, error) {
	actions, ok := r.tools[tool]
	if !ok {
		return nil, fmt.Errorf("%w: tool %q", ErrUnknownAction, tool)
	}
	h, ok := actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q on tool %q (valid: %s)",
			ErrUnknownAction, action, tool, strings.Join(sortedKeys(actions), ", "))
	}
	return h(ctx, p)
}

func sortedKeys(m map[string]handler) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// formatOptions builds formatter options from shared read parameters.
func formatOptions(p Params) (format.Options, error) {
	level, err := format.ParseDetailLevel(p.String("detail_level"))
	if err != nil {
		return format.Options{}, &ValidationError{
			Param:    "detail_level",
			Message:  err.Error(),
			Guidance: "use minimal, standard, or detailed",
		}
	}
	return format.Options{
		DetailLevel:        level,
		Fields:             p.StringSlice("fields"),
		IncludeEmptyFields: p.Bool("include_empty_fields"),
		AllCustomFields:    p.Bool("all_custom_fields"),
		WithMetadata:       p.Bool("with_metadata"),
	}, nil
}

// warm runs a cache repopulation in the background. Failures are
// logged and never surface: the mutation that triggered the warm-up
// already succeeded.
func (r *Router) warm(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.warmAfter)
		defer cancel()
		if err := fn(ctx); err != nil {
			r.logger.Warn(ctx, "background cache warm-up failed",
				observe.Field{Key: "scope", Value: name},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}()
}
