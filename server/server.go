package server

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonwraymond/clickops/config"
	"github.com/jonwraymond/clickops/observe"
	"github.com/jonwraymond/clickops/router"
)

const serverName = "clickops"

const serverInstructions = `ClickUp workspace tools. Every tool takes an "action"
parameter selecting the operation, and identifies entities by id, custom_id, or
name (names are matched fuzzily; add list_name/space_name hints to narrow
ambiguous matches). Start with workspace.tree to orient yourself. Responses are
shaped for reading: pass detail_level=minimal|standard|detailed, or fields=[...]
for an exact projection.`

// Deps are the collaborators the MCP surface is built from.
type Deps struct {
	Router     *router.Router
	Middleware *observe.Middleware
	Logger     observe.Logger
	Version    string
}

// New builds the MCP server with the configured tool surface. The
// active tool set is computed once here; tools filtered out at startup
// are never registered and cannot be reached.
func New(cfg *config.Config, deps Deps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = observe.NopLogger()
	}

	srv := server.NewMCPServer(
		serverName,
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	active := cfg.ActiveTools()
	for _, name := range active {
		spec, ok := toolSpecs[name]
		if !ok {
			continue
		}
		srv.AddTool(buildTool(name, spec, deps.Router), handler(name, deps))
	}

	deps.Logger.Info(context.Background(), "tool surface registered",
		observe.Field{Key: "tools", Value: strings.Join(active, ",")},
	)
	return srv
}

// handler adapts one tool to the router, wrapped in the observability
// middleware. Routing errors become structured error payloads rather
// than protocol errors, so the caller always gets parseable guidance.
func handler(tool string, deps Deps) server.ToolHandlerFunc {
	exec := func(ctx context.Context, meta observe.CallMeta, args any) (any, error) {
		p, _ := args.(router.Params)
		return deps.Router.Route(ctx, meta.Tool, meta.Action, p)
	}
	if deps.Middleware != nil {
		exec = deps.Middleware.Wrap(exec)
	}

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		action, _ := args["action"].(string)
		meta := observe.CallMeta{
			Tool:          tool,
			Action:        action,
			CorrelationID: uuid.NewString(),
		}

		result, err := exec(ctx, meta, router.Params(args))
		if err != nil {
			payload := router.ErrorPayload(err)
			payload["correlation_id"] = meta.CorrelationID
			raw, merr := json.Marshal(payload)
			if merr != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultError(string(raw)), nil
		}

		raw, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError("internal_error: response serialization failed"), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	}
}

// actionList renders a tool's closed action set for its schema text.
func actionList(r *router.Router, tool string) string {
	actions := r.Actions(tool)
	sort.Strings(actions)
	return strings.Join(actions, ", ")
}
