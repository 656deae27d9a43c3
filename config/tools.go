package config

// ToolNames is the full tool surface, in registration order.
var ToolNames = []string{"tasks", "containers", "tags", "members", "docs", "workspace"}

var knownTools = func() map[string]bool {
	m := make(map[string]bool, len(ToolNames))
	for _, name := range ToolNames {
		m[name] = true
	}
	return m
}()

// ActiveTools computes the tool set exposed over the protocol. The set
// is fixed at startup: tools are filtered here once and never change at
// runtime.
//
// Rules: an empty ENABLED_TOOLS means all tools; DISABLED_TOOLS always
// wins; the docs tool additionally requires ENABLE_DOCS.
func (c *Config) ActiveTools() []string {
	enabled := make(map[string]bool, len(ToolNames))
	if len(c.EnabledTools) == 0 {
		for _, name := range ToolNames {
			enabled[name] = true
		}
	} else {
		for _, name := range c.EnabledTools {
			enabled[name] = true
		}
	}
	for _, name := range c.DisabledTools {
		delete(enabled, name)
	}
	if !c.EnableDocs {
		delete(enabled, "docs")
	}

	out := make([]string, 0, len(enabled))
	for _, name := range ToolNames {
		if enabled[name] {
			out = append(out, name)
		}
	}
	return out
}
