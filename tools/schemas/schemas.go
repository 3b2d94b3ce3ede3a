// Package schemas contains tool schema definitions for the strata memory
// daemon. These schemas describe the input parameters of the tools exposed
// over MCP and to in-process callers.
package schemas

// ToolSchema represents a tool's description and JSON schema.
type ToolSchema struct {
	Description string
	Schema      map[string]any
}

// All returns all tool schemas.
func All() map[string]ToolSchema {
	all := make(map[string]ToolSchema)
	for name, schema := range MemorySchemas() {
		all[name] = schema
	}
	return all
}
