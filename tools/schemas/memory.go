package schemas

// MemorySchemas returns schemas for memory-related tools.
// Note: tool names must match pattern ^[a-zA-Z0-9_-]{1,128}$ (no dots).
func MemorySchemas() map[string]ToolSchema {
	return map[string]ToolSchema{
		"memory_save_block": {
			Description: "Save a memory block. Upserts on (type, scope): saving an existing type updates its content and bumps its version.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": map[string]any{
						"type":        "string",
						"description": "Block type, e.g. preferences, persona, context, project_info.",
					},
					"scope": map[string]any{
						"type":        "string",
						"description": "Target scope: global or project. Defaults to the current scope.",
					},
					"content": map[string]any{
						"type":        "object",
						"description": "Structured block payload.",
					},
				},
				"required": []string{"type", "content"},
			},
		},
		"memory_get_block": {
			Description: "Fetch a memory block by id, or by type within a scope.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Block id. When set, type and scope are ignored.",
					},
					"type":  map[string]any{"type": "string"},
					"scope": map[string]any{"type": "string"},
				},
				"required": []string{},
			},
		},
		"memory_effective_block": {
			Description: "Resolve the effective block for a type: the project block when one exists, otherwise the global block.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": map[string]any{"type": "string"},
				},
				"required": []string{"type"},
			},
		},
		"memory_list_blocks": {
			Description: "List effective blocks across both scopes, project overriding global per type.",
			Schema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		"memory_delete_block": {
			Description: "Delete a memory block by id. Deleting a missing block is a no-op.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string"},
					"scope": map[string]any{
						"type":        "string",
						"description": "Scope holding the block. Defaults to the current scope.",
					},
				},
				"required": []string{"id"},
			},
		},
		"memory_add_message": {
			Description: "Append one message to an agent's conversation history in the current scope.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent_id": map[string]any{"type": "string"},
					"role": map[string]any{
						"type":        "string",
						"description": "user, assistant, or system.",
					},
					"content": map[string]any{"type": "string"},
					"metadata": map[string]any{
						"type":        "object",
						"description": "Optional structured metadata, e.g. tool-call records.",
					},
				},
				"required": []string{"agent_id", "role", "content"},
			},
		},
		"memory_get_history": {
			Description: "Return up to limit most recent messages for an agent, oldest first.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent_id": map[string]any{"type": "string"},
					"limit": map[string]any{
						"type":        "number",
						"description": "Maximum messages to return (default: 100).",
					},
				},
				"required": []string{"agent_id"},
			},
		},
		"memory_clear_history": {
			Description: "Delete all conversation history for an agent in the current scope.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent_id": map[string]any{"type": "string"},
				},
				"required": []string{"agent_id"},
			},
		},
		"memory_create_agent": {
			Description: "Create an agent record in the current scope.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string"},
					"model": map[string]any{"type": "string"},
					"settings": map[string]any{
						"type":        "object",
						"description": "Open-ended agent configuration.",
					},
				},
				"required": []string{"model"},
			},
		},
	}
}
