package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/strata-mem/strata/memory"
	"github.com/strata-mem/strata/scope"
)

// RegisterMemoryTools registers memory tools backed by a scope manager.
// Tool names and input shapes are declared in tools/schemas.
func RegisterMemoryTools(r *Registry, manager *scope.Manager) {
	r.Register("memory_save_block", saveBlockHandler(manager))
	r.Register("memory_get_block", getBlockHandler(manager))
	r.Register("memory_effective_block", effectiveBlockHandler(manager))
	r.Register("memory_list_blocks", listBlocksHandler(manager))
	r.Register("memory_delete_block", deleteBlockHandler(manager))
	r.Register("memory_add_message", addMessageHandler(manager))
	r.Register("memory_get_history", getHistoryHandler(manager))
	r.Register("memory_clear_history", clearHistoryHandler(manager))
	r.Register("memory_create_agent", createAgentHandler(manager))
}

// storeFor picks the store for an explicitly named scope, falling back to
// the manager's current scope when the argument is empty.
func storeFor(manager *scope.Manager, scopeArg string) (*memory.Store, error) {
	switch memory.Scope(scopeArg) {
	case memory.ScopeGlobal:
		return manager.GlobalStore()
	case memory.ScopeProject:
		return manager.ProjectStore()
	case "":
		return manager.CurrentStore()
	default:
		return nil, fmt.Errorf("invalid scope %q", scopeArg)
	}
}

func saveBlockHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			Type    string                 `json:"type"`
			Scope   string                 `json:"scope"`
			Content map[string]interface{} `json:"content"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		store, err := storeFor(manager, params.Scope)
		if err != nil {
			return nil, err
		}
		return store.SaveBlock(ctx, memory.SaveBlockParams{
			Type:    memory.BlockType(params.Type),
			Scope:   store.Scope(),
			Content: params.Content,
		})
	}
}

func getBlockHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			ID    string `json:"id"`
			Type  string `json:"type"`
			Scope string `json:"scope"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		store, err := storeFor(manager, params.Scope)
		if err != nil {
			return nil, err
		}
		if params.ID != "" {
			return store.GetBlockByID(ctx, params.ID)
		}
		if params.Type == "" {
			return nil, fmt.Errorf("either id or type is required")
		}
		return store.GetBlockByTypeScope(ctx, memory.BlockType(params.Type), store.Scope())
	}
}

func effectiveBlockHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		if params.Type == "" {
			return nil, fmt.Errorf("type is required")
		}
		return manager.EffectiveBlock(ctx, memory.BlockType(params.Type))
	}
}

func listBlocksHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return manager.EffectiveBlocks(ctx)
	}
}

func deleteBlockHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			ID    string `json:"id"`
			Scope string `json:"scope"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		if params.ID == "" {
			return nil, fmt.Errorf("id is required")
		}
		store, err := storeFor(manager, params.Scope)
		if err != nil {
			return nil, err
		}
		if err := store.DeleteBlock(ctx, params.ID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": params.ID}, nil
	}
}

func addMessageHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			AgentID  string                 `json:"agent_id"`
			Role     string                 `json:"role"`
			Content  string                 `json:"content"`
			Metadata map[string]interface{} `json:"metadata"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return nil, err
		}
		return store.AddMessage(ctx, params.AgentID, memory.Role(params.Role), params.Content, params.Metadata)
	}
}

func getHistoryHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			AgentID string `json:"agent_id"`
			Limit   int    `json:"limit"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return nil, err
		}
		return store.GetHistory(ctx, params.AgentID, params.Limit)
	}
}

func clearHistoryHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			AgentID string `json:"agent_id"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		if params.AgentID == "" {
			return nil, fmt.Errorf("agent_id is required")
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return nil, err
		}
		if err := store.ClearHistory(ctx, params.AgentID); err != nil {
			return nil, err
		}
		return map[string]any{"cleared": params.AgentID}, nil
	}
}

func createAgentHandler(manager *scope.Manager) ToolHandler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			Name     string                 `json:"name"`
			Model    string                 `json:"model"`
			Settings map[string]interface{} `json:"settings"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return nil, err
		}
		return store.CreateAgent(ctx, memory.CreateAgentParams{
			Name:     params.Name,
			Model:    params.Model,
			Settings: params.Settings,
		})
	}
}
