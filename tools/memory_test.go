package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/strata-mem/strata/memory"
	"github.com/strata-mem/strata/scope"
	"github.com/strata-mem/strata/tools/schemas"
)

func setupRegistry(t *testing.T) (*Registry, *scope.Manager) {
	t.Helper()
	manager := scope.NewManager(scope.Options{
		GlobalDir:   t.TempDir(),
		ProjectRoot: t.TempDir(),
	}, zerolog.Nop())
	if err := manager.Initialize(); err != nil {
		t.Fatalf("initialize manager: %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })

	registry := NewRegistry(zerolog.Nop())
	RegisterMemoryTools(registry, manager)
	return registry, manager
}

func call(t *testing.T, r *Registry, tool, args string) any {
	t.Helper()
	result, err := r.Handle(context.Background(), tool, json.RawMessage(args))
	if err != nil {
		t.Fatalf("handle %s: %v", tool, err)
	}
	return result
}

func TestRegistry_UnknownTool(t *testing.T) {
	registry, _ := setupRegistry(t)
	if _, err := registry.Handle(context.Background(), "memory_frobnicate", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistry_EveryToolHasASchema(t *testing.T) {
	registry, _ := setupRegistry(t)
	all := schemas.All()
	for _, name := range registry.Names() {
		if _, ok := all[name]; !ok {
			t.Errorf("tool %s has no schema", name)
		}
	}
}

func TestMemoryTools_SaveAndResolveBlocks(t *testing.T) {
	registry, _ := setupRegistry(t)

	call(t, registry, "memory_save_block",
		`{"type": "preferences", "scope": "global", "content": {"editor": "vim"}}`)

	// Effective resolution sees the global block while no project block
	// exists.
	result := call(t, registry, "memory_effective_block", `{"type": "preferences"}`)
	block, ok := result.(*memory.Block)
	if !ok || block == nil {
		t.Fatalf("expected a block, got %T", result)
	}
	if block.Scope != memory.ScopeGlobal {
		t.Fatalf("expected global block, got %s", block.Scope)
	}

	// Saving without a scope targets the current (project) scope, which then
	// overrides global.
	call(t, registry, "memory_save_block",
		`{"type": "preferences", "content": {"editor": "helix"}}`)
	result = call(t, registry, "memory_effective_block", `{"type": "preferences"}`)
	block = result.(*memory.Block)
	if block.Scope != memory.ScopeProject {
		t.Fatalf("expected project override, got %s", block.Scope)
	}
	if block.Content["editor"] != "helix" {
		t.Fatalf("expected project content, got %v", block.Content)
	}

	list := call(t, registry, "memory_list_blocks", `{}`)
	blocks, ok := list.([]memory.Block)
	if !ok {
		t.Fatalf("expected block slice, got %T", list)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 effective block, got %d", len(blocks))
	}
}

func TestMemoryTools_GetBlockByIDAndDelete(t *testing.T) {
	registry, _ := setupRegistry(t)

	saved := call(t, registry, "memory_save_block",
		`{"type": "persona", "scope": "global", "content": {"tone": "dry"}}`).(*memory.Block)

	got := call(t, registry, "memory_get_block", `{"id": "`+saved.ID+`", "scope": "global"}`)
	if block := got.(*memory.Block); block == nil || block.ID != saved.ID {
		t.Fatalf("expected block %s, got %+v", saved.ID, got)
	}

	call(t, registry, "memory_delete_block", `{"id": "`+saved.ID+`", "scope": "global"}`)
	gone := call(t, registry, "memory_get_block", `{"id": "`+saved.ID+`", "scope": "global"}`)
	if block := gone.(*memory.Block); block != nil {
		t.Fatalf("expected nil after delete, got %+v", block)
	}
}

func TestMemoryTools_ConversationFlow(t *testing.T) {
	registry, _ := setupRegistry(t)

	call(t, registry, "memory_add_message",
		`{"agent_id": "agent-1", "role": "user", "content": "first"}`)
	call(t, registry, "memory_add_message",
		`{"agent_id": "agent-1", "role": "assistant", "content": "second", "metadata": {"tool_name": "bash"}}`)

	history := call(t, registry, "memory_get_history", `{"agent_id": "agent-1"}`).([]memory.Message)
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Content != "first" || history[1].Content != "second" {
		t.Fatalf("expected chronological order, got %+v", history)
	}
	if history[1].Metadata["tool_name"] != "bash" {
		t.Fatalf("expected metadata round trip, got %v", history[1].Metadata)
	}

	call(t, registry, "memory_clear_history", `{"agent_id": "agent-1"}`)
	cleared := call(t, registry, "memory_get_history", `{"agent_id": "agent-1"}`).([]memory.Message)
	if len(cleared) != 0 {
		t.Fatalf("expected cleared history, got %d messages", len(cleared))
	}
}

func TestMemoryTools_CreateAgent(t *testing.T) {
	registry, manager := setupRegistry(t)

	created := call(t, registry, "memory_create_agent",
		`{"name": "planner", "model": "anthropic/claude-sonnet"}`).(*memory.Agent)
	if created.ID == "" || created.Name != "planner" {
		t.Fatalf("unexpected agent %+v", created)
	}

	store, err := manager.CurrentStore()
	if err != nil {
		t.Fatalf("current store: %v", err)
	}
	got, err := store.GetAgent(context.Background(), created.ID)
	if err != nil || got == nil {
		t.Fatalf("expected persisted agent, got (%v, %v)", got, err)
	}
}

func TestMemoryTools_InvalidArguments(t *testing.T) {
	registry, _ := setupRegistry(t)
	ctx := context.Background()

	if _, err := registry.Handle(ctx, "memory_save_block", json.RawMessage(`{"scope": "galactic", "type": "x", "content": {}}`)); err == nil {
		t.Error("expected error for invalid scope")
	}
	if _, err := registry.Handle(ctx, "memory_get_block", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error when both id and type are missing")
	}
	if _, err := registry.Handle(ctx, "memory_clear_history", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing agent_id")
	}
}
