package memory

import (
	"context"
	"testing"
	"time"
)

func TestStore_CreateAndGetAgent(t *testing.T) {
	store := setupTestStore(t, ScopeProject)
	ctx := context.Background()

	created, err := store.CreateAgent(ctx, CreateAgentParams{
		Name:           "reviewer",
		Model:          "anthropic/claude-sonnet",
		MemoryBlockIDs: []string{"block-1", "block-2"},
		Settings:       map[string]interface{}{"temperature": 0.2},
	})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := store.GetAgent(ctx, created.ID)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if got == nil {
		t.Fatal("expected agent, got nil")
	}
	if got.Name != "reviewer" || got.Model != "anthropic/claude-sonnet" {
		t.Errorf("unexpected agent fields: %+v", got)
	}
	if len(got.MemoryBlockIDs) != 2 || got.MemoryBlockIDs[0] != "block-1" {
		t.Errorf("expected memory block ids round trip, got %v", got.MemoryBlockIDs)
	}
	if got.Settings["temperature"] != 0.2 {
		t.Errorf("expected settings round trip, got %v", got.Settings)
	}
}

func TestStore_CreateAgentDefaultsName(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)

	created, err := store.CreateAgent(context.Background(), CreateAgentParams{Model: "local/test"})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if created.Name == "" {
		t.Error("expected a derived default name")
	}
}

func TestStore_CreateAgentRequiresModel(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	if _, err := store.CreateAgent(context.Background(), CreateAgentParams{Name: "x"}); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestStore_GetAgentNotFoundIsNil(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	agent, err := store.GetAgent(context.Background(), "missing")
	if err != nil || agent != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", agent, err)
	}
}

func TestStore_TouchAgentUpdatesLastUsed(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	ctx := context.Background()

	created, err := store.CreateAgent(ctx, CreateAgentParams{Model: "local/test"})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := store.TouchAgent(ctx, created.ID); err != nil {
		t.Fatalf("touch agent: %v", err)
	}

	got, err := store.GetAgent(ctx, created.ID)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if !got.LastUsed.After(created.LastUsed) {
		t.Errorf("expected last_used to advance: %v -> %v", created.LastUsed, got.LastUsed)
	}
}

// Touching an unknown agent is documented as a no-op, not an error.
func TestStore_TouchAgentUnknownIsNoop(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	if err := store.TouchAgent(context.Background(), "missing"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
