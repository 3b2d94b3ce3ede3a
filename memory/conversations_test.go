package memory

import (
	"context"
	"testing"
)

func appendMessages(t *testing.T, store *Store, agentID string, contents ...string) {
	t.Helper()
	for _, content := range contents {
		if _, err := store.AddMessage(context.Background(), agentID, RoleUser, content, nil); err != nil {
			t.Fatalf("add message %q: %v", content, err)
		}
	}
}

func TestStore_GetHistoryReturnsMostRecentOldestFirst(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	ctx := context.Background()

	appendMessages(t, store, "agent-1", "A", "B", "C", "D")

	// With limit 2 the two *newest* messages come back, oldest first: the
	// result window slides forward, it does not stick at the beginning.
	got, err := store.GetHistory(ctx, "agent-1", 2)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "C" || got[1].Content != "D" {
		t.Fatalf("expected [C D], got [%s %s]", got[0].Content, got[1].Content)
	}

	full, err := store.GetHistory(ctx, "agent-1", 0)
	if err != nil {
		t.Fatalf("get full history: %v", err)
	}
	if len(full) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(full))
	}
	for i, want := range []string{"A", "B", "C", "D"} {
		if full[i].Content != want {
			t.Errorf("position %d: expected %s, got %s", i, want, full[i].Content)
		}
	}
}

func TestStore_GetHistoryEmptyAgent(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	got, err := store.GetHistory(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(got))
	}
}

func TestStore_ClearHistoryLeavesOtherAgentsUntouched(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	ctx := context.Background()

	appendMessages(t, store, "agent-1", "hello", "world")
	appendMessages(t, store, "agent-2", "untouched")

	if err := store.ClearHistory(ctx, "agent-1"); err != nil {
		t.Fatalf("clear history: %v", err)
	}

	cleared, err := store.GetHistory(ctx, "agent-1", 0)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(cleared) != 0 {
		t.Fatalf("expected cleared history, got %d messages", len(cleared))
	}

	other, err := store.GetHistory(ctx, "agent-2", 0)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(other) != 1 || other[0].Content != "untouched" {
		t.Fatalf("expected agent-2 history intact, got %v", other)
	}
}

func TestStore_AddMessageMetadataRoundTrip(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	ctx := context.Background()

	meta := map[string]interface{}{
		"tool_name": "grep",
		"is_error":  false,
	}
	msg, err := store.AddMessage(ctx, "agent-1", RoleAssistant, "searched", meta)
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Fatalf("expected populated message, got %+v", msg)
	}

	got, err := store.GetHistory(ctx, "agent-1", 0)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Metadata["tool_name"] != "grep" {
		t.Errorf("expected metadata round trip, got %v", got[0].Metadata)
	}
	if got[0].Role != RoleAssistant {
		t.Errorf("expected assistant role, got %s", got[0].Role)
	}
}

func TestStore_AddMessageValidation(t *testing.T) {
	store := setupTestStore(t, ScopeGlobal)
	ctx := context.Background()

	if _, err := store.AddMessage(ctx, "", RoleUser, "hi", nil); err == nil {
		t.Error("expected error for empty agent id")
	}
	if _, err := store.AddMessage(ctx, "agent-1", Role("moderator"), "hi", nil); err == nil {
		t.Error("expected error for unknown role")
	}
}
