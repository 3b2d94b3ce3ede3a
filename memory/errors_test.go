package memory

import (
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestErrorPredicates(t *testing.T) {
	notInit := errNotInitialized(ScopeGlobal)
	if !IsNotInitialized(notInit) {
		t.Error("expected IsNotInitialized to match")
	}
	if IsBusy(notInit) || IsSchemaIncompatible(notInit) {
		t.Error("expected other predicates not to match")
	}

	// Predicates see through wrapping.
	wrapped := fmt.Errorf("initialize global store: %w", notInit)
	if !IsNotInitialized(wrapped) {
		t.Error("expected IsNotInitialized to match wrapped error")
	}

	if IsNotInitialized(fmt.Errorf("plain error")) {
		t.Error("expected no match for unrelated error")
	}
	if IsNotInitialized(nil) {
		t.Error("expected no match for nil")
	}
}

func TestIsBusyClassification(t *testing.T) {
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	if !isBusy(busy) {
		t.Error("expected SQLITE_BUSY to classify as busy")
	}
	locked := sqlite3.Error{Code: sqlite3.ErrLocked}
	if !isBusy(locked) {
		t.Error("expected SQLITE_LOCKED to classify as busy")
	}
	if isBusy(sqlite3.Error{Code: sqlite3.ErrCorrupt}) {
		t.Error("expected SQLITE_CORRUPT not to classify as busy")
	}
	if isBusy(fmt.Errorf("unrelated")) || isBusy(nil) {
		t.Error("expected non-sqlite errors not to classify as busy")
	}

	// Wrapped driver errors still classify.
	if !isBusy(fmt.Errorf("insert message: %w", busy)) {
		t.Error("expected wrapped busy error to classify")
	}
}
