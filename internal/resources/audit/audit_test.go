package audit

import (
	"path/filepath"
	"testing"
)

func TestRecordAnswerAndStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.RecordAnswer("ceo", "d1", "confirm", 0.1, 0.35); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := store.RecordStage("Embed Attribute", "ceo", map[string]any{"nuggets_embedded": 3}); err != nil {
		t.Fatalf("RecordStage: %v", err)
	}

	var count int
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM feedback_log").Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Fatalf("feedback_log rows = %d, want 1", count)
	}
}
