package ps

import (
	"path/filepath"
	"testing"

	"github.com/nickyhof/DocDB/core"
)

func historyStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "docdb.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.EnableHistory(); err != nil {
		t.Fatalf("EnableHistory: %v", err)
	}
	return store
}

func TestHistoryRecordsRevisions(t *testing.T) {
	store := historyStore(t)

	store.Document().Tables["users"] = []core.Record{{"id": "1", "name": "alice"}}
	if err := store.Save(); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	store.Document().Tables["users"] = append(store.Document().Tables["users"],
		core.Record{"id": "2", "name": "bob"})
	if err := store.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	revisions, err := store.Revisions()
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revisions) != 2 {
		t.Fatalf("got %d revisions, want 2", len(revisions))
	}
	for _, revision := range revisions {
		if revision.Id == "" || revision.When.IsZero() {
			t.Errorf("revision missing id or timestamp: %+v", revision)
		}
	}
}

func TestRestoreRevision(t *testing.T) {
	store := historyStore(t)

	store.Document().Tables["users"] = []core.Record{{"id": "1", "name": "alice"}}
	if err := store.Save(); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	store.Document().Tables["users"] = []core.Record{}
	if err := store.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	revisions, err := store.Revisions()
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	// Newest first: the last entry is the state before the wipe.
	oldest := revisions[len(revisions)-1]

	if err := store.RestoreRevision(oldest.Id); err != nil {
		t.Fatalf("RestoreRevision: %v", err)
	}

	users := store.Document().Table("users")
	if len(users) != 1 || users[0]["name"] != "alice" {
		t.Errorf("restored users = %v, want alice", users)
	}
}

func TestRevisionsRequireHistory(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	if _, err := store.Revisions(); err == nil {
		t.Error("Revisions succeeded without history enabled")
	}
	if err := store.RestoreRevision("0000000000000000000000000000000000000000"); err == nil {
		t.Error("RestoreRevision succeeded without history enabled")
	}
}
