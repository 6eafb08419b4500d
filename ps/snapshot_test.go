package ps

import (
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"

	"github.com/nickyhof/DocDB/core"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	store.Document().Tables["users"] = []core.Record{
		{"id": "1", "name": "alice"},
		{"id": "2", "name": "bob"},
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return store
}

func TestSnapshotIsolation(t *testing.T) {
	store := seedStore(t)
	snapshot := store.Snapshot()

	// Writes to the snapshot stay invisible to the shared document.
	snapshot.Tables["users"][0]["name"] = "mallory"
	snapshot.Tables["users"] = append(snapshot.Tables["users"], core.Record{"id": "3"})

	if store.Document().Tables["users"][0]["name"] != "alice" {
		t.Error("snapshot write leaked into the shared document")
	}
	if len(store.Document().Tables["users"]) != 2 {
		t.Error("snapshot append leaked into the shared document")
	}

	// And shared-document writes stay invisible to the snapshot.
	store.Document().Tables["users"][1]["name"] = "robert"
	if snapshot.Tables["users"][1]["name"] != "bob" {
		t.Error("shared write leaked into the snapshot")
	}
}

func TestDiscardedSnapshotLeavesFileIdentical(t *testing.T) {
	store := seedStore(t)
	before, err := util.ReadFile(store.fs, store.path)
	if err != nil {
		t.Fatal(err)
	}

	snapshot := store.Snapshot()
	snapshot.Tables["users"][0]["name"] = "mallory"
	// Dropping the snapshot without committing is a rollback.

	after, err := util.ReadFile(store.fs, store.path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("discarded snapshot changed the persisted file")
	}
}

func TestCommitSnapshotVisibility(t *testing.T) {
	store := seedStore(t)
	snapshot := store.Snapshot()
	snapshot.Tables["users"][0]["name"] = "alicia"
	snapshot.Tables["users"] = append(snapshot.Tables["users"], core.Record{"id": "3", "name": "carol"})

	if err := store.CommitSnapshot(snapshot); err != nil {
		t.Fatalf("CommitSnapshot: %v", err)
	}

	users := store.Document().Table("users")
	if len(users) != 3 {
		t.Fatalf("got %d users after commit, want 3", len(users))
	}
	if users[0]["name"] != "alicia" {
		t.Errorf("users[0] = %v, want alicia", users[0]["name"])
	}
	if users[2]["name"] != "carol" {
		t.Errorf("users[2] = %v, want carol", users[2]["name"])
	}

	// Commit persists: reload and verify.
	reloaded, err := NewStore(store.fs, store.path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Document().Table("users")) != 3 {
		t.Error("committed snapshot did not reach the file")
	}
}

func TestCommitSnapshotKeepsConcurrentInserts(t *testing.T) {
	store := seedStore(t)
	snapshot := store.Snapshot()
	snapshot.Tables["users"][0]["name"] = "alicia"

	// A record lands in the shared document while the snapshot is open.
	store.Document().Tables["users"] = append(store.Document().Tables["users"],
		core.Record{"id": "9", "name": "zed"})

	if err := store.CommitSnapshot(snapshot); err != nil {
		t.Fatalf("CommitSnapshot: %v", err)
	}

	users := store.Document().Table("users")
	if len(users) != 3 {
		t.Fatalf("got %d users, want 3", len(users))
	}
	ids := map[string]bool{}
	for _, user := range users {
		ids[user.ID()] = true
	}
	if !ids["9"] {
		t.Error("commit dropped a record inserted while the snapshot was open")
	}
	if users[0]["name"] != "alicia" {
		t.Error("commit lost the snapshot's own update")
	}
}

func TestCommitSnapshotLastWriterWins(t *testing.T) {
	store := seedStore(t)

	first := store.Snapshot()
	second := store.Snapshot()

	first.Tables["users"][0]["name"] = "from-first"
	second.Tables["users"][0]["name"] = "from-second"

	if err := store.CommitSnapshot(first); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := store.CommitSnapshot(second); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if got := store.Document().Tables["users"][0]["name"]; got != "from-second" {
		t.Errorf("users[0] = %v, want from-second", got)
	}
}

func TestCommitSnapshotRestoredOnSaveFailure(t *testing.T) {
	fs := &failingFS{Filesystem: memfs.New()}
	store, err := NewStore(fs, "docdb.json")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store.Document().Tables["users"] = []core.Record{{"id": "1", "name": "alice"}}

	snapshot := store.Snapshot()
	snapshot.Tables["users"][0]["name"] = "mallory"

	fs.fail = true
	if err := store.CommitSnapshot(snapshot); err == nil {
		t.Fatal("CommitSnapshot succeeded despite write failure")
	}
	if store.Document().Tables["users"][0]["name"] != "alice" {
		t.Error("failed commit left merged state in the shared document")
	}
}
