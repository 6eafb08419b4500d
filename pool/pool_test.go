package pool

import (
	"errors"
	"testing"

	"github.com/nickyhof/DocDB/db"
	"github.com/nickyhof/DocDB/ps"
)

func newPool(t *testing.T) *Pool {
	t.Helper()
	store, err := ps.NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return New(store)
}

func TestPoolExec(t *testing.T) {
	pool := newPool(t)

	commit, err := pool.Exec("INSERT INTO users (name) VALUES (?)", "alice")
	if err != nil {
		t.Fatalf("Exec insert: %v", err)
	}
	id := commit.(db.CommitResult).NewID

	result, err := pool.Exec("SELECT * FROM users WHERE id = ?", id)
	if err != nil {
		t.Fatalf("Exec select: %v", err)
	}
	rows := result.(db.QueryResult)
	if len(rows.Rows) != 1 || rows.Rows[0]["name"] != "alice" {
		t.Errorf("rows = %v, want alice", rows.Rows)
	}
}

func TestTransactionCommit(t *testing.T) {
	pool := newPool(t)
	conn := pool.Acquire()
	defer pool.Release(conn)

	if err := conn.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO users (name) VALUES (?)", "bob"); err != nil {
		t.Fatalf("Exec in txn: %v", err)
	}

	// Invisible outside the transaction until commit.
	other := pool.Acquire()
	defer pool.Release(other)
	result, err := other.Exec("SELECT COUNT(*) FROM users")
	if err != nil {
		t.Fatalf("outside select: %v", err)
	}
	if count := result.(db.QueryResult).Rows[0]["count"]; count != 0 {
		t.Errorf("uncommitted insert visible outside: count = %v", count)
	}

	if err := conn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	result, err = other.Exec("SELECT COUNT(*) FROM users")
	if err != nil {
		t.Fatalf("post-commit select: %v", err)
	}
	if count := result.(db.QueryResult).Rows[0]["count"]; count != 1 {
		t.Errorf("committed insert not visible: count = %v", count)
	}
}

func TestTransactionRollback(t *testing.T) {
	pool := newPool(t)
	conn := pool.Acquire()

	if err := conn.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO users (name) VALUES (?)", "ghost"); err != nil {
		t.Fatalf("Exec in txn: %v", err)
	}
	if err := conn.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	result, err := conn.Exec("SELECT COUNT(*) FROM users")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if count := result.(db.QueryResult).Rows[0]["count"]; count != 0 {
		t.Errorf("rolled-back insert survived: count = %v", count)
	}
}

func TestReleaseRollsBack(t *testing.T) {
	pool := newPool(t)
	conn := pool.Acquire()

	if err := conn.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO users (name) VALUES (?)", "ghost"); err != nil {
		t.Fatalf("Exec in txn: %v", err)
	}
	pool.Release(conn)

	result, err := pool.Exec("SELECT COUNT(*) FROM users")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if count := result.(db.QueryResult).Rows[0]["count"]; count != 0 {
		t.Errorf("released transaction leaked: count = %v", count)
	}
}

func TestTransactionStateErrors(t *testing.T) {
	pool := newPool(t)
	conn := pool.Acquire()
	defer pool.Release(conn)

	if err := conn.Commit(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("Commit without Begin = %v, want ErrNoTransaction", err)
	}
	if err := conn.Rollback(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("Rollback without Begin = %v, want ErrNoTransaction", err)
	}

	if err := conn.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := conn.Begin(); !errors.Is(err, ErrTransactionOpen) {
		t.Errorf("nested Begin = %v, want ErrTransactionOpen", err)
	}
}

func TestSequentialTransactions(t *testing.T) {
	pool := newPool(t)
	conn := pool.Acquire()
	defer pool.Release(conn)

	for _, name := range []string{"first", "second"} {
		if err := conn.Begin(); err != nil {
			t.Fatalf("Begin %s: %v", name, err)
		}
		if _, err := conn.Exec("INSERT INTO runs (name) VALUES (?)", name); err != nil {
			t.Fatalf("Exec %s: %v", name, err)
		}
		if err := conn.Commit(); err != nil {
			t.Fatalf("Commit %s: %v", name, err)
		}
	}

	result, err := conn.Exec("SELECT * FROM runs ORDER BY name")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	rows := result.(db.QueryResult)
	if len(rows.Rows) != 2 {
		t.Fatalf("got %d runs, want 2", len(rows.Rows))
	}
	if rows.Rows[0]["name"] != "first" || rows.Rows[1]["name"] != "second" {
		t.Errorf("runs = %v", rows.Rows)
	}
}

func TestPoolEvents(t *testing.T) {
	pool := newPool(t)

	acquires := 0
	releases := 0
	pool.On("acquire", func() { acquires++ })
	pool.On("release", func() { releases++ })

	conn := pool.Acquire()
	pool.Release(conn)

	if acquires != 1 || releases != 1 {
		t.Errorf("events = %d acquires, %d releases, want 1/1", acquires, releases)
	}
}
