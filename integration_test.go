package DocDB

import (
	"path/filepath"
	"testing"

	"github.com/nickyhof/DocDB/db"
	"github.com/nickyhof/DocDB/ps"
)

// TestFunc is the signature for test functions that work with any store
type TestFunc func(t *testing.T, instance *Instance)

// runWithBothStores runs a test function with both memory and file stores
func runWithBothStores(t *testing.T, testFunc TestFunc) {
	t.Run("Memory", func(t *testing.T) {
		store, err := ps.NewMemoryStore()
		if err != nil {
			t.Fatalf("Failed to initialize memory store: %v", err)
		}
		testFunc(t, Open(store))
	})

	t.Run("File", func(t *testing.T) {
		store, err := ps.NewFileStore(filepath.Join(t.TempDir(), "docdb.json"))
		if err != nil {
			t.Fatalf("Failed to initialize file store: %v", err)
		}
		testFunc(t, Open(store))
	})
}

// TestIntegrationWorkflow tests a complete workflow against both stores
func TestIntegrationWorkflow(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, instance *Instance) {
		pool := instance.Pool

		if _, err := pool.Exec("CREATE TABLE IF NOT EXISTS employees (id STRING, name STRING, department STRING)"); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}

		employees := []struct{ name, department string }{
			{"Alice", "Engineering"},
			{"Bob", "Engineering"},
			{"Charlie", "Sales"},
			{"Diana", "Marketing"},
			{"Eve", "Engineering"},
		}
		for _, employee := range employees {
			if _, err := pool.Exec("INSERT INTO employees (name, department) VALUES (?, ?)",
				employee.name, employee.department); err != nil {
				t.Fatalf("Failed to insert: %v", err)
			}
		}

		result, err := pool.Exec("SELECT COUNT(*) FROM employees WHERE department = ?", "Engineering")
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count := result.(db.QueryResult).Rows[0]["count"]; count != 3 {
			t.Errorf("Engineering count = %v, want 3", count)
		}

		commit, err := pool.Exec("UPDATE employees SET department = ? WHERE department = ?",
			"Growth", "Marketing")
		if err != nil {
			t.Fatalf("Failed to update: %v", err)
		}
		if commit.(db.CommitResult).Affected != 1 {
			t.Errorf("update affected = %d, want 1", commit.(db.CommitResult).Affected)
		}

		if _, err := pool.Exec("DELETE FROM employees WHERE department = ?", "Sales"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}

		result, err = pool.Exec("SELECT * FROM employees ORDER BY name")
		if err != nil {
			t.Fatalf("Failed to select: %v", err)
		}
		rows := result.(db.QueryResult)
		if len(rows.Rows) != 4 {
			t.Fatalf("got %d employees, want 4", len(rows.Rows))
		}
		if rows.Rows[0]["name"] != "Alice" || rows.Rows[3]["name"] != "Eve" {
			t.Errorf("employees out of order: %v", rows.Rows)
		}
	})
}

// TestIntegrationTransactions exercises snapshot transactions end to end
func TestIntegrationTransactions(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, instance *Instance) {
		pool := instance.Pool

		if _, err := pool.Exec("INSERT INTO accounts (owner, balance) VALUES (?, ?)", "alice", 100.0); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}

		conn := pool.Acquire()
		defer pool.Release(conn)

		if err := conn.Begin(); err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if _, err := conn.Exec("UPDATE accounts SET balance = ? WHERE owner = ?", 50.0, "alice"); err != nil {
			t.Fatalf("Update in txn: %v", err)
		}

		// Outside the transaction the balance is unchanged.
		result, err := pool.Exec("SELECT * FROM accounts WHERE owner = ?", "alice")
		if err != nil {
			t.Fatalf("Select outside txn: %v", err)
		}
		if balance := result.(db.QueryResult).Rows[0]["balance"]; balance != 100.0 {
			t.Errorf("balance outside open txn = %v, want 100", balance)
		}

		if err := conn.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}

		result, err = pool.Exec("SELECT * FROM accounts WHERE owner = ?", "alice")
		if err != nil {
			t.Fatalf("Select after commit: %v", err)
		}
		if balance := result.(db.QueryResult).Rows[0]["balance"]; balance != 50.0 {
			t.Errorf("balance after commit = %v, want 50", balance)
		}
	})
}

// TestIntegrationReload verifies the file store round-trips through disk
func TestIntegrationReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docdb.json")

	store, err := ps.NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	instance := Open(store)

	commit, err := instance.Pool.Exec("INSERT INTO notes (body) VALUES (?)", "remember")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id := commit.(db.CommitResult).NewID

	reopened, err := ps.NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	result, err := Open(reopened).Pool.Exec("SELECT * FROM notes WHERE id = ?", id)
	if err != nil {
		t.Fatalf("select after reopen: %v", err)
	}
	rows := result.(db.QueryResult)
	if len(rows.Rows) != 1 || rows.Rows[0]["body"] != "remember" {
		t.Errorf("reloaded rows = %v, want remember", rows.Rows)
	}
}
