package db

import (
	"testing"

	"github.com/nickyhof/DocDB/core"
)

func enrichFixture() *testTarget {
	target := newTestTarget()
	target.document.Tables["users"] = []core.Record{
		{"id": "u1", "name": "alice"},
		{"id": "u2", "name": "bob"},
	}
	target.document.Tables["posts"] = []core.Record{
		{"id": "p1", "user_id": "u1", "title": "first"},
		{"id": "p2", "user_id": "u1", "title": "second"},
		{"id": "p3", "user_id": "u2", "title": "third"},
	}
	target.document.Tables["tags"] = []core.Record{
		{"id": "t1", "post_id": "p1", "label": "go"},
		{"id": "t2", "post_id": "p1", "label": "databases"},
		{"id": "t3", "post_id": "p3", "label": "misc"},
	}
	return target
}

func TestEnrichScalarJoin(t *testing.T) {
	engine := NewEngine()
	target := enrichFixture()

	rows := mustExec(t, engine, target,
		"SELECT p.id, p.title, u.name AS author FROM posts p LEFT JOIN users u ON p.user_id = u.id ORDER BY id").(QueryResult)

	if len(rows.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows.Rows))
	}
	if rows.Rows[0]["author"] != "alice" || rows.Rows[2]["author"] != "bob" {
		t.Errorf("authors = %v, %v, want alice, bob", rows.Rows[0]["author"], rows.Rows[2]["author"])
	}
	if rows.Rows[0]["title"] != "first" {
		t.Errorf("base column title = %v, want first", rows.Rows[0]["title"])
	}
}

func TestEnrichScalarJoinMissingMatch(t *testing.T) {
	engine := NewEngine()
	target := enrichFixture()
	target.document.Tables["posts"] = append(target.document.Tables["posts"],
		core.Record{"id": "p4", "user_id": "ghost", "title": "orphan"})

	rows := mustExec(t, engine, target,
		"SELECT p.id, u.name AS author FROM posts p LEFT JOIN users u ON p.user_id = u.id WHERE id = ?", "p4").(QueryResult)

	if len(rows.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows.Rows))
	}
	// Left-join semantics: the base row survives with a null attachment.
	if rows.Rows[0]["author"] != nil {
		t.Errorf("author = %v, want nil", rows.Rows[0]["author"])
	}
}

func TestEnrichAggregateJoin(t *testing.T) {
	engine := NewEngine()
	target := enrichFixture()

	rows := mustExec(t, engine, target,
		"SELECT p.id, p.title, t.label AS labels FROM posts p LEFT JOIN tags t ON t.post_id = p.id ORDER BY id").(QueryResult)

	if len(rows.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows.Rows))
	}
	// Fan-out values arrive as one sorted comma-separated string.
	if rows.Rows[0]["labels"] != "databases,go" {
		t.Errorf("p1 labels = %v, want databases,go", rows.Rows[0]["labels"])
	}
	if rows.Rows[1]["labels"] != "" {
		t.Errorf("p2 labels = %v, want empty", rows.Rows[1]["labels"])
	}
	if rows.Rows[2]["labels"] != "misc" {
		t.Errorf("p3 labels = %v, want misc", rows.Rows[2]["labels"])
	}
}

func TestEnrichTotalCount(t *testing.T) {
	engine := NewEngine()
	target := enrichFixture()

	rows := mustExec(t, engine, target,
		"SELECT p.id, u.name AS author FROM posts p LEFT JOIN users u ON p.user_id = u.id ORDER BY id LIMIT 2").(QueryResult)

	if len(rows.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows.Rows))
	}
	for i, row := range rows.Rows {
		if row["total_count"] != 3 {
			t.Errorf("row %d total_count = %v, want 3", i, row["total_count"])
		}
	}
}

func TestEnrichDoesNotMutateStoredRecords(t *testing.T) {
	engine := NewEngine()
	target := enrichFixture()

	mustExec(t, engine, target,
		"SELECT p.id, u.name AS author FROM posts p LEFT JOIN users u ON p.user_id = u.id")

	for _, record := range target.document.Tables["posts"] {
		if _, leaked := record["author"]; leaked {
			t.Fatal("enrichment wrote attached fields into the stored record")
		}
		if _, leaked := record["total_count"]; leaked {
			t.Fatal("enrichment wrote total_count into the stored record")
		}
	}
}
