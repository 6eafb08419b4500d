// Package core provides the core data types shared across DocDB.
//
// The package defines the schemaless document model: Record, Document,
// and the id assignment helpers.
//
// # Records
//
// A Record is an untyped field map. Every record carries a unique "id"
// within its table; "created_at" and "updated_at" timestamps are stamped
// automatically when absent:
//
//	record := core.Record{"id": core.NewID(), "name": "Alice"}
//
// # Documents
//
// A Document is the whole database: a map from table name to an ordered
// record slice, plus a small auxiliary key/value cache table. Exactly one
// Document backs one physical store and is serialized as a single JSON
// file after every committed mutation.
//
// # Snapshots
//
// Document.Clone produces a structurally independent deep copy, used by
// transaction connections for snapshot isolation.
package core
