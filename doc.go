// Package DocDB emulates a relational database over a single
// document-structured JSON file.
//
// DocDB exists for deployments where a real database server is not
// available: it accepts a practical subset of parameterized SQL and
// runs it against an in-memory document persisted to one file, so
// application code written against a SQL driver keeps working
// unchanged.
//
// # Quick Start
//
// Create a file-backed instance:
//
//	store, _ := ps.NewFileStore("data/docdb.json")
//	instance := DocDB.Open(store)
//
//	instance.Pool.Exec("CREATE TABLE IF NOT EXISTS users (id STRING, name STRING)")
//	instance.Pool.Exec("INSERT INTO users (name) VALUES (?)", "Alice")
//
//	result, _ := instance.Pool.Exec("SELECT * FROM users WHERE name = ?", "Alice")
//	result.Display()
//
// # Supported SQL
//
// DocDB supports the subset of SQL its emulation can honor exactly:
//   - CREATE TABLE [IF NOT EXISTS] (schema recorded nowhere)
//   - INSERT with parameterized VALUES
//   - SELECT with WHERE, ORDER BY, LIMIT, OFFSET and COUNT(*)
//   - LEFT/INNER JOIN for result enrichment
//   - UPDATE with parameterized SET and WHERE
//   - DELETE, which always requires WHERE
//   - Transactions via pool connections: Begin, Commit, Rollback
//
// WHERE predicates are limited to AND/OR combinations of `field = ?`,
// `field = true|false`, `field > NOW()` and `field < NOW()`. Anything
// outside the subset is refused with an error rather than silently
// misevaluated.
package DocDB
