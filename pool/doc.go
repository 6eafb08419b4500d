// Package pool hands out connections over a shared document store.
//
// A connection without an open transaction executes directly against
// the shared document. Begin switches it to a private deep-copy
// snapshot: statements then see and mutate only the snapshot, Commit
// merges it back record by record, and Release without Commit discards
// it. Releasing a connection always rolls back, so an abandoned
// transaction can never leak into the shared state.
//
//	p, _ := pool.New(store)
//	conn := p.Acquire()
//	defer p.Release(conn)
//
//	conn.Begin()
//	conn.Exec("INSERT INTO users (name) VALUES (?)", "ada")
//	conn.Commit()
package pool
