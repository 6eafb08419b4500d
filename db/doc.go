// Package db provides the statement execution engine for DocDB.
//
// The Engine dispatches a parsed statement to the executor for its
// kind, evaluating predicates against the records of a Target: either
// the shared document store or a transaction's private snapshot.
//
// # Engine usage
//
//	engine := db.NewEngine()
//	result, err := engine.Execute(store, "SELECT * FROM users WHERE status = ?", "active")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result.Display()
//
// # Result types
//
// There are two result types:
//   - QueryResult: returned by reads; a sequence of flat records
//   - CommitResult: returned by mutations; new id, affected count,
//     changed count
//
// Any deviation in these shapes breaks every call site written against
// the driver contract, so they are identical across all backends.
package db
