// Package ps provides the persistence layer for DocDB: the document
// store owning the in-memory tables and the single serialized file
// backing them. It is the only package that touches the filesystem.
//
// # Memory store
//
// For testing or ephemeral databases:
//
//	store, err := ps.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File store
//
// For persistent storage:
//
//	store, err := ps.NewFileStore("/path/to/data.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The whole document is rewritten on every committed mutation.
// Concurrent saves queue behind a single write-in-flight guard and are
// released strictly in arrival order, so a partial write can never
// interleave with another.
//
// # Transactions
//
// Snapshot returns a deep copy of the document for a transaction
// connection to own; CommitSnapshot merges it back per table and per id,
// snapshot winning over any concurrent change to the same id
// (last-writer-wins), then persists.
//
// # History and backup
//
// EnableHistory records every persisted revision of the document as a
// commit in an embedded Git repository; Revisions lists them and
// RestoreRevision rewinds the store. Backup and Restore move the
// serialized document to and from file://, http(s):// and s3:// URLs.
package ps
