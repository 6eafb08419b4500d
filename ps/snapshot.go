package ps

import (
	"fmt"

	"github.com/nickyhof/DocDB/core"
)

// Snapshot returns a deep copy of the current document. The copy is
// fully independent: statements executed against it never observe, and
// are never observed by, concurrent work on the shared document.
func (store *Store) Snapshot() *core.Document {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.document.Clone()
}

// CommitSnapshot merges a snapshot back into the shared document and
// persists the result. The merge is last writer wins at record
// granularity: for every table, records present in both by id take the
// snapshot's version, and records only the snapshot holds are appended.
// Records added to the shared document since the snapshot was taken
// survive untouched.
//
// If persisting fails, the shared document is restored to its
// pre-commit state and the error is returned; the snapshot's changes
// are lost.
func (store *Store) CommitSnapshot(snapshot *core.Document) error {
	store.mu.Lock()
	previous := store.document
	store.document = mergeDocuments(previous, snapshot)
	store.mu.Unlock()

	if err := store.Save(); err != nil {
		store.mu.Lock()
		store.document = previous
		store.mu.Unlock()
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func mergeDocuments(current, snapshot *core.Document) *core.Document {
	merged := core.NewDocument()

	for name, table := range current.Tables {
		merged.Tables[name] = append([]core.Record(nil), table...)
	}

	for name, snapshotTable := range snapshot.Tables {
		currentTable := merged.Tables[name]

		fromSnapshot := make(map[string]core.Record, len(snapshotTable))
		for _, record := range snapshotTable {
			fromSnapshot[record.ID()] = record
		}

		// Overlay shared ids in place, keeping the current table's order.
		table := make([]core.Record, 0, len(currentTable)+len(snapshotTable))
		seen := make(map[string]bool, len(currentTable))
		for _, record := range currentTable {
			id := record.ID()
			if replacement, ok := fromSnapshot[id]; ok {
				table = append(table, replacement)
			} else {
				table = append(table, record)
			}
			seen[id] = true
		}

		// Append the snapshot's new records in their own order.
		for _, record := range snapshotTable {
			if !seen[record.ID()] {
				table = append(table, record)
			}
		}
		merged.Tables[name] = table
	}

	if len(current.Cache) > 0 || len(snapshot.Cache) > 0 {
		merged.Cache = make(map[string]string, len(current.Cache)+len(snapshot.Cache))
		for key, value := range current.Cache {
			merged.Cache[key] = value
		}
		for key, value := range snapshot.Cache {
			merged.Cache[key] = value
		}
	}

	return merged
}
