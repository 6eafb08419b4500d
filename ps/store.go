package ps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"

	"github.com/nickyhof/DocDB/core"
)

// Store owns the document and its single backing file. All access to
// the document goes through the store's lock; all writes to the file go
// through the save queue, which serializes them in arrival order.
type Store struct {
	fs   billy.Filesystem
	path string

	mu       sync.RWMutex
	document *core.Document

	queue   saveQueue
	history *History
}

// NewMemoryStore builds a store over an in-memory filesystem. Saves
// still run through the full marshal-and-write path, so behavior under
// test matches the file-backed store.
func NewMemoryStore() (*Store, error) {
	return NewStore(memfs.New(), "docdb.json")
}

// NewFileStore builds a store backed by the named file, creating parent
// directories as needed.
func NewFileStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return NewStore(osfs.New(dir), filepath.Base(path))
}

// NewStore loads the document at path on fs, or starts empty if the
// file does not exist yet.
func NewStore(fs billy.Filesystem, path string) (*Store, error) {
	store := &Store{fs: fs, path: path, document: core.NewDocument()}

	data, err := util.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, store.document); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return store, nil
}

// Document exposes the live shared document. Statement execution
// mutates it in place; Save persists it.
func (store *Store) Document() *core.Document {
	return store.document
}

// Persist satisfies the statement execution target.
func (store *Store) Persist() error {
	return store.Save()
}

// Save writes the document to the backing file. Concurrent saves are
// applied strictly in the order they arrive, so the file never travels
// backwards in time even when callers race.
func (store *Store) Save() error {
	turn := store.queue.enter()
	turn.wait()
	defer turn.done()

	store.mu.RLock()
	data, err := json.MarshalIndent(store.document, "", "  ")
	store.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	if err := util.WriteFile(store.fs, store.path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", store.path, err)
	}

	if store.history != nil {
		if err := store.history.Record(store.path, data); err != nil {
			return fmt.Errorf("recording revision: %w", err)
		}
	}
	return nil
}

// CacheGet reads a key from the document's cache section.
func (store *Store) CacheGet(key string) (string, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	value, ok := store.document.Cache[key]
	return value, ok
}

// CachePut writes a cache key and persists the document.
func (store *Store) CachePut(key, value string) error {
	store.mu.Lock()
	if store.document.Cache == nil {
		store.document.Cache = make(map[string]string)
	}
	previous, existed := store.document.Cache[key]
	store.document.Cache[key] = value
	store.mu.Unlock()

	if err := store.Save(); err != nil {
		store.mu.Lock()
		if existed {
			store.document.Cache[key] = previous
		} else {
			delete(store.document.Cache, key)
		}
		store.mu.Unlock()
		return err
	}
	return nil
}

// saveQueue hands out turns in strict arrival order. Each turn waits on
// the previous turn's channel and closes its own when done, forming a
// chain that preserves FIFO ordering without a worker goroutine.
type saveQueue struct {
	mu   sync.Mutex
	tail chan struct{}
}

type saveTurn struct {
	previous chan struct{}
	own      chan struct{}
}

func (queue *saveQueue) enter() saveTurn {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	turn := saveTurn{previous: queue.tail, own: make(chan struct{})}
	queue.tail = turn.own
	return turn
}

func (turn saveTurn) wait() {
	if turn.previous != nil {
		<-turn.previous
	}
}

func (turn saveTurn) done() {
	close(turn.own)
}
