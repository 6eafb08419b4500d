package pool

import (
	"errors"
	"sync"

	"github.com/nickyhof/DocDB/core"
	"github.com/nickyhof/DocDB/db"
	"github.com/nickyhof/DocDB/ps"
)

var (
	ErrTransactionOpen = errors.New("transaction already open")
	ErrNoTransaction   = errors.New("no open transaction")
)

// Pool hands out connections over one shared store. The document-file
// model has no real connection limit, so Acquire never blocks; the pool
// exists to give callers the familiar acquire/release discipline and a
// place to hang transaction state.
type Pool struct {
	Store  *ps.Store
	Engine *db.Engine

	mu       sync.Mutex
	handlers map[string][]func()
}

func New(store *ps.Store) *Pool {
	return &Pool{
		Store:    store,
		Engine:   db.NewEngine(),
		handlers: make(map[string][]func()),
	}
}

// On registers a handler for a pool event ("acquire", "release"). The
// events exist for driver compatibility; handlers run synchronously.
func (pool *Pool) On(event string, handler func()) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	pool.handlers[event] = append(pool.handlers[event], handler)
}

func (pool *Pool) emit(event string) {
	pool.mu.Lock()
	handlers := pool.handlers[event]
	pool.mu.Unlock()
	for _, handler := range handlers {
		handler()
	}
}

// Acquire returns a connection. Never blocks and never fails: all
// connections share the one document.
func (pool *Pool) Acquire() *Conn {
	pool.emit("acquire")
	return &Conn{pool: pool}
}

// Release returns a connection to the pool. An open transaction is
// rolled back implicitly: whatever the snapshot held is discarded.
func (pool *Pool) Release(conn *Conn) {
	conn.snapshot = nil
	pool.emit("release")
}

// Exec acquires a connection, runs one statement outside any
// transaction, and releases the connection.
func (pool *Pool) Exec(query string, params ...any) (db.Result, error) {
	conn := pool.Acquire()
	defer pool.Release(conn)
	return conn.Exec(query, params...)
}

// Conn is one pooled connection. With no transaction open it targets
// the shared document; after Begin it targets a private snapshot.
type Conn struct {
	pool     *Pool
	snapshot *core.Document
}

// Exec runs one statement on this connection's current target.
func (conn *Conn) Exec(query string, params ...any) (db.Result, error) {
	var target db.Target = conn.pool.Store
	if conn.snapshot != nil {
		target = snapshotTarget{document: conn.snapshot}
	}
	return conn.pool.Engine.Execute(target, query, params...)
}

// Begin opens a transaction by snapshotting the shared document. The
// snapshot is fully isolated until Commit.
func (conn *Conn) Begin() error {
	if conn.snapshot != nil {
		return ErrTransactionOpen
	}
	conn.snapshot = conn.pool.Store.Snapshot()
	return nil
}

// Commit merges the transaction's snapshot into the shared document
// and persists it. The snapshot is discarded first, so a failed merge
// behaves like a rollback rather than leaving the transaction open.
func (conn *Conn) Commit() error {
	if conn.snapshot == nil {
		return ErrNoTransaction
	}
	snapshot := conn.snapshot
	conn.snapshot = nil
	return conn.pool.Store.CommitSnapshot(snapshot)
}

// Rollback discards the transaction's snapshot.
func (conn *Conn) Rollback() error {
	if conn.snapshot == nil {
		return ErrNoTransaction
	}
	conn.snapshot = nil
	return nil
}

// InTransaction reports whether the connection holds an open snapshot.
func (conn *Conn) InTransaction() bool {
	return conn.snapshot != nil
}

// snapshotTarget adapts a transaction snapshot to statement execution.
// Persist is a no-op: snapshot changes reach disk only at commit.
type snapshotTarget struct {
	document *core.Document
}

func (target snapshotTarget) Document() *core.Document { return target.document }
func (target snapshotTarget) Persist() error           { return nil }
