// Package engine wires the storage, buffer pool, catalog, and query layers
// into one database handle, the same top-level role the teacher's
// internal/engine.Database played over heap.Table.
package engine

import (
	"log/slog"
	"path/filepath"

	"github.com/student/novasql-engine/internal/bufferpool"
	"github.com/student/novasql-engine/internal/catalog"
	"github.com/student/novasql-engine/internal/heap"
	"github.com/student/novasql-engine/internal/query"
	"github.com/student/novasql-engine/internal/storage"
)

// Database is a single data directory: one Db (heap-file directory), one
// shared BufMgr, one Catalog, and the query operators layered on them.
type Database struct {
	DataDir string
	Store   *storage.Db
	BufMgr  *bufferpool.BufMgr
	Cat     *catalog.Catalog
	Query   *query.Engine
}

// Open creates (if needed) and opens a database rooted at dataDir.
// bufferPoolPages sizes the shared buffer pool; catalogCacheCap sizes the
// in-memory LRU the catalog keeps in front of its JSON files.
func Open(dataDir string, bufferPoolPages, catalogCacheCap int) (*Database, error) {
	store, err := storage.NewDb(filepath.Join(dataDir, "heap"))
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewCatalog(filepath.Join(dataDir, "catalog"), catalogCacheCap)
	if err != nil {
		return nil, err
	}
	bufMgr := bufferpool.NewBufMgr(bufferPoolPages)
	qe := query.NewEngine(store, bufMgr, cat)

	slog.Info("opened database", "dir", dataDir, "buffer_pool_pages", bufferPoolPages)
	return &Database{DataDir: dataDir, Store: store, BufMgr: bufMgr, Cat: cat, Query: qe}, nil
}

// CreateTable creates the backing heap file and the catalog entry
// describing attrs. If the catalog write fails after the heap file was
// created, the heap file is torn back down so a retry doesn't see a
// half-created table.
func (db *Database) CreateTable(name string, attrs []catalog.AttrDesc) error {
	if st := heap.CreateHeapFile(db.Store, db.BufMgr, name); st != storage.OK {
		return st
	}
	if st := db.Cat.CreateRelation(name, name, attrs); st != storage.OK {
		slog.Error("create relation failed, rolling back heap file", "table", name, "err", st)
		db.Store.DestroyFile(name)
		return st
	}
	slog.Info("created table", "name", name, "attrs", len(attrs))
	return nil
}

// Close flushes every dirty page still held by the buffer pool.
func (db *Database) Close() error {
	if st := db.BufMgr.Close(); st != storage.OK {
		return st
	}
	return nil
}
