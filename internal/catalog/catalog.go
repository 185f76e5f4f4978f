// Package catalog implements the relation/attribute directory: the
// relCat/attrCat equivalent that resolves a relation name to its backing
// heap file and its attributes' fixed (offset, length, type). Metadata is
// persisted as one JSON file per relation, following the teacher's
// TableMeta-as-JSON pattern in internal/engine/db.go, and cached with
// pkg/cache.LRUManager so repeated lookups during a scan don't re-read the
// file from disk.
package catalog

import (
	"container/list"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/student/novasql-engine/internal/heap"
	"github.com/student/novasql-engine/internal/storage"
	"github.com/student/novasql-engine/pkg/cache"
)

// RelDesc describes one relation: its name and the base name of the heap
// file that stores its records.
type RelDesc struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	AttrCnt  int    `json:"attr_cnt"`
	RecLen   int32  `json:"rec_len"`
}

// AttrDesc describes one fixed-offset, fixed-length attribute of a
// relation, the unit HeapFileScan.StartScan filters on.
type AttrDesc struct {
	RelName    string        `json:"rel_name"`
	AttrName   string        `json:"attr_name"`
	AttrOffset int32         `json:"attr_offset"`
	AttrLen    int32         `json:"attr_len"`
	AttrType   heap.Datatype `json:"attr_type"`
}

type relMeta struct {
	Rel   RelDesc    `json:"rel"`
	Attrs []AttrDesc `json:"attrs"`
}

type cacheEntry struct {
	name string
	meta *relMeta
}

// Catalog is the on-disk, LRU-cached relation directory for one database.
type Catalog struct {
	dir      string
	capacity int

	mu    sync.Mutex
	lru   *cache.LRUManager
	elems map[string]*list.Element
}

func NewCatalog(dir string, capacity int) (*Catalog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if capacity <= 0 {
		capacity = 64
	}
	return &Catalog{
		dir:      dir,
		capacity: capacity,
		lru:      cache.NewLRUManager(),
		elems:    make(map[string]*list.Element),
	}, nil
}

func (c *Catalog) path(relName string) string {
	return filepath.Join(c.dir, relName+".json")
}

// CreateRelation computes attribute offsets from attrs' lengths (in
// declaration order) and persists the resulting RelDesc/AttrDesc set.
func (c *Catalog) CreateRelation(relName, fileBase string, attrs []AttrDesc) storage.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.path(relName)); err == nil {
		return storage.BADCATPARM
	}

	var off int32
	for i := range attrs {
		attrs[i].RelName = relName
		attrs[i].AttrOffset = off
		off += attrs[i].AttrLen
	}

	meta := &relMeta{
		Rel:   RelDesc{Name: relName, FileName: fileBase, AttrCnt: len(attrs), RecLen: off},
		Attrs: attrs,
	}
	if err := c.persist(meta); err != nil {
		return storage.UNIXERR
	}
	c.put(relName, meta)
	return storage.OK
}

func (c *Catalog) persist(meta *relMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(meta.Rel.Name), data, 0o644)
}

func (c *Catalog) put(relName string, meta *relMeta) {
	if elem, ok := c.elems[relName]; ok {
		elem.Value = &cacheEntry{relName, meta}
		c.lru.MoveToFront(elem)
		return
	}
	elem := c.lru.PushFront(&cacheEntry{relName, meta})
	c.elems[relName] = elem
	if c.lru.Len() > c.capacity {
		if back := c.lru.Back(); back != nil {
			ce := back.Value.(*cacheEntry)
			c.lru.Remove(back)
			delete(c.elems, ce.name)
		}
	}
}

func (c *Catalog) load(relName string) (*relMeta, storage.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.elems[relName]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).meta, storage.OK
	}

	data, err := os.ReadFile(c.path(relName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.BADCATPARM
		}
		return nil, storage.UNIXERR
	}
	var meta relMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, storage.UNIXERR
	}
	c.put(relName, &meta)
	return &meta, storage.OK
}

// GetRelInfo resolves a relation's RelDesc.
func (c *Catalog) GetRelInfo(relName string) (RelDesc, storage.Status) {
	meta, st := c.load(relName)
	if st != storage.OK {
		return RelDesc{}, st
	}
	return meta.Rel, storage.OK
}

// GetAttrInfo resolves one attribute of a relation by name.
func (c *Catalog) GetAttrInfo(relName, attrName string) (AttrDesc, storage.Status) {
	meta, st := c.load(relName)
	if st != storage.OK {
		return AttrDesc{}, st
	}
	for _, a := range meta.Attrs {
		if a.AttrName == attrName {
			return a, storage.OK
		}
	}
	return AttrDesc{}, storage.ATTRNOTFOUND
}

// GetRelAttrs resolves every attribute of a relation, in declaration order.
func (c *Catalog) GetRelAttrs(relName string) ([]AttrDesc, storage.Status) {
	meta, st := c.load(relName)
	if st != storage.OK {
		return nil, st
	}
	return meta.Attrs, storage.OK
}
