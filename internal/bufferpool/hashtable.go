package bufferpool

import "github.com/student/novasql-engine/internal/storage"

// hashEntry is one link in a BufHashTbl bucket chain.
type hashEntry struct {
	key   bufKey
	frame int
	next  *hashEntry
}

// BufHashTbl maps (FileID, PageNo) to a frame index using chained hashing,
// sized to roughly 1.2x the buffer pool capacity and nudged odd, the same
// sizing rule the original buffer manager used for its open-chained table.
type BufHashTbl struct {
	buckets []*hashEntry
}

func newBufHashTbl(numBufs int) *BufHashTbl {
	n := (numBufs*12)/10 + 1
	if n < 1 {
		n = 1
	}
	if n%2 == 0 {
		n++
	}
	return &BufHashTbl{buckets: make([]*hashEntry, n)}
}

func (h *BufHashTbl) bucketFor(key bufKey) int {
	v := uint32(key.fileID)*2654435761 ^ uint32(key.pageNo)
	return int(v % uint32(len(h.buckets)))
}

func (h *BufHashTbl) Lookup(key bufKey) (int, storage.Status) {
	for e := h.buckets[h.bucketFor(key)]; e != nil; e = e.next {
		if e.key == key {
			return e.frame, storage.OK
		}
	}
	return 0, storage.HASHNOTFOUND
}

func (h *BufHashTbl) Insert(key bufKey, frame int) storage.Status {
	idx := h.bucketFor(key)
	for e := h.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			return storage.HASHTBLERROR
		}
	}
	h.buckets[idx] = &hashEntry{key: key, frame: frame, next: h.buckets[idx]}
	return storage.OK
}

func (h *BufHashTbl) Remove(key bufKey) storage.Status {
	idx := h.bucketFor(key)
	var prev *hashEntry
	for e := h.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				h.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			return storage.OK
		}
		prev = e
	}
	return storage.HASHNOTFOUND
}
