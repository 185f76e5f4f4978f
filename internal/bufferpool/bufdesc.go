package bufferpool

import (
	"github.com/student/novasql-engine/internal/lock"
	"github.com/student/novasql-engine/internal/storage"
)

// bufKey identifies a page uniquely across every open file: the FileID
// handle (never a raw *storage.File) plus the page number within it.
type bufKey struct {
	fileID storage.FileID
	pageNo int32
}

// bufDesc is the per-frame bookkeeping the clock replacer and the hash
// table both read: which page currently occupies the frame, whether it
// needs writing back, its second-chance bit, and how many callers
// currently hold it pinned.
type bufDesc struct {
	key    bufKey
	valid  bool
	dirty  bool
	refBit bool
	pinCnt *locking.RefCount
}

func newBufDesc() bufDesc {
	return bufDesc{pinCnt: locking.NewPinCount()}
}
