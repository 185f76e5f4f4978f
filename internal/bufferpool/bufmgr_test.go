package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/student/novasql-engine/internal/storage"
)

// fakeFile is an in-memory storage.File used to exercise the replacer
// without touching disk.
type fakeFile struct {
	pages [][storage.PageSize]byte
}

func (f *fakeFile) AllocatePage() (int32, storage.Status) {
	f.pages = append(f.pages, [storage.PageSize]byte{})
	return int32(len(f.pages) - 1), storage.OK
}

func (f *fakeFile) ReadPage(pageNo int32, p *storage.Page) storage.Status {
	if int(pageNo) >= len(f.pages) {
		return storage.FILEEOF
	}
	p.Buf = f.pages[pageNo]
	return storage.OK
}

func (f *fakeFile) WritePage(pageNo int32, p *storage.Page) storage.Status {
	if int(pageNo) >= len(f.pages) {
		return storage.BADBUFFER
	}
	f.pages[pageNo] = p.Buf
	return storage.OK
}

func (f *fakeFile) DisposePage(pageNo int32) storage.Status { return storage.OK }

func (f *fakeFile) GetFirstPage() (int32, storage.Status) {
	if len(f.pages) == 0 {
		return -1, storage.FILEEOF
	}
	return 0, storage.OK
}

func (f *fakeFile) PageCount() int32 { return int32(len(f.pages)) }

func newTestMgr(t *testing.T, numBufs int) (*BufMgr, storage.FileID, *fakeFile) {
	t.Helper()
	m := NewBufMgr(numBufs)
	f := &fakeFile{}
	fileID := storage.FileID(1)
	m.RegisterFile(fileID, f)
	return m, fileID, f
}

func TestBufMgr_AllocReadUnpinRoundTrip(t *testing.T) {
	m, fileID, _ := newTestMgr(t, 4)

	pageNo, page, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	copy(page.Buf[:], []byte("payload"))
	require.Equal(t, storage.OK, m.UnpinPage(fileID, pageNo, true))

	page2, st := m.ReadPage(fileID, pageNo)
	require.Equal(t, storage.OK, st)
	require.Equal(t, byte('p'), page2.Buf[0])
	require.Equal(t, storage.OK, m.UnpinPage(fileID, pageNo, false))
}

func TestBufMgr_UnpinWithoutPinFails(t *testing.T) {
	m, fileID, _ := newTestMgr(t, 4)
	pageNo, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	require.Equal(t, storage.OK, m.UnpinPage(fileID, pageNo, false))
	require.Equal(t, storage.PAGENOTPINNED, m.UnpinPage(fileID, pageNo, false))
}

func TestBufMgr_BufferExceededWhenAllPinned(t *testing.T) {
	m, fileID, _ := newTestMgr(t, 2)

	p0, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	p1, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	require.NotEqual(t, p0, p1)

	_, _, st = m.AllocPage(fileID)
	require.Equal(t, storage.BUFFEREXCEEDED, st)
}

func TestBufMgr_EvictsUnpinnedFrame(t *testing.T) {
	m, fileID, _ := newTestMgr(t, 2)

	p0, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	require.Equal(t, storage.OK, m.UnpinPage(fileID, p0, false))

	p1, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	require.Equal(t, storage.OK, m.UnpinPage(fileID, p1, false))

	// Both frames are clean and unpinned; a third page must evict one.
	p2, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	require.Equal(t, storage.OK, m.UnpinPage(fileID, p2, false))
}

func TestBufMgr_FlushFileRefusesWhilePinned(t *testing.T) {
	m, fileID, _ := newTestMgr(t, 2)
	pageNo, page, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	copy(page.Buf[:], []byte("dirty"))

	require.Equal(t, storage.PAGEPINNED, m.FlushFile(fileID))
	require.Equal(t, storage.OK, m.UnpinPage(fileID, pageNo, true))
	require.Equal(t, storage.OK, m.FlushFile(fileID))

	// A clean flush un-hashes and invalidates every frame it flushed: no
	// frame should still answer to (fileID, pageNo) afterward.
	_, st = m.hashTbl.Lookup(bufKey{fileID: fileID, pageNo: pageNo})
	require.Equal(t, storage.HASHNOTFOUND, st)

	found := false
	for _, f := range m.frames {
		if f.desc.key.fileID == fileID && f.desc.key.pageNo == pageNo {
			found = true
			require.False(t, f.desc.valid)
		}
	}
	require.True(t, found, "the flushed frame's stale key should still be observable")
}

func TestBufMgr_FlushFileDetectsStaleSlot(t *testing.T) {
	m, fileID, _ := newTestMgr(t, 2)
	pageNo, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)
	require.Equal(t, storage.OK, m.UnpinPage(fileID, pageNo, false))
	require.Equal(t, storage.OK, m.FlushFile(fileID))

	// The frame is now invalid but its key still names fileID; a second
	// flush of the same (now-emptied) file must report it as stale.
	require.Equal(t, storage.BADBUFFER, m.FlushFile(fileID))
}

func TestBufMgr_DisposePinnedFails(t *testing.T) {
	m, fileID, _ := newTestMgr(t, 2)
	pageNo, _, st := m.AllocPage(fileID)
	require.Equal(t, storage.OK, st)

	require.Equal(t, storage.PAGEPINNED, m.DisposePage(fileID, pageNo))
	require.Equal(t, storage.OK, m.UnpinPage(fileID, pageNo, false))
	require.Equal(t, storage.OK, m.DisposePage(fileID, pageNo))
}
