package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/student/novasql-engine/internal/bufferpool"
	"github.com/student/novasql-engine/internal/storage"
)

func newTestHeapFile(t *testing.T, name string) (*storage.Db, *bufferpool.BufMgr, *HeapFile) {
	t.Helper()
	db, err := storage.NewDb(t.TempDir())
	require.NoError(t, err)
	bufMgr := bufferpool.NewBufMgr(16)

	require.Equal(t, storage.OK, CreateHeapFile(db, bufMgr, name))
	hf, st := OpenHeapFile(db, bufMgr, name)
	require.Equal(t, storage.OK, st)
	return db, bufMgr, hf
}

func TestCreateOpenHeapFile_StartsClean(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t1")
	require.Equal(t, int32(0), hf.GetRecCnt())
	require.False(t, hf.hdrDirtyFlag, "a freshly opened, unmodified heap file must not be dirty")
}

func TestInsertAndGetRecord(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t2")
	ins := NewInsertFileScan(hf)

	rid, st := ins.InsertRecord([]byte("row-one"))
	require.Equal(t, storage.OK, st)
	require.Equal(t, int32(1), hf.GetRecCnt())

	rec, st := hf.GetRecord(rid)
	require.Equal(t, storage.OK, st)
	require.Equal(t, []byte("row-one"), rec.Data)

	require.True(t, hf.hdrDirtyFlag)
	require.Equal(t, storage.OK, hf.Close())
}

func TestInsertRecord_EmptyRejected(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t3")
	ins := NewInsertFileScan(hf)
	_, st := ins.InsertRecord(nil)
	require.Equal(t, storage.INVALIDRECLEN, st)
}

func TestInsertRecord_OversizedRejectedWithoutAllocatingAPage(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t3b")
	ins := NewInsertFileScan(hf)
	pageCntBefore := hf.hdr().PageCnt()

	_, st := ins.InsertRecord(make([]byte, storage.MaxRecordLen+1))
	require.Equal(t, storage.INVALIDRECLEN, st)
	require.Equal(t, pageCntBefore, hf.hdr().PageCnt(), "an oversized record must be rejected before any new page is allocated")
	require.False(t, hf.hdrDirtyFlag)
}

func TestInsertRecord_SpansMultiplePages(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t4")
	ins := NewInsertFileScan(hf)

	// Records big enough that only a handful fit per 8KiB page, forcing
	// InsertRecord to allocate and link a new data page.
	payload := make([]byte, 512)
	const n = 200
	rids := make([]storage.RID, n)
	for i := 0; i < n; i++ {
		payload[0] = byte(i)
		rid, st := ins.InsertRecord(payload)
		require.Equal(t, storage.OK, st)
		rids[i] = rid
	}
	require.Equal(t, int32(n), hf.GetRecCnt())

	seenPages := map[int32]bool{}
	for _, rid := range rids {
		seenPages[rid.PageNo] = true
	}
	require.Greater(t, len(seenPages), 1, "enough records must spill onto a second data page")

	rec, st := hf.GetRecord(rids[n-1])
	require.Equal(t, storage.OK, st)
	require.Equal(t, byte(n-1), rec.Data[0])
}

func TestHeapFileScan_UnfilteredIterate(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t5")
	ins := NewInsertFileScan(hf)

	for i := int32(0); i < 5; i++ {
		var buf [4]byte
		buf[0] = byte(i)
		_, st := ins.InsertRecord(buf[:])
		require.Equal(t, storage.OK, st)
	}

	scan := NewHeapFileScan(hf)
	require.Equal(t, storage.OK, scan.StartScan(0, 4, DTInteger, nil, OpEQ))

	count := 0
	for {
		_, st := scan.ScanNext()
		if st == storage.FILEEOF {
			break
		}
		require.Equal(t, storage.OK, st)
		count++
	}
	require.Equal(t, 5, count)
	require.Equal(t, storage.OK, scan.EndScan())
}

func TestHeapFileScan_StartScanRejectsMismatchedLength(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t5b")
	scan := NewHeapFileScan(hf)

	require.Equal(t, storage.BADSCANPARM, scan.StartScan(0, 8, DTInteger, []byte{0, 0, 0, 0}, OpEQ))
	require.Equal(t, storage.BADSCANPARM, scan.StartScan(0, 8, DTFloat, []byte{0, 0, 0, 0}, OpEQ))
	require.Equal(t, storage.BADSCANPARM, scan.StartScan(0, 4, Datatype(99), nil, OpEQ))
	require.Equal(t, storage.BADSCANPARM, scan.StartScan(0, 4, DTInteger, nil, Operator(99)))
	require.Equal(t, storage.BADSCANPARM, scan.StartScan(-1, 4, DTInteger, nil, OpEQ))
	require.Equal(t, storage.BADSCANPARM, scan.StartScan(0, 0, DTInteger, nil, OpEQ))

	require.Equal(t, storage.OK, scan.StartScan(0, 4, DTInteger, nil, OpEQ))
	require.Equal(t, storage.OK, scan.EndScan())
}

func TestHeapFileScan_DeleteRecordWithMarkReset(t *testing.T) {
	_, _, hf := newTestHeapFile(t, "t6")
	ins := NewInsertFileScan(hf)
	for i := 0; i < 3; i++ {
		_, st := ins.InsertRecord([]byte("row"))
		require.Equal(t, storage.OK, st)
	}

	scan := NewHeapFileScan(hf)
	require.Equal(t, storage.OK, scan.StartScan(0, 3, DTString, []byte("row"), OpEQ))

	deleted := 0
	for {
		_, st := scan.ScanNext()
		if st == storage.FILEEOF {
			break
		}
		require.Equal(t, storage.OK, st)
		scan.MarkScan()
		require.Equal(t, storage.OK, scan.DeleteRecord())
		require.Equal(t, storage.OK, scan.ResetScan())
		deleted++
	}
	require.Equal(t, 3, deleted)
	require.Equal(t, int32(0), hf.GetRecCnt())
}
