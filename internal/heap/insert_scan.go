package heap

import "github.com/student/novasql-engine/internal/storage"

// InsertFileScan appends records to a heap file, allocating and linking a
// new data page whenever the current last page runs out of room. Grounded
// on InsertFileScan::insertRecord in Stage4_HeapFile/heapfile.C.
type InsertFileScan struct {
	*HeapFile
}

func NewInsertFileScan(hf *HeapFile) *InsertFileScan {
	return &InsertFileScan{HeapFile: hf}
}

// InsertRecord appends data as a new record and returns its RID.
func (s *InsertFileScan) InsertRecord(data []byte) (storage.RID, storage.Status) {
	if len(data) <= 0 || len(data) > storage.MaxRecordLen {
		return storage.NULLRID, storage.INVALIDRECLEN
	}

	lastPageNo := s.hdr().LastPage()
	page, st := s.bufMgr.ReadPage(s.fileID, lastPageNo)
	if st != storage.OK {
		return storage.NULLRID, st
	}

	slot, st := page.AsDataPage().InsertRecord(data)
	if st == storage.NOSPACE {
		if st := s.bufMgr.UnpinPage(s.fileID, lastPageNo, false); st != storage.OK {
			return storage.NULLRID, st
		}

		newPageNo, newPage, st := s.bufMgr.AllocPage(s.fileID)
		if st != storage.OK {
			return storage.NULLRID, st
		}
		newPage.AsDataPage().Init()

		oldLast, st := s.bufMgr.ReadPage(s.fileID, lastPageNo)
		if st != storage.OK {
			return storage.NULLRID, st
		}
		oldLast.AsDataPage().SetNextPage(newPageNo)
		if st := s.bufMgr.UnpinPage(s.fileID, lastPageNo, true); st != storage.OK {
			return storage.NULLRID, st
		}

		s.hdr().SetLastPage(newPageNo)
		s.hdr().SetPageCnt(s.hdr().PageCnt() + 1)
		s.hdrDirtyFlag = true

		lastPageNo, page = newPageNo, newPage
		slot, st = page.AsDataPage().InsertRecord(data)
		if st != storage.OK {
			s.bufMgr.UnpinPage(s.fileID, lastPageNo, true)
			return storage.NULLRID, st
		}
	} else if st != storage.OK {
		s.bufMgr.UnpinPage(s.fileID, lastPageNo, false)
		return storage.NULLRID, st
	}

	if st := s.bufMgr.UnpinPage(s.fileID, lastPageNo, true); st != storage.OK {
		return storage.NULLRID, st
	}

	s.hdr().SetRecCnt(s.hdr().RecCnt() + 1)
	s.hdrDirtyFlag = true

	return storage.RID{PageNo: lastPageNo, SlotNo: slot}, storage.OK
}
