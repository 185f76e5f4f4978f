package heap

import (
	"bytes"
	"math"

	"github.com/student/novasql-engine/internal/alias/bx"
	"github.com/student/novasql-engine/internal/storage"
)

// Datatype tags the byte layout a HeapFileScan predicate compares against,
// mirroring the original scan's INTEGER/FLOAT/STRING distinction.
type Datatype int

const (
	DTInteger Datatype = iota // 4-byte little-endian int32
	DTFloat                   // 4-byte little-endian float32, per sizeof(float32) in the original scan
	DTString                  // raw bytes, compared lexicographically
)

// FixedLen returns the byte width StartScan requires for dtype, or
// (0, false) for DTString, whose width is caller-declared rather than
// fixed by the type itself.
func (dtype Datatype) FixedLen() (int32, bool) {
	switch dtype {
	case DTInteger:
		return 4, true
	case DTFloat:
		return 4, true
	default:
		return 0, false
	}
}

// Operator is the comparison a predicate applies between a record's field
// and the scan's filter value.
type Operator int

const (
	OpLT Operator = iota
	OpLTE
	OpEQ
	OpGTE
	OpGT
	OpNE
)

// HeapFileScan walks the live records of a heap file in page/slot order,
// optionally filtering on one fixed-offset field.
type HeapFileScan struct {
	*HeapFile

	offset   int32
	length   int32
	datatype Datatype
	op       Operator
	filter   []byte

	curPageNo int32
	curPage   *storage.Page
	curSlot   int32 // -1 means "before the first slot of curPage"

	markedPageNo int32
	markedSlot   int32
}

func NewHeapFileScan(hf *HeapFile) *HeapFileScan {
	return &HeapFileScan{HeapFile: hf, curPageNo: -1, curSlot: -1, markedPageNo: -1, markedSlot: -1}
}

// StartScan positions the scan at the first data page and records the
// predicate. filter == nil means an unconditional scan: every record
// matches.
//
// offset and length must describe a field that actually fits dtype's
// fixed width: INTEGER and FLOAT fields must be declared at exactly
// sizeof(int32)/sizeof(float32) bytes, matching the original scan's own
// startScan validation, or the call fails with BADSCANPARM instead of
// silently mis-decoding the field later in matchRec.
func (s *HeapFileScan) StartScan(offset, length int32, dtype Datatype, filter []byte, op Operator) storage.Status {
	if offset < 0 || length <= 0 {
		return storage.BADSCANPARM
	}
	if op < OpLT || op > OpNE {
		return storage.BADSCANPARM
	}
	switch dtype {
	case DTInteger, DTFloat:
		if want, _ := dtype.FixedLen(); length != want {
			return storage.BADSCANPARM
		}
	case DTString:
		// length is caller-declared; any positive length is valid.
	default:
		return storage.BADSCANPARM
	}
	if err := s.endCurrentPage(false); err != storage.OK {
		return err
	}

	s.offset, s.length, s.datatype, s.op, s.filter = offset, length, dtype, op, filter

	firstPageNo := s.hdr().FirstPage()
	if firstPageNo < 0 {
		s.curPageNo, s.curPage = -1, nil
		return storage.OK
	}
	page, st := s.bufMgr.ReadPage(s.fileID, firstPageNo)
	if st != storage.OK {
		return st
	}
	s.curPageNo, s.curPage, s.curSlot = firstPageNo, page, -1
	return storage.OK
}

func (s *HeapFileScan) endCurrentPage(dirty bool) storage.Status {
	if s.curPage == nil {
		return storage.OK
	}
	st := s.bufMgr.UnpinPage(s.fileID, s.curPageNo, dirty)
	s.curPage, s.curPageNo, s.curSlot = nil, -1, -1
	return st
}

// ScanNext advances to and returns the RID of the next matching record, or
// FILEEOF once the last data page has been exhausted.
func (s *HeapFileScan) ScanNext() (storage.RID, storage.Status) {
	for s.curPage != nil {
		dp := s.curPage.AsDataPage()
		slot, ok := dp.NextSlot(s.curSlot)
		if !ok {
			next := dp.NextPage()
			if st := s.endCurrentPage(false); st != storage.OK {
				return storage.NULLRID, st
			}
			if next < 0 {
				return storage.NULLRID, storage.FILEEOF
			}
			page, st := s.bufMgr.ReadPage(s.fileID, next)
			if st != storage.OK {
				return storage.NULLRID, st
			}
			s.curPageNo, s.curPage, s.curSlot = next, page, -1
			continue
		}

		s.curSlot = slot
		data, st := dp.ReadRecord(slot)
		if st != storage.OK {
			return storage.NULLRID, st
		}
		if s.matchRec(data) {
			return storage.RID{PageNo: s.curPageNo, SlotNo: slot}, storage.OK
		}
	}
	return storage.NULLRID, storage.FILEEOF
}

// GetRecord returns the record at the scan's current position.
func (s *HeapFileScan) GetRecord() (storage.Record, storage.Status) {
	if s.curPage == nil || s.curSlot < 0 {
		return storage.Record{}, storage.BADSCANPARM
	}
	data, st := s.curPage.AsDataPage().ReadRecord(s.curSlot)
	if st != storage.OK {
		return storage.Record{}, st
	}
	return storage.Record{Data: data}, storage.OK
}

// DeleteRecord tombstones the record at the scan's current position.
func (s *HeapFileScan) DeleteRecord() storage.Status {
	if s.curPage == nil || s.curSlot < 0 {
		return storage.BADSCANPARM
	}
	if st := s.curPage.AsDataPage().DeleteRecord(s.curSlot); st != storage.OK {
		return st
	}
	s.hdr().SetRecCnt(s.hdr().RecCnt() - 1)
	s.hdrDirtyFlag = true
	return s.endCurrentPage(true)
	// Note: unpinning here ends the current page; a caller that wants to
	// keep scanning after a delete should call MarkScan before deleting
	// and ResetScan after, same as the original scan's recovery pattern.
}

// MarkScan remembers the current position so ResetScan can return to it.
func (s *HeapFileScan) MarkScan() {
	s.markedPageNo, s.markedSlot = s.curPageNo, s.curSlot
}

// ResetScan re-pins the marked page and resumes scanning from the marked
// slot.
func (s *HeapFileScan) ResetScan() storage.Status {
	if err := s.endCurrentPage(false); err != storage.OK {
		return err
	}
	if s.markedPageNo < 0 {
		return storage.OK
	}
	page, st := s.bufMgr.ReadPage(s.fileID, s.markedPageNo)
	if st != storage.OK {
		return st
	}
	s.curPageNo, s.curPage, s.curSlot = s.markedPageNo, page, s.markedSlot
	return storage.OK
}

// EndScan unpins whatever page the scan currently holds.
func (s *HeapFileScan) EndScan() storage.Status {
	return s.endCurrentPage(false)
}

func (s *HeapFileScan) matchRec(rec []byte) bool {
	if s.filter == nil {
		return true
	}
	end := s.offset + s.length
	if end > int32(len(rec)) {
		return false
	}
	field := rec[s.offset:end]

	var cmp int
	switch s.datatype {
	case DTInteger:
		a, b := int32(bx.U32(field)), int32(bx.U32(s.filter))
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	case DTFloat:
		a, b := math.Float32frombits(bx.U32(field)), math.Float32frombits(bx.U32(s.filter))
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	default:
		cmp = bytes.Compare(field, s.filter)
	}

	switch s.op {
	case OpLT:
		return cmp < 0
	case OpLTE:
		return cmp <= 0
	case OpEQ:
		return cmp == 0
	case OpGTE:
		return cmp >= 0
	case OpGT:
		return cmp > 0
	case OpNE:
		return cmp != 0
	default:
		return false
	}
}
