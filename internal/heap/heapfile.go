// Package heap implements the heap-file record layer: a header page
// followed by a linked list of slotted data pages, all faulted in and
// pinned through a bufferpool.BufMgr. It is grounded on the teacher's
// internal/heap package (Table/HeapPage, since rewritten page-for-page to
// match the header-page-plus-linked-data-pages design) and on
// Stage4_HeapFile/heapfile.C for exact operation semantics.
package heap

import (
	"github.com/student/novasql-engine/internal/bufferpool"
	"github.com/student/novasql-engine/internal/storage"
)

// HeapFile is an open heap file: its header page stays pinned for the
// lifetime of the handle, and at most one data page ("the current page")
// is pinned at a time outside of it.
type HeapFile struct {
	db     *storage.Db
	bufMgr *bufferpool.BufMgr
	fileID storage.FileID
	file   storage.File

	headerPageNo int32
	headerPage   *storage.Page
	hdrDirtyFlag bool

	fileName string
}

// CreateHeapFile creates a new, empty heap file: a header page plus one
// (empty) data page, linked together. It does not leave the file open;
// call OpenHeapFile afterward to use it.
func CreateHeapFile(db *storage.Db, bufMgr *bufferpool.BufMgr, fileName string) storage.Status {
	if st := db.CreateFile(fileName); st != storage.OK {
		return st
	}
	fileID, file, st := db.OpenFile(fileName)
	if st != storage.OK {
		return st
	}
	bufMgr.RegisterFile(fileID, file)
	defer bufMgr.UnregisterFile(fileID)
	defer db.CloseFile(fileID)

	hdrPageNo, hdrPage, st := bufMgr.AllocPage(fileID)
	if st != storage.OK {
		return st
	}
	hp := hdrPage.AsHeaderPage()
	hp.Init(fileName)

	dataPageNo, dataPage, st := bufMgr.AllocPage(fileID)
	if st != storage.OK {
		bufMgr.UnpinPage(fileID, hdrPageNo, true)
		return st
	}
	dataPage.AsDataPage().Init()

	hp.SetFirstPage(dataPageNo)
	hp.SetLastPage(dataPageNo)
	hp.SetPageCnt(1)
	hp.SetRecCnt(0)

	if st := bufMgr.UnpinPage(fileID, dataPageNo, true); st != storage.OK {
		return st
	}
	if st := bufMgr.UnpinPage(fileID, hdrPageNo, true); st != storage.OK {
		return st
	}
	return bufMgr.FlushFile(fileID)
}

// OpenHeapFile opens an existing heap file and pins its header page.
//
// The original buffer manager set hdrDirtyFlag unconditionally true on
// open, forcing a write-back even when nothing changed. That is a bug, not
// a feature: a freshly opened, never-modified heap file has no reason to
// be dirty. This implementation starts hdrDirtyFlag false and only sets it
// when a call actually mutates recCnt/pageCnt/firstPage/lastPage.
func OpenHeapFile(db *storage.Db, bufMgr *bufferpool.BufMgr, fileName string) (*HeapFile, storage.Status) {
	fileID, file, st := db.OpenFile(fileName)
	if st != storage.OK {
		return nil, st
	}
	bufMgr.RegisterFile(fileID, file)

	hdrPage, st := bufMgr.ReadPage(fileID, 0)
	if st != storage.OK {
		bufMgr.UnregisterFile(fileID)
		return nil, st
	}

	return &HeapFile{
		db:           db,
		bufMgr:       bufMgr,
		fileID:       fileID,
		file:         file,
		headerPageNo: 0,
		headerPage:   hdrPage,
		hdrDirtyFlag: false,
		fileName:     fileName,
	}, storage.OK
}

func (hf *HeapFile) hdr() *storage.HeaderPage { return hf.headerPage.AsHeaderPage() }

// GetRecCnt returns the number of live records recorded in the header
// page. Deletions decrement it; it is not a live count recomputed by
// scanning.
func (hf *HeapFile) GetRecCnt() int32 { return hf.hdr().RecCnt() }

// GetRecord fetches one record by RID. The returned Record is a private
// copy; it does not alias the buffer pool frame.
func (hf *HeapFile) GetRecord(rid storage.RID) (storage.Record, storage.Status) {
	page, st := hf.bufMgr.ReadPage(hf.fileID, rid.PageNo)
	if st != storage.OK {
		return storage.Record{}, st
	}
	data, st := page.AsDataPage().ReadRecord(rid.SlotNo)
	unpinSt := hf.bufMgr.UnpinPage(hf.fileID, rid.PageNo, false)
	if st != storage.OK {
		return storage.Record{}, st
	}
	if unpinSt != storage.OK {
		return storage.Record{}, unpinSt
	}
	return storage.Record{Data: data}, storage.OK
}

// Close flushes and unpins the header page, then closes the underlying
// file. A HeapFile must not be used again afterward.
func (hf *HeapFile) Close() storage.Status {
	if st := hf.bufMgr.UnpinPage(hf.fileID, hf.headerPageNo, hf.hdrDirtyFlag); st != storage.OK {
		return st
	}
	if st := hf.bufMgr.FlushFile(hf.fileID); st != storage.OK {
		return st
	}
	hf.bufMgr.UnregisterFile(hf.fileID)
	return hf.db.CloseFile(hf.fileID)
}
