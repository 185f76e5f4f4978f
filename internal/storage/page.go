package storage

import "github.com/student/novasql-engine/internal/alias/bx"

// PageSize is fixed for the lifetime of a database; the Non-goals rule out
// variable page sizes.
const PageSize = 8192

// Page is the raw, untyped contents of one disk page. It carries no
// behavior of its own: callers convert it to a DataPage or a HeaderPage
// right after a frame is faulted in, and from then on only use the typed
// view. This keeps the two incompatible on-disk layouts from being aliased
// through a single method set by accident.
type Page struct {
	Buf [PageSize]byte
}

func (p *Page) AsDataPage() *DataPage     { return (*DataPage)(p) }
func (p *Page) AsHeaderPage() *HeaderPage { return (*HeaderPage)(p) }

// RID identifies one record by the page it lives on and its slot within
// that page's slot directory.
type RID struct {
	PageNo int32
	SlotNo int32
}

// NULLRID is the sentinel RID returned by a scan that has not yet
// positioned on a record, or that reached end of file.
var NULLRID = RID{PageNo: -1, SlotNo: -1}

func (r RID) Valid() bool { return r != NULLRID }

// Record is an opaque, schema-less byte tuple as stored on a data page.
// The query layer reads its bytes at the fixed attribute offsets the
// catalog records; the heap layer only compares a scan's filter field.
type Record struct {
	Data []byte
}

// --- DataPage: a slotted page -------------------------------------------
//
// Layout:
//
//	[0:4)   nextPage   int32  -- next page in the heap file's linked list, -1 if none
//	[4:8)   numSlots   int32  -- number of slot directory entries (including tombstones)
//	[8:12)  freePtr    int32  -- offset of the first free byte for new record data
//	[12:16) slotDirPtr int32  -- offset of the lowest-addressed slot entry so far
//	[16:..) record bytes, growing upward from dpFixed
//	...slot directory, growing downward from PageSize, one (offset,length) pair per slot
//
// A slot with length == -1 is a tombstone: the slot number is reused by a
// future insert, but the record bytes it used to point at are never
// reclaimed or compacted.
type DataPage Page

const (
	dpFixed  = 16
	slotSize = 8 // two int32: offset, length
)

// MaxRecordLen is the hard ceiling on record size: PAGESIZE - DPFIXED, the
// most a page could ever hold even before its slot directory entry is
// accounted for. A caller should reject anything larger up front rather
// than let InsertRecord discover it the hard way via NOSPACE.
const MaxRecordLen = PageSize - dpFixed

func (p *DataPage) buf() []byte { return (*Page)(p).Buf[:] }

func (p *DataPage) Init() {
	b := p.buf()
	p.SetNextPage(-1)
	bx.PutU32(b[4:8], 0)
	bx.PutU32(b[8:12], uint32(int32(dpFixed)))
	bx.PutU32(b[12:16], uint32(int32(PageSize)))
}

func (p *DataPage) NextPage() int32     { return int32(bx.U32(p.buf()[0:4])) }
func (p *DataPage) SetNextPage(v int32) { bx.PutU32(p.buf()[0:4], uint32(v)) }
func (p *DataPage) NumSlots() int32     { return int32(bx.U32(p.buf()[4:8])) }
func (p *DataPage) setNumSlots(v int32) { bx.PutU32(p.buf()[4:8], uint32(v)) }
func (p *DataPage) FreePtr() int32      { return int32(bx.U32(p.buf()[8:12])) }
func (p *DataPage) setFreePtr(v int32)  { bx.PutU32(p.buf()[8:12], uint32(v)) }
func (p *DataPage) SlotDirPtr() int32   { return int32(bx.U32(p.buf()[12:16])) }
func (p *DataPage) setSlotDirPtr(v int32) {
	bx.PutU32(p.buf()[12:16], uint32(v))
}

func (p *DataPage) slotOffset(slotNo int32) int32 {
	return int32(PageSize) - (slotNo+1)*slotSize
}

// getSlot returns the (offset, length) of a slot. length == -1 means the
// slot is a tombstone; ok is false only if slotNo is out of range.
func (p *DataPage) getSlot(slotNo int32) (offset, length int32, ok bool) {
	if slotNo < 0 || slotNo >= p.NumSlots() {
		return 0, 0, false
	}
	so := p.slotOffset(slotNo)
	b := p.buf()
	return int32(bx.U32(b[so : so+4])), int32(bx.U32(b[so+4 : so+8])), true
}

func (p *DataPage) putSlot(slotNo, offset, length int32) {
	so := p.slotOffset(slotNo)
	b := p.buf()
	bx.PutU32(b[so:so+4], uint32(offset))
	bx.PutU32(b[so+4:so+8], uint32(length))
}

func (p *DataPage) findTombstone() int32 {
	for i := int32(0); i < p.NumSlots(); i++ {
		if _, length, _ := p.getSlot(i); length == -1 {
			return i
		}
	}
	return -1
}

// InsertRecord appends data to the page, reusing a tombstoned slot number
// if one exists. Returns INVALIDRECLEN for an empty record, NOSPACE if the
// page cannot fit it.
func (p *DataPage) InsertRecord(data []byte) (int32, Status) {
	reclen := int32(len(data))
	if reclen <= 0 {
		return 0, INVALIDRECLEN
	}

	slotNo := p.findTombstone()
	newSlotDir := p.SlotDirPtr()
	grows := slotNo < 0
	if grows {
		newSlotDir -= slotSize
		slotNo = p.NumSlots()
	}

	if newSlotDir-p.FreePtr() < reclen {
		return 0, NOSPACE
	}

	off := p.FreePtr()
	copy(p.buf()[off:off+reclen], data)
	p.setFreePtr(off + reclen)

	if grows {
		p.setSlotDirPtr(newSlotDir)
		p.setNumSlots(slotNo + 1)
	}
	p.putSlot(slotNo, off, reclen)
	return slotNo, OK
}

// ReadRecord returns a copy of the record bytes in slotNo.
func (p *DataPage) ReadRecord(slotNo int32) ([]byte, Status) {
	off, length, ok := p.getSlot(slotNo)
	if !ok {
		return nil, INVALIDSLOT
	}
	if length < 0 {
		return nil, INVALIDSLOT
	}
	out := make([]byte, length)
	copy(out, p.buf()[off:off+length])
	return out, OK
}

// DeleteRecord tombstones a slot. The record bytes are not reclaimed.
func (p *DataPage) DeleteRecord(slotNo int32) Status {
	_, length, ok := p.getSlot(slotNo)
	if !ok || length < 0 {
		return INVALIDSLOT
	}
	off, _, _ := p.getSlot(slotNo)
	p.putSlot(slotNo, off, -1)
	return OK
}

// FirstSlot/NextSlot let a scan walk live (non-tombstoned) slots in order.
func (p *DataPage) FirstSlot() (int32, bool) { return p.NextSlot(-1) }

func (p *DataPage) NextSlot(after int32) (int32, bool) {
	for i := after + 1; i < p.NumSlots(); i++ {
		if _, length, _ := p.getSlot(i); length >= 0 {
			return i, true
		}
	}
	return 0, false
}

// --- HeaderPage: the first page of a heap file --------------------------
//
// Layout:
//
//	[0:4)   firstPage int32
//	[4:8)   lastPage  int32
//	[8:12)  pageCnt   int32
//	[12:16) recCnt    int32
//	[16:80) fileName  [64]byte, NUL padded
type HeaderPage Page

const headerFileNameLen = 64

func (p *HeaderPage) buf() []byte { return (*Page)(p).Buf[:] }

func (p *HeaderPage) Init(fileName string) {
	p.SetFirstPage(-1)
	p.SetLastPage(-1)
	p.SetPageCnt(0)
	p.SetRecCnt(0)
	p.SetFileName(fileName)
}

func (p *HeaderPage) FirstPage() int32     { return int32(bx.U32(p.buf()[0:4])) }
func (p *HeaderPage) SetFirstPage(v int32) { bx.PutU32(p.buf()[0:4], uint32(v)) }
func (p *HeaderPage) LastPage() int32      { return int32(bx.U32(p.buf()[4:8])) }
func (p *HeaderPage) SetLastPage(v int32)  { bx.PutU32(p.buf()[4:8], uint32(v)) }
func (p *HeaderPage) PageCnt() int32       { return int32(bx.U32(p.buf()[8:12])) }
func (p *HeaderPage) SetPageCnt(v int32)   { bx.PutU32(p.buf()[8:12], uint32(v)) }
func (p *HeaderPage) RecCnt() int32        { return int32(bx.U32(p.buf()[12:16])) }
func (p *HeaderPage) SetRecCnt(v int32)    { bx.PutU32(p.buf()[12:16], uint32(v)) }

func (p *HeaderPage) FileName() string {
	b := p.buf()[16 : 16+headerFileNameLen]
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func (p *HeaderPage) SetFileName(name string) {
	b := p.buf()[16 : 16+headerFileNameLen]
	for i := range b {
		b[i] = 0
	}
	copy(b, name)
}
