// Package query implements the thin relational operators layered directly
// on HeapFileScan/InsertFileScan, grounded on
// Stage5_RelationalOperators/{select,insert,delete}.C: QU_Select resolves
// projections and the filter attribute through the catalog, converts the
// filter value to its proper byte representation, and drives a scan/insert
// pair; QU_Insert and QU_Delete are correspondingly thin.
package query

import (
	"math"
	"strconv"

	"github.com/student/novasql-engine/internal/alias/bx"
	"github.com/student/novasql-engine/internal/bufferpool"
	"github.com/student/novasql-engine/internal/catalog"
	"github.com/student/novasql-engine/internal/heap"
	"github.com/student/novasql-engine/internal/storage"
)

// Engine bundles the collaborators every operator needs.
type Engine struct {
	Db     *storage.Db
	BufMgr *bufferpool.BufMgr
	Cat    *catalog.Catalog
}

func NewEngine(db *storage.Db, bufMgr *bufferpool.BufMgr, cat *catalog.Catalog) *Engine {
	return &Engine{Db: db, BufMgr: bufMgr, Cat: cat}
}

// EncodeFilterValue converts a literal's textual representation to the
// fixed-width byte form matchRec compares against, the same conversion
// QU_Select applies with atoi/atof before calling ScanSelect.
func EncodeFilterValue(dtype heap.Datatype, length int32, value string) ([]byte, error) {
	switch dtype {
	case heap.DTInteger:
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 4)
		bx.PutU32(b, uint32(int32(n)))
		return b, nil
	case heap.DTFloat:
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 4)
		bx.PutU32(b, math.Float32bits(float32(f)))
		return b, nil
	default:
		b := make([]byte, length)
		copy(b, value)
		return b, nil
	}
}

// Insert resolves relName's attribute list via the catalog and appends one
// record built from fields, in declaration order.
func (e *Engine) Insert(relName string, fields [][]byte) (storage.RID, storage.Status) {
	rel, st := e.Cat.GetRelInfo(relName)
	if st != storage.OK {
		return storage.NULLRID, st
	}
	attrs, st := e.Cat.GetRelAttrs(relName)
	if st != storage.OK {
		return storage.NULLRID, st
	}
	if len(fields) != len(attrs) {
		return storage.NULLRID, storage.BADCATPARM
	}

	buf := make([]byte, rel.RecLen)
	for i, a := range attrs {
		if int32(len(fields[i])) != a.AttrLen {
			return storage.NULLRID, storage.INVALIDRECLEN
		}
		copy(buf[a.AttrOffset:a.AttrOffset+a.AttrLen], fields[i])
	}

	hf, st := heap.OpenHeapFile(e.Db, e.BufMgr, rel.FileName)
	if st != storage.OK {
		return storage.NULLRID, st
	}
	defer hf.Close()

	ins := heap.NewInsertFileScan(hf)
	return ins.InsertRecord(buf)
}

// Select scans relName (optionally filtered on one attribute), projects
// the requested attributes for every match, and inserts the projected
// tuple into result. filterAttr == "" means an unconditional scan.
func (e *Engine) Select(result, relName string, projections []string, filterAttr string, op heap.Operator, filterValue string) storage.Status {
	srcHF, st := heap.OpenHeapFile(e.Db, e.BufMgr, relName)
	if st != storage.OK {
		return st
	}
	defer srcHF.Close()

	dstRel, st := e.Cat.GetRelInfo(result)
	if st != storage.OK {
		return st
	}
	dstHF, st := heap.OpenHeapFile(e.Db, e.BufMgr, dstRel.FileName)
	if st != storage.OK {
		return st
	}
	defer dstHF.Close()
	ins := heap.NewInsertFileScan(dstHF)

	projDescs := make([]catalog.AttrDesc, 0, len(projections))
	for _, name := range projections {
		a, st := e.Cat.GetAttrInfo(relName, name)
		if st != storage.OK {
			return st
		}
		projDescs = append(projDescs, a)
	}

	var filter []byte
	var dtype heap.Datatype
	var offset, length int32
	if filterAttr != "" {
		a, st := e.Cat.GetAttrInfo(relName, filterAttr)
		if st != storage.OK {
			return st
		}
		offset, length, dtype = a.AttrOffset, a.AttrLen, a.AttrType
		fv, err := EncodeFilterValue(dtype, length, filterValue)
		if err != nil {
			return storage.BADSCANPARM
		}
		filter = fv
	} else {
		offset, length, dtype = 0, 1, heap.DTString
	}

	scan := heap.NewHeapFileScan(srcHF)
	if st := scan.StartScan(offset, length, dtype, filter, op); st != storage.OK {
		return st
	}
	defer scan.EndScan()

	for {
		_, st := scan.ScanNext()
		if st == storage.FILEEOF {
			break
		}
		if st != storage.OK {
			return st
		}

		rec, st := scan.GetRecord()
		if st != storage.OK {
			return st
		}

		var outLen int32
		for _, p := range projDescs {
			outLen += p.AttrLen
		}
		out := make([]byte, outLen)
		var o int32
		for _, p := range projDescs {
			copy(out[o:o+p.AttrLen], rec.Data[p.AttrOffset:p.AttrOffset+p.AttrLen])
			o += p.AttrLen
		}

		if _, st := ins.InsertRecord(out); st != storage.OK {
			return st
		}
	}
	return storage.OK
}

// Delete scans relName for records matching the predicate and deletes
// every match, marking its position around each delete since DeleteRecord
// ends the scan's pin on the current page.
func (e *Engine) Delete(relName, filterAttr string, op heap.Operator, filterValue string) (int, storage.Status) {
	hf, st := heap.OpenHeapFile(e.Db, e.BufMgr, relName)
	if st != storage.OK {
		return 0, st
	}
	defer hf.Close()

	a, st := e.Cat.GetAttrInfo(relName, filterAttr)
	if st != storage.OK {
		return 0, st
	}
	filter, err := EncodeFilterValue(a.AttrType, a.AttrLen, filterValue)
	if err != nil {
		return 0, storage.BADSCANPARM
	}

	scan := heap.NewHeapFileScan(hf)
	if st := scan.StartScan(a.AttrOffset, a.AttrLen, a.AttrType, filter, op); st != storage.OK {
		return 0, st
	}
	defer scan.EndScan()

	count := 0
	for {
		_, st := scan.ScanNext()
		if st == storage.FILEEOF {
			break
		}
		if st != storage.OK {
			return count, st
		}
		scan.MarkScan()
		if st := scan.DeleteRecord(); st != storage.OK {
			return count, st
		}
		if st := scan.ResetScan(); st != storage.OK {
			return count, st
		}
		count++
	}
	return count, storage.OK
}
