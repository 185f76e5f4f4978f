package record

import (
	"errors"
	"math"

	"github.com/student/novasql-engine/internal/alias/bx"
)

// Errors returned by EncodeRow/DecodeRow. They are split by cause so callers
// (and tests) can distinguish a caller bug (wrong arity, wrong Go type) from
// a genuine null-value violation or a corrupt on-disk buffer.
var (
	ErrSchemaMismatch             = errors.New("rowcodec: wrong number of values for schema")
	ErrSchemaMismatchNotAllowNull = errors.New("rowcodec: column is not nullable but value is nil")
	ErrSchemaMismatchNotInt32     = errors.New("rowcodec: value is not an int32-compatible type")
	ErrSchemaMismatchNotInt64     = errors.New("rowcodec: value is not an int64-compatible type")
	ErrSchemaMismatchNotBool      = errors.New("rowcodec: value is not a bool")
	ErrSchemaMismatchNotFloat64   = errors.New("rowcodec: value is not a float64-compatible type")
	ErrSchemaMismatchNotText      = errors.New("rowcodec: value is not a string")
	ErrSchemaMismatchNotBytes     = errors.New("rowcodec: value is not a []byte")
	ErrBadBuffer                  = errors.New("rowcodec: buffer underflow/overflow")
	ErrVarTooLong                 = errors.New("rowcodec: variable length exceeds u16")
	ErrUnsupportedType            = errors.New("rowcodec: unsupported column type")
)

// EncodeRow packs values according to schema into a tuple payload suitable
// for storage.DataPage.InsertRecord.
//
// Wire format: [nullmap: ceil(N/8) bytes, bit=1 => NULL] then each non-null
// field in column order. Fixed-width types are packed little-endian; TEXT
// and BYTES are u16-length-prefixed.
func EncodeRow(s Schema, values []any) ([]byte, error) {
	nc := s.NumCols()
	if len(values) != nc {
		return nil, ErrSchemaMismatch
	}

	nbBytes := (nc + 7) / 8
	out := make([]byte, nbBytes)

	for i, col := range s.Cols {
		v := values[i]
		if v == nil {
			if !col.Nullable {
				return nil, ErrSchemaMismatchNotAllowNull
			}
			out[i/8] |= 1 << (uint(i) & 7)
			continue
		}

		switch col.Type {
		case ColInt32:
			x, ok := asInt32(v)
			if !ok {
				return nil, ErrSchemaMismatchNotInt32
			}
			var b [4]byte
			bx.PutU32(b[:], uint32(x))
			out = append(out, b[:]...)

		case ColInt64:
			x, ok := asInt64(v)
			if !ok {
				return nil, ErrSchemaMismatchNotInt64
			}
			var b [8]byte
			bx.PutU64(b[:], uint64(x))
			out = append(out, b[:]...)

		case ColBool:
			x, ok := v.(bool)
			if !ok {
				return nil, ErrSchemaMismatchNotBool
			}
			if x {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}

		case ColFloat64:
			x, ok := asFloat64(v)
			if !ok {
				return nil, ErrSchemaMismatchNotFloat64
			}
			var b [8]byte
			bx.PutU64(b[:], math.Float64bits(x))
			out = append(out, b[:]...)

		case ColText:
			str, ok := v.(string)
			if !ok {
				return nil, ErrSchemaMismatchNotText
			}
			bs := []byte(str)
			if len(bs) > math.MaxUint16 {
				return nil, ErrVarTooLong
			}
			var l [2]byte
			bx.PutU16(l[:], uint16(len(bs)))
			out = append(out, l[:]...)
			out = append(out, bs...)

		case ColBytes:
			bs, ok := v.([]byte)
			if !ok {
				return nil, ErrSchemaMismatchNotBytes
			}
			if len(bs) > math.MaxUint16 {
				return nil, ErrVarTooLong
			}
			var l [2]byte
			bx.PutU16(l[:], uint16(len(bs)))
			out = append(out, l[:]...)
			out = append(out, bs...)

		default:
			return nil, ErrUnsupportedType
		}
	}
	return out, nil
}

// DecodeRow is the inverse of EncodeRow.
func DecodeRow(s Schema, buf []byte) ([]any, error) {
	nc := s.NumCols()
	nbBytes := (nc + 7) / 8
	if len(buf) < nbBytes {
		return nil, ErrBadBuffer
	}
	nullmap := buf[:nbBytes]
	i := nbBytes

	out := make([]any, nc)
	for colIdx, col := range s.Cols {
		isNull := (nullmap[colIdx/8]>>(uint(colIdx)&7))&1 == 1
		if isNull {
			out[colIdx] = nil
			continue
		}

		switch col.Type {
		case ColInt32:
			if i+4 > len(buf) {
				return nil, ErrBadBuffer
			}
			out[colIdx] = int32(bx.U32(buf[i : i+4]))
			i += 4

		case ColInt64:
			if i+8 > len(buf) {
				return nil, ErrBadBuffer
			}
			out[colIdx] = int64(bx.U64(buf[i : i+8]))
			i += 8

		case ColBool:
			if i+1 > len(buf) {
				return nil, ErrBadBuffer
			}
			out[colIdx] = buf[i] != 0
			i++

		case ColFloat64:
			if i+8 > len(buf) {
				return nil, ErrBadBuffer
			}
			out[colIdx] = math.Float64frombits(bx.U64(buf[i : i+8]))
			i += 8

		case ColText:
			if i+2 > len(buf) {
				return nil, ErrBadBuffer
			}
			l := int(bx.U16(buf[i : i+2]))
			i += 2
			if i+l > len(buf) {
				return nil, ErrBadBuffer
			}
			out[colIdx] = string(buf[i : i+l])
			i += l

		case ColBytes:
			if i+2 > len(buf) {
				return nil, ErrBadBuffer
			}
			l := int(bx.U16(buf[i : i+2]))
			i += 2
			if i+l > len(buf) {
				return nil, ErrBadBuffer
			}
			cp := make([]byte, l)
			copy(cp, buf[i:i+l])
			out[colIdx] = cp
			i += l

		default:
			return nil, ErrUnsupportedType
		}
	}

	return out, nil
}

func asInt32(v any) (int32, bool) {
	switch x := v.(type) {
	case int32:
		return x, true
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x), true
		}
	case int64:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x), true
		}
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}
