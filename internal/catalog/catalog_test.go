package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/student/novasql-engine/internal/heap"
	"github.com/student/novasql-engine/internal/storage"
)

func TestCreateRelation_ComputesOffsets(t *testing.T) {
	cat, err := NewCatalog(t.TempDir(), 64)
	require.NoError(t, err)

	attrs := []AttrDesc{
		{AttrName: "id", AttrType: heap.DTInteger, AttrLen: 4},
		{AttrName: "price", AttrType: heap.DTFloat, AttrLen: 4},
		{AttrName: "name", AttrType: heap.DTString, AttrLen: 16},
	}
	require.Equal(t, storage.OK, cat.CreateRelation("items", "items", attrs))

	rel, st := cat.GetRelInfo("items")
	require.Equal(t, storage.OK, st)
	require.Equal(t, "items", rel.Name)
	require.Equal(t, 3, rel.AttrCnt)
	require.Equal(t, int32(24), rel.RecLen)

	id, st := cat.GetAttrInfo("items", "id")
	require.Equal(t, storage.OK, st)
	require.Equal(t, int32(0), id.AttrOffset)

	price, st := cat.GetAttrInfo("items", "price")
	require.Equal(t, storage.OK, st)
	require.Equal(t, int32(4), price.AttrOffset)

	name, st := cat.GetAttrInfo("items", "name")
	require.Equal(t, storage.OK, st)
	require.Equal(t, int32(8), name.AttrOffset)

	_, st = cat.GetAttrInfo("items", "missing")
	require.Equal(t, storage.ATTRNOTFOUND, st)
}

func TestCreateRelation_DuplicateRejected(t *testing.T) {
	cat, err := NewCatalog(t.TempDir(), 64)
	require.NoError(t, err)
	attrs := []AttrDesc{{AttrName: "id", AttrType: heap.DTInteger, AttrLen: 4}}
	require.Equal(t, storage.OK, cat.CreateRelation("orders", "orders", attrs))
	require.Equal(t, storage.BADCATPARM, cat.CreateRelation("orders", "orders", attrs))
}

func TestGetRelAttrs_MissingRelation(t *testing.T) {
	cat, err := NewCatalog(t.TempDir(), 64)
	require.NoError(t, err)
	_, st := cat.GetRelAttrs("nope")
	require.Equal(t, storage.BADCATPARM, st)
}

func TestCatalog_ReloadsFromDiskAfterEviction(t *testing.T) {
	cat, err := NewCatalog(t.TempDir(), 1)
	require.NoError(t, err)

	attrs := []AttrDesc{{AttrName: "id", AttrType: heap.DTInteger, AttrLen: 4}}
	require.Equal(t, storage.OK, cat.CreateRelation("a", "a", attrs))
	require.Equal(t, storage.OK, cat.CreateRelation("b", "b", attrs))

	// Capacity 1: creating "b" evicts "a" from the in-memory cache, but
	// GetRelInfo must still find it by reading the persisted JSON back.
	_, ok := cat.elems["a"]
	require.False(t, ok)

	rel, st := cat.GetRelInfo("a")
	require.Equal(t, storage.OK, st)
	require.Equal(t, "a", rel.Name)
}
