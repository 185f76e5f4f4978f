package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDb_CreateOpenDestroyFile(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDb(dir)
	require.NoError(t, err)

	require.Equal(t, OK, db.CreateFile("orders"))
	require.Equal(t, FILEEXISTS, db.CreateFile("orders"))

	id, file, st := db.OpenFile("orders")
	require.Equal(t, OK, st)
	require.NotNil(t, file)

	id2, _, st := db.OpenFile("orders")
	require.Equal(t, OK, st)
	require.Equal(t, id, id2, "re-opening an already-open file returns the same handle")

	require.Equal(t, OK, db.CloseFile(id))

	_, _, st = db.OpenFile("missing")
	require.Equal(t, FILENOTFOUND, st)

	require.Equal(t, OK, db.DestroyFile("orders"))
	_, _, st = db.OpenFile("orders")
	require.Equal(t, FILENOTFOUND, st)
}

func TestDiskFile_AllocateWriteRead(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDb(dir)
	require.NoError(t, err)
	require.Equal(t, OK, db.CreateFile("f"))
	_, file, st := db.OpenFile("f")
	require.Equal(t, OK, st)

	p0, st := file.AllocatePage()
	require.Equal(t, OK, st)
	require.Equal(t, int32(0), p0)
	require.Equal(t, int32(1), file.PageCount())

	var page Page
	copy(page.Buf[:], []byte("some bytes"))
	require.Equal(t, OK, file.WritePage(p0, &page))

	var readBack Page
	require.Equal(t, OK, file.ReadPage(p0, &readBack))
	require.Equal(t, page.Buf, readBack.Buf)

	_, st = file.GetFirstPage()
	require.Equal(t, OK, st)
}

func TestLocalFileSet_SegmentNaming(t *testing.T) {
	fs := LocalFileSet{Dir: "/tmp/db", Base: "orders"}
	require.Equal(t, "/tmp/db/orders", fs.segmentPath(0))
	require.Equal(t, "/tmp/db/orders.1", fs.segmentPath(1))
	require.Equal(t, "/tmp/db/orders.2", fs.segmentPath(2))
}
