package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/student/novasql-engine/pkg/util"
)

// SegmentSize bounds how many bytes one on-disk segment file holds before
// the paged file rolls over to Base.1, Base.2, ... This mirrors the
// teacher's StorageManager/LocalFileSet segmented layout so a single heap
// file is never limited by one os.File's practical size.
const SegmentSize = 1 << 30 // 1 GiB per segment

const pagesPerSegment = SegmentSize / PageSize

// File is the paged-file collaborator the buffer manager reads and writes
// through. It knows nothing about records or slots; it moves whole pages.
type File interface {
	AllocatePage() (int32, Status)
	ReadPage(pageNo int32, p *Page) Status
	WritePage(pageNo int32, p *Page) Status
	DisposePage(pageNo int32) Status
	GetFirstPage() (int32, Status)
	PageCount() int32
}

// FileID is a stable handle to an open File. BufHashTbl and BufMgr key on
// (FileID, PageNo) rather than holding a *File, so no frame ever holds a
// pointer to a File that has been closed: the buffer manager never owns the
// File it reads through, only this small integer. Db.OpenFile issues a new
// FileID each time a closed file is opened again.
type FileID int32

// LocalFileSet names the segment files backing one paged file on disk.
type LocalFileSet struct {
	Dir  string
	Base string
}

func (fs LocalFileSet) segmentPath(seg int) string {
	if seg == 0 {
		return filepath.Join(fs.Dir, fs.Base)
	}
	return filepath.Join(fs.Dir, fmt.Sprintf("%s.%d", fs.Base, seg))
}

func pageLocation(pageNo int32) (seg int, offset int64) {
	seg = int(pageNo) / pagesPerSegment
	offset = int64(int(pageNo)%pagesPerSegment) * PageSize
	return seg, offset
}

// DiskFile is the on-disk File implementation: one segmented run of files
// per heap file, grown with os.File.WriteAt as pages are allocated.
type DiskFile struct {
	mu       sync.Mutex
	fs       LocalFileSet
	segments map[int]*os.File
	pageCnt  int32
}

// OpenDiskFile stats the existing segment files (without creating any) to
// discover the file's current page count, then lazily opens segments on
// demand.
func OpenDiskFile(fs LocalFileSet) (*DiskFile, Status) {
	f := &DiskFile{fs: fs, segments: make(map[int]*os.File)}
	if err := f.recount(); err != OK {
		return nil, err
	}
	return f, OK
}

func (f *DiskFile) recount() Status {
	var total int32
	for seg := 0; ; seg++ {
		info, err := os.Stat(f.fs.segmentPath(seg))
		if err != nil {
			if os.IsNotExist(err) {
				break
			}
			return UNIXERR
		}
		total += int32(info.Size() / PageSize)
		if info.Size()%PageSize != 0 {
			total++
		}
	}
	f.pageCnt = total
	return OK
}

func (f *DiskFile) segment(seg int, create bool) (*os.File, Status) {
	if sf, ok := f.segments[seg]; ok {
		return sf, OK
	}
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	sf, err := os.OpenFile(f.fs.segmentPath(seg), flags, 0o644)
	if err != nil {
		return nil, UNIXERR
	}
	f.segments[seg] = sf
	return sf, OK
}

func (f *DiskFile) PageCount() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageCnt
}

func (f *DiskFile) ReadPage(pageNo int32, p *Page) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pageNo < 0 || pageNo >= f.pageCnt {
		return FILEEOF
	}
	seg, off := pageLocation(pageNo)
	sf, st := f.segment(seg, false)
	if st != OK {
		return st
	}
	n, err := sf.ReadAt(p.Buf[:], off)
	if err != nil && err != io.EOF {
		return UNIXERR
	}
	for i := n; i < PageSize; i++ {
		p.Buf[i] = 0
	}
	return OK
}

func (f *DiskFile) WritePage(pageNo int32, p *Page) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pageNo < 0 {
		return BADBUFFER
	}
	seg, off := pageLocation(pageNo)
	sf, st := f.segment(seg, true)
	if st != OK {
		return st
	}
	if _, err := sf.WriteAt(p.Buf[:], off); err != nil {
		return UNIXERR
	}
	if pageNo+1 > f.pageCnt {
		f.pageCnt = pageNo + 1
	}
	return OK
}

func (f *DiskFile) AllocatePage() (int32, Status) {
	f.mu.Lock()
	pageNo := f.pageCnt
	f.pageCnt++
	f.mu.Unlock()

	var zero Page
	if st := f.WritePage(pageNo, &zero); st != OK {
		return -1, st
	}
	return pageNo, OK
}

// DisposePage does not reclaim space; the heap file layer is responsible
// for unlinking a page before disposing it. Free-space reclamation across
// disposed pages is out of scope.
func (f *DiskFile) DisposePage(pageNo int32) Status { return OK }

func (f *DiskFile) GetFirstPage() (int32, Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageCnt == 0 {
		return -1, FILEEOF
	}
	return 0, OK
}

func (f *DiskFile) Close() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sf := range f.segments {
		util.CloseFileFunc(sf)
	}
	f.segments = make(map[int]*os.File)
	return OK
}

// Db is the file directory: it creates, destroys, and opens named paged
// files under one data directory, handing back a FileID rather than a
// pointer so callers never have to weak-reference a *File they don't own.
type Db struct {
	mu      sync.Mutex
	dataDir string
	nextID  FileID
	open    map[FileID]*DiskFile
	names   map[FileID]string
	byName  map[string]FileID
}

func NewDb(dataDir string) (*Db, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &Db{
		dataDir: dataDir,
		open:    make(map[FileID]*DiskFile),
		names:   make(map[FileID]string),
		byName:  make(map[string]FileID),
	}, nil
}

func (d *Db) CreateFile(name string) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	fs := LocalFileSet{Dir: d.dataDir, Base: name}
	if _, err := os.Stat(fs.segmentPath(0)); err == nil {
		return FILEEXISTS
	}
	f, err := os.OpenFile(fs.segmentPath(0), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return UNIXERR
	}
	return statusOf(f.Close())
}

func (d *Db) DestroyFile(name string) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	fs := LocalFileSet{Dir: d.dataDir, Base: name}
	for seg := 0; ; seg++ {
		p := fs.segmentPath(seg)
		if _, err := os.Stat(p); err != nil {
			break
		}
		if err := os.Remove(p); err != nil {
			return UNIXERR
		}
	}
	return OK
}

func (d *Db) OpenFile(name string) (FileID, File, Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.byName[name]; ok {
		return id, d.open[id], OK
	}
	fs := LocalFileSet{Dir: d.dataDir, Base: name}
	if _, err := os.Stat(fs.segmentPath(0)); err != nil {
		return 0, nil, FILENOTFOUND
	}
	df, st := OpenDiskFile(fs)
	if st != OK {
		return 0, nil, st
	}
	d.nextID++
	id := d.nextID
	d.open[id] = df
	d.names[id] = name
	d.byName[name] = id
	return id, df, OK
}

func (d *Db) CloseFile(id FileID) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	df, ok := d.open[id]
	if !ok {
		return OK
	}
	st := df.Close()
	delete(d.open, id)
	if name, ok := d.names[id]; ok {
		delete(d.byName, name)
		delete(d.names, id)
	}
	return st
}

func statusOf(err error) Status {
	if err == nil {
		return OK
	}
	return UNIXERR
}
