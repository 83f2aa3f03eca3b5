// Package filesys implements the on-disk file system: the free-sector
// bitmap, the file header (inode), the hierarchical directory, and the
// FileSystem object that ties them together over a disk.SynchDisk. Layout
// follows spec.md §6: sector 0 is the free-sector bitmap, sector 1 is the
// root directory file's header, and everything else is allocated on demand.
package filesys

import (
	"nachos/internal/bitmap"
	"nachos/internal/disk"
	"nachos/internal/statuscode"

	"github.com/pkg/errors"
)

// BitmapSector and DirectorySector are the two reserved sectors described
// in spec.md §3 and §6.
const (
	BitmapSector    = 0
	DirectorySector = 1
)

// FileSystem is the process-wide singleton described in spec.md §5: it owns
// the free-sector bitmap and the root directory, and every mutating
// operation is the caller's responsibility to serialize (the directory
// module is not internally reentrant).
type FileSystem struct {
	disk      *disk.SynchDisk
	freeMap   *bitmap.Bitmap
	directory *Directory
	dirHeader FileHeader
}

// Format lays down a fresh, empty file system on d: a clean bitmap with the
// two reserved sectors marked allocated, and a root directory with
// DefaultTableSize slots.
func Format(d *disk.SynchDisk) (*FileSystem, error) {
	fs := &FileSystem{
		disk:      d,
		freeMap:   bitmap.New(disk.NumSectors),
		directory: NewDirectory(DefaultTableSize),
	}
	fs.freeMap.Set(BitmapSector)
	fs.freeMap.Set(DirectorySector)

	dirBytes := fs.directory.Bytes()
	if !fs.dirHeader.Allocate(fs.freeMap, len(dirBytes)) {
		return nil, errors.New("filesys: disk too small to hold an empty directory")
	}
	if err := fs.writeSectors(fs.dirHeader.DataSectors[:fs.dirHeader.NumSectors], dirBytes); err != nil {
		return nil, err
	}
	if err := fs.persistDirectory(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Open mounts an already-formatted disk, reading the bitmap and root
// directory back into memory.
func Open(d *disk.SynchDisk) (*FileSystem, error) {
	fs := &FileSystem{
		disk:      d,
		freeMap:   bitmap.New(disk.NumSectors),
		directory: NewDirectory(DefaultTableSize),
	}
	if err := fs.freeMap.FetchFrom(d, BitmapSector, disk.SectorSize); err != nil {
		return nil, err
	}
	if err := fs.dirHeader.FetchFrom(d, DirectorySector); err != nil {
		return nil, err
	}
	dirBytes, err := fs.readSectors(fs.dirHeader.DataSectors[:fs.dirHeader.NumSectors], int(fs.dirHeader.NumBytes))
	if err != nil {
		return nil, err
	}
	if err := fs.directory.FromBytes(dirBytes); err != nil {
		return nil, err
	}
	return fs, nil
}

// persistDirectory writes the in-memory directory table and bitmap back to
// disk; called after any mutating operation, matching the teacher's
// "update BAM, directory entry ... " discipline in WriteFileRangeD64.
func (fs *FileSystem) persistDirectory() error {
	dirBytes := fs.directory.Bytes()
	if err := fs.writeSectors(fs.dirHeader.DataSectors[:fs.dirHeader.NumSectors], dirBytes); err != nil {
		return err
	}
	if err := fs.dirHeader.WriteBack(fs.disk, DirectorySector); err != nil {
		return err
	}
	return fs.freeMap.WriteBack(fs.disk, BitmapSector, disk.SectorSize)
}

func (fs *FileSystem) readSectors(sectors []int32, numBytes int) ([]byte, error) {
	out := make([]byte, 0, len(sectors)*disk.SectorSize)
	buf := make([]byte, disk.SectorSize)
	for _, s := range sectors {
		if err := fs.disk.ReadSector(int(s), buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}
	if len(out) > numBytes {
		out = out[:numBytes]
	}
	return out, nil
}

func (fs *FileSystem) writeSectors(sectors []int32, data []byte) error {
	buf := make([]byte, disk.SectorSize)
	for i, s := range sectors {
		clear(buf)
		lo := i * disk.SectorSize
		if lo >= len(data) {
			break
		}
		hi := lo + disk.SectorSize
		if hi > len(data) {
			hi = len(data)
		}
		copy(buf, data[lo:hi])
		if err := fs.disk.WriteSector(int(s), buf); err != nil {
			return err
		}
	}
	return nil
}

// Create adds a new, empty file at path and grows it to initialSize bytes.
// On any failure (table full, no space), nothing is left allocated: the
// freshly claimed header sector and its data sectors are released before
// returning.
func (fs *FileSystem) Create(path string, initialSize int) error {
	if fs.directory.FindIndex(path) != -1 {
		return newError(statuscode.AlreadyExists, "filesys: %s already exists", path)
	}
	headerSector, ok := fs.freeMap.Find()
	if !ok {
		return newError(statuscode.NoSpace, "filesys: no free sector for file header")
	}

	var hdr FileHeader
	if !hdr.Allocate(fs.freeMap, initialSize) {
		fs.freeMap.Clear(headerSector)
		return newError(statuscode.NoSpace, "filesys: not enough free sectors for %d bytes", initialSize)
	}
	if err := fs.directory.Add(path, headerSector); err != nil {
		hdr.Deallocate(fs.freeMap)
		fs.freeMap.Clear(headerSector)
		return newError(statuscode.Internal, "filesys: %v", err)
	}
	if err := hdr.WriteBack(fs.disk, headerSector); err != nil {
		return err
	}
	return fs.persistDirectory()
}

// Mkdir creates an empty directory at path, auto-creating any missing
// intermediate directories.
func (fs *FileSystem) Mkdir(path string) error {
	if err := fs.directory.AddDir(path); err != nil {
		return newError(statuscode.AlreadyExists, "filesys: %v", err)
	}
	return fs.persistDirectory()
}

// Open returns a read handle to the file named by path. The handle has no
// write method; data is added with Append.
func (fs *FileSystem) Open(path string) (*File, error) {
	headerSector := fs.directory.Find(path)
	if headerSector == -1 {
		return nil, newError(statuscode.NotFound, "filesys: %s not found", path)
	}
	var hdr FileHeader
	if err := hdr.FetchFrom(fs.disk, headerSector); err != nil {
		return nil, err
	}
	return &File{fs: fs, header: hdr, headerSector: headerSector}, nil
}

// Append grows the file at path by appending data to its current contents.
// If the file does not exist, it is created first when create is true.
func (fs *FileSystem) Append(path string, data []byte, create bool) error {
	sector := fs.directory.Find(path)
	if sector == -1 {
		if !create {
			return newError(statuscode.NotFound, "filesys: %s not found", path)
		}
		if err := fs.Create(path, 0); err != nil {
			return err
		}
		sector = fs.directory.Find(path)
	}

	var hdr FileHeader
	if err := hdr.FetchFrom(fs.disk, sector); err != nil {
		return err
	}
	oldSize := int(hdr.NumBytes)
	oldSectors := append([]int32(nil), hdr.DataSectors[:hdr.NumSectors]...)
	if !hdr.Append(fs.freeMap, len(data)) {
		return newError(statuscode.NoSpace, "filesys: not enough space to append %d bytes to %s", len(data), path)
	}

	// Read the file's existing contents and rewrite every data sector with
	// the old bytes followed by data.
	allSectors := hdr.DataSectors[:hdr.NumSectors]
	existing, err := fs.readSectors(oldSectors, oldSize)
	if err != nil {
		return err
	}
	merged := append(existing, data...)
	if err := fs.writeSectors(allSectors, merged); err != nil {
		return err
	}
	if err := hdr.WriteBack(fs.disk, sector); err != nil {
		return err
	}
	return fs.freeMap.WriteBack(fs.disk, BitmapSector, disk.SectorSize)
}

// Remove deletes the file or directory at path. For a directory, every
// file found in its subtree has its data sectors and header sector
// deallocated before the directory slots themselves are freed.
func (fs *FileSystem) Remove(path string) error {
	fileSectors, _, err := fs.directory.Remove(path)
	if err != nil {
		return newError(statuscode.NotFound, "filesys: %v", err)
	}
	for _, sector := range fileSectors {
		var hdr FileHeader
		if err := hdr.FetchFrom(fs.disk, sector); err != nil {
			return err
		}
		hdr.Deallocate(fs.freeMap)
		fs.freeMap.Clear(sector)
	}
	return fs.persistDirectory()
}

// List enumerates every live path in the namespace.
func (fs *FileSystem) List() []Entry {
	return fs.directory.List()
}

// NumFreeSectors reports the bitmap's current free-sector count.
func (fs *FileSystem) NumFreeSectors() int {
	return fs.freeMap.NumClear()
}

// FsckReport is the result of reconciling live file headers against the
// free-sector bitmap (spec.md §8): free sectors, plus the sectors held by
// live files (each file's header sector and its data sectors), plus the
// reserved sectors must add up to the total sector count.
type FsckReport struct {
	TotalSectors     int
	ReservedSectors  int
	FreeSectors      int
	AllocatedByFiles int
	Consistent       bool
}

// Fsck walks every live file, sums its header sector plus its header's
// NumSectors, and compares the total against the bitmap's free count.
func (fs *FileSystem) Fsck() (FsckReport, error) {
	report := FsckReport{
		TotalSectors: disk.NumSectors,
		// Bitmap sector + directory header sector + the directory file's
		// own data sectors (the directory is itself a file, but it is not
		// a namespace entry returned by List, so it is counted here).
		ReservedSectors: 2 + int(fs.dirHeader.NumSectors),
		FreeSectors:     fs.freeMap.NumClear(),
	}
	for _, e := range fs.directory.List() {
		if e.IsDir {
			continue
		}
		var hdr FileHeader
		if err := hdr.FetchFrom(fs.disk, e.Sector); err != nil {
			return report, err
		}
		report.AllocatedByFiles += 1 + int(hdr.NumSectors)
	}
	report.Consistent = report.FreeSectors+report.AllocatedByFiles+report.ReservedSectors == report.TotalSectors
	return report, nil
}

// File is a random-access read handle onto one file's data, mirroring
// the original's OpenFile (addrspace.cc reads executables through exactly
// this kind of ReadAt interface).
type File struct {
	fs           *FileSystem
	header       FileHeader
	headerSector int
}

func (f *File) Length() int { return f.header.FileLength() }

// ReadAt reads len(buf) bytes starting at offset, or fewer at EOF.
func (f *File) ReadAt(buf []byte, offset int) (int, error) {
	if offset >= f.header.FileLength() {
		return 0, nil
	}
	n := len(buf)
	if offset+n > f.header.FileLength() {
		n = f.header.FileLength() - offset
	}
	read := 0
	sec := make([]byte, disk.SectorSize)
	for read < n {
		abs := offset + read
		sector := f.header.ByteToSector(abs)
		if err := f.fs.disk.ReadSector(sector, sec); err != nil {
			return read, err
		}
		within := abs % disk.SectorSize
		take := disk.SectorSize - within
		if take > n-read {
			take = n - read
		}
		copy(buf[read:read+take], sec[within:within+take])
		read += take
	}
	return read, nil
}
