package filesys

import (
	"encoding/binary"

	"nachos/internal/bitmap"
	"nachos/internal/disk"
	"nachos/internal/kassert"

	"github.com/pkg/errors"
)

// NumDirect is the size of the direct sector table, chosen so a FileHeader
// occupies exactly one disk sector: two leading int32 fields (numBytes,
// numSectors) plus NumDirect int32 sector numbers must equal disk.SectorSize.
const NumDirect = (disk.SectorSize - 2*4) / 4

// MaxFileSize is the largest file representable with no indirect blocks.
const MaxFileSize = NumDirect * disk.SectorSize

// FileHeader is the inode equivalent: a fixed-size on-disk record mapping a
// file's logical byte range onto a direct table of data sector numbers. It
// is a byte-exact image of its on-disk layout (spec.md §3) — no
// marshalling beyond the fixed little-endian encode/decode below, the same
// discipline the teacher's w64f.go request header and d64 BAM use.
type FileHeader struct {
	NumBytes   int32
	NumSectors int32
	DataSectors [NumDirect]int32
}

// Allocate initializes a fresh file header for a newly created file of
// fileSize bytes, drawing data sectors from freeMap. It fails (returns
// false) without mutating freeMap if there is not enough free space —
// reservation is checked up front so no partial allocation is ever visible
// (spec.md §4.2, §7 kind 1).
func (h *FileHeader) Allocate(freeMap *bitmap.Bitmap, fileSize int) bool {
	h.NumBytes = int32(fileSize)
	h.NumSectors = int32(divRoundUp(fileSize, disk.SectorSize))
	if int(h.NumSectors) > NumDirect {
		h.NumBytes, h.NumSectors = 0, 0
		return false
	}
	if freeMap.NumClear() < int(h.NumSectors) {
		h.NumBytes, h.NumSectors = 0, 0
		return false
	}
	for i := 0; i < int(h.NumSectors); i++ {
		sector, ok := freeMap.Find()
		kassert.Assert(ok, "filehdr: Find failed after reservation check")
		h.DataSectors[i] = int32(sector)
	}
	return true
}

// Append extends an in-place file by incrementBytes, per the corrected
// algorithm from spec.md §4.2 / §9 (the original's "(offset + 1)" off-by-one
// is not reproduced here): unused tail capacity is
// SectorSize - (numBytes mod SectorSize), or 0 when numBytes is already a
// multiple of SectorSize; an empty file is first seeded with one data sector,
// whose whole SectorSize bytes count as slack. All-or-nothing: on failure,
// freeMap and the header are left exactly as they were.
func (h *FileHeader) Append(freeMap *bitmap.Bitmap, incrementBytes int) bool {
	if incrementBytes <= 0 {
		return true
	}
	if int(h.NumSectors) > NumDirect {
		return false
	}

	// Seed an empty file with exactly one data sector.
	seeded := false
	if h.NumBytes == 0 {
		if freeMap.NumClear() < 1 {
			return false
		}
		sector, ok := freeMap.Find()
		kassert.Assert(ok, "filehdr: Find failed after reservation check")
		h.DataSectors[0] = int32(sector)
		h.NumSectors = 1
		seeded = true
	}

	slack := 0
	if rem := int(h.NumBytes) % disk.SectorSize; rem != 0 {
		slack = disk.SectorSize - rem
	} else if seeded {
		slack = disk.SectorSize
	}
	extra := incrementBytes - slack
	if extra <= 0 {
		h.NumBytes += int32(incrementBytes)
		return true
	}

	newSectors := divRoundUp(extra, disk.SectorSize)
	if int(h.NumSectors)+newSectors > NumDirect || freeMap.NumClear() < newSectors {
		if seeded {
			freeMap.Clear(int(h.DataSectors[0]))
			h.DataSectors[0], h.NumSectors = 0, 0
		}
		return false
	}

	for i := int(h.NumSectors); i < int(h.NumSectors)+newSectors; i++ {
		sector, ok := freeMap.Find()
		kassert.Assert(ok, "filehdr: Find failed after reservation check")
		h.DataSectors[i] = int32(sector)
	}
	h.NumSectors += int32(newSectors)
	h.NumBytes += int32(incrementBytes)
	return true
}

// Deallocate frees every data sector listed in the header. Per spec.md
// §4.2, this is infallible given the invariant that every listed sector is
// marked allocated; a double-free here is a bug and panics (see
// bitmap.Clear).
func (h *FileHeader) Deallocate(freeMap *bitmap.Bitmap) {
	for i := 0; i < int(h.NumSectors); i++ {
		kassert.Assert(freeMap.Test(int(h.DataSectors[i])), "filehdr: sector %d not marked allocated", h.DataSectors[i])
		freeMap.Clear(int(h.DataSectors[i]))
	}
}

// ByteToSector translates a byte offset within the file to the disk sector
// that stores it. Undefined for offset >= NumBytes (caller contract).
func (h *FileHeader) ByteToSector(offset int) int {
	return int(h.DataSectors[offset/disk.SectorSize])
}

func (h *FileHeader) FileLength() int { return int(h.NumBytes) }

// FetchFrom reads the header's byte image from the given disk sector.
func (h *FileHeader) FetchFrom(d synchDisk, sector int) error {
	buf := make([]byte, disk.SectorSize)
	if err := d.ReadSector(sector, buf); err != nil {
		return errors.Wrap(err, "filehdr: fetch from disk")
	}
	h.decode(buf)
	return nil
}

// WriteBack writes the header's byte image to the given disk sector.
func (h *FileHeader) WriteBack(d synchDisk, sector int) error {
	buf := make([]byte, disk.SectorSize)
	h.encode(buf)
	if err := d.WriteSector(sector, buf); err != nil {
		return errors.Wrap(err, "filehdr: write back to disk")
	}
	return nil
}

func (h *FileHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.NumBytes))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.NumSectors))
	for i := 0; i < NumDirect; i++ {
		off := 8 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(h.DataSectors[i]))
	}
}

func (h *FileHeader) decode(buf []byte) {
	h.NumBytes = int32(binary.LittleEndian.Uint32(buf[0:4]))
	h.NumSectors = int32(binary.LittleEndian.Uint32(buf[4:8]))
	for i := 0; i < NumDirect; i++ {
		off := 8 + i*4
		h.DataSectors[i] = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
}

func divRoundUp(n, d int) int {
	return (n + d - 1) / d
}

// synchDisk is the minimal disk interface filesys needs.
type synchDisk interface {
	ReadSector(i int, buf []byte) error
	WriteSector(i int, buf []byte) error
}
