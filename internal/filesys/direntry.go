package filesys

import "encoding/binary"

// MaxNameLen is F in spec.md §3: at most 15 characters, zero-terminated in
// a 16-byte field.
const MaxNameLen = 15

const entrySize = 1 + 4 + (MaxNameLen + 1) + 4 + 4 + 4 + 1 // 34 bytes, within the 36-byte budget

// FileType distinguishes a directory slot from a file slot.
type FileType byte

const (
	TypeDirectory FileType = 0
	TypeFile      FileType = 1
)

// entry is one fixed-width directory-table record: a node in the
// left-child/right-sibling tree embedded in a flat array (spec.md §3,
// §9 "Embedded tree in a flat table"), directly ported from the original's
// DirectoryEntry (directory.h: inUse/sector/name/parent/leftChild/sibilings/
// filetype).
type entry struct {
	InUse      bool
	Sector     int32 // header sector of the file; undefined for directories
	Name       [MaxNameLen + 1]byte
	Parent     int32 // index into the table, or -1 for root
	LeftChild  int32 // index of first child, or -1
	Siblings   int32 // index of next sibling, or -1
	FileType   FileType
}

const noLink = int32(-1)

func (e *entry) setName(name string) {
	e.Name = [MaxNameLen + 1]byte{}
	copy(e.Name[:MaxNameLen], name)
}

func (e *entry) name() string {
	n := 0
	for n < len(e.Name) && e.Name[n] != 0 {
		n++
	}
	return string(e.Name[:n])
}

func (e *entry) encode(buf []byte) {
	if e.InUse {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
	binary.LittleEndian.PutUint32(buf[1:5], uint32(e.Sector))
	copy(buf[5:5+len(e.Name)], e.Name[:])
	off := 5 + len(e.Name)
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(e.Parent))
	binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(e.LeftChild))
	binary.LittleEndian.PutUint32(buf[off+8:off+12], uint32(e.Siblings))
	buf[off+12] = byte(e.FileType)
}

func (e *entry) decode(buf []byte) {
	e.InUse = buf[0] != 0
	e.Sector = int32(binary.LittleEndian.Uint32(buf[1:5]))
	copy(e.Name[:], buf[5:5+len(e.Name)])
	off := 5 + len(e.Name)
	e.Parent = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	e.LeftChild = int32(binary.LittleEndian.Uint32(buf[off+4 : off+8]))
	e.Siblings = int32(binary.LittleEndian.Uint32(buf[off+8 : off+12]))
	e.FileType = FileType(buf[off+12])
}
