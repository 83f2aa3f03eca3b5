// Package noff decodes the simple relocatable object format consumed by
// the address-space loader: a magic number plus three segment descriptors
// (code, initialized data, uninitialized data), exactly as described in
// spec.md §3/§6 and ported from the original's noff.h/addrspace.cc
// SwapHeader. All integers are little-endian on disk; Parse canonicalizes
// byte order by word-swapping if the magic doesn't match as-is.
package noff

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Magic is the expected magic number of a valid NOFF file.
const Magic = 0x456789ab

// HeaderSize is the on-disk size of Header: magic + 3 segments * 3 uint32.
const HeaderSize = 4 + 3*(4*3)

// Segment describes one contiguous region of the executable: its size in
// bytes, the virtual address it is mapped at, and its byte offset within
// the executable file (zero for the uninitialized-data segment, which has
// no file contents).
type Segment struct {
	Size        uint32
	VirtualAddr uint32
	InFileAddr  uint32
}

// Header is the in-memory form of the on-disk NOFF header.
type Header struct {
	Magic      uint32
	Code       Segment
	InitData   Segment
	UninitData Segment
}

// Parse decodes buf (which must be at least HeaderSize bytes) into a
// Header, swapping byte order if the file was written on a host with the
// opposite endianness. It fails if neither byte order yields the expected
// magic number.
func Parse(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errors.Errorf("noff: header needs %d bytes, got %d", HeaderSize, len(buf))
	}
	h := decode(buf, binary.LittleEndian)
	if h.Magic == Magic {
		return h, nil
	}
	swapped := decode(buf, binary.BigEndian)
	if swapped.Magic == Magic {
		return swapped, nil
	}
	return Header{}, errors.Errorf("noff: bad magic 0x%x", h.Magic)
}

func decode(buf []byte, order binary.ByteOrder) Header {
	var h Header
	h.Magic = order.Uint32(buf[0:4])
	segs := []*Segment{&h.Code, &h.InitData, &h.UninitData}
	off := 4
	for _, s := range segs {
		s.Size = order.Uint32(buf[off : off+4])
		s.VirtualAddr = order.Uint32(buf[off+4 : off+8])
		s.InFileAddr = order.Uint32(buf[off+8 : off+12])
		off += 12
	}
	return h
}

// Encode serializes h back to its little-endian on-disk form; used by
// tests and by tooling that builds synthetic executables.
func Encode(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	segs := []Segment{h.Code, h.InitData, h.UninitData}
	off := 4
	for _, s := range segs {
		binary.LittleEndian.PutUint32(buf[off:off+4], s.Size)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], s.VirtualAddr)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], s.InFileAddr)
		off += 12
	}
	return buf
}
