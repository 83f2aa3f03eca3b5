// Package bitmap implements the free-sector allocator: one bit per disk
// sector, packed LSB-first within each byte. A clear (0) bit means the
// sector is free; a set (1) bit means it is allocated — the same convention
// the original Nachos BitMap class uses, and which the teacher's D64 BAM
// bit-twiddling (internal/diskimage/d64_write.go's bamIsFree / bamMarkUsed /
// bamMarkFree) mirrors with its own free/used bit. It is a pure in-memory
// structure — persistence to sector 0 is the caller's responsibility
// (spec.md §4.1).
package bitmap

import (
	"nachos/internal/kassert"

	"github.com/pkg/errors"
)

// sectorIO is the minimal disk interface bitmap persistence needs; both
// *disk.Disk and *disk.SynchDisk satisfy it.
type sectorIO interface {
	ReadSector(i int, buf []byte) error
	WriteSector(i int, buf []byte) error
}

// Bitmap tracks which of numBits indices are allocated (bit set) or free
// (bit clear).
type Bitmap struct {
	numBits int
	bits    []byte // numBits bits, bit i lives at bits[i/8], mask 1<<(i%8)
}

// New creates a bitmap with every bit marked free (clear).
func New(numBits int) *Bitmap {
	return &Bitmap{
		numBits: numBits,
		bits:    make([]byte, NumBytes(numBits)),
	}
}

// NumBytes returns the number of bytes needed to pack numBits bits.
func NumBytes(numBits int) int {
	return (numBits + 7) / 8
}

func (b *Bitmap) NumBits() int { return b.numBits }

// Test reports whether bit i is set (allocated).
func (b *Bitmap) Test(i int) bool {
	kassert.Assert(i >= 0 && i < b.numBits, "bitmap: Test index %d out of range", i)
	return b.bits[i/8]&(1<<uint(i%8)) != 0
}

// Set marks bit i as allocated.
func (b *Bitmap) Set(i int) {
	kassert.Assert(i >= 0 && i < b.numBits, "bitmap: Set index %d out of range", i)
	b.bits[i/8] |= 1 << uint(i%8)
}

// Clear marks bit i as free. Clearing an already-clear bit is an invariant
// violation per spec.md §4.1 — it means a caller double-freed a sector.
func (b *Bitmap) Clear(i int) {
	kassert.Assert(i >= 0 && i < b.numBits, "bitmap: Clear index %d out of range", i)
	kassert.Assert(b.Test(i), "bitmap: double-clear of bit %d", i)
	b.bits[i/8] &^= 1 << uint(i%8)
}

// Find returns the lowest-indexed clear (free) bit, sets it (marks it
// allocated), and returns its index. ok is false if every bit is already
// set (no free sectors left), and nothing is mutated in that case.
func (b *Bitmap) Find() (index int, ok bool) {
	for i := 0; i < b.numBits; i++ {
		if !b.Test(i) {
			b.Set(i)
			return i, true
		}
	}
	return 0, false
}

// NumClear returns the count of free (clear) bits.
func (b *Bitmap) NumClear() int {
	clear := 0
	for i := 0; i < b.numBits; i++ {
		if !b.Test(i) {
			clear++
		}
	}
	return clear
}

// Bytes returns the packed byte image of the bitmap, suitable for writing
// directly to a disk sector.
func (b *Bitmap) Bytes() []byte {
	return b.bits
}

// FromBytes replaces the bitmap's contents with buf, which must be at least
// NumBytes(numBits) long.
func (b *Bitmap) FromBytes(buf []byte) {
	kassert.Assert(len(buf) >= len(b.bits), "bitmap: FromBytes buffer too short")
	copy(b.bits, buf)
}

// FetchFrom reads the bitmap's packed image back from the given disk
// sector (sector 0 on the standard layout; see spec.md §6).
func (b *Bitmap) FetchFrom(d sectorIO, sector int, sectorSize int) error {
	buf := make([]byte, sectorSize)
	if err := d.ReadSector(sector, buf); err != nil {
		return errors.Wrap(err, "bitmap: fetch from disk")
	}
	b.FromBytes(buf)
	return nil
}

// WriteBack persists the bitmap's packed image to the given disk sector in
// a single synchronous sector write, as required by spec.md §4.1.
func (b *Bitmap) WriteBack(d sectorIO, sector int, sectorSize int) error {
	buf := make([]byte, sectorSize)
	copy(buf, b.bits)
	if err := d.WriteSector(sector, buf); err != nil {
		return errors.Wrap(err, "bitmap: write back to disk")
	}
	return nil
}
