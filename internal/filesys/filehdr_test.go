package filesys

import (
	"testing"

	"nachos/internal/bitmap"
	"nachos/internal/disk"
)

func TestFileHeaderAllocateFitsExactSectors(t *testing.T) {
	fm := bitmap.New(disk.NumSectors)
	var hdr FileHeader
	if !hdr.Allocate(fm, disk.SectorSize*3) {
		t.Fatal("Allocate: expected success")
	}
	if hdr.NumSectors != 3 {
		t.Fatalf("NumSectors: got %d, want 3", hdr.NumSectors)
	}
	if fm.NumClear() != disk.NumSectors-3 {
		t.Fatalf("NumClear: got %d, want %d", fm.NumClear(), disk.NumSectors-3)
	}
}

func TestFileHeaderAllocateTooBigLeavesBitmapUntouched(t *testing.T) {
	fm := bitmap.New(disk.NumSectors)
	var hdr FileHeader
	if hdr.Allocate(fm, MaxFileSize+1) {
		t.Fatal("Allocate: expected failure for oversized file")
	}
	if fm.NumClear() != disk.NumSectors {
		t.Fatalf("NumClear: got %d, want untouched %d", fm.NumClear(), disk.NumSectors)
	}
}

func TestFileHeaderAllocateOutOfSpaceRollsBack(t *testing.T) {
	fm := bitmap.New(4)
	var hdr FileHeader
	if hdr.Allocate(fm, disk.SectorSize*5) {
		t.Fatal("Allocate: expected failure when not enough sectors free")
	}
	if fm.NumClear() != 4 {
		t.Fatalf("NumClear: got %d, want 4 (untouched)", fm.NumClear())
	}
}

func TestFileHeaderAppendExtendsWithinSlack(t *testing.T) {
	fm := bitmap.New(disk.NumSectors)
	var hdr FileHeader
	if !hdr.Allocate(fm, 10) {
		t.Fatal("Allocate failed")
	}
	before := fm.NumClear()
	if !hdr.Append(fm, disk.SectorSize-10) {
		t.Fatal("Append: expected success within existing sector's slack")
	}
	if fm.NumClear() != before {
		t.Fatalf("NumClear: append within slack should not claim new sectors, got %d want %d", fm.NumClear(), before)
	}
	if hdr.NumBytes != int32(disk.SectorSize) {
		t.Fatalf("NumBytes: got %d, want %d", hdr.NumBytes, disk.SectorSize)
	}
}

func TestFileHeaderAppendGrowsSectorCount(t *testing.T) {
	fm := bitmap.New(disk.NumSectors)
	var hdr FileHeader
	if !hdr.Allocate(fm, 10) {
		t.Fatal("Allocate failed")
	}
	if !hdr.Append(fm, disk.SectorSize*2) {
		t.Fatal("Append: expected success")
	}
	if hdr.NumSectors != 3 {
		t.Fatalf("NumSectors: got %d, want 3", hdr.NumSectors)
	}
}

func TestFileHeaderAppendSeedsEmptyFile(t *testing.T) {
	fm := bitmap.New(disk.NumSectors)
	var hdr FileHeader
	if !hdr.Allocate(fm, 0) {
		t.Fatal("Allocate(0) failed")
	}
	if hdr.NumSectors != 0 {
		t.Fatalf("NumSectors after empty Allocate: got %d, want 0", hdr.NumSectors)
	}
	if !hdr.Append(fm, 5) {
		t.Fatal("Append into empty file failed")
	}
	if hdr.NumSectors != 1 || hdr.NumBytes != 5 {
		t.Fatalf("got NumSectors=%d NumBytes=%d, want 1/5", hdr.NumSectors, hdr.NumBytes)
	}
}

func TestFileHeaderDeallocateFreesAllSectors(t *testing.T) {
	fm := bitmap.New(disk.NumSectors)
	var hdr FileHeader
	if !hdr.Allocate(fm, disk.SectorSize*4) {
		t.Fatal("Allocate failed")
	}
	hdr.Deallocate(fm)
	if fm.NumClear() != disk.NumSectors {
		t.Fatalf("NumClear after Deallocate: got %d, want %d", fm.NumClear(), disk.NumSectors)
	}
}

func TestFileHeaderEncodeDecodeRoundTrip(t *testing.T) {
	fm := bitmap.New(disk.NumSectors)
	var hdr FileHeader
	if !hdr.Allocate(fm, disk.SectorSize*2+7) {
		t.Fatal("Allocate failed")
	}
	buf := make([]byte, disk.SectorSize)
	hdr.encode(buf)

	var back FileHeader
	back.decode(buf)
	if back.NumBytes != hdr.NumBytes || back.NumSectors != hdr.NumSectors {
		t.Fatalf("decode: got %+v, want %+v", back, hdr)
	}
	for i := 0; i < int(hdr.NumSectors); i++ {
		if back.DataSectors[i] != hdr.DataSectors[i] {
			t.Fatalf("DataSectors[%d]: got %d, want %d", i, back.DataSectors[i], hdr.DataSectors[i])
		}
	}
}
