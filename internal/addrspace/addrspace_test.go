package addrspace

import (
	"path/filepath"
	"testing"

	"nachos/internal/bitmap"
	"nachos/internal/disk"
	"nachos/internal/filesys"
	"nachos/internal/noff"
)

// buildExecutable writes a minimal NOFF executable containing codeSize bytes
// of code (each byte equal to its own index, for easy verification) and
// initSize bytes of initialized data, and returns an open handle to it.
func buildExecutable(t *testing.T, fs *filesys.FileSystem, path string, codeSize, initSize int) *filesys.File {
	t.Helper()
	code := make([]byte, codeSize)
	for i := range code {
		code[i] = byte(i)
	}
	initData := make([]byte, initSize)
	for i := range initData {
		initData[i] = byte(0xA0 + i%16)
	}

	hdr := noff.Header{
		Magic: noff.Magic,
		Code: noff.Segment{
			Size:        uint32(codeSize),
			VirtualAddr: 0,
			InFileAddr:  uint32(noff.HeaderSize),
		},
		InitData: noff.Segment{
			Size:        uint32(initSize),
			VirtualAddr: uint32(codeSize),
			InFileAddr:  uint32(noff.HeaderSize + codeSize),
		},
		UninitData: noff.Segment{Size: 0, VirtualAddr: uint32(codeSize + initSize), InFileAddr: 0},
	}
	buf := append(noff.Encode(hdr), code...)
	buf = append(buf, initData...)

	if err := fs.Create(path, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fs.Append(path, buf, false); err != nil {
		t.Fatalf("Append: %v", err)
	}
	f, err := fs.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return f
}

func newTestFS(t *testing.T) *filesys.FileSystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exec.disk")
	d, err := disk.Format(path)
	if err != nil {
		t.Fatalf("disk.Format: %v", err)
	}
	sd := disk.NewSynchDisk(d)
	t.Cleanup(func() { sd.Close() })
	fs, err := filesys.Format(sd)
	if err != nil {
		t.Fatalf("filesys.Format: %v", err)
	}
	return fs
}

func TestNewAddrSpaceLoadsSegmentsAndZeroesStack(t *testing.T) {
	fs := newTestFS(t)
	f := buildExecutable(t, fs, "/root/prog", PageSize, 16)

	frameMap := bitmap.New(64)
	mem := make([]byte, 64*PageSize)
	for i := range mem {
		mem[i] = 0xFF // so the check below sees the loader's zero fill
	}
	as, err := NewAddrSpace(f, frameMap, mem)
	if err != nil {
		t.Fatalf("NewAddrSpace: %v", err)
	}

	wantPages := divRoundUp(PageSize+16+UserStackSize, PageSize)
	if as.NumPages != wantPages {
		t.Fatalf("NumPages: got %d, want %d", as.NumPages, wantPages)
	}
	if frameMap.NumClear() != 64-wantPages {
		t.Fatalf("frameMap.NumClear: got %d, want %d", frameMap.NumClear(), 64-wantPages)
	}

	// Spot-check the code segment landed at vaddr 0.
	for i := 0; i < PageSize; i++ {
		got := mem[as.translate(i)]
		if got != byte(i) {
			t.Fatalf("code byte %d: got %#x, want %#x", i, got, byte(i))
		}
	}
	// Init data segment starts right after code.
	for i := 0; i < 16; i++ {
		got := mem[as.translate(PageSize+i)]
		want := byte(0xA0 + i%16)
		if got != want {
			t.Fatalf("init-data byte %d: got %#x, want %#x", i, got, want)
		}
	}
	// Everything after the init data (the stack) is zero-filled.
	for v := PageSize + 16; v < as.NumPages*PageSize; v++ {
		if got := mem[as.translate(v)]; got != 0 {
			t.Fatalf("stack byte at vaddr %d: got %#x, want 0", v, got)
		}
	}
}

func TestNewAddrSpaceOutOfFramesRollsBack(t *testing.T) {
	fs := newTestFS(t)
	f := buildExecutable(t, fs, "/root/bigprog", PageSize*4, 0)

	frameMap := bitmap.New(2) // not nearly enough for 4 code pages + stack
	mem := make([]byte, 2*PageSize)
	before := frameMap.NumClear()
	_, err := NewAddrSpace(f, frameMap, mem)
	if err == nil {
		t.Fatal("NewAddrSpace: expected out-of-memory error")
	}
	if frameMap.NumClear() != before {
		t.Fatalf("frameMap should be untouched on failure: got %d clear, want %d", frameMap.NumClear(), before)
	}
}

func TestAddrSpaceReleaseFreesFrames(t *testing.T) {
	fs := newTestFS(t)
	f := buildExecutable(t, fs, "/root/prog2", PageSize, 0)

	frameMap := bitmap.New(64)
	mem := make([]byte, 64*PageSize)
	as, err := NewAddrSpace(f, frameMap, mem)
	if err != nil {
		t.Fatalf("NewAddrSpace: %v", err)
	}
	before := frameMap.NumClear()
	as.Release(frameMap)
	if frameMap.NumClear() != before+as.NumPages {
		t.Fatalf("Release: got %d clear, want %d", frameMap.NumClear(), before+as.NumPages)
	}
}

func TestInitRegistersSetsEntryAndStack(t *testing.T) {
	fs := newTestFS(t)
	f := buildExecutable(t, fs, "/root/prog3", PageSize, 0)

	frameMap := bitmap.New(64)
	mem := make([]byte, 64*PageSize)
	as, err := NewAddrSpace(f, frameMap, mem)
	if err != nil {
		t.Fatalf("NewAddrSpace: %v", err)
	}
	var regs Registers
	as.InitRegisters(&regs)
	if regs[PCReg] != 0 {
		t.Fatalf("PCReg: got %d, want 0", regs[PCReg])
	}
	if regs[NextPCReg] != 4 {
		t.Fatalf("NextPCReg: got %d, want 4", regs[NextPCReg])
	}
	wantSP := uint32(as.NumPages*PageSize - 16)
	if regs[StackReg] != wantSP {
		t.Fatalf("StackReg: got %d, want %d", regs[StackReg], wantSP)
	}
}
