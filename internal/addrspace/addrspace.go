// Package addrspace builds a user process's virtual address space from an
// executable file: it allocates physical frames out of a process-wide frame
// bitmap, copies the code and initialized-data segments into them, and
// leaves uninitialized data and the stack zero-filled. Ported from the
// original's AddrSpace (userprog/addrspace.cc), spec.md §4.4.
package addrspace

import (
	"nachos/internal/bitmap"
	"nachos/internal/filesys"
	"nachos/internal/kassert"
	"nachos/internal/noff"

	"github.com/pkg/errors"
)

// InvalidSpaceID is handed back by the process layer when exec fails to
// build an address space — out of frames or a malformed executable — rather
// than a valid, runnable space ID. Resolves the open question in spec.md §9
// of what a failed exec reports to its caller.
const InvalidSpaceID = -1

// AddrSpace is one process's virtual memory: a page table mapping its
// virtual pages onto frames carved out of shared physical memory.
type AddrSpace struct {
	PageTable []PageTableEntry
	NumPages  int
}

// MMU is the minimal machine-side seam RestoreState needs: whatever holds
// "the currently installed page table" for address translation. The kernel
// package's Machine implements it.
type MMU interface {
	SetPageTable(table []PageTableEntry)
}

// NewAddrSpace parses exe's NOFF header, reserves NumPages fresh frames from
// frameMap, zero-fills them, and copies the code and initialized-data
// segments in from the executable. mem is the shared physical memory array
// frames index into. On any failure no frames are left allocated.
func NewAddrSpace(exe *filesys.File, frameMap *bitmap.Bitmap, mem []byte) (*AddrSpace, error) {
	hdrBuf := make([]byte, noff.HeaderSize)
	if _, err := exe.ReadAt(hdrBuf, 0); err != nil {
		return nil, errors.Wrap(err, "addrspace: reading NOFF header")
	}
	hdr, err := noff.Parse(hdrBuf)
	if err != nil {
		return nil, errors.Wrap(err, "addrspace: invalid executable")
	}

	size := int(hdr.Code.Size) + int(hdr.InitData.Size) + int(hdr.UninitData.Size) + UserStackSize
	numPages := divRoundUp(size, PageSize)

	pages := make([]PageTableEntry, numPages)
	var allocated []int
	for i := 0; i < numPages; i++ {
		frame, ok := frameMap.Find()
		if !ok {
			for _, f := range allocated {
				frameMap.Clear(f)
			}
			return nil, errors.New("addrspace: out of physical memory")
		}
		if (frame+1)*PageSize > len(mem) {
			frameMap.Clear(frame)
			for _, f := range allocated {
				frameMap.Clear(f)
			}
			return nil, errors.New("addrspace: frame bitmap larger than backing physical memory")
		}
		allocated = append(allocated, frame)
		pages[i] = PageTableEntry{VirtualPage: i, PhysicalPage: frame, Valid: true}
		zeroFrame(mem, frame)
	}

	as := &AddrSpace{PageTable: pages, NumPages: numPages}
	if hdr.Code.Size > 0 {
		if err := as.copyIn(exe, mem, int(hdr.Code.InFileAddr), int(hdr.Code.VirtualAddr), int(hdr.Code.Size)); err != nil {
			as.Release(frameMap)
			return nil, err
		}
	}
	if hdr.InitData.Size > 0 {
		if err := as.copyIn(exe, mem, int(hdr.InitData.InFileAddr), int(hdr.InitData.VirtualAddr), int(hdr.InitData.Size)); err != nil {
			as.Release(frameMap)
			return nil, err
		}
	}
	return as, nil
}

func (as *AddrSpace) copyIn(exe *filesys.File, mem []byte, fileOffset, vaddr, size int) error {
	buf := make([]byte, size)
	if _, err := exe.ReadAt(buf, fileOffset); err != nil {
		return errors.Wrap(err, "addrspace: reading segment")
	}
	for i := 0; i < size; i++ {
		mem[as.translate(vaddr+i)] = buf[i]
	}
	return nil
}

// translate resolves a virtual address within this address space to a
// physical offset into shared memory. An out-of-range address here is a
// loader bug, not a user error (user-supplied addresses are range-checked
// by the syscall layer before reaching this point), so it asserts.
func (as *AddrSpace) translate(vaddr int) int {
	vpage := vaddr / PageSize
	offset := vaddr % PageSize
	kassert.Assert(vpage >= 0 && vpage < len(as.PageTable), "addrspace: vaddr %d out of range", vaddr)
	pte := &as.PageTable[vpage]
	kassert.Assert(pte.Valid, "addrspace: page %d not valid", vpage)
	pte.Use = true
	return pte.PhysicalPage*PageSize + offset
}

func zeroFrame(mem []byte, frame int) {
	base := frame * PageSize
	for i := 0; i < PageSize; i++ {
		mem[base+i] = 0
	}
}

// Release frees every frame this address space holds, for process exit or
// for unwinding a partially-built space.
func (as *AddrSpace) Release(frameMap *bitmap.Bitmap) {
	for _, pte := range as.PageTable {
		frameMap.Clear(pte.PhysicalPage)
	}
}

// InitRegisters sets a fresh process's register file to begin execution at
// the start of its code segment, with the stack pointer at the top of its
// address space (less 16 bytes of slop for argument passing), matching
// AddrSpace::InitRegisters.
func (as *AddrSpace) InitRegisters(regs *Registers) {
	for i := range regs {
		regs[i] = 0
	}
	regs[PCReg] = 0
	regs[NextPCReg] = 4
	regs[StackReg] = uint32(as.NumPages*PageSize - 16)
}

// RestoreState installs this address space's page table as the one the
// machine translates against; called whenever the scheduler switches to a
// thread that owns this space.
func (as *AddrSpace) RestoreState(mmu MMU) {
	mmu.SetPageTable(as.PageTable)
}

// SaveState is a no-op: there is no TLB to flush, only a page table pointer
// to swap, which RestoreState already does for the incoming thread. Kept for
// symmetry with the original's SaveState/RestoreState pair.
func (as *AddrSpace) SaveState() {}

func divRoundUp(n, d int) int {
	return (n + d - 1) / d
}
