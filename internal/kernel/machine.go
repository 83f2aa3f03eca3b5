package kernel

import (
	"nachos/internal/addrspace"

	"github.com/pkg/errors"
)

// ScratchBufSize bounds how long a C-string read out of user memory may be,
// per spec.md §4.5: "a single pre-allocated 128-byte scratch buffer bounds
// string length".
const ScratchBufSize = 128

// Machine is the minimal emulated-machine surface the syscall dispatcher
// needs: physical memory, the page table currently installed by whichever
// address space is running, and byte-at-a-time user-memory reads through
// it. The CPU's instruction set itself is out of scope (spec.md §1); Machine
// only models the physical memory and MMU plumbing a trap handler touches
// (the register file lives on each Thread).
type Machine struct {
	Memory    []byte
	PageTable []addrspace.PageTableEntry
}

// NewMachine allocates numPhysPages worth of physical memory, shared by
// every address space the kernel ever builds.
func NewMachine(numPhysPages int) *Machine {
	return &Machine{Memory: make([]byte, numPhysPages*addrspace.PageSize)}
}

// viewOf returns a Machine sharing mem's backing array but with its own,
// independent page table slot — one per running thread.
func viewOf(mem []byte) *Machine {
	return &Machine{Memory: mem}
}

// SetPageTable implements addrspace.MMU; it is what AddrSpace.RestoreState
// calls on a context switch.
func (m *Machine) SetPageTable(table []addrspace.PageTableEntry) {
	m.PageTable = table
}

// ReadByte translates a user virtual address through the installed page
// table and returns the byte there.
func (m *Machine) ReadByte(vaddr int) (byte, bool) {
	vpage := vaddr / addrspace.PageSize
	offset := vaddr % addrspace.PageSize
	if vpage < 0 || vpage >= len(m.PageTable) {
		return 0, false
	}
	pte := &m.PageTable[vpage]
	if !pte.Valid {
		return 0, false
	}
	pte.Use = true
	return m.Memory[pte.PhysicalPage*addrspace.PageSize+offset], true
}

// WriteByte is ReadByte's write counterpart, used by test programs that
// stage a filename string into user memory before issuing exec.
func (m *Machine) WriteByte(vaddr int, b byte) bool {
	vpage := vaddr / addrspace.PageSize
	offset := vaddr % addrspace.PageSize
	if vpage < 0 || vpage >= len(m.PageTable) {
		return false
	}
	pte := &m.PageTable[vpage]
	if !pte.Valid || pte.ReadOnly {
		return false
	}
	pte.Use, pte.Dirty = true, true
	m.Memory[pte.PhysicalPage*addrspace.PageSize+offset] = b
	return true
}

// ReadString reads a NUL-terminated string from user memory starting at
// vaddr, one byte at a time through the scratch buffer, matching the MMU's
// read_mem contract in spec.md §4.5.
func (m *Machine) ReadString(vaddr int) (string, error) {
	var buf [ScratchBufSize]byte
	for i := 0; i < ScratchBufSize; i++ {
		b, ok := m.ReadByte(vaddr + i)
		if !ok {
			return "", errors.Errorf("machine: bad user address %d reading string", vaddr+i)
		}
		if b == 0 {
			return string(buf[:i]), nil
		}
		buf[i] = b
	}
	return "", errors.New("machine: string exceeds scratch buffer")
}

// WriteString stages s (plus a NUL terminator) into user memory at vaddr;
// used by test programs to set up an exec argument.
func (m *Machine) WriteString(vaddr int, s string) error {
	for i := 0; i < len(s); i++ {
		if !m.WriteByte(vaddr+i, s[i]) {
			return errors.Errorf("machine: bad user address %d writing string", vaddr+i)
		}
	}
	if !m.WriteByte(vaddr+len(s), 0) {
		return errors.Errorf("machine: bad user address %d writing NUL", vaddr+len(s))
	}
	return nil
}
