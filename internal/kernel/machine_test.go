package kernel

import (
	"testing"

	"nachos/internal/addrspace"
)

func onePageMachine() *Machine {
	mem := make([]byte, addrspace.PageSize)
	m := viewOf(mem)
	m.SetPageTable([]addrspace.PageTableEntry{{VirtualPage: 0, PhysicalPage: 0, Valid: true}})
	return m
}

func TestMachineWriteReadStringRoundTrip(t *testing.T) {
	m := onePageMachine()
	if err := m.WriteString(10, "hello"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	got, err := m.ReadString(10)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "hello" {
		t.Fatalf("ReadString: got %q, want %q", got, "hello")
	}
}

func TestMachineReadStringBadAddressFails(t *testing.T) {
	m := onePageMachine()
	if _, err := m.ReadString(addrspace.PageSize * 2); err == nil {
		t.Fatal("ReadString: expected error for an address with no mapped page")
	}
}

func TestMachineReadStringUnterminatedOverflowsFails(t *testing.T) {
	m := onePageMachine()
	for i := 0; i < ScratchBufSize && i < addrspace.PageSize; i++ {
		if !m.WriteByte(i, 'x') {
			t.Fatalf("WriteByte: failed at %d", i)
		}
	}
	if _, err := m.ReadString(0); err == nil {
		t.Fatal("ReadString: expected error when no NUL terminator is found within the scratch buffer")
	}
}

func TestMachineWriteByteRespectsReadOnly(t *testing.T) {
	mem := make([]byte, addrspace.PageSize)
	m := viewOf(mem)
	m.SetPageTable([]addrspace.PageTableEntry{{VirtualPage: 0, PhysicalPage: 0, Valid: true, ReadOnly: true}})
	if m.WriteByte(0, 'x') {
		t.Fatal("WriteByte: expected failure on a read-only page")
	}
}

func TestViewOfSharesMemoryButNotPageTable(t *testing.T) {
	mem := make([]byte, addrspace.PageSize)
	a := viewOf(mem)
	b := viewOf(mem)
	a.SetPageTable([]addrspace.PageTableEntry{{VirtualPage: 0, PhysicalPage: 0, Valid: true}})
	if len(b.PageTable) != 0 {
		t.Fatal("viewOf: page tables should be independent across views")
	}
	mem[0] = 0x42
	got, ok := b.ReadByte(0)
	_ = got
	if ok {
		t.Fatal("ReadByte: b has no page table installed, translation should fail")
	}
}
