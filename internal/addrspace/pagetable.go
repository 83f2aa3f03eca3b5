package addrspace

// PageSize equals disk.SectorSize in the original Nachos machine, so a
// virtual page's worth of data fits exactly one disk sector; we keep the
// same identity here (spec.md §3 Address space, §4.4).
const PageSize = 128

// UserStackSize is the amount of space reserved past the data segments for
// the user stack (spec.md §4.4 step 3).
const UserStackSize = 1024

// PageTableEntry is one virtual-to-physical mapping, mirroring the
// original's TranslationEntry (spec.md §3).
type PageTableEntry struct {
	VirtualPage  int
	PhysicalPage int
	Valid        bool
	Use          bool
	Dirty        bool
	ReadOnly     bool
}
