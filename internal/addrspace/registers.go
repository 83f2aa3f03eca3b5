package addrspace

// Register indices into the emulated register file, following the MIPS-ish
// convention the original machine uses (spec.md §4.4 Register discipline):
// syscall number in r2, arguments in r4-r7, return value in r2.
const (
	ZeroReg = 0
	RetAddrReg = 31
	NumIntRegs = 32

	// PCReg/NextPCReg implement the original's delayed-PC bookkeeping: PC is
	// the instruction that will execute next, NextPC is the one after it.
	PCReg     = NumIntRegs
	NextPCReg = NumIntRegs + 1
	StackReg  = NumIntRegs + 2

	NumTotalRegs = NumIntRegs + 3
)

// Syscall argument/return register indices (spec.md §4.5).
const (
	SyscallNumReg = 2
	Arg1Reg       = 4
	Arg2Reg       = 5
	Arg3Reg       = 6
	Arg4Reg       = 7
)

// Registers is the emulated CPU's register file, saved and restored across
// context switches the same way the original's Thread::SaveUserState and
// Thread::RestoreUserState do.
type Registers [NumTotalRegs]uint32

// AdvancePC moves PC/NextPC forward by one instruction width, the discipline
// every syscall handler must apply before returning to user code (spec.md
// §4.5 "the dispatcher must advance PC past the syscall instruction itself").
func (r *Registers) AdvancePC() {
	r[PCReg] = r[NextPCReg]
	r[NextPCReg] = r[NextPCReg] + 4
}
