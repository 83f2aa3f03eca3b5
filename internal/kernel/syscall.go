package kernel

import (
	"nachos/internal/addrspace"
	"nachos/internal/kassert"
)

// Syscall call numbers, spec.md §4.5's dispatch table.
const (
	SyscallHalt  = 0
	SyscallExit  = 1
	SyscallExec  = 2
	SyscallJoin  = 3
	SyscallYield = 4
)

// Dispatch applies the effect of whatever syscall t.Regs currently encodes:
// call number in SyscallNumReg, arguments in Arg1Reg..Arg4Reg. Every case
// except halt advances PC past the trapping instruction before returning,
// matching spec.md §4.5. Dispatch is the literal ABI-level decoder; Halt,
// Exit, Exec, Join and Yield below are the ergonomic wrappers a Program
// actually calls, each of which sets up t.Regs and then calls Dispatch so
// the real contract is exercised end to end.
func Dispatch(k *Kernel, t *Thread) {
	call := t.Regs[addrspace.SyscallNumReg]
	invalidSpaceID := int32(addrspace.InvalidSpaceID)
	if call != SyscallHalt {
		defer t.Regs.AdvancePC()
	}
	switch call {
	case SyscallHalt:
		k.halt()
	case SyscallExit:
		code := int(int32(t.Regs[addrspace.Arg1Reg]))
		t.State = StateTerminated
		k.doExit(t, code)
	case SyscallExec:
		filename, err := t.Mach.ReadString(int(t.Regs[addrspace.Arg1Reg]))
		if err != nil {
			t.Regs[addrspace.SyscallNumReg] = uint32(invalidSpaceID)
			return
		}
		pid, _ := k.exec(filename)
		t.Regs[addrspace.SyscallNumReg] = uint32(int32(pid))
	case SyscallJoin:
		pid := int(int32(t.Regs[addrspace.Arg1Reg]))
		t.State = StateBlocked
		code, ok := k.sched.Join(pid)
		t.State = StateRunning
		if !ok {
			t.Regs[addrspace.SyscallNumReg] = uint32(invalidSpaceID)
			return
		}
		t.Regs[addrspace.SyscallNumReg] = uint32(int32(code))
	case SyscallYield:
		k.sched.Yield()
	default:
		kassert.Assert(false, "syscall: unknown call number %d", call)
	}
}

// Halt sets up and dispatches the halt syscall.
func Halt(k *Kernel, t *Thread) {
	t.Regs[addrspace.SyscallNumReg] = SyscallHalt
	Dispatch(k, t)
}

// Exit sets up and dispatches the exit syscall with the given exit code.
// Callers must return immediately afterward: the dispatcher has already
// freed this thread's address space and pid.
func Exit(k *Kernel, t *Thread, code int) {
	t.Regs[addrspace.SyscallNumReg] = SyscallExit
	t.Regs[addrspace.Arg1Reg] = uint32(int32(code))
	Dispatch(k, t)
}

// Exec stages filename into a scratch region of the caller's own user
// memory, sets up and dispatches the exec syscall, and returns the new
// process's space id (or addrspace.InvalidSpaceID on failure).
func Exec(k *Kernel, t *Thread, filenameVAddr int, filename string) (int, error) {
	if err := t.Mach.WriteString(filenameVAddr, filename); err != nil {
		return addrspace.InvalidSpaceID, err
	}
	t.Regs[addrspace.SyscallNumReg] = SyscallExec
	t.Regs[addrspace.Arg1Reg] = uint32(filenameVAddr)
	Dispatch(k, t)
	return int(int32(t.Regs[addrspace.SyscallNumReg])), nil
}

// Join sets up and dispatches the join syscall, returning the child's exit
// code.
func Join(k *Kernel, t *Thread, pid int) int {
	t.Regs[addrspace.SyscallNumReg] = SyscallJoin
	t.Regs[addrspace.Arg1Reg] = uint32(int32(pid))
	Dispatch(k, t)
	return int(int32(t.Regs[addrspace.SyscallNumReg]))
}

// Yield sets up and dispatches the yield syscall.
func Yield(k *Kernel, t *Thread) {
	t.Regs[addrspace.SyscallNumReg] = SyscallYield
	Dispatch(k, t)
}

