package kernel

import (
	"testing"

	"nachos/internal/addrspace"
)

func TestExecOfMissingFileReturnsInvalidSpaceID(t *testing.T) {
	k := newTestKernel(t)
	writeExecutable(t, k, "/root/caller")
	k.RegisterProgram("/root/caller", func(k *Kernel, th *Thread) {
		pid, err := Exec(k, th, 8, "/root/does-not-exist")
		if err != nil {
			t.Errorf("Exec: unexpected error %v", err)
		}
		if pid != addrspace.InvalidSpaceID {
			t.Errorf("Exec: got pid %d, want InvalidSpaceID", pid)
		}
		Exit(k, th, 0)
	})
	spaceID, err := k.StartProcess("/root/caller")
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	k.Scheduler().Join(spaceID)
}

func TestJoinOfUnknownPidReturnsInvalidSpaceID(t *testing.T) {
	k := newTestKernel(t)
	writeExecutable(t, k, "/root/lonely")
	k.RegisterProgram("/root/lonely", func(k *Kernel, th *Thread) {
		code := Join(k, th, 9999)
		if code != addrspace.InvalidSpaceID {
			t.Errorf("Join: got %d, want InvalidSpaceID for an unknown pid", code)
		}
		Exit(k, th, 0)
	})
	spaceID, err := k.StartProcess("/root/lonely")
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	k.Scheduler().Join(spaceID)
}

func TestYieldAdvancesPC(t *testing.T) {
	k := newTestKernel(t)
	writeExecutable(t, k, "/root/yielder")
	var pcAfter uint32
	k.RegisterProgram("/root/yielder", func(k *Kernel, th *Thread) {
		before := th.Regs[addrspace.PCReg]
		Yield(k, th)
		pcAfter = th.Regs[addrspace.PCReg]
		if pcAfter != before+4 {
			t.Errorf("PC after yield: got %d, want %d", pcAfter, before+4)
		}
		Exit(k, th, 0)
	})
	spaceID, err := k.StartProcess("/root/yielder")
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	k.Scheduler().Join(spaceID)
}
