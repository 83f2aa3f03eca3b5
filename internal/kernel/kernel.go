// Package kernel wires the disk, file system, frame bitmap, pid bitmap, and
// cooperative scheduler together into the process substrate described in
// spec.md §4.4/§4.5: the address-space loader, the syscall dispatcher, and
// process lifecycle (spawn/join/exit). Construction and teardown follow the
// fixed order spec.md §9 calls out: disk → synchronous-disk wrapper →
// file system → scheduler → first process.
package kernel

import (
	"log"
	"sync"

	"nachos/internal/addrspace"
	"nachos/internal/bitmap"
	"nachos/internal/disk"
	"nachos/internal/filesys"

	"github.com/pkg/errors"
)

// PidBase and PidWindow bound the pid space [100, 356) spec.md §4.4 assigns
// to address spaces.
const (
	PidBase   = 100
	PidWindow = 256
)

// Program stands in for a user program's compiled instruction stream, which
// this module does not interpret — the emulated CPU's instruction set is
// explicitly out of scope (spec.md §1). A Program issues the syscalls real
// user code would have trapped into, through the same register-passing
// ABI (Dispatch), so the dispatcher itself is exercised faithfully even
// though nothing decodes MIPS opcodes underneath it.
type Program func(k *Kernel, t *Thread)

// Kernel bundles every shared, process-wide singleton spec.md §5 lists:
// the disk, the file system, the pid and frame bitmaps, and the scheduler.
// The file system and the bitmaps do not lock themselves; Kernel's own mutex
// serializes the bitmap updates and file opens done by exec and exit (the
// synchronous disk, scheduler and event log each hold their own mutex).
type Kernel struct {
	mu sync.Mutex

	disk *disk.SynchDisk
	fs   *filesys.FileSystem

	pidMap   *bitmap.Bitmap
	frameMap *bitmap.Bitmap
	mem      []byte

	sched    *Scheduler
	events   *eventLog
	programs map[string]Program

	haltOnce sync.Once
	haltCh   chan struct{}
}

// Config bounds the resources a Kernel instance is built with.
type Config struct {
	DiskPath         string
	Format           bool // true formats a fresh file system; false mounts an existing one
	NumPhysPages     int
	EventLogCapacity int
}

// New brings up a kernel: opens (or formats) the disk image, mounts the
// file system on top of it, and allocates the shared frame pool.
func New(cfg Config) (*Kernel, error) {
	var d *disk.Disk
	var err error
	if cfg.Format {
		d, err = disk.Format(cfg.DiskPath)
	} else {
		d, err = disk.Open(cfg.DiskPath)
	}
	if err != nil {
		return nil, errors.Wrap(err, "kernel: opening disk")
	}
	sd := disk.NewSynchDisk(d)

	var fs *filesys.FileSystem
	if cfg.Format {
		fs, err = filesys.Format(sd)
	} else {
		fs, err = filesys.Open(sd)
	}
	if err != nil {
		sd.Close()
		return nil, errors.Wrap(err, "kernel: mounting file system")
	}

	numPages := cfg.NumPhysPages
	if numPages <= 0 {
		numPages = 64
	}
	k := &Kernel{
		disk:     sd,
		fs:       fs,
		pidMap:   bitmap.New(PidWindow),
		frameMap: bitmap.New(numPages),
		mem:      make([]byte, numPages*addrspace.PageSize),
		events:   newEventLog(cfg.EventLogCapacity),
		programs: make(map[string]Program),
		haltCh:   make(chan struct{}),
	}
	k.sched = newScheduler(k.events)
	log.Printf("kernel: mounted %s (%d physical pages, format=%v)", cfg.DiskPath, numPages, cfg.Format)
	return k, nil
}

// Close tears the kernel down in the reverse of its construction order.
func (k *Kernel) Close() error {
	return k.disk.Close()
}

// Halted is closed the moment any thread issues the halt syscall, which
// spec.md §4.5 defines as terminating the emulator immediately.
func (k *Kernel) Halted() <-chan struct{} { return k.haltCh }

func (k *Kernel) halt() {
	k.haltOnce.Do(func() {
		log.Printf("kernel: halt")
		close(k.haltCh)
	})
}

// FS exposes the mounted file system for CLI commands that operate on the
// namespace directly (cp/ls/cat/rm/mkdir/rmdir/fsck).
func (k *Kernel) FS() *filesys.FileSystem { return k.fs }

// Events returns the most recent limit kernel events (fork/exit), oldest
// first; limit <= 0 returns everything currently buffered.
func (k *Kernel) Events(limit int) []Event { return k.events.Snapshot(limit) }

// Scheduler exposes the scheduler for introspection (ready/terminated
// snapshots).
func (k *Kernel) Scheduler() *Scheduler { return k.sched }

// RegisterProgram associates path with the Go function that plays the role
// of its compiled instruction stream whenever it is exec'd — see Program's
// doc comment for why this seam exists.
func (k *Kernel) RegisterProgram(path string, prog Program) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.programs[path] = prog
}

// StartProcess loads path as the very first user process (spec.md §9: the
// kernel's final construction step), returning as soon as its thread is
// forked; the thread's body runs on its own goroutine. It is Exec with no
// calling thread.
func (k *Kernel) StartProcess(path string) (spaceID int, err error) {
	return k.exec(path)
}

func (k *Kernel) exec(path string) (int, error) {
	k.mu.Lock()
	pidBit, ok := k.pidMap.Find()
	if !ok {
		k.mu.Unlock()
		return addrspace.InvalidSpaceID, errors.New("kernel: pid space exhausted")
	}
	spaceID := PidBase + pidBit

	f, ferr := k.fs.Open(path)
	if ferr != nil {
		k.pidMap.Clear(pidBit)
		k.mu.Unlock()
		return addrspace.InvalidSpaceID, nil //nolint:nilerr // spec.md §4.5: exec on a missing file reports failure via the sentinel pid, not an error
	}
	as, aerr := addrspace.NewAddrSpace(f, k.frameMap, k.mem)
	if aerr != nil {
		k.pidMap.Clear(pidBit)
		k.mu.Unlock()
		return addrspace.InvalidSpaceID, nil //nolint:nilerr // same sentinel-return contract as the missing-file case
	}
	prog, hasProg := k.programs[path]
	k.mu.Unlock()

	log.Printf("kernel: exec %s -> pid %d", path, spaceID)
	k.sched.Fork(path, spaceID, func(t *Thread) {
		t.Space = as
		t.Mach = viewOf(k.mem)
		as.InitRegisters(&t.Regs)
		as.RestoreState(t.Mach)
		if hasProg {
			prog(k, t)
		}
		// A Program that returns without issuing exit behaves like a user
		// program that ran off the end of main: clean up as exit(0) would.
		if t.State != StateTerminated {
			k.doExit(t, 0)
		}
	})
	return spaceID, nil
}

// doExit applies the exit syscall's kernel-side effects (spec.md §4.5):
// record the exit code, free the address space and pid, and purge the
// terminated-thread list if this is the root process's exit(99). It must run
// at most once per thread (a second run would free the pid and frames
// twice); Exit marks the thread terminated before calling this, so the
// auto-exit fallback in exec's Fork body never double-runs it.
func (k *Kernel) doExit(t *Thread, code int) {
	log.Printf("kernel: pid %d exit(%d)", t.SpaceID, code)
	k.mu.Lock()
	t.ExitCode = code
	if t.Space != nil {
		t.Space.Release(k.frameMap)
	}
	k.pidMap.Clear(t.SpaceID - PidBase)
	purge := code == 99
	k.mu.Unlock()
	if purge {
		k.sched.PurgeTerminated()
	}
}
