package kernel

import "testing"

func TestSchedulerForkJoinReturnsExitCode(t *testing.T) {
	s := newScheduler(newEventLog(0))
	s.Fork("child", 100, func(t *Thread) {
		t.ExitCode = 42
	})
	code, ok := s.Join(100)
	if !ok {
		t.Fatal("Join: expected ok=true for a forked thread")
	}
	if code != 42 {
		t.Fatalf("Join: got code %d, want 42", code)
	}
}

func TestSchedulerJoinUnknownPidFails(t *testing.T) {
	s := newScheduler(newEventLog(0))
	if _, ok := s.Join(999); ok {
		t.Fatal("Join: expected ok=false for a pid that was never forked")
	}
}

func TestSchedulerJoinAfterPurgeFails(t *testing.T) {
	s := newScheduler(newEventLog(0))
	s.Fork("child", 101, func(t *Thread) { t.ExitCode = 7 })
	// Block until the goroutine has actually finished before purging.
	if _, ok := s.Join(101); !ok {
		t.Fatal("Join: expected ok=true before purge")
	}
	s.PurgeTerminated()
	if _, ok := s.Join(101); ok {
		t.Fatal("Join: expected ok=false after PurgeTerminated")
	}
}

func TestSchedulerSnapshotReflectsTermination(t *testing.T) {
	s := newScheduler(newEventLog(0))
	s.Fork("child", 102, func(t *Thread) { t.ExitCode = 0 })
	s.Join(102)
	ready, terminated := s.Snapshot()
	if len(ready) != 0 {
		t.Fatalf("Snapshot: expected empty ready list, got %v", ready)
	}
	found := false
	for _, id := range terminated {
		if s.byID[id].SpaceID == 102 {
			found = true
		}
	}
	if !found {
		t.Fatal("Snapshot: expected thread 102 to appear in terminated list")
	}
}

func TestSchedulerYieldDoesNotPanic(t *testing.T) {
	s := newScheduler(newEventLog(0))
	s.Yield()
}
