package kernel

import "testing"

func TestEventLogSnapshotOrderAndLimit(t *testing.T) {
	l := newEventLog(4)
	for i := 0; i < 3; i++ {
		l.add(Event{Kind: "tick", ThreadID: i})
	}
	snap := l.Snapshot(0)
	if len(snap) != 3 {
		t.Fatalf("Snapshot(0): got %d events, want 3", len(snap))
	}
	for i, e := range snap {
		if e.ThreadID != i {
			t.Fatalf("Snapshot order: event %d has ThreadID %d, want %d", i, e.ThreadID, i)
		}
	}

	last := l.Snapshot(1)
	if len(last) != 1 || last[0].ThreadID != 2 {
		t.Fatalf("Snapshot(1): got %+v, want the most recent event only", last)
	}
}

func TestEventLogWrapsAtCapacity(t *testing.T) {
	l := newEventLog(2)
	l.add(Event{Kind: "a", ThreadID: 1})
	l.add(Event{Kind: "b", ThreadID: 2})
	l.add(Event{Kind: "c", ThreadID: 3})

	snap := l.Snapshot(0)
	if len(snap) != 2 {
		t.Fatalf("Snapshot: got %d events, want 2 (capacity)", len(snap))
	}
	if snap[0].ThreadID != 2 || snap[1].ThreadID != 3 {
		t.Fatalf("Snapshot after wrap: got %+v, want events 2 then 3", snap)
	}
}

func TestEventLogDefaultsCapacityWhenNonPositive(t *testing.T) {
	l := newEventLog(0)
	if l.cap != 256 {
		t.Fatalf("default capacity: got %d, want 256", l.cap)
	}
}
