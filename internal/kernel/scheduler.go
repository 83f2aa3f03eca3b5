package kernel

import (
	"fmt"
	"runtime"
	"sync"
)

// Scheduler implements the cooperative model of spec.md §5: an append-only
// ready list and a terminated list, with join realized as a handshake on a
// completion signal rather than any polling. Kernel threads are modelled as
// real goroutines — the natural Go stand-in for "kernel threads scheduled
// by an external collaborator" — synchronized through the caller-held
// kernel lock rather than preemption, since the file system and directory
// modules are documented as not internally reentrant.
type Scheduler struct {
	mu         sync.Mutex
	nextID     int
	ready      []*Thread
	terminated map[int]*Thread
	byID       map[int]*Thread
	events     *eventLog
}

func newScheduler(events *eventLog) *Scheduler {
	return &Scheduler{
		terminated: make(map[int]*Thread),
		byID:       make(map[int]*Thread),
		events:     events,
	}
}

// Fork starts a new kernel thread named name, owning spaceID, running body.
// It returns immediately; body runs on its own goroutine.
func (s *Scheduler) Fork(name string, spaceID int, body func(*Thread)) *Thread {
	s.mu.Lock()
	s.nextID++
	t := &Thread{ID: s.nextID, Name: name, SpaceID: spaceID, State: StateReady, done: make(chan struct{})}
	s.ready = append(s.ready, t)
	s.byID[t.ID] = t
	s.mu.Unlock()

	s.events.add(Event{Kind: "fork", ThreadID: t.ID, Detail: name})
	go func() {
		t.State = StateRunning
		body(t)
		s.finish(t)
	}()
	return t
}

func (s *Scheduler) finish(t *Thread) {
	s.mu.Lock()
	t.State = StateTerminated
	s.removeReady(t.ID)
	s.terminated[t.ID] = t
	s.mu.Unlock()
	s.events.add(Event{Kind: "exit", ThreadID: t.ID, Detail: fmt.Sprintf("code=%d", t.ExitCode)})
	close(t.done)
}

func (s *Scheduler) removeReady(id int) {
	for i, r := range s.ready {
		if r.ID == id {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

// Join blocks the caller until the thread owning spaceID terminates,
// returning its exit code. If spaceID names no thread this scheduler ever
// forked (or one already purged by a root exit), it returns ok=false
// immediately — the normalized error return spec.md §4.5 recommends in
// place of blocking forever on a bad pid.
func (s *Scheduler) Join(spaceID int) (code int, ok bool) {
	s.mu.Lock()
	t := s.findBySpaceID(spaceID)
	s.mu.Unlock()
	if t == nil {
		return 0, false
	}
	<-t.done
	return t.ExitCode, true
}

func (s *Scheduler) findBySpaceID(spaceID int) *Thread {
	for _, t := range s.byID {
		if t.SpaceID == spaceID {
			return t
		}
	}
	return nil
}

// Yield voluntarily releases the CPU; with real goroutines underneath,
// runtime.Gosched is the idiomatic stand-in for "let another ready thread
// run" (spec.md §5 suspension point 3).
func (s *Scheduler) Yield() {
	runtime.Gosched()
}

// PurgeTerminated drops every terminated thread's record, the "root-process
// exit(code==99) purges the terminated-thread list" rule from spec.md
// §4.5's exit row. Joins issued against a purged pid afterward report
// ok=false rather than blocking.
func (s *Scheduler) PurgeTerminated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.terminated {
		delete(s.byID, id)
	}
	s.terminated = make(map[int]*Thread)
}

// Snapshot returns the current ready-list and terminated-list thread IDs,
// for introspection and tests.
func (s *Scheduler) Snapshot() (ready []int, terminated []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.ready {
		ready = append(ready, t.ID)
	}
	for id := range s.terminated {
		terminated = append(terminated, id)
	}
	return ready, terminated
}
