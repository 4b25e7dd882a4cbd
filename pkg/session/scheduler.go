package session

import (
	"sync"
	"time"
)

// Clock abstracts timer creation so tests can drive readiness deadlines
// without sleeping.
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// TimerKind names the one-shot timers the session arms.
type TimerKind int

const (
	// TimerProbe debounces output-based readiness detection.
	TimerProbe TimerKind = iota
	// TimerFallback assumes readiness after a fixed delay when the process
	// produces no early output.
	TimerFallback
)

// Scheduler arms at most one outstanding timer per kind. A timer clears its
// slot before running its callback, so the callback may re-arm.
type Scheduler struct {
	mu    sync.Mutex
	clock Clock
	armed map[TimerKind]bool
}

// NewScheduler creates a scheduler backed by the given clock; nil means the
// real time package.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	return &Scheduler{
		clock: clock,
		armed: make(map[TimerKind]bool),
	}
}

// Schedule arms a timer of the given kind unless one is already
// outstanding. It reports whether a new timer was armed.
func (s *Scheduler) Schedule(kind TimerKind, d time.Duration, f func()) bool {
	s.mu.Lock()
	if s.armed[kind] {
		s.mu.Unlock()
		return false
	}
	s.armed[kind] = true
	s.mu.Unlock()

	s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.armed, kind)
		s.mu.Unlock()
		f()
	})
	return true
}

// Armed reports whether a timer of the given kind is outstanding.
func (s *Scheduler) Armed(kind TimerKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed[kind]
}
