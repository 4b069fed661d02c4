// Package capture samples the pointer position for a click slot after a
// short countdown. A later request for the same slot replaces any pending
// countdown for that slot.
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const (
	DefaultStep = time.Second
	Countdown   = 3
)

type Sampler interface {
	Position() (x, y int, err error)
}

type SamplerFunc func() (int, int, error)

func (f SamplerFunc) Position() (int, int, error) {
	return f()
}

// TickFunc receives the remaining whole steps before sampling (3, 2, 1).
type TickFunc func(remaining int)

type DoneFunc func(point sequencer.Point, err error)

type Scheduler struct {
	sampler Sampler
	step    time.Duration

	mu      sync.Mutex
	pending map[int]*request
	gen     uint64
	stopped bool
}

type request struct {
	gen    uint64
	timers []*time.Timer
}

func NewScheduler(sampler Sampler, step time.Duration) (*Scheduler, error) {
	if sampler == nil {
		return nil, fmt.Errorf("sampler is nil")
	}
	if step <= 0 {
		step = DefaultStep
	}
	return &Scheduler{
		sampler: sampler,
		step:    step,
		pending: make(map[int]*request),
	}, nil
}

// Request schedules Countdown ticks one step apart followed by a sample at
// Countdown steps. Callbacks run on timer goroutines.
func (s *Scheduler) Request(slot int, tick TickFunc, done DoneFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("capture scheduler is stopped")
	}
	s.cancelLocked(slot)

	s.gen++
	req := &request{gen: s.gen}
	for i := 0; i < Countdown; i++ {
		remaining := Countdown - i
		req.timers = append(req.timers, time.AfterFunc(time.Duration(i)*s.step, func() {
			if !s.isCurrent(slot, req.gen) {
				return
			}
			if tick != nil {
				tick(remaining)
			}
		}))
	}
	req.timers = append(req.timers, time.AfterFunc(time.Duration(Countdown)*s.step, func() {
		if !s.finish(slot, req.gen) {
			return
		}
		x, y, err := s.sampler.Position()
		if done != nil {
			done(sequencer.Point{X: x, Y: y}, err)
		}
	}))
	s.pending[slot] = req
	return nil
}

func (s *Scheduler) Cancel(slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(slot)
}

func (s *Scheduler) Pending(slot int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[slot]
	return ok
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := range s.pending {
		s.cancelLocked(slot)
	}
	s.stopped = true
}

func (s *Scheduler) cancelLocked(slot int) {
	req, ok := s.pending[slot]
	if !ok {
		return
	}
	for _, timer := range req.timers {
		timer.Stop()
	}
	delete(s.pending, slot)
}

func (s *Scheduler) isCurrent(slot int, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[slot]
	return ok && req.gen == gen
}

// finish claims the final sample for gen. It fails when the request was
// superseded or cancelled after its timer already fired.
func (s *Scheduler) finish(slot int, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[slot]
	if !ok || req.gen != gen {
		return false
	}
	delete(s.pending, slot)
	return true
}
