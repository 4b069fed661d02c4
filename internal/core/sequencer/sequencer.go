package sequencer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Sequencer dispatches click actions for one RunSettings snapshot at a time
// on a goroutine created fresh for every run.
type Sequencer struct {
	clicker Clicker
	logger  Logger

	mu      sync.Mutex
	current *run
}

type run struct {
	settings RunSettings
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	laps     atomic.Int64
	clicks   atomic.Int64

	// err is written once before done is closed.
	err error
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func New(clicker Clicker, logger Logger) (*Sequencer, error) {
	if clicker == nil {
		return nil, fmt.Errorf("clicker is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Sequencer{clicker: clicker, logger: logger}, nil
}

func (s *Sequencer) Start(ctx context.Context, settings RunSettings) error {
	if !hasDispatchablePoint(settings.Points) {
		return ErrEmptySequence
	}
	if settings.Delay <= 0 {
		return &ValidationError{Field: "delay", Slot: -1, Reason: "must be greater than zero"}
	}
	if err := checkClickCounts(settings.Points); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !isClosed(s.current.done) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		settings: settings,
		ctx:      runCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.current = r

	s.logger.Info("Sequence started", "points", len(settings.Points), "delay", settings.Delay, "loop", settings.Loop)
	go s.loop(r)
	return nil
}

// RequestStop asks the running sequence to stop at the next point or lap
// boundary. A click that is already being performed is not interrupted.
func (s *Sequencer) RequestStop() {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r != nil {
		r.cancel()
	}
}

func (s *Sequencer) IsActive() bool {
	return !isClosed(s.Done())
}

func (s *Sequencer) State() State {
	r := s.currentRun()
	if r == nil || isClosed(r.done) {
		return StateIdle
	}
	if r.ctx.Err() != nil {
		return StateStopping
	}
	return StateRunning
}

// Done returns a channel closed when the current or most recent run has
// finished. It is already closed when no run was ever started.
func (s *Sequencer) Done() <-chan struct{} {
	r := s.currentRun()
	if r == nil {
		return closedDone
	}
	return r.done
}

// Err returns the terminal error of the most recent run once it finished.
// It is nil while a run is active, after a natural finish and after a
// requested stop.
func (s *Sequencer) Err() error {
	r := s.currentRun()
	if r == nil || !isClosed(r.done) {
		return nil
	}
	return r.err
}

func (s *Sequencer) Wait(ctx context.Context) error {
	select {
	case <-s.Done():
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Laps counts fully completed passes over the sequence.
func (s *Sequencer) Laps() int {
	if r := s.currentRun(); r != nil {
		return int(r.laps.Load())
	}
	return 0
}

func (s *Sequencer) Clicks() int {
	if r := s.currentRun(); r != nil {
		return int(r.clicks.Load())
	}
	return 0
}

func (s *Sequencer) currentRun() *run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Sequencer) loop(r *run) {
	defer close(r.done)
	defer r.cancel()

	settings := r.settings
	for {
		for i, point := range settings.Points {
			if r.ctx.Err() != nil {
				s.logger.Info("Sequence stopped", "laps", r.laps.Load())
				return
			}
			if !point.Enabled || point.Coords == nil {
				continue
			}

			s.logger.Debug("Click", "index", i, "x", point.Coords.X, "y", point.Coords.Y, "clicks", point.Clicks)
			if err := s.clicker.Click(point.Coords.X, point.Coords.Y, point.Clicks); err != nil {
				r.err = &ClickError{Index: i, Point: point, Err: err}
				s.logger.Error("Click action failed, aborting sequence", "index", i, "err", err)
				return
			}
			r.clicks.Add(1)

			if !sleepWithContext(r.ctx, settings.Delay) {
				s.logger.Info("Sequence stopped", "laps", r.laps.Load())
				return
			}
		}

		r.laps.Add(1)
		if !settings.Loop {
			s.logger.Info("Sequence finished", "laps", r.laps.Load())
			return
		}
	}
}

func hasDispatchablePoint(points []ClickPoint) bool {
	for _, point := range points {
		if point.Enabled && point.Coords != nil {
			return true
		}
	}
	return false
}

func checkClickCounts(points []ClickPoint) error {
	for i, point := range points {
		if point.Enabled && point.Clicks < 1 {
			return &ValidationError{Field: "clicks", Slot: i, Value: strconv.Itoa(point.Clicks), Reason: "must be at least 1"}
		}
	}
	return nil
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
