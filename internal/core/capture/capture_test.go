package capture

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

type result struct {
	point sequencer.Point
	err   error
}

type tickLog struct {
	mu    sync.Mutex
	ticks []int
}

func (l *tickLog) add(remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ticks = append(l.ticks, remaining)
}

func (l *tickLog) snapshot() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, len(l.ticks))
	copy(out, l.ticks)
	return out
}

func newTestScheduler(t *testing.T, sampler Sampler) *Scheduler {
	t.Helper()
	s, err := NewScheduler(sampler, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestRequestTicksThenSamples(t *testing.T) {
	s := newTestScheduler(t, SamplerFunc(func() (int, int, error) { return 640, 480, nil }))

	ticks := &tickLog{}
	done := make(chan result, 1)
	if err := s.Request(2, ticks.add, func(p sequencer.Point, err error) {
		done <- result{point: p, err: err}
	}); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("sample error = %v", res.err)
		}
		if res.point != (sequencer.Point{X: 640, Y: 480}) {
			t.Fatalf("sample = %+v, want (640, 480)", res.point)
		}
	case <-time.After(time.Second):
		t.Fatalf("capture did not complete")
	}

	got := ticks.snapshot()
	want := []int{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("ticks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ticks = %v, want %v", got, want)
		}
	}
	if s.Pending(2) {
		t.Fatalf("slot should not be pending after completion")
	}
}

func TestLaterRequestForSameSlotWins(t *testing.T) {
	var calls atomic.Int32
	s := newTestScheduler(t, SamplerFunc(func() (int, int, error) {
		n := calls.Add(1)
		return int(n), int(n), nil
	}))

	first := make(chan result, 1)
	second := make(chan result, 1)
	if err := s.Request(0, nil, func(p sequencer.Point, err error) { first <- result{p, err} }); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if err := s.Request(0, nil, func(p sequencer.Point, err error) { second <- result{p, err} }); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatalf("second capture did not complete")
	}
	time.Sleep(60 * time.Millisecond)

	select {
	case res := <-first:
		t.Fatalf("superseded capture completed with %+v", res)
	default:
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("sampler called %d times, want 1", got)
	}
}

func TestRequestsForDifferentSlotsAreIndependent(t *testing.T) {
	s := newTestScheduler(t, SamplerFunc(func() (int, int, error) { return 1, 2, nil }))

	var wg sync.WaitGroup
	wg.Add(2)
	for _, slot := range []int{0, 1} {
		if err := s.Request(slot, nil, func(sequencer.Point, error) { wg.Done() }); err != nil {
			t.Fatalf("Request(%d) error = %v", slot, err)
		}
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("captures for distinct slots did not both complete")
	}
}

func TestCancelDropsPendingCapture(t *testing.T) {
	s := newTestScheduler(t, SamplerFunc(func() (int, int, error) { return 1, 1, nil }))

	done := make(chan struct{}, 1)
	if err := s.Request(4, nil, func(sequencer.Point, error) { done <- struct{}{} }); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if !s.Pending(4) {
		t.Fatalf("expected slot 4 to be pending")
	}
	s.Cancel(4)

	select {
	case <-done:
		t.Fatalf("cancelled capture completed")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestSamplerErrorIsDelivered(t *testing.T) {
	sampleErr := errors.New("no display")
	s := newTestScheduler(t, SamplerFunc(func() (int, int, error) { return 0, 0, sampleErr }))

	done := make(chan error, 1)
	if err := s.Request(0, nil, func(_ sequencer.Point, err error) { done <- err }); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, sampleErr) {
			t.Fatalf("done error = %v, want %v", err, sampleErr)
		}
	case <-time.After(time.Second):
		t.Fatalf("capture did not complete")
	}
}

func TestRequestAfterStopFails(t *testing.T) {
	s := newTestScheduler(t, SamplerFunc(func() (int, int, error) { return 0, 0, nil }))
	s.Stop()
	if err := s.Request(0, nil, nil); err == nil {
		t.Fatalf("expected Request() to fail after Stop()")
	}
}
