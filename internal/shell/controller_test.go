package shell

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kodabkr/Multi-Clicker/internal/core/accent"
	"github.com/kodabkr/Multi-Clicker/internal/core/capture"
	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
	"github.com/kodabkr/Multi-Clicker/internal/profile"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type recordingClicker struct {
	mu    sync.Mutex
	calls []sequencer.Point
	err   error
	// When set, Click signals entered and then waits for release.
	entered chan struct{}
	release chan struct{}
}

func (r *recordingClicker) Click(x, y, _ int) error {
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sequencer.Point{X: x, Y: y})
	return r.err
}

func (r *recordingClicker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fixture struct {
	ctrl    *Controller
	clicker *recordingClicker
	store   *profile.Store
	seq     *sequencer.Sequencer
}

func newFixture(t *testing.T, depErr error) *fixture {
	t.Helper()

	clicker := &recordingClicker{}
	seq, err := sequencer.New(clicker, noopLogger{})
	if err != nil {
		t.Fatalf("sequencer.New() error = %v", err)
	}
	store, err := profile.NewStore(filepath.Join(t.TempDir(), "configs"))
	if err != nil {
		t.Fatalf("profile.NewStore() error = %v", err)
	}
	scheduler, err := capture.NewScheduler(capture.SamplerFunc(func() (int, int, error) {
		return 321, 654, nil
	}), 5*time.Millisecond)
	if err != nil {
		t.Fatalf("capture.NewScheduler() error = %v", err)
	}
	palette, err := accent.New(accent.DefaultHex)
	if err != nil {
		t.Fatalf("accent.New() error = %v", err)
	}

	ctrl, err := New(Deps{
		Runner:        seq,
		Store:         store,
		Capturer:      scheduler,
		Palette:       palette,
		Logger:        noopLogger{},
		DependencyErr: depErr,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(ctrl.Close)
	return &fixture{ctrl: ctrl, clicker: clicker, store: store, seq: seq}
}

func (f *fixture) configureTwoPoints(t *testing.T) {
	t.Helper()
	for i := range f.ctrl.Slots() {
		if err := f.ctrl.SetEnabled(i, false); err != nil {
			t.Fatalf("SetEnabled() error = %v", err)
		}
	}
	mustNoErr(t, f.ctrl.SetEnabled(0, true))
	mustNoErr(t, f.ctrl.SetCoords(0, sequencer.Point{X: 100, Y: 200}))
	mustNoErr(t, f.ctrl.SetClicksText(0, "2"))
	mustNoErr(t, f.ctrl.SetEnabled(2, true))
	mustNoErr(t, f.ctrl.SetCoords(2, sequencer.Point{X: 300, Y: 400}))
	f.ctrl.SetDelayText("0.01")
	f.ctrl.SetLoop(false)
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func pollUntilFinished(t *testing.T, ctrl *Controller) error {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if finished, err := ctrl.Poll(); finished {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run did not finish")
	return nil
}

func TestDefaultSlots(t *testing.T) {
	f := newFixture(t, nil)
	slots := f.ctrl.Slots()
	if len(slots) != sequencer.NumSlots {
		t.Fatalf("got %d slots, want %d", len(slots), sequencer.NumSlots)
	}
	for i, slot := range slots {
		if slot.Enabled != (i < 3) || slot.Coords != nil || slot.ClicksText != "1" {
			t.Fatalf("slot %d default = %+v", i, slot)
		}
	}
	if f.ctrl.DelayText() != "0.1" || !f.ctrl.Loop() {
		t.Fatalf("unexpected default run controls")
	}
}

func TestStartRunsSingleLapAndPollDetectsCompletion(t *testing.T) {
	f := newFixture(t, nil)
	f.configureTwoPoints(t)

	if err := f.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !f.ctrl.CanStop() || f.ctrl.CanStart() {
		t.Fatalf("controls should flip while running")
	}

	if err := pollUntilFinished(t, f.ctrl); err != nil {
		t.Fatalf("run finished with error %v", err)
	}
	if got := f.clicker.count(); got != 2 {
		t.Fatalf("got %d clicks, want 2", got)
	}
	if laps, clicks := f.ctrl.Progress(); laps != 1 || clicks != 2 {
		t.Fatalf("Progress() = (%d, %d), want (1, 2)", laps, clicks)
	}
	if !f.ctrl.CanStart() || f.ctrl.CanStop() {
		t.Fatalf("controls should reset after completion")
	}
	if finished, _ := f.ctrl.Poll(); finished {
		t.Fatalf("completion must be reported only once")
	}
}

func TestStartValidationErrors(t *testing.T) {
	f := newFixture(t, nil)

	// Slots 0..2 are enabled by default without positions.
	err := f.ctrl.Start(context.Background())
	var verr *sequencer.ValidationError
	if !errors.As(err, &verr) || verr.Field != "position" || verr.Slot != 0 {
		t.Fatalf("Start() error = %v, want position error for slot 0", err)
	}

	f.configureTwoPoints(t)
	f.ctrl.SetDelayText("fast")
	if err := f.ctrl.Start(context.Background()); !errors.As(err, &verr) || verr.Field != "delay" {
		t.Fatalf("Start() error = %v, want delay error", err)
	}

	f.ctrl.SetDelayText("0.1")
	mustNoErr(t, f.ctrl.SetClicksText(2, "two"))
	if err := f.ctrl.Start(context.Background()); !errors.As(err, &verr) || verr.Slot != 2 {
		t.Fatalf("Start() error = %v, want clicks error for slot 2", err)
	}

	for i := range f.ctrl.Slots() {
		mustNoErr(t, f.ctrl.SetEnabled(i, false))
	}
	if err := f.ctrl.Start(context.Background()); !errors.Is(err, sequencer.ErrEmptySequence) {
		t.Fatalf("Start() error = %v, want ErrEmptySequence", err)
	}
	if f.seq.IsActive() || f.clicker.count() != 0 {
		t.Fatalf("no run may start after validation failures")
	}
}

func TestStartRefusedWhenDependencyMissing(t *testing.T) {
	f := newFixture(t, errors.New("AutoHotkey64.exe not found"))
	f.configureTwoPoints(t)

	if f.ctrl.CanStart() {
		t.Fatalf("CanStart() should be false without the click dependency")
	}
	if err := f.ctrl.Start(context.Background()); !errors.Is(err, ErrDependencyMissing) {
		t.Fatalf("Start() error = %v, want ErrDependencyMissing", err)
	}
}

func TestPollReportsClickFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.configureTwoPoints(t)
	f.clicker.err = errors.New("exit status 1")

	mustNoErr(t, f.ctrl.Start(context.Background()))
	err := pollUntilFinished(t, f.ctrl)
	var clickErr *sequencer.ClickError
	if !errors.As(err, &clickErr) {
		t.Fatalf("Poll() error = %v, want *ClickError", err)
	}
}

func TestPollReportsClickFailureAfterStop(t *testing.T) {
	f := newFixture(t, nil)
	f.configureTwoPoints(t)
	f.clicker.err = errors.New("exit status 1")
	f.clicker.entered = make(chan struct{}, 1)
	f.clicker.release = make(chan struct{})

	mustNoErr(t, f.ctrl.Start(context.Background()))
	select {
	case <-f.clicker.entered:
	case <-time.After(time.Second):
		t.Fatalf("click was not dispatched")
	}

	f.ctrl.Stop()
	if f.ctrl.CanStop() {
		t.Fatalf("CanStop() should be false once stop is requested")
	}
	if f.ctrl.CanStart() {
		t.Fatalf("CanStart() should stay false while the click is in flight")
	}
	if finished, _ := f.ctrl.Poll(); finished {
		t.Fatalf("Poll() reported completion while the click is in flight")
	}

	close(f.clicker.release)
	err := pollUntilFinished(t, f.ctrl)
	var clickErr *sequencer.ClickError
	if !errors.As(err, &clickErr) || clickErr.Index != 0 {
		t.Fatalf("Poll() error = %v, want *ClickError for slot 0", err)
	}
	if finished, _ := f.ctrl.Poll(); finished {
		t.Fatalf("failure must be reported only once")
	}
	if !f.ctrl.CanStart() {
		t.Fatalf("CanStart() should be true after the failed run")
	}
}

func TestHotkeysRespectControlState(t *testing.T) {
	f := newFixture(t, nil)
	f.configureTwoPoints(t)
	f.ctrl.SetLoop(true)

	if applied, _ := f.ctrl.HandleHotkey(context.Background(), hotkey.ActionStop); applied {
		t.Fatalf("stop hotkey applied while idle")
	}
	applied, err := f.ctrl.HandleHotkey(context.Background(), hotkey.ActionStart)
	if err != nil || !applied {
		t.Fatalf("start hotkey = %v, %v, want applied", applied, err)
	}
	if applied, _ := f.ctrl.HandleHotkey(context.Background(), hotkey.ActionStart); applied {
		t.Fatalf("start hotkey applied while running")
	}
	if applied, _ := f.ctrl.HandleHotkey(context.Background(), hotkey.ActionStop); !applied {
		t.Fatalf("stop hotkey not applied while running")
	}

	select {
	case <-f.seq.Done():
	case <-time.After(time.Second):
		t.Fatalf("sequencer did not stop")
	}
	if !f.ctrl.CanStart() {
		t.Fatalf("CanStart() should be true once the worker is idle")
	}
}

func TestProfileSaveLoadRestoresSlots(t *testing.T) {
	f := newFixture(t, nil)
	f.configureTwoPoints(t)
	mustNoErr(t, f.ctrl.SetName(0, "first"))
	mustNoErr(t, f.ctrl.SetAccent("#FF6666"))

	mustNoErr(t, f.ctrl.SaveProfile("work"))

	mustNoErr(t, f.ctrl.SetCoords(0, sequencer.Point{X: 1, Y: 1}))
	f.ctrl.SetDelayText("3")
	mustNoErr(t, f.ctrl.SetAccent(accent.DefaultHex))

	mustNoErr(t, f.ctrl.LoadProfile("work"))

	slot, err := f.ctrl.Slot(0)
	mustNoErr(t, err)
	if slot.Name != "first" || slot.Coords == nil || *slot.Coords != (sequencer.Point{X: 100, Y: 200}) || slot.ClicksText != "2" {
		t.Fatalf("slot 0 after load = %+v", slot)
	}
	if f.ctrl.DelayText() != "0.01" || f.ctrl.Loop() {
		t.Fatalf("run controls not restored")
	}
	if f.ctrl.Palette().Hex() != "#FF6666" {
		t.Fatalf("accent = %q, want #FF6666", f.ctrl.Palette().Hex())
	}

	names, err := f.ctrl.Profiles()
	mustNoErr(t, err)
	if len(names) != 1 || names[0] != "work" {
		t.Fatalf("Profiles() = %v", names)
	}

	mustNoErr(t, f.ctrl.DeleteProfile("work"))
	var perr *profile.PersistenceError
	if err := f.ctrl.DeleteProfile("work"); !errors.As(err, &perr) {
		t.Fatalf("DeleteProfile(missing) error = %v, want *PersistenceError", err)
	}
}

func TestLoadProfileWithFewerPointsKeepsDefaults(t *testing.T) {
	f := newFixture(t, nil)
	err := f.store.Save("short", profile.Profile{
		Delay: "0.5",
		Loop:  true,
		Points: []profile.Point{
			{Enabled: false, Coords: &sequencer.Point{X: 5, Y: 6}, Clicks: "4"},
		},
	})
	mustNoErr(t, err)

	mustNoErr(t, f.ctrl.SetCoords(1, sequencer.Point{X: 9, Y: 9}))
	mustNoErr(t, f.ctrl.LoadProfile("short"))

	slots := f.ctrl.Slots()
	if slots[0].Enabled || slots[0].ClicksText != "4" || *slots[0].Coords != (sequencer.Point{X: 5, Y: 6}) {
		t.Fatalf("slot 0 = %+v", slots[0])
	}
	if !slots[1].Enabled || slots[1].Coords != nil || slots[1].ClicksText != "1" {
		t.Fatalf("slot 1 should be back to defaults, got %+v", slots[1])
	}
}

func TestLoadProfileWithMorePointsFillsEverySlot(t *testing.T) {
	f := newFixture(t, nil)
	long := profile.Profile{Delay: "0.1", Points: make([]profile.Point, 25)}
	for i := range long.Points {
		long.Points[i] = profile.Point{Enabled: true, Name: fmt.Sprintf("p%d", i), Clicks: "2", Coords: &sequencer.Point{X: i, Y: i * 10}}
	}
	mustNoErr(t, f.store.Save("long", long))
	mustNoErr(t, f.ctrl.LoadProfile("long"))

	slots := f.ctrl.Slots()
	if len(slots) != sequencer.NumSlots {
		t.Fatalf("slot count changed to %d", len(slots))
	}
	for i, slot := range slots {
		want := sequencer.Point{X: i, Y: i * 10}
		if !slot.Enabled || slot.Name != fmt.Sprintf("p%d", i) || slot.ClicksText != "2" || slot.Coords == nil || *slot.Coords != want {
			t.Fatalf("slot %d = %+v, want point %v", i, slot, want)
		}
	}
	if _, err := f.ctrl.BuildSettings(); err != nil {
		t.Fatalf("BuildSettings() after long profile error = %v", err)
	}
}

func TestLoadMissingProfileLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.SetDelayText("0.7")
	var perr *profile.PersistenceError
	if err := f.ctrl.LoadProfile("missing"); !errors.As(err, &perr) {
		t.Fatalf("LoadProfile() error = %v, want *PersistenceError", err)
	}
	if f.ctrl.DelayText() != "0.7" {
		t.Fatalf("state changed after failed load")
	}
}

func TestCaptureSlotStoresPosition(t *testing.T) {
	f := newFixture(t, nil)

	done := make(chan Slot, 1)
	var ticks []int
	var mu sync.Mutex
	err := f.ctrl.CaptureSlot(4, func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func(slot Slot, err error) {
		if err != nil {
			t.Errorf("capture error = %v", err)
		}
		done <- slot
	})
	mustNoErr(t, err)

	select {
	case slot := <-done:
		if slot.Coords == nil || *slot.Coords != (sequencer.Point{X: 321, Y: 654}) {
			t.Fatalf("captured slot = %+v", slot)
		}
	case <-time.After(time.Second):
		t.Fatalf("capture did not complete")
	}

	stored, err := f.ctrl.Slot(4)
	mustNoErr(t, err)
	if stored.Coords == nil || stored.Coords.X != 321 {
		t.Fatalf("slot 4 = %+v, want captured coordinates", stored)
	}

	if err := f.ctrl.CaptureSlot(sequencer.NumSlots, nil, nil); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("CaptureSlot(out of range) error = %v", err)
	}
}
