// Package shell holds the toolkit-independent state of the interactive
// window: the click slots, run controls, profiles and capture requests.
// All methods are safe to call from the UI thread; capture completions may
// arrive from timer goroutines and are guarded by the controller's mutex.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kodabkr/Multi-Clicker/internal/core/accent"
	"github.com/kodabkr/Multi-Clicker/internal/core/capture"
	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
	"github.com/kodabkr/Multi-Clicker/internal/profile"
)

const defaultEnabledSlots = 3

var (
	ErrDependencyMissing = errors.New("click dependency missing")
	ErrSlotOutOfRange    = errors.New("slot index out of range")
)

type Runner interface {
	Start(ctx context.Context, settings sequencer.RunSettings) error
	RequestStop()
	IsActive() bool
	Done() <-chan struct{}
	Err() error
	Laps() int
	Clicks() int
}

type ProfileStore interface {
	List() ([]string, error)
	Save(name string, p profile.Profile) error
	Load(name string) (profile.Profile, error)
	Delete(name string) error
}

type Capturer interface {
	Request(slot int, tick capture.TickFunc, done capture.DoneFunc) error
	Cancel(slot int)
	Stop()
}

type Slot struct {
	Enabled    bool
	Name       string
	Coords     *sequencer.Point
	ClicksText string
}

type Deps struct {
	Runner   Runner
	Store    ProfileStore
	Capturer Capturer
	Palette  *accent.Palette
	Logger   sequencer.Logger
	// DependencyErr is the result of the startup dependency check. When set,
	// the window still opens but runs are refused.
	DependencyErr error
}

type Controller struct {
	runner   Runner
	store    ProfileStore
	capturer Capturer
	palette  *accent.Palette
	logger   sequencer.Logger
	depErr   error

	mu        sync.Mutex
	slots     []Slot
	delayText string
	loop      bool
	// running is the user-facing state; pending stays set until the
	// worker's Done channel has been observed by Poll.
	running bool
	pending bool
}

func New(deps Deps) (*Controller, error) {
	switch {
	case deps.Runner == nil:
		return nil, fmt.Errorf("runner is nil")
	case deps.Store == nil:
		return nil, fmt.Errorf("profile store is nil")
	case deps.Capturer == nil:
		return nil, fmt.Errorf("capturer is nil")
	case deps.Palette == nil:
		return nil, fmt.Errorf("palette is nil")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is nil")
	}

	return &Controller{
		runner:    deps.Runner,
		store:     deps.Store,
		capturer:  deps.Capturer,
		palette:   deps.Palette,
		logger:    deps.Logger,
		depErr:    deps.DependencyErr,
		slots:     DefaultSlots(),
		delayText: profile.DefaultDelay,
		loop:      true,
	}, nil
}

func DefaultSlots() []Slot {
	slots := make([]Slot, sequencer.NumSlots)
	for i := range slots {
		slots[i] = Slot{Enabled: i < defaultEnabledSlots, ClicksText: profile.DefaultClicks}
	}
	return slots
}

func (c *Controller) Palette() *accent.Palette {
	return c.palette
}

func (c *Controller) Slots() []Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Slot, len(c.slots))
	for i, slot := range c.slots {
		out[i] = copySlot(slot)
	}
	return out
}

func (c *Controller) Slot(i int) (Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIndexLocked(i); err != nil {
		return Slot{}, err
	}
	return copySlot(c.slots[i]), nil
}

func (c *Controller) SetEnabled(i int, enabled bool) error {
	return c.updateSlot(i, func(s *Slot) { s.Enabled = enabled })
}

func (c *Controller) SetName(i int, name string) error {
	return c.updateSlot(i, func(s *Slot) { s.Name = name })
}

func (c *Controller) SetClicksText(i int, text string) error {
	return c.updateSlot(i, func(s *Slot) { s.ClicksText = text })
}

func (c *Controller) SetCoords(i int, p sequencer.Point) error {
	return c.updateSlot(i, func(s *Slot) { s.Coords = &p })
}

func (c *Controller) DelayText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delayText
}

func (c *Controller) SetDelayText(text string) {
	c.mu.Lock()
	c.delayText = text
	c.mu.Unlock()
}

func (c *Controller) Loop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loop
}

func (c *Controller) SetLoop(loop bool) {
	c.mu.Lock()
	c.loop = loop
	c.mu.Unlock()
}

func (c *Controller) SetAccent(hex string) error {
	return c.palette.Set(hex)
}

// BuildSettings validates the current inputs into an immutable snapshot.
func (c *Controller) BuildSettings() (sequencer.RunSettings, error) {
	c.mu.Lock()
	delayText := c.delayText
	loop := c.loop
	slots := make([]Slot, len(c.slots))
	copy(slots, c.slots)
	c.mu.Unlock()

	delay, err := sequencer.ParseDelay(delayText)
	if err != nil {
		return sequencer.RunSettings{}, err
	}

	points := make([]sequencer.ClickPoint, len(slots))
	for i, slot := range slots {
		points[i] = sequencer.ClickPoint{Enabled: slot.Enabled, Coords: slot.Coords, Name: slot.Name}
		if !slot.Enabled {
			continue
		}
		if slot.Coords == nil {
			return sequencer.RunSettings{}, &sequencer.ValidationError{Field: "position", Slot: i, Reason: "is not set"}
		}
		clicks, err := sequencer.ParseClicks(i, slot.ClicksText)
		if err != nil {
			return sequencer.RunSettings{}, err
		}
		points[i].Clicks = clicks
	}
	return sequencer.NewRunSettings(delay, loop, points)
}

func (c *Controller) CanStart() bool {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	return c.depErr == nil && !running && !c.runner.IsActive()
}

func (c *Controller) CanStop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Progress reports completed laps and dispatched click actions of the
// current or most recent run.
func (c *Controller) Progress() (laps, clicks int) {
	return c.runner.Laps(), c.runner.Clicks()
}

func (c *Controller) Running() bool {
	return c.CanStop()
}

func (c *Controller) Start(ctx context.Context) error {
	if c.depErr != nil {
		return fmt.Errorf("%w: %v", ErrDependencyMissing, c.depErr)
	}
	if !c.CanStart() {
		return sequencer.ErrAlreadyRunning
	}

	settings, err := c.BuildSettings()
	if err != nil {
		return err
	}
	if err := c.runner.Start(ctx, settings); err != nil {
		return err
	}

	c.mu.Lock()
	c.running = true
	c.pending = true
	c.mu.Unlock()
	c.logger.Info("Run started", "points", len(settings.Points), "loop", settings.Loop)
	return nil
}

// Stop requests the run to end. The run may finish its in-flight click
// before it is idle; CanStart stays false until then.
func (c *Controller) Stop() {
	c.runner.RequestStop()
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// Poll reports, once, that the run started by Start has ended, together
// with its terminal error. A click that fails after Stop was requested is
// still reported here. It never blocks.
func (c *Controller) Poll() (finished bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return false, nil
	}
	select {
	case <-c.runner.Done():
		c.running = false
		c.pending = false
		return true, c.runner.Err()
	default:
		return false, nil
	}
}

// HandleHotkey applies a hotkey action when the matching control is
// available. It reports whether the action was applied.
func (c *Controller) HandleHotkey(ctx context.Context, action hotkey.Action) (bool, error) {
	switch action {
	case hotkey.ActionStart:
		if !c.CanStart() {
			return false, nil
		}
		if err := c.Start(ctx); err != nil {
			return false, err
		}
		return true, nil
	case hotkey.ActionStop:
		if !c.CanStop() {
			return false, nil
		}
		c.Stop()
		return true, nil
	default:
		return false, nil
	}
}

func (c *Controller) Profiles() ([]string, error) {
	return c.store.List()
}

func (c *Controller) SaveProfile(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return profile.ErrInvalidName
	}

	c.mu.Lock()
	p := profile.Profile{
		Mode:        profile.ModeMulti,
		Delay:       c.delayText,
		Loop:        c.loop,
		AccentColor: c.palette.Hex(),
		Points:      make([]profile.Point, 0, len(c.slots)),
	}
	for _, slot := range c.slots {
		slot = copySlot(slot)
		p.Points = append(p.Points, profile.Point{
			Enabled: slot.Enabled,
			Name:    slot.Name,
			Coords:  slot.Coords,
			Clicks:  slot.ClicksText,
		})
	}
	c.mu.Unlock()

	if err := c.store.Save(name, p); err != nil {
		return err
	}
	c.logger.Info("Profile saved", "name", name)
	return nil
}

// LoadProfile resets every slot to its default and then applies the stored
// points to the slots they overlap.
func (c *Controller) LoadProfile(name string) error {
	p, err := c.store.Load(name)
	if err != nil {
		return err
	}

	if err := c.palette.Set(p.AccentColor); err != nil {
		c.logger.Warn("Profile accent colour ignored", "name", name, "err", err)
	}

	slots := DefaultSlots()
	for i, point := range p.Points {
		if i >= len(slots) {
			break
		}
		slots[i] = Slot{Enabled: point.Enabled, Name: point.Name, ClicksText: point.Clicks}
		if point.Coords != nil {
			coords := *point.Coords
			slots[i].Coords = &coords
		}
	}

	c.mu.Lock()
	c.delayText = p.Delay
	c.loop = p.Loop
	c.slots = slots
	c.mu.Unlock()

	c.logger.Info("Profile loaded", "name", name, "points", len(p.Points))
	return nil
}

func (c *Controller) DeleteProfile(name string) error {
	if err := c.store.Delete(name); err != nil {
		return err
	}
	c.logger.Info("Profile deleted", "name", name)
	return nil
}

// CaptureSlot starts a countdown capture for slot i. The sampled position
// is stored into the slot before done is called.
func (c *Controller) CaptureSlot(i int, tick capture.TickFunc, done func(Slot, error)) error {
	c.mu.Lock()
	err := c.checkIndexLocked(i)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.capturer.Request(i, tick, func(p sequencer.Point, err error) {
		if err != nil {
			c.logger.Warn("Position capture failed", "slot", i, "err", err)
			if done != nil {
				done(Slot{}, err)
			}
			return
		}
		c.mu.Lock()
		c.slots[i].Coords = &p
		slot := copySlot(c.slots[i])
		c.mu.Unlock()
		if done != nil {
			done(slot, nil)
		}
	})
}

func (c *Controller) Close() {
	c.runner.RequestStop()
	c.capturer.Stop()
}

func (c *Controller) updateSlot(i int, update func(*Slot)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIndexLocked(i); err != nil {
		return err
	}
	update(&c.slots[i])
	return nil
}

func (c *Controller) checkIndexLocked(i int) error {
	if i < 0 || i >= len(c.slots) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	return nil
}

func copySlot(slot Slot) Slot {
	if slot.Coords != nil {
		coords := *slot.Coords
		slot.Coords = &coords
	}
	return slot
}
