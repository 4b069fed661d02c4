// Package accent keeps the user's accent colour and notifies observers when
// it changes.
package accent

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

const DefaultHex = "#1F6AA5"

// Colors is the accent plus the shades derived from it.
type Colors struct {
	Hex     string
	Accent  color.NRGBA
	Hover   color.NRGBA
	Pressed color.NRGBA
	Focus   color.NRGBA
}

type Observer func(Colors)

type Palette struct {
	mu        sync.RWMutex
	colors    Colors
	observers map[uint64]Observer
	nextID    uint64
}

func New(hex string) (*Palette, error) {
	colors, err := Derive(hex)
	if err != nil {
		return nil, err
	}
	return &Palette{colors: colors, observers: make(map[uint64]Observer)}, nil
}

// Derive parses a "#rrggbb" (or "#rgb") string and computes the derived shades.
func Derive(hex string) (Colors, error) {
	raw := strings.TrimSpace(hex)
	if raw != "" && !strings.HasPrefix(raw, "#") {
		raw = "#" + raw
	}
	base, err := colorful.Hex(raw)
	if err != nil {
		return Colors{}, fmt.Errorf("invalid accent colour %q: %w", hex, err)
	}

	h, s, l := base.Hsl()
	lighter := colorful.Hsl(h, s, clampUnit(l+0.10)).Clamped()
	darker := colorful.Hsl(h, s, clampUnit(l-0.10)).Clamped()

	focus := toNRGBA(base)
	focus.A = 0x66
	return Colors{
		Hex:     strings.ToUpper(base.Hex()),
		Accent:  toNRGBA(base),
		Hover:   toNRGBA(lighter),
		Pressed: toNRGBA(darker),
		Focus:   focus,
	}, nil
}

// HexOf converts a colour picked in the UI to the "#RRGGBB" form Set
// accepts. It reports false for fully transparent colours.
func HexOf(c color.Color) (string, bool) {
	col, ok := colorful.MakeColor(c)
	if !ok {
		return "", false
	}
	return strings.ToUpper(col.Clamped().Hex()), true
}

func (p *Palette) Colors() Colors {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.colors
}

func (p *Palette) Hex() string {
	return p.Colors().Hex
}

// Set changes the accent colour. Observers are notified once, after the
// change, and only when the colour actually changed.
func (p *Palette) Set(hex string) error {
	colors, err := Derive(hex)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if colors.Hex == p.colors.Hex {
		p.mu.Unlock()
		return nil
	}
	p.colors = colors
	observers := p.snapshotLocked()
	p.mu.Unlock()

	for _, observer := range observers {
		observer(colors)
	}
	return nil
}

// Subscribe registers observer and returns a func that removes it.
func (p *Palette) Subscribe(observer Observer) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.observers[id] = observer
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}

func (p *Palette) snapshotLocked() []Observer {
	ids := make([]uint64, 0, len(p.observers))
	for id := range p.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.observers[id])
	}
	return out
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
