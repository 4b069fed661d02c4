package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kodabkr/Multi-Clicker/internal/core/accent"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const (
	ModeMulti     = "Multi"
	DefaultDelay  = "0.1"
	DefaultClicks = "1"
)

// Profile is a named click configuration as it is kept on disk. Delay and
// click counts stay in their entered text form so a profile restores the
// inputs exactly as the user typed them.
type Profile struct {
	Mode        string
	Delay       string
	Loop        bool
	AccentColor string
	Points      []Point
}

type Point struct {
	Enabled bool
	Name    string
	Coords  *sequencer.Point
	Clicks  string
}

type fileProfile struct {
	Mode        string      `json:"mode"`
	Delay       *flexString `json:"delay"`
	Loop        *flexBool   `json:"loop"`
	AccentColor string      `json:"accent_color"`
	Points      []filePoint `json:"points"`
}

type filePoint struct {
	Enabled *flexBool   `json:"enabled"`
	Name    string      `json:"name"`
	Coords  []float64   `json:"coords"`
	Clicks  *flexString `json:"clicks"`
}

func Encode(p Profile) ([]byte, error) {
	mode := p.Mode
	if mode == "" {
		mode = ModeMulti
	}
	accentColor := p.AccentColor
	if accentColor == "" {
		accentColor = accent.DefaultHex
	}
	delay := flexString(p.Delay)
	loop := flexBool(p.Loop)

	out := fileProfile{
		Mode:        mode,
		Delay:       &delay,
		Loop:        &loop,
		AccentColor: accentColor,
		Points:      make([]filePoint, 0, len(p.Points)),
	}
	for _, point := range p.Points {
		enabled := flexBool(point.Enabled)
		clicks := flexString(point.Clicks)
		fp := filePoint{Enabled: &enabled, Name: point.Name, Clicks: &clicks}
		if point.Coords != nil {
			fp.Coords = []float64{float64(point.Coords.X), float64(point.Coords.Y)}
		}
		out.Points = append(out.Points, fp)
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode reads a profile document. Absent fields take the same defaults a
// fresh window starts with.
func Decode(data []byte) (Profile, error) {
	var in fileProfile
	if err := json.Unmarshal(data, &in); err != nil {
		return Profile{}, err
	}

	p := Profile{
		Mode:        in.Mode,
		Delay:       DefaultDelay,
		Loop:        true,
		AccentColor: in.AccentColor,
		Points:      make([]Point, 0, len(in.Points)),
	}
	if p.Mode == "" {
		p.Mode = ModeMulti
	}
	if p.AccentColor == "" {
		p.AccentColor = accent.DefaultHex
	}
	if in.Delay != nil {
		p.Delay = string(*in.Delay)
	}
	if in.Loop != nil {
		p.Loop = bool(*in.Loop)
	}

	for i, fp := range in.Points {
		point := Point{Name: fp.Name, Clicks: DefaultClicks}
		if fp.Enabled != nil {
			point.Enabled = bool(*fp.Enabled)
		}
		if fp.Clicks != nil {
			point.Clicks = string(*fp.Clicks)
		}
		if fp.Coords != nil {
			if len(fp.Coords) != 2 {
				return Profile{}, fmt.Errorf("point %d: coords must hold exactly x and y, got %d values", i, len(fp.Coords))
			}
			point.Coords = &sequencer.Point{
				X: int(math.Round(fp.Coords[0])),
				Y: int(math.Round(fp.Coords[1])),
			}
		}
		p.Points = append(p.Points, point)
	}
	return p, nil
}

// flexBool is written as 0/1 and read from 0/1, true/false or their string forms.
type flexBool bool

func (b flexBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(raw) {
	case "1", "true":
		*b = true
		return nil
	case "0", "false", "", "null":
		*b = false
		return nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		*b = n != 0
		return nil
	}
	return fmt.Errorf("invalid flag value %s", data)
}

// flexString is written as a string and read from a string or a number.
type flexString string

func (s flexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*s = flexString(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("invalid text value %s", data)
	}
	*s = flexString(number.String())
	return nil
}
