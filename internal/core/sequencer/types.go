package sequencer

import (
	"fmt"
	"time"
)

const (
	NumSlots     = 20
	DefaultDelay = 100 * time.Millisecond
)

type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

type ClickPoint struct {
	Enabled bool
	Coords  *Point
	Clicks  int
	Name    string
}

type RunSettings struct {
	Delay  time.Duration
	Loop   bool
	Points []ClickPoint
}

// Clicker performs one external click action. Implementations block until
// the action has finished.
type Clicker interface {
	Click(x, y, clicks int) error
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
