package sequencer

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("sequencer is already running")
	ErrEmptySequence  = errors.New("no points were enabled in the sequence")
)

// ValidationError reports user input that cannot form a RunSettings value.
// Slot is -1 for settings that are not tied to a click slot.
type ValidationError struct {
	Field  string
	Slot   int
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Slot >= 0 {
		return fmt.Sprintf("point #%d %s: %s", e.Slot+1, e.Field, e.Reason)
	}
	if e.Value != "" {
		return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ClickError is the terminal error of a run whose external click action
// failed. Index is the position inside RunSettings.Points.
type ClickError struct {
	Index int
	Point ClickPoint
	Err   error
}

func (e *ClickError) Error() string {
	coords := "unset"
	if e.Point.Coords != nil {
		coords = e.Point.Coords.String()
	}
	return fmt.Sprintf("click %d at %s failed: %v", e.Index+1, coords, e.Err)
}

func (e *ClickError) Unwrap() error {
	return e.Err
}
