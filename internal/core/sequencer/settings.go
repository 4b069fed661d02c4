package sequencer

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NewRunSettings snapshots the enabled slots in order. Every enabled slot
// must carry coordinates and a positive click count.
func NewRunSettings(delay time.Duration, loop bool, slots []ClickPoint) (RunSettings, error) {
	if delay <= 0 {
		return RunSettings{}, &ValidationError{Field: "delay", Slot: -1, Reason: "must be greater than zero"}
	}

	points := make([]ClickPoint, 0, len(slots))
	for i, slot := range slots {
		if !slot.Enabled {
			continue
		}
		if slot.Coords == nil {
			return RunSettings{}, &ValidationError{Field: "position", Slot: i, Reason: "is not set"}
		}
		if slot.Clicks < 1 {
			return RunSettings{}, &ValidationError{
				Field:  "clicks",
				Slot:   i,
				Value:  strconv.Itoa(slot.Clicks),
				Reason: "must be at least 1",
			}
		}
		coords := *slot.Coords
		slot.Coords = &coords
		points = append(points, slot)
	}
	if len(points) == 0 {
		return RunSettings{}, ErrEmptySequence
	}

	return RunSettings{Delay: delay, Loop: loop, Points: points}, nil
}

// maxDelaySeconds is the first value whose nanosecond count no longer fits
// a time.Duration.
var maxDelaySeconds = float64(math.MaxInt64) / float64(time.Second)

// ParseDelay reads a delay given in (fractional) seconds.
func ParseDelay(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, &ValidationError{Field: "delay", Slot: -1, Value: value, Reason: "must be a number of seconds"}
	}
	if seconds <= 0 {
		return 0, &ValidationError{Field: "delay", Slot: -1, Value: value, Reason: "must be greater than zero"}
	}
	if seconds >= maxDelaySeconds {
		return 0, &ValidationError{Field: "delay", Slot: -1, Value: value, Reason: "is too large"}
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// ParseClicks reads the click count of slot.
func ParseClicks(slot int, raw string) (int, error) {
	value := strings.TrimSpace(raw)
	clicks, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ValidationError{Field: "clicks", Slot: slot, Value: value, Reason: "must be a whole number"}
	}
	if clicks < 1 {
		return 0, &ValidationError{Field: "clicks", Slot: slot, Value: value, Reason: "must be at least 1"}
	}
	return clicks, nil
}
