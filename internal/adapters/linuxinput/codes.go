package linuxinput

import (
	"fmt"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
)

const (
	CodeF6 uint16 = uint16(evdev.KEY_F6)
	CodeF7 uint16 = uint16(evdev.KEY_F7)
)

// DefaultBindings are the start and stop keys in kernel key-code space.
func DefaultBindings() hotkey.Bindings {
	return hotkey.Bindings{Start: CodeF6, Stop: CodeF7}
}

// ParseCode accepts a kernel key name such as KEY_F6, a bare name such as
// F6, or a numeric code.
func ParseCode(value string) (uint16, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key code is empty")
	}
	if code, ok := evdev.KEYFromString[raw]; ok {
		return uint16(code), nil
	}
	if code, ok := evdev.KEYFromString["KEY_"+raw]; ok {
		return uint16(code), nil
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like KEY_F6 or a numeric code", value)
	}
	if parsed <= 0 || parsed > 0xFFFF {
		return 0, fmt.Errorf("key code out of range: %d", parsed)
	}
	return uint16(parsed), nil
}

func FormatCodeName(code uint16) string {
	name := evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code))
	if name != "" {
		return name
	}
	return strconv.Itoa(int(code))
}

// ParseBindings resolves a pair of key names into hotkey bindings.
func ParseBindings(start, stop string) (hotkey.Bindings, error) {
	startCode, err := ParseCode(start)
	if err != nil {
		return hotkey.Bindings{}, fmt.Errorf("start key: %w", err)
	}
	stopCode, err := ParseCode(stop)
	if err != nil {
		return hotkey.Bindings{}, fmt.Errorf("stop key: %w", err)
	}
	bindings := hotkey.Bindings{Start: startCode, Stop: stopCode}
	if err := bindings.Validate(); err != nil {
		return hotkey.Bindings{}, err
	}
	return bindings, nil
}
