//go:build linux

package x11input

import (
	"strings"

	"github.com/kodabkr/Multi-Clicker/internal/adapters/linuxinput"
)

var namedKeys = map[string]string{
	"ESC":        "Escape",
	"ENTER":      "Return",
	"TAB":        "Tab",
	"SPACE":      "space",
	"BACKSPACE":  "BackSpace",
	"CAPSLOCK":   "Caps_Lock",
	"NUMLOCK":    "Num_Lock",
	"SCROLLLOCK": "Scroll_Lock",
	"PAGEUP":     "Page_Up",
	"PAGEDOWN":   "Page_Down",
	"INSERT":     "Insert",
	"DELETE":     "Delete",
	"HOME":       "Home",
	"END":        "End",
	"UP":         "Up",
	"DOWN":       "Down",
	"LEFT":       "Left",
	"RIGHT":      "Right",
	"PAUSE":      "Pause",
	"SYSRQ":      "Print",
	"MINUS":      "minus",
	"EQUAL":      "equal",
	"GRAVE":      "grave",
}

// keysymName maps a kernel key code to the X keysym name keybind resolves.
// Hotkeys are kept in kernel key-code space on every Linux backend so the
// same bindings drive both listeners.
func keysymName(code uint16) (string, bool) {
	name := linuxinput.FormatCodeName(code)
	if !strings.HasPrefix(name, "KEY_") {
		return "", false
	}
	token := strings.TrimPrefix(name, "KEY_")

	if keysym, ok := namedKeys[token]; ok {
		return keysym, true
	}
	if len(token) == 1 && token[0] >= 'A' && token[0] <= 'Z' {
		return strings.ToLower(token), true
	}
	if len(token) == 1 && token[0] >= '0' && token[0] <= '9' {
		return token, true
	}
	if strings.HasPrefix(token, "F") && isDigits(token[1:]) {
		return token, true
	}
	if strings.HasPrefix(token, "KP") && len(token) == 3 && isDigits(token[2:]) {
		return "KP_" + token[2:], true
	}
	return "", false
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
