package wininput

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
)

// Hotkey codes on Windows are virtual-key codes.
const (
	CodeF6 uint16 = 0x75
	CodeF7 uint16 = 0x76
)

const (
	vkF1 uint16 = 0x70
	vkA  uint16 = 0x41
	vk0  uint16 = 0x30
)

var namedVKs = map[string]uint16{
	"BACK":     0x08,
	"TAB":      0x09,
	"RETURN":   0x0D,
	"PAUSE":    0x13,
	"CAPITAL":  0x14,
	"ESCAPE":   0x1B,
	"SPACE":    0x20,
	"PRIOR":    0x21,
	"NEXT":     0x22,
	"END":      0x23,
	"HOME":     0x24,
	"LEFT":     0x25,
	"UP":       0x26,
	"RIGHT":    0x27,
	"DOWN":     0x28,
	"SNAPSHOT": 0x2C,
	"INSERT":   0x2D,
	"DELETE":   0x2E,
	"NUMLOCK":  0x90,
	"SCROLL":   0x91,
}

var aliases = map[string]string{
	"ESC":        "ESCAPE",
	"ENTER":      "RETURN",
	"BACKSPACE":  "BACK",
	"CAPSLOCK":   "CAPITAL",
	"PAGEUP":     "PRIOR",
	"PAGEDOWN":   "NEXT",
	"SCROLLLOCK": "SCROLL",
	"PRINT":      "SNAPSHOT",
}

var vkNames map[uint16]string

func init() {
	vkNames = make(map[uint16]string, len(namedVKs)+24+36)
	for name, vk := range namedVKs {
		vkNames[vk] = "VK_" + name
	}
	for i := uint16(0); i < 24; i++ {
		vkNames[vkF1+i] = "VK_F" + strconv.Itoa(int(i)+1)
	}
	for i := uint16(0); i < 26; i++ {
		vkNames[vkA+i] = "VK_" + string(rune('A'+i))
	}
	for i := uint16(0); i < 10; i++ {
		vkNames[vk0+i] = "VK_" + string(rune('0'+i))
	}
}

func DefaultBindings() hotkey.Bindings {
	return hotkey.Bindings{Start: CodeF6, Stop: CodeF7}
}

// ParseCode accepts VK_F6, KEY_F6, F6 or a numeric virtual-key code.
func ParseCode(value string) (uint16, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key code is empty")
	}
	token := strings.TrimPrefix(strings.TrimPrefix(raw, "VK_"), "KEY_")
	if alias, ok := aliases[token]; ok {
		token = alias
	}

	if vk, ok := namedVKs[token]; ok {
		return vk, nil
	}
	if len(token) == 1 && token[0] >= 'A' && token[0] <= 'Z' {
		return vkA + uint16(token[0]-'A'), nil
	}
	if len(token) == 1 && token[0] >= '0' && token[0] <= '9' {
		return vk0 + uint16(token[0]-'0'), nil
	}
	if strings.HasPrefix(token, "F") && len(token) > 1 {
		if n, err := strconv.Atoi(token[1:]); err == nil && n >= 1 && n <= 24 {
			return vkF1 + uint16(n-1), nil
		}
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like F6/VK_F6 or a numeric virtual-key code", value)
	}
	if parsed <= 0 || parsed > 0xFE {
		return 0, fmt.Errorf("virtual-key code out of range: %d", parsed)
	}
	return uint16(parsed), nil
}

func FormatCodeName(code uint16) string {
	if name, ok := vkNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", code)
}

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

// KnownCodeNames lists every named key, sorted by code.
func KnownCodeNames() []string {
	codes := make([]uint16, 0, len(vkNames))
	for code := range vkNames {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, vkNames[code])
	}
	return names
}
