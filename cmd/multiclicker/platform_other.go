//go:build !linux && !windows

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const hotkeysSupported = false

func defaultClickExecutable(exeDir string) string {
	return filepath.Join(exeDir, "click_backend")
}

func defaultClickScript(_ string) string {
	return ""
}

// Hotkeys are unavailable here; the names are still checked so a bad
// configuration is reported the same way on every platform.
func parseHotkeyBindings(start, stop string) (hotkey.Bindings, error) {
	if strings.EqualFold(strings.TrimSpace(start), strings.TrimSpace(stop)) {
		return hotkey.Bindings{}, fmt.Errorf("start and stop hotkeys must differ")
	}
	return hotkey.Bindings{}, nil
}

func formatCodeName(code uint16) string {
	return fmt.Sprintf("%d", code)
}

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" || backend == "auto" {
		return "auto", nil
	}
	return "", fmt.Errorf("invalid %s %q (unsupported platform)", envHotkeyBackend, value)
}

func permissionDeniedHint() string {
	return "Permission denied opening the hotkey backend."
}

func newPointerSampler() (pointerSampler, error) {
	return nil, fmt.Errorf("pointer capture is not supported on this platform")
}

func startHotkeyListener(_ string, _ *hotkey.Router, _ sequencer.Logger) (hotkey.Listener, error) {
	return nil, fmt.Errorf("global hotkeys are not supported on this platform")
}
