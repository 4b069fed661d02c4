//go:build windows

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kodabkr/Multi-Clicker/internal/adapters/wininput"
	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const defaultAutoHotkeyPath = `C:\Program Files\AutoHotkey\v2\AutoHotkey64.exe`

const hotkeysSupported = true

func defaultClickExecutable(_ string) string {
	return defaultAutoHotkeyPath
}

func defaultClickScript(exeDir string) string {
	return filepath.Join(exeDir, "click_backend.ahk")
}

func parseHotkeyBindings(start, stop string) (hotkey.Bindings, error) {
	return wininput.ParseBindings(start, stop)
}

func formatCodeName(code uint16) string {
	return wininput.FormatCodeName(code)
}

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "windows":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid %s %q (windows supports auto|windows)", envHotkeyBackend, value)
	}
}

func permissionDeniedHint() string {
	return "Permission denied installing the global keyboard hook. Run as Administrator and ensure input hooking is allowed."
}

func newPointerSampler() (pointerSampler, error) {
	sampler, err := wininput.NewPointerSampler()
	if err != nil {
		return nil, err
	}
	return sampler, nil
}

func startHotkeyListener(_ string, router *hotkey.Router, logger sequencer.Logger) (hotkey.Listener, error) {
	listener, err := wininput.NewHotkeyListener(router, logger)
	if err != nil {
		return nil, err
	}
	if err := listener.Start(); err != nil {
		return nil, err
	}
	return listener, nil
}
