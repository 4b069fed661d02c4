//go:build linux

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kodabkr/Multi-Clicker/internal/adapters/linuxinput"
	"github.com/kodabkr/Multi-Clicker/internal/adapters/x11input"
	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const hotkeysSupported = true

func defaultClickExecutable(exeDir string) string {
	return filepath.Join(exeDir, "click_backend")
}

func defaultClickScript(_ string) string {
	return ""
}

func parseHotkeyBindings(start, stop string) (hotkey.Bindings, error) {
	return linuxinput.ParseBindings(start, stop)
}

func formatCodeName(code uint16) string {
	return linuxinput.FormatCodeName(code)
}

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "wayland", "x11", "evdev":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid %s %q (linux supports auto|wayland|evdev|x11)", envHotkeyBackend, value)
	}
}

func permissionDeniedHint() string {
	return "Permission denied opening input devices for hotkeys. On Wayland add your user to the input group or use udev rules for /dev/input. On X11 ensure DISPLAY is set."
}

func newPointerSampler() (pointerSampler, error) {
	sampler, err := x11input.NewPointerSampler()
	if err != nil {
		return nil, err
	}
	return sampler, nil
}

func startHotkeyListener(backend string, router *hotkey.Router, logger sequencer.Logger) (hotkey.Listener, error) {
	var (
		listener hotkey.Listener
		err      error
	)
	resolved := resolveLinuxBackend(backend)
	switch resolved {
	case "x11":
		listener, err = x11input.NewHotkeyListener(router, logger)
	default:
		listener, err = linuxinput.NewHotkeyListener(router, logger)
	}
	if err != nil {
		return nil, err
	}
	if err := listener.Start(); err != nil {
		listener.Stop()
		return nil, err
	}
	logger.Info("Hotkey backend", "name", resolved)
	return listener, nil
}

func resolveLinuxBackend(configured string) string {
	choice := strings.ToLower(strings.TrimSpace(configured))
	if choice == "" {
		choice = "auto"
	}
	if choice == "evdev" {
		choice = "wayland"
	}
	if choice != "auto" {
		return choice
	}

	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	switch sessionType {
	case "wayland":
		return "wayland"
	case "x11":
		return "x11"
	}

	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return "wayland"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "wayland"
}
