//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
}

// ListHotkeyDevices returns the readable devices that can emit at least one
// of codes, sorted by path. Virtual devices are listed only when no
// physical device matches.
func ListHotkeyDevices(codes []uint16) ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}

	matches := make([]DeviceInfo, 0)
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			continue
		}

		name := path.Name
		if actualName, err := dev.Name(); err == nil && actualName != "" {
			name = actualName
		}
		if deviceSupportsAnyCode(dev, codes) {
			matches = append(matches, DeviceInfo{
				Path:      path.Path,
				Name:      name,
				IsVirtual: deviceIsVirtual(dev, name),
			})
		}
		_ = dev.Close()
	}

	pool := make([]DeviceInfo, 0, len(matches))
	for _, match := range matches {
		if !match.IsVirtual {
			pool = append(pool, match)
		}
	}
	if len(pool) == 0 {
		pool = matches
	}

	sort.Slice(pool, func(i, j int) bool {
		return pool[i].Path < pool[j].Path
	})
	return pool, nil
}

// OpenHotkeyDevices opens every device ListHotkeyDevices reports in
// non-blocking read-only mode.
func OpenHotkeyDevices(codes []uint16) ([]*evdev.InputDevice, error) {
	infos, err := ListHotkeyDevices(codes)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no input device exposes %s", formatCodeNames(codes))
	}

	devices := make([]*evdev.InputDevice, 0, len(infos))
	for _, info := range infos {
		dev, err := openInputDevice(info.Path)
		if err != nil {
			continue
		}
		if err := dev.NonBlock(); err != nil {
			_ = dev.Close()
			continue
		}
		devices = append(devices, dev)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("found keyboards exposing %s, but failed to open any of them", formatCodeNames(codes))
	}
	return devices, nil
}

func openInputDevice(path string) (*evdev.InputDevice, error) {
	return evdev.OpenWithFlags(path, os.O_RDONLY)
}

func deviceSupportsAnyCode(device *evdev.InputDevice, codes []uint16) bool {
	for _, c := range device.CapableEvents(evdev.EV_KEY) {
		for _, code := range codes {
			if c == evdev.EvCode(code) {
				return true
			}
		}
	}
	return false
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func formatCodeNames(codes []uint16) string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, FormatCodeName(code))
	}
	return strings.Join(names, "/")
}
