//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const (
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

// HotkeyListener reads key transitions straight from the kernel input
// devices. It works under Wayland, where global key grabs are not
// available, but needs read access to /dev/input.
type HotkeyListener struct {
	router *hotkey.Router
	logger sequencer.Logger

	devices []*evdev.InputDevice

	stopCh    chan struct{}
	stopOnce  sync.Once
	readersWG sync.WaitGroup
}

func NewHotkeyListener(router *hotkey.Router, logger sequencer.Logger) (*HotkeyListener, error) {
	if router == nil {
		return nil, fmt.Errorf("hotkey router is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &HotkeyListener{router: router, logger: logger, stopCh: make(chan struct{})}, nil
}

func (l *HotkeyListener) Start() error {
	devices, err := OpenHotkeyDevices(l.router.Bindings().Codes())
	if err != nil {
		return err
	}
	l.devices = devices

	for _, dev := range devices {
		name, _ := dev.Name()
		l.logger.Info("Listening for hotkeys", "path", dev.Path(), "name", name)
		l.readersWG.Add(1)
		go l.readLoop(dev)
	}
	return nil
}

func (l *HotkeyListener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		for _, dev := range l.devices {
			_ = dev.Close()
		}
		l.readersWG.Wait()
	})
}

func (l *HotkeyListener) readLoop(dev *evdev.InputDevice) {
	defer l.readersWG.Done()

	path := dev.Path()
	for {
		events, err := dev.ReadSlice(64)
		if err != nil {
			if l.stopped() || isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !l.sleepWithStop(10 * time.Millisecond) {
					return
				}
				continue
			}
			l.logger.Warn("Hotkey read failed", "path", path, "err", err)
			if !l.sleepWithStop(100 * time.Millisecond) {
				return
			}
			continue
		}

		for _, event := range events {
			if event.Type != evdev.EV_KEY {
				continue
			}
			switch event.Value {
			case keyPress, keyRepeat:
				if action := l.router.Submit(uint16(event.Code), true); action != hotkey.ActionNone {
					l.logger.Debug("Hotkey", "action", action, "key", FormatCodeName(uint16(event.Code)))
				}
			case keyRelease:
				l.router.Submit(uint16(event.Code), false)
			}
		}
	}
}

func (l *HotkeyListener) stopped() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

func (l *HotkeyListener) sleepWithStop(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-l.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
