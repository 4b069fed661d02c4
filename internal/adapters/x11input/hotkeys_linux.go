//go:build linux

package x11input

import (
	"fmt"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/kodabkr/Multi-Clicker/internal/adapters/linuxinput"
	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

// HotkeyListener grabs the hotkeys on the X11 root window so they fire no
// matter which window has focus.
type HotkeyListener struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window

	router *hotkey.Router
	logger sequencer.Logger

	mu        sync.RWMutex
	keyToCode map[xproto.Keycode]uint16
	grabbed   []xproto.Keycode

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewHotkeyListener(router *hotkey.Router, logger sequencer.Logger) (*HotkeyListener, error) {
	if router == nil {
		return nil, fmt.Errorf("hotkey router is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}
	keybind.Initialize(xu)

	return &HotkeyListener{
		xu:      xu,
		conn:    conn,
		rootWin: xu.RootWin(),
		router:  router,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

func (l *HotkeyListener) Start() error {
	if err := l.applyBindings(l.router.Bindings()); err != nil {
		return err
	}
	go l.eventLoop()
	return nil
}

func (l *HotkeyListener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)

		l.mu.Lock()
		l.ungrabAllLocked()
		l.conn.Close()
		started := l.keyToCode != nil
		l.mu.Unlock()

		if started {
			<-l.doneCh
		}
	})
}

func (l *HotkeyListener) eventLoop() {
	defer close(l.doneCh)

	var pending xgb.Event
	for {
		event := pending
		pending = nil
		if event == nil {
			next, xerr := l.conn.WaitForEvent()
			if xerr != nil {
				select {
				case <-l.stopCh:
					return
				default:
				}
				l.logger.Warn("X11 event error", "err", xerr)
				continue
			}
			if next == nil {
				return
			}
			event = next
		}

		switch ev := event.(type) {
		case xproto.KeyPressEvent:
			l.submit(ev.Detail, true)
		case xproto.KeyReleaseEvent:
			pending = l.handleRelease(ev)
		}
	}
}

// handleRelease drops the release half of an auto-repeat pair. The X server
// reports a held key as release+press with the same timestamp; the press is
// consumed here as well. Any other queued event is returned to the caller.
func (l *HotkeyListener) handleRelease(ev xproto.KeyReleaseEvent) xgb.Event {
	next, xerr := l.conn.PollForEvent()
	if xerr == nil && next != nil {
		if press, ok := next.(xproto.KeyPressEvent); ok && press.Detail == ev.Detail && press.Time == ev.Time {
			return nil
		}
	}
	l.submit(ev.Detail, false)
	return next
}

func (l *HotkeyListener) submit(key xproto.Keycode, pressed bool) {
	l.mu.RLock()
	code, ok := l.keyToCode[key]
	l.mu.RUnlock()
	if !ok {
		return
	}
	if action := l.router.Submit(code, pressed); action != hotkey.ActionNone {
		l.logger.Debug("Hotkey", "action", action, "key", linuxinput.FormatCodeName(code))
	}
}

func (l *HotkeyListener) applyBindings(bindings hotkey.Bindings) error {
	keyToCode := make(map[xproto.Keycode]uint16)
	for _, code := range bindings.Codes() {
		keycodes, err := l.resolveKeycodes(code)
		if err != nil {
			return err
		}
		for _, key := range keycodes {
			if existing, ok := keyToCode[key]; ok && existing != code {
				return fmt.Errorf("start and stop hotkeys resolve to the same X11 keycode")
			}
			keyToCode[key] = code
		}
	}

	keys := make([]xproto.Keycode, 0, len(keyToCode))
	for key := range keyToCode {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	l.mu.Lock()
	defer l.mu.Unlock()

	l.ungrabAllLocked()
	for _, key := range keys {
		if err := xproto.GrabKeyChecked(
			l.conn,
			false,
			l.rootWin,
			xproto.ModMaskAny,
			key,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
		).Check(); err != nil {
			l.ungrabAllLocked()
			return fmt.Errorf("grab X11 keycode %d: %w", key, err)
		}
		l.grabbed = append(l.grabbed, key)
	}
	l.keyToCode = keyToCode
	return nil
}

func (l *HotkeyListener) ungrabAllLocked() {
	for _, key := range l.grabbed {
		xproto.UngrabKey(l.conn, key, l.rootWin, xproto.ModMaskAny)
	}
	l.grabbed = nil
}

func (l *HotkeyListener) resolveKeycodes(code uint16) ([]xproto.Keycode, error) {
	keyName, ok := keysymName(code)
	if !ok {
		return nil, fmt.Errorf("unsupported X11 hotkey %s", linuxinput.FormatCodeName(code))
	}

	keycodes := keybind.StrToKeycodes(l.xu, keyName)
	if len(keycodes) == 0 {
		return nil, fmt.Errorf("failed to resolve X11 key %q", keyName)
	}
	return keycodes, nil
}
