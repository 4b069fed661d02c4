//go:build windows

package wininput

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/kodabkr/Multi-Clicker/internal/core/hotkey"
	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	llkhfInjected = 0x00000010
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetCursorPos        = user32.NewProc("GetCursorPos")

	keyboardHookCallback = windows.NewCallback(keyboardLLCallback)

	activeListener atomic.Pointer[HotkeyListener]
)

type point struct {
	X int32
	Y int32
}

type keyboardLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

// HotkeyListener observes global key transitions through a low-level
// keyboard hook. Only one listener can be active per process.
type HotkeyListener struct {
	router *hotkey.Router
	logger sequencer.Logger

	stopOnce sync.Once
	threadID atomic.Uint32
	loopDone chan struct{}
}

func NewHotkeyListener(router *hotkey.Router, logger sequencer.Logger) (*HotkeyListener, error) {
	if router == nil {
		return nil, fmt.Errorf("hotkey router is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &HotkeyListener{router: router, logger: logger}, nil
}

func (l *HotkeyListener) Start() error {
	if !activeListener.CompareAndSwap(nil, l) {
		return fmt.Errorf("windows hotkey listener is already active")
	}

	l.loopDone = make(chan struct{})
	ready := make(chan error, 1)
	go l.hookLoop(ready)

	if err := <-ready; err != nil {
		<-l.loopDone
		return err
	}
	l.logger.Info("Listening for hotkeys",
		"start", FormatCodeName(l.router.Bindings().Start),
		"stop", FormatCodeName(l.router.Bindings().Stop))
	return nil
}

func (l *HotkeyListener) Stop() {
	l.stopOnce.Do(func() {
		if threadID := l.threadID.Load(); threadID != 0 {
			_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
		}
		if l.loopDone != nil {
			<-l.loopDone
		}
	})
}

func (l *HotkeyListener) hookLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.loopDone)
	defer activeListener.CompareAndSwap(l, nil)

	l.threadID.Store(windows.GetCurrentThreadId())

	hook, _, hookErr := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), keyboardHookCallback, 0, 0)
	if hook == 0 {
		ready <- fmt.Errorf("failed to install keyboard hook: %w", hookErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(hook)
	}()

	ready <- nil

	var msg message
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			l.logger.Warn("Windows message loop failed", "err", callErr)
			return
		case 0:
			return
		default:
			_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

func keyboardLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if l := activeListener.Load(); l != nil {
			l.handleKeyboardHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

func (l *HotkeyListener) handleKeyboardHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}
	data := (*keyboardLLHookStruct)(unsafe.Pointer(lParam))
	// Keys synthesised by the click backend must not trigger hotkeys.
	if data.Flags&llkhfInjected != 0 {
		return
	}

	var pressed bool
	switch wParam {
	case wmKeyDown, wmSysKeyDown:
		pressed = true
	case wmKeyUp, wmSysKeyUp:
		pressed = false
	default:
		return
	}

	code := uint16(data.VkCode)
	if action := l.router.Submit(code, pressed); action != hotkey.ActionNone {
		l.logger.Debug("Hotkey", "action", action, "key", FormatCodeName(code))
	}
}
