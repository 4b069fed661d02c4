//go:build windows

package wininput

import (
	"fmt"
	"unsafe"
)

// PointerSampler reads the cursor position in virtual-screen coordinates.
type PointerSampler struct{}

func NewPointerSampler() (*PointerSampler, error) {
	if err := procGetCursorPos.Find(); err != nil {
		return nil, err
	}
	return &PointerSampler{}, nil
}

func (s *PointerSampler) Position() (int, int, error) {
	var pt point
	ok, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ok == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos failed: %w", callErr)
	}
	return int(pt.X), int(pt.Y), nil
}

func (s *PointerSampler) Close() {}
