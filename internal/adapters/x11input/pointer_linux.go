//go:build linux

package x11input

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// PointerSampler reads the global pointer location from the X server. On
// Wayland sessions it goes through XWayland.
type PointerSampler struct {
	mu   sync.Mutex
	conn *xgb.Conn
	root xproto.Window
}

func NewPointerSampler() (*PointerSampler, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("open X11 connection: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &PointerSampler{conn: conn, root: screen.Root}, nil
}

func (s *PointerSampler) Position() (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return 0, 0, fmt.Errorf("pointer sampler closed")
	}
	reply, err := xproto.QueryPointer(s.conn, s.root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("query pointer: %w", err)
	}
	return int(reply.RootX), int(reply.RootY), nil
}

func (s *PointerSampler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}
