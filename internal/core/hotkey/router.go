package hotkey

import (
	"fmt"
	"sync"
)

type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	default:
		return "none"
	}
}

type Bindings struct {
	Start uint16
	Stop  uint16
}

func (b Bindings) Validate() error {
	if b.Start == 0 || b.Stop == 0 {
		return fmt.Errorf("hotkey codes must be non-zero")
	}
	if b.Start == b.Stop {
		return fmt.Errorf("start and stop hotkeys must differ")
	}
	return nil
}

func (b Bindings) Codes() []uint16 {
	return []uint16{b.Start, b.Stop}
}

// Router turns raw key transitions from a platform listener into actions.
// Held keys fire once; auto-repeat presses are dropped until the key is
// released.
type Router struct {
	sink func(Action)

	mu       sync.Mutex
	bindings Bindings
	held     map[uint16]bool
}

func NewRouter(bindings Bindings, sink func(Action)) (*Router, error) {
	if err := bindings.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("hotkey sink is nil")
	}
	return &Router{sink: sink, bindings: bindings, held: make(map[uint16]bool)}, nil
}

func (r *Router) Bindings() Bindings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bindings
}

// Submit records a key transition. It returns the action that fired, if any.
func (r *Router) Submit(code uint16, pressed bool) Action {
	r.mu.Lock()
	action := ActionNone
	switch code {
	case r.bindings.Start:
		action = ActionStart
	case r.bindings.Stop:
		action = ActionStop
	}
	if action == ActionNone {
		r.mu.Unlock()
		return ActionNone
	}

	if !pressed {
		delete(r.held, code)
		r.mu.Unlock()
		return ActionNone
	}
	if r.held[code] {
		r.mu.Unlock()
		return ActionNone
	}
	r.held[code] = true
	r.mu.Unlock()

	r.sink(action)
	return action
}

// Listener is implemented by the platform hotkey backends.
type Listener interface {
	Start() error
	Stop()
}
