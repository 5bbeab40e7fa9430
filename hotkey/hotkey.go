// Package hotkey delivers global key presses that start a listen cycle.
package hotkey

// Combo is the key combination every backend listens for.
const Combo = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// evdev key codes from linux/input-event-codes.h
const (
	keyPress   = 1
	keyRelease = 0
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keySpace   = 57
)

// comboState tracks held modifiers from raw key events and reports the press
// and release edges of Ctrl+Shift+Space. Autorepeat events (value 2) leave the
// state unchanged.
type comboState struct {
	ctrl, shift, space bool
}

func (s *comboState) feed(code uint16, value int32) (down, up bool) {
	pressed := value == keyPress
	released := value == keyRelease

	switch code {
	case keyLCtrl, keyRCtrl:
		s.ctrl = pressed || (!released && s.ctrl)
	case keyLShift, keyRShift:
		s.shift = pressed || (!released && s.shift)
	case keySpace:
		if pressed && !s.space && s.ctrl && s.shift {
			s.space = true
			return true, false
		}
		if released && s.space {
			s.space = false
			return false, true
		}
	}
	return false, false
}

// notify delivers an edge without blocking; a pending one is enough.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
