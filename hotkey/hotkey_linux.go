//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// struct input_event on 64-bit: 16 bytes of timeval, then type, code, value.
const (
	evKey          = 1
	inputEventSize = 24
)

var errNoKeyboards = errors.New("no keyboard devices found (is user in 'input' group?)")

// linuxHotkey reads evdev keyboards directly, so it works without X11 or a
// Wayland portal.
type linuxHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New() Hotkey {
	return &linuxHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *linuxHotkey) Register() error {
	files, found, err := openKeyboards()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("found %d keyboard(s) but could not open any (run: sudo usermod -aG input $USER, then re-login)", found)
	}

	h.stop = make(chan struct{})
	h.files = files
	for _, f := range files {
		go h.readEvents(f)
	}
	return nil
}

func (h *linuxHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var state comboState

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}
		down, up := decodeEvents(buf[:n], &state)
		if down {
			notify(h.keydown)
		}
		if up {
			notify(h.keyup)
		}
	}
}

// decodeEvents feeds every key event in buf to state and reports whether the
// combo went down or up anywhere in the batch.
func decodeEvents(buf []byte, state *comboState) (down, up bool) {
	for i := 0; i+inputEventSize <= len(buf); i += inputEventSize {
		if binary.LittleEndian.Uint16(buf[i+16:]) != evKey {
			continue
		}
		code := binary.LittleEndian.Uint16(buf[i+18:])
		value := int32(binary.LittleEndian.Uint32(buf[i+20:]))

		d, u := state.feed(code, value)
		down = down || d
		up = up || u
	}
	return down, up
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *linuxHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

// openKeyboards opens every readable keyboard and reports how many were
// found in total.
func openKeyboards() (files []*os.File, found int, err error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return nil, 0, fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return nil, 0, errNoKeyboards
	}
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	return files, len(keyboards), nil
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "event") && isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

// isKeyboard treats a device with a wide key capability bitmap as a
// keyboard; mice and power buttons only set a few low bits.
func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

func Diagnose() (string, error) {
	files, found, err := openKeyboards()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", found)
	}
	opened := files[0].Name()
	for _, f := range files {
		f.Close()
	}
	return fmt.Sprintf("%d keyboard(s) found, opened %s", found, opened), nil
}
