//go:build linux

package hotkey

import (
	"encoding/binary"
	"testing"
)

func inputEvent(typ, code uint16, value int32) []byte {
	ev := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(ev[16:], typ)
	binary.LittleEndian.PutUint16(ev[18:], code)
	binary.LittleEndian.PutUint32(ev[20:], uint32(value))
	return ev
}

func events(evs ...[]byte) []byte {
	var buf []byte
	for _, ev := range evs {
		buf = append(buf, ev...)
	}
	return buf
}

func TestDecodeEvents(t *testing.T) {
	const evSyn = 0
	var state comboState

	down, up := decodeEvents(events(
		inputEvent(evKey, keyLCtrl, keyPress),
		inputEvent(evSyn, 0, 0),
		inputEvent(evKey, keyRShift, keyPress),
		inputEvent(evKey, keySpace, keyPress),
	), &state)
	if !down || up {
		t.Fatalf("press batch = down %v up %v, want down only", down, up)
	}

	// A trailing partial event is ignored.
	partial := inputEvent(evKey, keySpace, keyRelease)[:inputEventSize-4]
	if down, up := decodeEvents(partial, &state); down || up {
		t.Fatalf("partial event = down %v up %v", down, up)
	}

	down, up = decodeEvents(inputEvent(evKey, keySpace, keyRelease), &state)
	if down || !up {
		t.Fatalf("release = down %v up %v, want up only", down, up)
	}
}

func TestDecodeEventsIgnoresOtherTypes(t *testing.T) {
	const evRel = 2
	var state comboState
	down, up := decodeEvents(events(
		inputEvent(evRel, keyLCtrl, keyPress),
		inputEvent(evRel, keyLShift, keyPress),
		inputEvent(evRel, keySpace, keyPress),
	), &state)
	if down || up {
		t.Fatalf("non-key events produced down %v up %v", down, up)
	}
}
