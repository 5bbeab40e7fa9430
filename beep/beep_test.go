package beep

import (
	"math"
	"testing"
)

func TestGenerateTick(t *testing.T) {
	samples := generateTick(44100, 1000, 0.1, 0.5, 40)
	if len(samples) != 4410 {
		t.Fatalf("len = %d, want 4410", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("first sample = %d, want 0", samples[0])
	}

	peak := func(s []int16) int {
		var p int
		for _, v := range s {
			p = max(p, int(math.Abs(float64(v))))
		}
		return p
	}
	head, tail := peak(samples[:441]), peak(samples[len(samples)-441:])
	if float64(head) > 32767*0.5 {
		t.Errorf("peak %d exceeds volume", head)
	}
	if tail >= head {
		t.Errorf("envelope does not decay: head %d, tail %d", head, tail)
	}
}

func TestGenerateDoubleBeep(t *testing.T) {
	beep := generateTick(1000, 100, 0.05, 0.5, 10)
	got := generateDoubleBeep(1000, 100, 0.05, 0.02, 0.5, 10)
	if len(got) != 2*len(beep)+20 {
		t.Fatalf("len = %d, want %d", len(got), 2*len(beep)+20)
	}
	for i, v := range got[len(beep) : len(beep)+20] {
		if v != 0 {
			t.Fatalf("gap sample %d = %d, want 0", i, v)
		}
	}
	for i := range beep {
		if got[len(beep)+20+i] != beep[i] {
			t.Fatalf("second beep differs at %d", i)
		}
	}
}

func TestDisabledSkipsPlayback(t *testing.T) {
	Disable()
	t.Cleanup(func() { disabled = false })
	// Must return without touching the audio output.
	PlayStart()
	PlayEnd()
	PlayError()
}
