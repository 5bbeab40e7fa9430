package capture

import (
	"math"
	"time"
)

// Utterance is the audio of one session, mono at SampleRate.
type Utterance struct {
	SessionID   string
	Samples     []float32 // never nil; empty when no speech was detected
	SampleRate  int
	BlockFrames int
	Blocks      int
	Calibration Calibration
	Outcome     Outcome
	// Elapsed is measured from the end of calibration.
	Elapsed time.Duration
}

func newUtterance(blocks [][]float32, cfg Config, cal Calibration, outcome Outcome, elapsed time.Duration) *Utterance {
	frames := cfg.BlockFrames()
	samples := make([]float32, 0, len(blocks)*frames)
	for _, b := range blocks {
		samples = append(samples, b...)
	}
	return &Utterance{
		Samples:     samples,
		SampleRate:  cfg.SampleRate,
		BlockFrames: frames,
		Blocks:      len(blocks),
		Calibration: cal,
		Outcome:     outcome,
		Elapsed:     elapsed,
	}
}

func (u *Utterance) Empty() bool { return len(u.Samples) == 0 }

// Truncated reports whether the timeout cut the utterance short.
func (u *Utterance) Truncated() bool { return u.Outcome == OutcomeTimeout }

// Duration is the length of the captured audio.
func (u *Utterance) Duration() time.Duration {
	if u.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(u.Samples)) * time.Second / time.Duration(u.SampleRate)
}

// PCM16 converts the samples to 16-bit PCM, clipping to [-1, 1].
func (u *Utterance) PCM16() []int16 {
	out := make([]int16, len(u.Samples))
	for i, s := range u.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		out[i] = int16(math.Round(v * 32767))
	}
	return out
}
