package capture

import (
	"math"
	"slices"
)

// Calibration is the noise profile of a session and the threshold derived
// from it. Both are fixed once calibration finishes.
type Calibration struct {
	NoiseRMS  float64
	Threshold float64
}

// RMS returns the root-mean-square energy of block, 0 for an empty block.
func RMS(block []float32) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, s := range block {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(block)))
}

// Median returns the middle value of levels (mean of the two middle values
// for an even count). levels is not modified.
func Median(levels []float64) float64 {
	n := len(levels)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(levels)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func Threshold(noiseRMS, multiplier, floor float64) float64 {
	return max(noiseRMS*multiplier, floor)
}

// Calibrate derives the session threshold from per-block calibration levels.
func Calibrate(levels []float64, multiplier, floor float64) Calibration {
	noise := Median(levels)
	return Calibration{NoiseRMS: noise, Threshold: Threshold(noise, multiplier, floor)}
}

// IsSpeech reports whether a block level is above the threshold. A level
// equal to the threshold counts as silence.
func IsSpeech(level, threshold float64) bool {
	return level > threshold
}
