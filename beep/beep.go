// Package beep plays short audible cues when listening starts and stops.
package beep

import (
	"math"
	"sync"
)

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End beep: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	disabled bool

	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	soundOnce    sync.Once
)

func Disable() { disabled = true }

func initSound() {
	startSamples = generateTick(sampleRate, startFreq, tickDuration, startVolume, startDecay)
	endSamples = generateTick(sampleRate, endFreq, tickDuration, endVolume, endDecay)
	errorSamples = generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	initOutput()
}

// generateTick returns a mono sine burst with an exponential decay envelope.
func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

func Init() {
	soundOnce.Do(initSound)
}

func PlayStart() { playCue(&startSamples) }
func PlayEnd()   { playCue(&endSamples) }
func PlayError() { playCue(&errorSamples) }

func playCue(samples *[]int16) {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	play(*samples)
}
