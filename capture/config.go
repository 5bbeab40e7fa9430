package capture

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the tunables of one capture session. Durations are converted
// to block counts with integer arithmetic, so the same Config always yields
// the same counts.
type Config struct {
	SampleRate          int           `yaml:"sample_rate"`
	BlockDuration       time.Duration `yaml:"block_duration"`
	CalibrationDuration time.Duration `yaml:"calibration_duration"`
	ThresholdMultiplier float64       `yaml:"threshold_multiplier"`
	MinThreshold        float64       `yaml:"min_threshold"`
	SilenceToStop       time.Duration `yaml:"silence_to_stop"`
	PreSpeechPad        time.Duration `yaml:"pre_speech_pad"`
	Timeout             time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate:          16000,
		BlockDuration:       30 * time.Millisecond,
		CalibrationDuration: 500 * time.Millisecond,
		ThresholdMultiplier: 3.0,
		MinThreshold:        0.010,
		SilenceToStop:       2 * time.Second,
		PreSpeechPad:        200 * time.Millisecond,
		Timeout:             120 * time.Second,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate))
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"block_duration", c.BlockDuration},
		{"calibration_duration", c.CalibrationDuration},
		{"silence_to_stop", c.SilenceToStop},
		{"pre_speech_pad", c.PreSpeechPad},
		{"timeout", c.Timeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.d))
		}
	}
	if !(c.ThresholdMultiplier >= 1) {
		errs = append(errs, fmt.Errorf("threshold_multiplier must be >= 1, got %g", c.ThresholdMultiplier))
	}
	if !(c.MinThreshold >= 0) {
		errs = append(errs, fmt.Errorf("min_threshold must be >= 0, got %g", c.MinThreshold))
	}
	if c.SampleRate > 0 && c.BlockDuration > 0 && c.BlockFrames() < 1 {
		errs = append(errs, fmt.Errorf("block_duration %s is shorter than one frame at %d Hz", c.BlockDuration, c.SampleRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("capture config: %w", errors.Join(errs...))
	}
	return nil
}

// BlockFrames is the number of frames per block, truncated.
func (c Config) BlockFrames() int {
	return int(int64(c.SampleRate) * int64(c.BlockDuration) / int64(time.Second))
}

// CalibrationBlocks is ceil(calibration / block), at least 1.
func (c Config) CalibrationBlocks() int {
	return max(ceilDiv(c.CalibrationDuration, c.BlockDuration), 1)
}

// PreRollBlocks is the pre-roll capacity, ceil(pad / block).
func (c Config) PreRollBlocks() int {
	return ceilDiv(c.PreSpeechPad, c.BlockDuration)
}

// SilenceBlocks is the length of the silent run that ends a session. Summing
// one block duration per silent block reaches SilenceToStop after exactly
// ceil(silence / block) blocks.
func (c Config) SilenceBlocks() int {
	return max(ceilDiv(c.SilenceToStop, c.BlockDuration), 1)
}

func ceilDiv(a, b time.Duration) int {
	if b <= 0 {
		return 0
	}
	return int((a + b - 1) / b)
}
