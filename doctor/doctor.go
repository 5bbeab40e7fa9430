// Package doctor runs non-interactive environment checks: input devices,
// microphone noise floor, API keys, clipboard and hotkey access.
package doctor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"earshot/audio"
	"earshot/capture"
)

var apiKeys = []string{"OPENAI_API_KEY", "GROQ_API_KEY", "DEEPGRAM_API_KEY"}

// Checker holds the collaborators the checks exercise.
type Checker struct {
	Out     io.Writer
	Audio   audio.Context
	Device  string // empty selects the system default
	Capture capture.Config
	Getenv  func(string) string

	Copy func(string) error
	Read func() (string, error)

	// Hotkey reports whether the global hotkey can be registered. Nil skips
	// the check.
	Hotkey func() (string, error)
}

type check struct {
	name string
	run  func(context.Context) (string, error)
	// optional checks warn instead of failing the run
	optional bool
}

// Run executes every check and returns an exit code (0=all pass, 1=any fail).
func (c *Checker) Run(ctx context.Context) int {
	checks := []check{
		{name: "Input devices", run: c.checkDevices},
		{name: "Microphone noise floor", run: c.checkCalibration},
		{name: "API keys", run: c.checkKeys},
		{name: "Clipboard", run: c.checkClipboard},
	}
	if c.Hotkey != nil {
		checks = append(checks, check{name: "Hotkey", run: func(context.Context) (string, error) { return c.Hotkey() }, optional: true})
	}

	fmt.Fprintln(c.Out, "earshot doctor - system diagnostics")
	fmt.Fprintln(c.Out, "===================================")

	allPass := true
	for i, ch := range checks {
		fmt.Fprintf(c.Out, "\n[%d/%d] %s\n", i+1, len(checks), ch.name)
		msg, err := ch.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(c.Out, "  PASS: %s\n", msg)
		case ch.optional:
			fmt.Fprintf(c.Out, "  WARN: %v\n", err)
		default:
			fmt.Fprintf(c.Out, "  FAIL: %v\n", err)
			allPass = false
		}
		if ctx.Err() != nil {
			fmt.Fprintln(c.Out, "\nInterrupted")
			return 1
		}
	}

	fmt.Fprintln(c.Out)
	if allPass {
		fmt.Fprintln(c.Out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(c.Out, "Some checks failed. See details above.")
	return 1
}

func (c *Checker) checkDevices(context.Context) (string, error) {
	devices, err := c.Audio.Devices()
	if err != nil {
		return "", fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no capture devices found")
	}
	for _, d := range devices {
		note := ""
		if audio.IsBluetooth(d.Name) {
			note = " (bluetooth, may switch the headset to low quality)"
		}
		fmt.Fprintf(c.Out, "  - %s%s\n", d.Name, note)
	}
	return fmt.Sprintf("%d capture device(s)", len(devices)), nil
}

func (c *Checker) selectedDevice() (*audio.DeviceInfo, error) {
	if c.Device == "" {
		return nil, nil
	}
	devices, err := c.Audio.Devices()
	if err != nil {
		return nil, err
	}
	return audio.FindDevice(devices, c.Device)
}

// checkCalibration measures the ambient noise the same way a capture session
// does before it starts listening for speech.
func (c *Checker) checkCalibration(ctx context.Context) (string, error) {
	cfg := c.Capture
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	device, err := c.selectedDevice()
	if err != nil {
		return "", err
	}

	stream, err := c.Audio.Open(device, audio.StreamConfig{
		SampleRate: uint32(cfg.SampleRate),
		Channels:   1,
		Format:     audio.FormatFloat32,
	})
	if err != nil {
		return "", fmt.Errorf("cannot open microphone: %w", err)
	}
	defer stream.Close()

	fmt.Fprintf(c.Out, "  Stay quiet for %s...\n", cfg.CalibrationDuration)
	ctx, cancel := context.WithTimeout(ctx, cfg.CalibrationDuration+5*time.Second)
	defer cancel()

	levels := make([]float64, 0, cfg.CalibrationBlocks())
	for range cfg.CalibrationBlocks() {
		block, err := stream.ReadBlock(ctx, cfg.BlockFrames())
		if err != nil {
			return "", fmt.Errorf("read failed: %w", err)
		}
		levels = append(levels, capture.RMS(block))
	}
	cal := capture.Calibrate(levels, cfg.ThresholdMultiplier, cfg.MinThreshold)

	msg := fmt.Sprintf("noise RMS %.4f, speech threshold %.4f", cal.NoiseRMS, cal.Threshold)
	if cal.NoiseRMS == 0 {
		return "", fmt.Errorf("%s: microphone returned pure silence (muted?)", msg)
	}
	return msg, nil
}

func (c *Checker) checkKeys(context.Context) (string, error) {
	var found []string
	for _, k := range apiKeys {
		if c.Getenv(k) != "" {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return "", fmt.Errorf("none of %s is set", strings.Join(apiKeys, ", "))
	}
	if c.Getenv("OPENAI_API_KEY") == "" {
		fmt.Fprintln(c.Out, "  note: grammar correction needs OPENAI_API_KEY and will be skipped")
	}
	return strings.Join(found, ", ") + " set", nil
}

// checkClipboard writes a marker, reads it back and restores the previous
// content. Clipboard tools can hang when no display is reachable, so the
// round trip is bounded.
func (c *Checker) checkClipboard(ctx context.Context) (string, error) {
	marker := fmt.Sprintf("earshot-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
	}
	ch := make(chan cbResult, 1)
	go func() {
		prev, _ := c.Read()
		defer c.Copy(prev)
		if err := c.Copy(marker); err != nil {
			ch <- cbResult{err: fmt.Errorf("clipboard write failed: %w", err)}
			return
		}
		got, err := c.Read()
		if err != nil {
			ch <- cbResult{err: fmt.Errorf("clipboard read failed: %w", err)}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		if res.readback != marker {
			return "", fmt.Errorf("clipboard mismatch: wrote %q, got %q", marker, res.readback)
		}
		return "clipboard write/read verified", nil
	case <-time.After(3 * time.Second):
		return "", fmt.Errorf("clipboard timed out (clipboard tool hung, display not accessible?)")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
