package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SampleFormat describes the samples a Stream delivers.
type SampleFormat int

const (
	// FormatFloat32 is single precision in [-1, 1], interleaved when Channels > 1.
	FormatFloat32 SampleFormat = iota
)

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32:
		return "float32"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

var (
	ErrStreamClosed      = errors.New("audio: stream closed")
	ErrUnsupportedFormat = errors.New("audio: unsupported sample format")
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type StreamConfig struct {
	SampleRate uint32
	Channels   uint32
	Format     SampleFormat
}

func (c StreamConfig) validate() error {
	if c.Format != FormatFloat32 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, c.Format)
	}
	if c.SampleRate == 0 {
		return errors.New("audio: sample rate must be positive")
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("audio: unsupported channel count %d", c.Channels)
	}
	return nil
}

// bufferLimit caps how much unread audio a stream holds before dropping the oldest samples.
func (c StreamConfig) bufferLimit() int {
	return int(c.SampleRate*c.Channels) * 10
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

// Opener opens input streams. A nil device means the system default.
type Opener interface {
	Open(device *DeviceInfo, config StreamConfig) (Stream, error)
}

type Context interface {
	Opener
	Devices() ([]DeviceInfo, error)
	Close()
}

// Stream is a blocking source of samples. It has exactly one reader.
type Stream interface {
	// ReadBlock blocks until frames frames are buffered, ctx is done or the
	// stream fails. The returned slice is owned by the caller.
	ReadBlock(ctx context.Context, frames int) ([]float32, error)
	Close() error
}

// FindDevice returns the device whose name matches name, preferring an exact
// (case-insensitive) match over a substring match.
func FindDevice(devices []DeviceInfo, name string) (*DeviceInfo, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil, errors.New("audio: empty device name")
	}
	var partial *DeviceInfo
	for i := range devices {
		got := strings.ToLower(devices[i].Name)
		if got == want {
			return &devices[i], nil
		}
		if partial == nil && strings.Contains(got, want) {
			partial = &devices[i]
		}
	}
	if partial != nil {
		return partial, nil
	}
	return nil, fmt.Errorf("audio: no capture device matching %q", name)
}
