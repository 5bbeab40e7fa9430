package audio

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"earshot/encoder"
)

// FakeContext replays canned mono samples as a capture device. Once the
// samples run out every read returns silence, like an idle microphone.
type FakeContext struct {
	samples  []float32
	realtime bool

	mu      sync.Mutex
	openErr error
	opened  int
	closed  int
}

func NewFakeContext(samples []float32, realtime bool) *FakeContext {
	return &FakeContext{samples: samples, realtime: realtime}
}

// NewFakeContextFromWAV loads a 16-bit PCM mono WAV file. The file's sample
// rate must match the rate streams are opened with.
func NewFakeContextFromWAV(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	pcm, _, err := encoder.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", wavPath, err)
	}
	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32768
	}
	return NewFakeContext(samples, realtime), nil
}

// FailOpen makes every following Open return err.
func (f *FakeContext) FailOpen(err error) {
	f.mu.Lock()
	f.openErr = err
	f.mu.Unlock()
}

// OpenStreams reports how many streams are open right now.
func (f *FakeContext) OpenStreams() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened - f.closed
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) Open(_ *DeviceInfo, config StreamConfig) (Stream, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &fakeStream{ctx: f, samples: f.samples, sampleRate: int(config.SampleRate), realtime: f.realtime}, nil
}

type fakeStream struct {
	ctx        *FakeContext
	samples    []float32
	pos        int
	sampleRate int
	realtime   bool
	closed     bool
}

func (s *fakeStream) ReadBlock(ctx context.Context, frames int) ([]float32, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.realtime {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(frames) * time.Second / time.Duration(s.sampleRate)):
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]float32, frames)
	if s.pos < len(s.samples) {
		n := copy(out, s.samples[s.pos:])
		s.pos += n
	}
	return out, nil
}

func (s *fakeStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.ctx.mu.Lock()
	s.ctx.closed++
	s.ctx.mu.Unlock()
	return nil
}
