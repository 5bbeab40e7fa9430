//go:build linux

package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sources {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}

func (p *pulseContext) Open(device *DeviceInfo, config StreamConfig) (Stream, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	queue := newSampleQueue(config.bufferLimit())
	writer := pulse.Float32Writer(func(buf []float32) (int, error) {
		if len(buf) > 0 {
			queue.push(buf)
		}
		return len(buf), nil
	})

	var channels pulse.RecordOption = pulse.RecordMono
	if config.Channels == 2 {
		channels = pulse.RecordStereo
	}
	opts := []pulse.RecordOption{
		channels,
		pulse.RecordSampleRate(int(config.SampleRate)),
		pulse.RecordLatency(0.05),
	}
	if device != nil {
		source, err := p.client.SourceByID(device.ID)
		if err != nil {
			return nil, fmt.Errorf("pulse source %q: %w", device.Name, err)
		}
		opts = append(opts, pulse.RecordSource(source))
	}

	stream, err := p.client.NewRecord(writer, opts...)
	if err != nil {
		return nil, fmt.Errorf("pulse record: %w", err)
	}
	stream.Start()

	ps := &pulseStream{stream: stream, queue: queue, channels: int(config.Channels), stop: make(chan struct{})}
	go queue.watch(ps.stop, streamPollInterval, ps.failure)
	return ps, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

// The pulse client has no stop callback; a lost server or killed stream is
// only visible through Closed and Error.
const streamPollInterval = 50 * time.Millisecond

type pulseStream struct {
	stream   *pulse.RecordStream
	queue    *sampleQueue
	channels int
	stop     chan struct{}
	once     sync.Once
}

func (s *pulseStream) failure() error {
	if !s.stream.Closed() {
		return nil
	}
	if err := s.stream.Error(); err != nil {
		return fmt.Errorf("%w: %w", errDeviceStopped, err)
	}
	return errDeviceStopped
}

func (s *pulseStream) ReadBlock(ctx context.Context, frames int) ([]float32, error) {
	return s.queue.read(ctx, frames*s.channels)
}

func (s *pulseStream) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.queue.close()
		s.stream.Stop()
		s.stream.Close()
	})
	return nil
}
