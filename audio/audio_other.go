//go:build !linux

package audio

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) Open(device *DeviceInfo, config StreamConfig) (Stream, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = config.Channels
	deviceConfig.SampleRate = config.SampleRate

	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
	}

	queue := newSampleQueue(config.bufferLimit())
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, _ uint32) {
			queue.push(decodeFloat32LE(data))
		},
		Stop: func() {
			queue.fail(errDeviceStopped)
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo init device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("malgo start: %w", err)
	}

	return &malgoStream{device: dev, queue: queue, channels: int(config.Channels)}, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoStream struct {
	device   *malgo.Device
	queue    *sampleQueue
	channels int
	once     sync.Once
}

func (s *malgoStream) ReadBlock(ctx context.Context, frames int) ([]float32, error) {
	return s.queue.read(ctx, frames*s.channels)
}

func (s *malgoStream) Close() error {
	var err error
	s.once.Do(func() {
		s.queue.close()
		err = s.device.Stop()
		s.device.Uninit()
	})
	return err
}
