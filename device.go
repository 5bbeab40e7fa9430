package main

import (
	"fmt"

	"earshot/audio"
)

// resolveDevice picks the capture device: the named one, an interactive
// choice with setup, or nil for the system default.
func resolveDevice(l audio.Lister, name string, setup bool) (*audio.DeviceInfo, error) {
	if name != "" {
		devices, err := l.Devices()
		if err != nil {
			return nil, fmt.Errorf("listing devices: %w", err)
		}
		return audio.FindDevice(devices, name)
	}
	if !setup {
		return nil, nil
	}
	dev, err := audio.SelectDevice(l, "")
	if err != nil {
		return nil, fmt.Errorf("device selection: %w", err)
	}
	return dev, nil
}

func deviceLabel(dev *audio.DeviceInfo) string {
	if dev == nil {
		return "default"
	}
	return dev.Name
}
