package main

import (
	"fmt"

	"earshot/audio"
)

// testAudio stands in for the microphone with a WAV file played back at real
// speed and followed by silence, so a run ends the way a live one would.
func testAudio(path string) (audio.Context, error) {
	ctx, err := audio.NewFakeContextFromWAV(path, true)
	if err != nil {
		return nil, fmt.Errorf("test audio %s: %w", path, err)
	}
	return ctx, nil
}
