package encoder

import (
	"fmt"
	"time"
)

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns a stream of 16-bit mono PCM blocks into an upload body.
// Bytes is only complete after Close.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
	Format() string
	ContentType() string
}

// New returns an encoder for format ("wav" or "flac"). An empty format means wav.
func New(format string, sampleRate int) (Encoder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	switch format {
	case "", "wav":
		return NewWav(sampleRate), nil
	case "flac":
		return NewFlac(sampleRate)
	default:
		return nil, fmt.Errorf("unsupported format %q (want wav or flac)", format)
	}
}
