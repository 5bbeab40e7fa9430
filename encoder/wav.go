package encoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
)

const WAVHeaderSize = 44

var ErrNotWAV = errors.New("not a PCM16 mono WAV file")

type WavEncoder struct {
	sampleRate  int
	data        bytes.Buffer
	out         []byte
	totalFrames uint64
	encodeTime  time.Duration
	mu          sync.Mutex
}

func NewWav(sampleRate int) *WavEncoder {
	return &WavEncoder{sampleRate: sampleRate}
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out != nil {
		return errors.New("wav encoder already closed")
	}
	if err := binary.Write(&e.data, binary.LittleEndian, block); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

// Close prepends the RIFF header now that the data size is known.
func (e *WavEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out != nil {
		return nil
	}
	out := make([]byte, 0, WAVHeaderSize+e.data.Len())
	out = appendHeader(out, e.sampleRate, e.data.Len())
	e.out = append(out, e.data.Bytes()...)
	e.data.Reset()
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out
}

func (e *WavEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

func (e *WavEncoder) AddEncodeTime(d time.Duration) {
	e.mu.Lock()
	e.encodeTime += d
	e.mu.Unlock()
}

func (e *WavEncoder) EncodeTime() time.Duration {
	return e.encodeTime
}

func (e *WavEncoder) Format() string      { return "wav" }
func (e *WavEncoder) ContentType() string { return "audio/wav" }

func appendHeader(dst []byte, sampleRate, dataSize int) []byte {
	blockAlign := Channels * BitsPerSample / 8
	le := binary.LittleEndian
	dst = append(dst, "RIFF"...)
	dst = le.AppendUint32(dst, uint32(36+dataSize))
	dst = append(dst, "WAVEfmt "...)
	dst = le.AppendUint32(dst, 16) // PCM fmt chunk size
	dst = le.AppendUint16(dst, 1)  // PCM
	dst = le.AppendUint16(dst, Channels)
	dst = le.AppendUint32(dst, uint32(sampleRate))
	dst = le.AppendUint32(dst, uint32(sampleRate*blockAlign))
	dst = le.AppendUint16(dst, uint16(blockAlign))
	dst = le.AppendUint16(dst, BitsPerSample)
	dst = append(dst, "data"...)
	dst = le.AppendUint32(dst, uint32(dataSize))
	return dst
}

// EncodeWAV returns a complete 16-bit PCM mono WAV file.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	e := NewWav(sampleRate)
	e.EncodeBlock(samples)
	e.Close()
	return e.Bytes()
}

// DecodeWAV reads a canonical 44-byte-header PCM16 mono WAV file.
func DecodeWAV(data []byte) (samples []int16, sampleRate int, err error) {
	if len(data) < WAVHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}
	le := binary.LittleEndian
	if le.Uint16(data[20:]) != 1 || le.Uint16(data[22:]) != Channels || le.Uint16(data[34:]) != BitsPerSample {
		return nil, 0, ErrNotWAV
	}
	sampleRate = int(le.Uint32(data[24:]))
	pcm := data[WAVHeaderSize:]
	if size := int(le.Uint32(data[40:])); size < len(pcm) {
		pcm = pcm[:size]
	}
	samples = make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(le.Uint16(pcm[i*2:]))
	}
	return samples, sampleRate, nil
}
