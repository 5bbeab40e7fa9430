package encoder

import (
	"encoding/binary"
	"errors"
	"slices"
	"testing"
)

func TestWavEncoderHeader(t *testing.T) {
	enc := NewWav(16000)
	samples := []int16{0, 1000, -1000, 32767, -32768}
	if err := enc.EncodeBlock(samples[:2]); err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeBlock(samples[2:]); err != nil {
		t.Fatal(err)
	}
	if enc.Bytes() != nil {
		t.Error("Bytes before Close should be nil")
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	data := enc.Bytes()
	le := binary.LittleEndian
	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", le.Uint32(data[4:]), uint32(36 + len(samples)*2)},
		{"fmt size", le.Uint32(data[16:]), 16},
		{"format", uint32(le.Uint16(data[20:])), 1},
		{"channels", uint32(le.Uint16(data[22:])), 1},
		{"sample rate", le.Uint32(data[24:]), 16000},
		{"byte rate", le.Uint32(data[28:]), 32000},
		{"block align", uint32(le.Uint16(data[32:])), 2},
		{"bits", uint32(le.Uint16(data[34:])), 16},
		{"data size", le.Uint32(data[40:]), uint32(len(samples) * 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %d, want %d", tt.got, tt.want)
			}
		})
	}
	if string(data[0:4]) != "RIFF" || string(data[8:16]) != "WAVEfmt " || string(data[36:40]) != "data" {
		t.Error("bad chunk ids")
	}
	if len(data) != WAVHeaderSize+len(samples)*2 {
		t.Errorf("len = %d", len(data))
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d", enc.TotalFrames())
	}
	if err := enc.EncodeBlock(samples); err == nil {
		t.Error("EncodeBlock after Close should fail")
	}
}

func TestEncodeDecodeWAV(t *testing.T) {
	samples := sine(1600, 16000, 300)
	data := EncodeWAV(samples, 16000)

	got, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d", rate)
	}
	if !slices.Equal(got, samples) {
		t.Error("decoded samples differ")
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	data := EncodeWAV(nil, 16000)
	if len(data) != WAVHeaderSize {
		t.Fatalf("len = %d, want header only", len(data))
	}
	got, _, err := DecodeWAV(data)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestDecodeWAVRejects(t *testing.T) {
	stereo := EncodeWAV([]int16{1, 2}, 16000)
	binary.LittleEndian.PutUint16(stereo[22:], 2)

	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("RIFF")},
		{"not riff", make([]byte, 64)},
		{"stereo", stereo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeWAV(tt.data); !errors.Is(err, ErrNotWAV) {
				t.Errorf("err = %v, want ErrNotWAV", err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"", "wav", false},
		{"wav", "wav", false},
		{"flac", "flac", false},
		{"mp3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := New(tt.format, 16000)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && enc.Format() != tt.want {
				t.Errorf("format = %s, want %s", enc.Format(), tt.want)
			}
		})
	}
	if _, err := New("wav", 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
