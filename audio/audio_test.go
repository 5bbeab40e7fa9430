package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"earshot/encoder"
)

func TestSampleQueueReadBlocksUntilEnough(t *testing.T) {
	q := newSampleQueue(0)
	done := make(chan []float32)
	go func() {
		out, err := q.read(context.Background(), 4)
		if err != nil {
			t.Errorf("read: %v", err)
		}
		done <- out
	}()

	q.push([]float32{1, 2})
	select {
	case <-done:
		t.Fatal("read returned before enough samples were pushed")
	case <-time.After(20 * time.Millisecond):
	}
	q.push([]float32{3, 4, 5})

	out := <-done
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	rest, err := q.read(context.Background(), 1)
	if err != nil || rest[0] != 5 {
		t.Fatalf("leftover = %v, %v; want [5]", rest, err)
	}
}

func TestSampleQueueContextCancel(t *testing.T) {
	q := newSampleQueue(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.read(ctx, 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestSampleQueueFailDeliversBufferedFirst(t *testing.T) {
	q := newSampleQueue(0)
	boom := errors.New("unplugged")
	q.push([]float32{1, 2})
	q.fail(boom)

	if _, err := q.read(context.Background(), 2); err != nil {
		t.Fatalf("buffered read: %v", err)
	}
	if _, err := q.read(context.Background(), 2); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestSampleQueueWatchFailsPendingRead(t *testing.T) {
	q := newSampleQueue(0)
	stop := make(chan struct{})
	defer close(stop)

	lost := errors.New("server lost")
	var polls atomic.Int32
	go q.watch(stop, time.Millisecond, func() error {
		if polls.Add(1) < 3 {
			return nil
		}
		return fmt.Errorf("%w: %w", errDeviceStopped, lost)
	})

	// The read must end with the backend error long before its deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	_, err := q.read(ctx, 10)
	if !errors.Is(err, errDeviceStopped) || !errors.Is(err, lost) {
		t.Fatalf("err = %v, want device stopped wrapping %v", err, lost)
	}
	if errors.Is(err, context.DeadlineExceeded) || time.Since(start) > time.Second {
		t.Fatalf("read waited for its deadline: %v after %v", err, time.Since(start))
	}
}

func TestSampleQueueWatchStops(t *testing.T) {
	q := newSampleQueue(0)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		q.watch(stop, time.Millisecond, func() error { return nil })
		close(done)
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after stop")
	}
}

func TestSampleQueueClosed(t *testing.T) {
	q := newSampleQueue(0)
	q.push([]float32{1, 2, 3})
	q.close()
	if _, err := q.read(context.Background(), 1); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("err = %v, want ErrStreamClosed", err)
	}
	q.push([]float32{4})
	q.fail(errors.New("late"))
	if _, err := q.read(context.Background(), 1); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("err after close = %v, want ErrStreamClosed", err)
	}
}

func TestSampleQueueDropsOldest(t *testing.T) {
	q := newSampleQueue(3)
	q.push([]float32{1, 2, 3, 4, 5})
	if got := q.droppedSamples(); got != 2 {
		t.Fatalf("dropped = %d, want 2", got)
	}
	out, err := q.read(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 3 || out[2] != 5 {
		t.Fatalf("out = %v, want [3 4 5]", out)
	}
}

func TestSampleQueueInvalidSize(t *testing.T) {
	q := newSampleQueue(0)
	if _, err := q.read(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero-length read")
	}
}

func TestDecodeFloat32LE(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(-1))
	got := decodeFloat32LE(data)
	if len(got) != 2 || got[0] != 0.5 || got[1] != -1 {
		t.Fatalf("got %v", got)
	}
}

func TestStreamConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StreamConfig
		wantErr bool
	}{
		{"mono", StreamConfig{SampleRate: 16000, Channels: 1}, false},
		{"stereo", StreamConfig{SampleRate: 48000, Channels: 2}, false},
		{"zero rate", StreamConfig{Channels: 1}, true},
		{"six channels", StreamConfig{SampleRate: 16000, Channels: 6}, true},
		{"bad format", StreamConfig{SampleRate: 16000, Channels: 1, Format: SampleFormat(7)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFindDevice(t *testing.T) {
	devices := []DeviceInfo{
		{ID: "1", Name: "Built-in Microphone"},
		{ID: "2", Name: "USB Mic"},
		{ID: "3", Name: "USB Mic Pro"},
	}
	tests := []struct {
		query  string
		wantID string
	}{
		{"usb mic", "2"},
		{"pro", "3"},
		{"built-in", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d, err := FindDevice(devices, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if d.ID != tt.wantID {
				t.Errorf("got %s, want %s", d.ID, tt.wantID)
			}
		})
	}

	if _, err := FindDevice(devices, "webcam"); err == nil {
		t.Error("expected error for unknown device")
	}
	if _, err := FindDevice(devices, " "); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestIsBluetooth(t *testing.T) {
	if !IsBluetooth("AirPods Pro") {
		t.Error("AirPods should be bluetooth")
	}
	if IsBluetooth("Built-in Microphone") {
		t.Error("built-in mic should not be bluetooth")
	}
}

func TestFakeContextReplaysThenSilence(t *testing.T) {
	f := NewFakeContext([]float32{0.1, 0.2, 0.3}, false)
	s, err := f.Open(nil, StreamConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	if f.OpenStreams() != 1 {
		t.Fatalf("open streams = %d, want 1", f.OpenStreams())
	}

	first, _ := s.ReadBlock(context.Background(), 2)
	second, _ := s.ReadBlock(context.Background(), 2)
	third, _ := s.ReadBlock(context.Background(), 2)
	if first[0] != 0.1 || first[1] != 0.2 {
		t.Errorf("first = %v", first)
	}
	if second[0] != 0.3 || second[1] != 0 {
		t.Errorf("second = %v", second)
	}
	if third[0] != 0 || third[1] != 0 {
		t.Errorf("third = %v", third)
	}

	s.Close()
	s.Close()
	if f.OpenStreams() != 0 {
		t.Fatalf("open streams after close = %d, want 0", f.OpenStreams())
	}
	if _, err := s.ReadBlock(context.Background(), 1); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("read after close = %v", err)
	}
}

func TestFakeContextFailOpen(t *testing.T) {
	f := NewFakeContext(nil, false)
	boom := errors.New("busy")
	f.FailOpen(boom)
	if _, err := f.Open(nil, StreamConfig{SampleRate: 16000, Channels: 1}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestNewFakeContextFromWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	data := encoder.EncodeWAV([]int16{16384, -16384}, 16000)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFakeContextFromWAV(path, false)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := f.Open(nil, StreamConfig{SampleRate: 16000, Channels: 1})
	defer s.Close()
	got, _ := s.ReadBlock(context.Background(), 2)
	if got[0] != 0.5 || got[1] != -0.5 {
		t.Fatalf("got %v", got)
	}
}

func TestFakeContextRealtimeHonorsContext(t *testing.T) {
	f := NewFakeContext(nil, true)
	s, _ := f.Open(nil, StreamConfig{SampleRate: 16000, Channels: 1})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// 16000 frames would take a second in realtime.
	if _, err := s.ReadBlock(ctx, 16000); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want Canceled", err)
	}
}

func TestNewFakeContextFromWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFakeContextFromWAV(path, false); !errors.Is(err, encoder.ErrNotWAV) {
		t.Fatalf("err = %v, want ErrNotWAV", err)
	}
}
