package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

var errDeviceStopped = errors.New("audio: capture device stopped")

// sampleQueue turns the push-style callbacks of the native backends into
// blocking reads. Only one goroutine may call read.
type sampleQueue struct {
	mu      sync.Mutex
	buf     []float32
	limit   int
	dropped int
	err     error
	closed  bool
	ready   chan struct{}
}

func newSampleQueue(limit int) *sampleQueue {
	return &sampleQueue{limit: limit, ready: make(chan struct{}, 1)}
}

func (q *sampleQueue) push(samples []float32) {
	q.mu.Lock()
	if q.closed || q.err != nil {
		q.mu.Unlock()
		return
	}
	q.buf = append(q.buf, samples...)
	if over := len(q.buf) - q.limit; q.limit > 0 && over > 0 {
		q.buf = append(q.buf[:0], q.buf[over:]...)
		q.dropped += over
	}
	q.mu.Unlock()
	q.signal()
}

func (q *sampleQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// fail records the first backend error. Samples buffered before the failure
// are still delivered.
func (q *sampleQueue) fail(err error) {
	q.mu.Lock()
	if q.err == nil && !q.closed {
		q.err = err
	}
	q.mu.Unlock()
	q.signal()
}

// watch polls failed every interval until it reports an error, which then
// fails the queue, or until stop is closed. Backends without a stop
// callback use it to notice a lost device.
func (q *sampleQueue) watch(stop <-chan struct{}, interval time.Duration, failed func() error) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := failed(); err != nil {
				q.fail(err)
				return
			}
		}
	}
}

func (q *sampleQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.buf = nil
	q.mu.Unlock()
	q.signal()
}

func (q *sampleQueue) droppedSamples() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *sampleQueue) read(ctx context.Context, n int) ([]float32, error) {
	if n <= 0 {
		return nil, fmt.Errorf("audio: invalid read size %d", n)
	}
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrStreamClosed
		}
		if len(q.buf) >= n {
			out := make([]float32, n)
			copy(out, q.buf)
			q.buf = append(q.buf[:0], q.buf[n:]...)
			q.mu.Unlock()
			return out, nil
		}
		if q.err != nil {
			err := q.err
			q.mu.Unlock()
			return nil, err
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// decodeFloat32LE converts little-endian IEEE 754 bytes to samples.
func decodeFloat32LE(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
