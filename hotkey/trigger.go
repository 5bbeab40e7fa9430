package hotkey

import (
	"context"
	"sync"
	"sync/atomic"
)

// Trigger runs one cycle per key press. Presses that arrive while a cycle is
// still running are dropped.
type Trigger struct {
	hk      Hotkey
	busy    atomic.Bool
	dropped atomic.Int64
	wg      sync.WaitGroup
}

func NewTrigger(hk Hotkey) *Trigger {
	return &Trigger{hk: hk}
}

// Run dispatches presses to cycle until ctx is done, then waits for the
// running cycle to return. cycle receives ctx, so cancelling it also stops
// an in-flight capture.
func (t *Trigger) Run(ctx context.Context, cycle func(context.Context)) {
	defer t.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.hk.Keyup():
		case <-t.hk.Keydown():
			if !t.busy.CompareAndSwap(false, true) {
				t.dropped.Add(1)
				continue
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				defer t.busy.Store(false)
				cycle(ctx)
			}()
		}
	}
}

// Busy reports whether a cycle is running.
func (t *Trigger) Busy() bool { return t.busy.Load() }

// Dropped is the number of presses ignored because a cycle was running.
func (t *Trigger) Dropped() int64 { return t.dropped.Load() }
