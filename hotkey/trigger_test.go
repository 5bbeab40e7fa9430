package hotkey

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTriggerIgnoresPressesWhileBusy(t *testing.T) {
	fk := NewFake()
	tr := NewTrigger(fk)

	var cycles atomic.Int32
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, func(context.Context) {
			cycles.Add(1)
			<-release
		})
		close(done)
	}()

	fk.SimKeydown()
	waitFor(t, "first cycle", func() bool { return cycles.Load() == 1 })

	fk.SimKeyup()
	fk.SimKeydown()
	waitFor(t, "dropped press", func() bool { return tr.Dropped() == 1 })
	if !tr.Busy() {
		t.Error("trigger should be busy")
	}

	close(release)
	waitFor(t, "idle", func() bool { return !tr.Busy() })

	fk.SimKeydown()
	waitFor(t, "second cycle", func() bool { return cycles.Load() == 2 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTriggerCancelReachesCycle(t *testing.T) {
	fk := NewFake()
	tr := NewTrigger(fk)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var sawCancel atomic.Bool
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			sawCancel.Store(true)
		})
		close(done)
	}()

	fk.SimKeydown()
	<-started
	cancel()
	<-done
	if !sawCancel.Load() {
		t.Error("Run returned before the cycle observed cancellation")
	}
}

func TestComboState(t *testing.T) {
	type ev struct {
		code  uint16
		value int32
	}
	tests := []struct {
		name     string
		events   []ev
		wantDown int
		wantUp   int
	}{
		{"combo", []ev{{keyLCtrl, 1}, {keyLShift, 1}, {keySpace, 1}, {keySpace, 0}}, 1, 1},
		{"right modifiers", []ev{{keyRCtrl, 1}, {keyRShift, 1}, {keySpace, 1}, {keySpace, 0}}, 1, 1},
		{"space alone", []ev{{keySpace, 1}, {keySpace, 0}}, 0, 0},
		{"ctrl released first", []ev{{keyLCtrl, 1}, {keyLShift, 1}, {keyLCtrl, 0}, {keySpace, 1}}, 0, 0},
		{"autorepeat", []ev{{keyLCtrl, 1}, {keyLShift, 1}, {keyLCtrl, 2}, {keySpace, 1}, {keySpace, 2}, {keySpace, 2}, {keySpace, 0}}, 1, 1},
		{"release after modifiers up", []ev{{keyLCtrl, 1}, {keyLShift, 1}, {keySpace, 1}, {keyLCtrl, 0}, {keyLShift, 0}, {keySpace, 0}}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s comboState
			var downs, ups int
			for _, e := range tt.events {
				d, u := s.feed(e.code, e.value)
				if d {
					downs++
				}
				if u {
					ups++
				}
			}
			if downs != tt.wantDown || ups != tt.wantUp {
				t.Errorf("down/up = %d/%d, want %d/%d", downs, ups, tt.wantDown, tt.wantUp)
			}
		})
	}
}
