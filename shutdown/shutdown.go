// Package shutdown turns interrupt signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// forceExit runs on the second signal.
var forceExit = func() { os.Exit(130) }

// Context returns a child of parent that is cancelled on the first interrupt
// so in-flight work can release its devices. A second interrupt exits the
// process. Call stop to release the signal handler.
func Context(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, signals...)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			cancel()
		case <-done:
			return
		}
		select {
		case <-ch:
			forceExit()
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		close(done)
		cancel()
	}
}
