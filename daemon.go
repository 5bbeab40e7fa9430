package main

import (
	"context"
	"fmt"
	"io"

	"earshot/hotkey"
	"earshot/log"
)

// runDaemon listens once per hotkey press until ctx is done. Presses during
// a running cycle are ignored.
func runDaemon(ctx context.Context, a *app, hk hotkey.Hotkey, stderr io.Writer) error {
	return serveHotkey(ctx, a, hk, func(_ *listenResult, err error) {
		if err != nil {
			reportError(stderr, err)
		}
	})
}

func serveHotkey(ctx context.Context, a *app, hk hotkey.Hotkey, done func(*listenResult, error)) error {
	if err := hk.Register(); err != nil {
		return fmt.Errorf("registering hotkey %s: %w", hotkey.Combo, err)
	}
	defer hk.Unregister()

	fmt.Fprintf(a.out, "Press %s to listen, Ctrl+C to quit.\n", hotkey.Combo)
	log.Info("hotkey daemon started")

	t := hotkey.NewTrigger(hk)
	t.Run(ctx, func(ctx context.Context) {
		res, err := a.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		done(res, err)
	})
	if n := t.Dropped(); n > 0 {
		log.Warnf("ignored %d hotkey presses while busy", n)
	}
	return nil
}
