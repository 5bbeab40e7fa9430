//go:build !windows

package shutdown

import (
	"os"
	"syscall"
)

// A closed terminal (SIGHUP) also ends the session so the microphone is
// released.
var signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
