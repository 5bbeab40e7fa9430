//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// The hotkey backend needs the main thread on macOS.
	code := 0
	mainthread.Init(func() {
		code = run(os.Args[1:], os.Stdout, os.Stderr)
	})
	os.Exit(code)
}
