//go:build !windows

package main

import (
	"os"
	"syscall"
)

// refreshSignals request an immediate fetch from outside the TUI.
var refreshSignals = []os.Signal{syscall.SIGUSR1}
