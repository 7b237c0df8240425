//go:build unix

package main

import (
	"os"
	"syscall"
)

func wakeSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}
