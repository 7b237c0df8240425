//go:build !unix

package main

import "os"

// No wake signal outside unix; only the interval refreshes.
func wakeSignals() []os.Signal {
	return nil
}
