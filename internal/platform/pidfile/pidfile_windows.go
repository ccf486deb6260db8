//go:build windows

package pidfile

import "os"

// Windows has no signal-0 probe; os.Interrupt at least validates the handle.
var probeSignal = os.Interrupt
