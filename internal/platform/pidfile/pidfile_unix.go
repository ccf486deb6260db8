//go:build !windows

package pidfile

import "syscall"

var probeSignal = syscall.Signal(0)
