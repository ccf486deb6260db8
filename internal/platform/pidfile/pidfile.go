package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PidFile holds an exclusive process pidfile for the lifetime of the
// daemon. Acquire fails when another live process already owns the file;
// a pidfile left behind by a dead process is reclaimed.
type PidFile struct {
	path string
}

func Acquire(path string) (*PidFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("pidfile path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create pidfile directory: %w", err)
		}
	}
	if pid, ok := readPid(path); ok && processAlive(pid) {
		return nil, fmt.Errorf("service already running with pid %d (pidfile %s)", pid, path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open pidfile: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return nil, fmt.Errorf("write pidfile: %w", err)
	}
	return &PidFile{path: path}, nil
}

// Release removes the pidfile. Safe to call once at shutdown.
func (p *PidFile) Release() error {
	if p == nil {
		return nil
	}
	if pid, ok := readPid(p.path); ok && pid != os.Getpid() {
		// Someone else reclaimed it; leave it alone.
		return nil
	}
	return os.Remove(p.path)
}

func readPid(path string) (int, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func processAlive(pid int) bool {
	// Signal 0 probes for existence without delivering anything.
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(probeSignal) == nil
}
