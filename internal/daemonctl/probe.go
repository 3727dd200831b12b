// Package daemonctl inspects the preloader daemon from the outside: it reads
// the PID file and probes the recorded process without talking to the
// control socket.
package daemonctl

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"winter/internal/paths"
)

// ReadPID returns the leading decimal integer of the PID file. Leading
// whitespace is skipped and anything after the digits is ignored.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	data = bytes.TrimLeft(data, " \t\r\n\v\f")
	end := 0
	if end < len(data) && (data[end] == '-' || data[end] == '+') {
		end++
	}
	for end < len(data) && data[end] >= '0' && data[end] <= '9' {
		end++
	}
	pid, err := strconv.Atoi(string(data[:end]))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %q: %w", path, err)
	}
	return pid, nil
}

// IsRunning probes the process recorded in pidPath with signal 0. A missing
// or unparsable file, a non-positive PID and ESRCH all mean not running; any
// other outcome, EPERM included, means running.
func IsRunning(pidPath string) (int, bool) {
	pid, err := ReadPID(pidPath)
	if err != nil || pid <= 0 {
		return 0, false
	}
	if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
		return 0, false
	}
	return pid, true
}

// ProcessGroup reports the process group of pid, or 0 if it cannot be read.
func ProcessGroup(pid int) int {
	if pid <= 0 {
		return 0
	}
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return 0
	}
	return pgid
}

// Status is a point-in-time view of the daemon's runtime files.
type Status struct {
	Layout         paths.Layout
	Running        bool
	PID            int
	ProcessGroup   int
	SocketPresent  bool
	PIDFilePresent bool
}

// Snapshot collects Status for layout. It never fails; unreadable files
// simply show up as absent.
func Snapshot(layout paths.Layout) Status {
	st := Status{Layout: layout}
	st.PID, st.Running = IsRunning(layout.PIDFile)
	if st.Running {
		st.ProcessGroup = ProcessGroup(st.PID)
	}
	if info, err := os.Stat(layout.Socket); err == nil && info.Mode()&os.ModeSocket != 0 {
		st.SocketPresent = true
	}
	if _, err := os.Stat(layout.PIDFile); err == nil {
		st.PIDFilePresent = true
	}
	return st
}
