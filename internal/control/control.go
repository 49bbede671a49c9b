//go:build unix

// Package control inspects and stops a running launcher from the outside.
// It never contends for ownership: liveness is probed through the advisory
// lock, and the pidfile content is only read, never written.
package control

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/skyhawk180/tcllauncher/internal/pidfile"
)

// ErrNotRunning indicates no live owner holds the pidfile lock.
var ErrNotRunning = errors.New("no running instance")

// Status describes the observable state of an instance slot.
type Status struct {
	Running bool
	PID     int // owner pid when running, stale pid when not (0 if unknown)
	PidFile string
	Mtime   int64 // pidfile mtime, -1 when the file is missing
}

// Probe reports whether a live process owns the pidfile at pidPath. The
// probe takes and immediately releases the lock when it is free, so it is
// safe against a running owner: a held lock is never touched.
func Probe(pidPath string) (Status, error) {
	status := Status{PidFile: pidPath, Mtime: pidfile.Mtime(pidPath)}

	if _, err := os.Stat(pidPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return status, nil
		}
		return status, fmt.Errorf("stat pidfile: %w", err)
	}

	if pid, err := pidfile.Read(pidPath); err == nil {
		status.PID = pid
	}

	lock := flock.New(pidPath)
	locked, err := lock.TryLock()
	if err != nil {
		return status, fmt.Errorf("probe pidfile lock: %w", err)
	}
	if locked {
		// Lock was free: the recorded pid is stale.
		_ = lock.Unlock()
		return status, nil
	}

	status.Running = true
	return status, nil
}

// Stop terminates the running owner of pidPath: SIGTERM first, then SIGKILL
// once grace expires. It returns the stopped pid, or ErrNotRunning when the
// slot has no live owner.
func Stop(pidPath string, grace time.Duration) (int, error) {
	status, err := Probe(pidPath)
	if err != nil {
		return 0, err
	}
	if !status.Running {
		return 0, ErrNotRunning
	}
	if status.PID <= 0 {
		return 0, fmt.Errorf("pidfile %s does not name its owner", pidPath)
	}
	if status.PID == os.Getpid() {
		return 0, fmt.Errorf("refusing to stop current process (pid %d)", status.PID)
	}

	proc, err := os.FindProcess(status.PID)
	if err != nil {
		return 0, fmt.Errorf("locate process %d: %w", status.PID, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return status.PID, nil
		}
		return 0, fmt.Errorf("signal process %d: %w", status.PID, err)
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		current, err := Probe(pidPath)
		if err == nil && !current.Running {
			return status.PID, nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Grace expired; the owner cannot clean up after SIGKILL, so the stale
	// pidfile is removed on its behalf.
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return status.PID, fmt.Errorf("kill process %d: %w", status.PID, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return status.PID, fmt.Errorf("remove stale pidfile: %w", err)
	}
	return status.PID, nil
}
