//go:build unix

package daemonize

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// detachEnv marks the re-executed child so it does not detach again.
const detachEnv = "TCLLAUNCHER_DETACHED"

// Options configures one daemonization call. The zero value is the default
// and safe path: change directory to the filesystem root and attach all
// three standard streams to the null device.
type Options struct {
	// SkipClose leaves standard streams that are already backed by a live
	// descriptor untouched; only missing streams are attached to the null
	// device.
	SkipClose bool
	// SkipChdir keeps the current working directory instead of changing to
	// the filesystem root.
	SkipChdir bool
}

// Detached reports whether this process is a re-executed daemon child that
// has not yet passed through Daemonize.
func Detached() bool {
	return os.Getenv(detachEnv) != ""
}

// Daemonize detaches the current process from its controlling terminal.
//
// In the original foreground process it spawns a detached copy of the
// current binary and exits with a success status; only the copy returns from
// this call, running as a session leader with streams and working directory
// arranged per opts. A spawn failure is reported as an error before any
// process-level side effect has occurred.
func Daemonize(opts Options) error {
	if os.Getenv(detachEnv) != "" {
		// Already the detached child.
		return os.Unsetenv(detachEnv)
	}

	cmd, err := childCommand(opts)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("detach: %w", err)
	}
	_ = cmd.Process.Release()
	os.Exit(0)
	return nil
}

// childCommand builds the detached copy of the current process. os/exec
// attaches the null device to any stdio field left nil, which is exactly the
// stream semantics the detach needs.
func childCommand(opts Options) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), detachEnv+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if !opts.SkipChdir {
		cmd.Dir = "/"
	}
	if opts.SkipClose {
		if stdStreamValid(0) {
			cmd.Stdin = os.Stdin
		}
		if stdStreamValid(1) {
			cmd.Stdout = os.Stdout
		}
		if stdStreamValid(2) {
			cmd.Stderr = os.Stderr
		}
	}
	return cmd, nil
}
