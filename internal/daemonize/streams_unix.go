//go:build unix

package daemonize

import "golang.org/x/sys/unix"

// stdStreamValid probes a standard descriptor with a no-op fcntl. There is
// no portable way to enumerate live standard channels, but F_GETFD fails
// with EBADF exactly when nothing is attached.
func stdStreamValid(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}
