//go:build unix

package pidfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ExitLockLost is the process exit status for an owner that discovers its
// lock was lost between claim and write. Losing the lock while holding an
// open handle means another process could claim the slot at any moment, so
// the only safe response is immediate termination.
const ExitLockLost = 252

const defaultRunDir = "/var/run"

// ErrLockLost reports that the advisory lock was no longer held when Write
// re-checked ownership.
var ErrLockLost = errors.New("pidfile lock lost")

var errNoHandle = errors.New("no open pidfile handle")

// ProgrammingError signals caller misuse of the pidfile lifecycle: operating
// on a closed handle, or a handle whose descriptor no longer matches the
// (device, inode) identity recorded at claim time. These conditions are
// unreachable through correct use of the public API and are never retried.
type ProgrammingError struct {
	Op  string
	Err error
}

func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("pidfile %s: %v", e.Op, e.Err)
}

func (e *ProgrammingError) Unwrap() error { return e.Err }

// File is a claimed pidfile. The embedded descriptor exclusively owns the
// advisory lock; closing the descriptor releases it.
type File struct {
	path string
	f    *os.File
	dev  uint64
	ino  uint64
}

// Claim is the outcome of an Open attempt. Exactly one of the two cases
// holds: File is non-nil and this process owns the instance slot, or File is
// nil and OwnerPID names the current owner (0 when the owner's pidfile
// content could not be parsed).
type Claim struct {
	File     *File
	OwnerPID int
}

// Owned reports whether this process won the claim.
func (c Claim) Owned() bool { return c.File != nil }

// DefaultPath returns the conventional pidfile location for this program,
// derived from the invocation name.
func DefaultPath() string {
	return filepath.Join(defaultRunDir, filepath.Base(os.Args[0])+".pid")
}

// Open creates path if absent, opens it read/write with perm, and attempts a
// non-blocking exclusive flock. On success the returned Claim carries a live
// handle with the descriptor's (device, inode) identity recorded. When the
// lock is held elsewhere the Claim carries the owner's pid read from the
// file, and no descriptor is retained.
//
// An empty path defaults to DefaultPath. Failures to open or create the file
// propagate to the caller; contention does not.
func Open(path string, perm os.FileMode) (Claim, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, perm)
	if err != nil {
		return Claim{}, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
			pid := readOwnerPID(f)
			_ = f.Close()
			return Claim{OwnerPID: pid}, nil
		}
		_ = f.Close()
		return Claim{}, fmt.Errorf("lock %s: %w", path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
		return Claim{}, fmt.Errorf("stat %s: %w", path, err)
	}

	return Claim{File: &File{
		path: path,
		f:    f,
		dev:  uint64(st.Dev),
		ino:  uint64(st.Ino),
	}}, nil
}

// Read returns the pid recorded in the file at path without claiming or
// contending for the lock. It is the inspection path for callers that want
// to know the current owner.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, ok := parseLeadingPID(data)
	if !ok {
		return 0, fmt.Errorf("pidfile %s: content is not a pid", path)
	}
	return pid, nil
}

// Mtime returns the last-modified Unix time of the file at path, or -1 on
// any stat failure. It is advisory and never fatal.
func Mtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.ModTime().Unix()
}

// Path returns the filesystem path this handle was claimed against.
func (f *File) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// Write records the current process id in the pidfile as "<pid>\n".
//
// Before writing it verifies handle identity and re-attempts the
// non-blocking exclusive lock as an idempotent ownership check. A failed
// re-check returns ErrLockLost: the lock was lost to another process between
// claim and write, and the caller is expected to terminate with
// ExitLockLost.
func (f *File) Write() error {
	if err := f.Verify(); err != nil {
		return err
	}
	if err := unix.Flock(int(f.f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return fmt.Errorf("%w: %v", ErrLockLost, err)
	}
	if err := f.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", f.path, err)
	}
	if _, err := f.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", f.path, err)
	}
	if _, err := fmt.Fprintf(f.f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return f.f.Sync()
}

// Verify re-stats the open descriptor and compares its (device, inode)
// identity to the values recorded at claim time. Any mismatch, or a failure
// to stat an allegedly open descriptor, is a ProgrammingError.
func (f *File) Verify() error {
	if f == nil || f.f == nil {
		return &ProgrammingError{Op: "verify", Err: errNoHandle}
	}
	var st unix.Stat_t
	if err := unix.Fstat(int(f.f.Fd()), &st); err != nil {
		return &ProgrammingError{Op: "verify", Err: fmt.Errorf("fstat %s: %w", f.path, err)}
	}
	if uint64(st.Dev) != f.dev || st.Ino != f.ino {
		return &ProgrammingError{
			Op: "verify",
			Err: fmt.Errorf("%s was replaced under an open descriptor: dev/inode %d/%d, claimed %d/%d",
				f.path, st.Dev, st.Ino, f.dev, f.ino),
		}
	}
	return nil
}

// Mtime returns the last-modified Unix time of the handle's path, or -1 on
// any stat failure.
func (f *File) Mtime() int64 {
	if f == nil {
		return -1
	}
	return Mtime(f.path)
}

// Close verifies handle identity and releases the descriptor. The advisory
// lock is released by the kernel as a side effect of closing. The file is
// not unlinked.
func (f *File) Close() error {
	if err := f.Verify(); err != nil {
		return err
	}
	err := f.f.Close()
	f.f = nil
	return err
}

// Remove verifies handle identity, deletes the file, releases the lock, and
// closes the descriptor, in that order. Deleting before unlocking leaves no
// window where a third party can claim a path this process still appears to
// own; the identity check in Verify remains the actual safety net.
func (f *File) Remove() error {
	if err := f.Verify(); err != nil {
		return err
	}
	if err := os.Remove(f.path); err != nil {
		return fmt.Errorf("remove %s: %w", f.path, err)
	}
	_ = unix.Flock(int(f.f.Fd()), unix.LOCK_UN)
	err := f.f.Close()
	f.f = nil
	return err
}

// readOwnerPID reads the contending owner's pid from an open descriptor.
// Unparseable content yields 0, the unknown-owner sentinel: contention is a
// normal outcome and must never crash the claimant.
func readOwnerPID(f *os.File) int {
	data, err := io.ReadAll(f)
	if err != nil {
		return 0
	}
	pid, ok := parseLeadingPID(data)
	if !ok {
		return 0
	}
	return pid
}

func parseLeadingPID(data []byte) (int, bool) {
	s := strings.TrimLeft(string(data), " \t\r\n")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	pid, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return pid, true
}
