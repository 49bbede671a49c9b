//go:build unix

package pidfile_test

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/skyhawk180/tcllauncher/internal/pidfile"
)

func claimOwned(t *testing.T, path string) *pidfile.File {
	t.Helper()
	claim, err := pidfile.Open(path, 0o600)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !claim.Owned() {
		t.Fatalf("expected to own fresh pidfile %s, contended with pid %d", path, claim.OwnerPID)
	}
	return claim.File
}

func TestOpenOwnsFreshPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)
	defer handle.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat pidfile: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Errorf("pidfile permissions = %o, want 600", got)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)
	defer handle.Close()

	if err := handle.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := fmt.Sprintf("%d\n", os.Getpid())
	if string(data) != want {
		t.Errorf("pidfile content = %q, want %q", data, want)
	}

	pid, err := pidfile.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Read = %d, want %d", pid, os.Getpid())
	}
}

func TestSecondClaimIsContended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)
	defer handle.Close()
	if err := handle.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// flock locks belong to the open file description, so a second Open in
	// this process contends exactly like one from another process.
	claim, err := pidfile.Open(path, 0o600)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if claim.Owned() {
		t.Fatal("second claim unexpectedly owned the pidfile")
	}
	if claim.OwnerPID != os.Getpid() {
		t.Errorf("OwnerPID = %d, want %d", claim.OwnerPID, os.Getpid())
	}
}

func TestContendedAcrossProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)
	defer handle.Close()
	if err := handle.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cmd := exec.Command(os.Args[0], "-test.run", "TestHelperClaim$", "-test.v")
	cmd.Env = append(os.Environ(),
		"PIDFILE_HELPER=1",
		"PIDFILE_HELPER_PATH="+path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("helper process: %v\n%s", err, out)
	}
	want := fmt.Sprintf("claim-result contended %d", os.Getpid())
	if !strings.Contains(string(out), want) {
		t.Fatalf("helper output missing %q:\n%s", want, out)
	}
}

// TestHelperClaim runs in a child process spawned by
// TestContendedAcrossProcesses and reports its claim outcome on stdout.
func TestHelperClaim(t *testing.T) {
	if os.Getenv("PIDFILE_HELPER") != "1" {
		t.Skip("helper entry point")
	}
	claim, err := pidfile.Open(os.Getenv("PIDFILE_HELPER_PATH"), 0o600)
	if err != nil {
		fmt.Printf("claim-result error %v\n", err)
		return
	}
	if claim.Owned() {
		fmt.Println("claim-result owner")
		_ = claim.File.Close()
		return
	}
	fmt.Printf("claim-result contended %d\n", claim.OwnerPID)
}

func TestContendedUnparseableContentYieldsUnknownOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	if err := os.WriteFile(path, []byte("not a pid\n"), 0o600); err != nil {
		t.Fatalf("seed pidfile: %v", err)
	}

	// Hold the lock with an independent cooperating locker.
	other := flock.New(path)
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("flock TryLock = %v, %v", locked, err)
	}
	defer other.Unlock()

	claim, err := pidfile.Open(path, 0o600)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if claim.Owned() {
		t.Fatal("claim unexpectedly owned a locked pidfile")
	}
	if claim.OwnerPID != 0 {
		t.Errorf("OwnerPID = %d, want unknown-owner sentinel 0", claim.OwnerPID)
	}
}

func TestFlockInterop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)

	other := flock.New(path)
	locked, err := other.TryLock()
	if err != nil {
		t.Fatalf("TryLock while held: %v", err)
	}
	if locked {
		t.Fatal("external flock acquired a lock the handle should hold")
	}

	if err := handle.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	locked, err = other.TryLock()
	if err != nil {
		t.Fatalf("TryLock after close: %v", err)
	}
	if !locked {
		t.Fatal("external flock could not acquire the lock after Close")
	}
	_ = other.Unlock()
}

func TestVerifyDetectsReplacedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)

	if err := handle.Verify(); err != nil {
		t.Fatalf("Verify on untouched handle: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove pidfile: %v", err)
	}
	if err := os.WriteFile(path, []byte("999\n"), 0o600); err != nil {
		t.Fatalf("recreate pidfile: %v", err)
	}

	err := handle.Verify()
	var perr *pidfile.ProgrammingError
	if !errors.As(err, &perr) {
		t.Fatalf("Verify after replacement = %v, want ProgrammingError", err)
	}

	// Close goes through the same identity check and must refuse too.
	if err := handle.Close(); !errors.As(err, &perr) {
		t.Errorf("Close after replacement = %v, want ProgrammingError", err)
	}
}

func TestWriteAfterCloseIsProgrammingError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)
	if err := handle.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := handle.Write()
	var perr *pidfile.ProgrammingError
	if !errors.As(err, &perr) {
		t.Fatalf("Write after Close = %v, want ProgrammingError", err)
	}
}

func TestRemoveDeletesAndFreesSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	handle := claimOwned(t, path)
	if err := handle.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := handle.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pidfile still present after Remove: %v", err)
	}

	next := claimOwned(t, path)
	if err := next.Remove(); err != nil {
		t.Fatalf("re-claim Remove: %v", err)
	}
}

func TestMtime(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.pid")
	if got := pidfile.Mtime(missing); got != -1 {
		t.Errorf("Mtime(missing) = %d, want -1", got)
	}

	path := filepath.Join(dir, "t.pid")
	handle := claimOwned(t, path)
	defer handle.Close()
	if err := handle.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := handle.Mtime(); got <= 0 {
		t.Errorf("Mtime after write = %d, want positive timestamp", got)
	}
	if pidfile.Mtime(path) != handle.Mtime() {
		t.Error("standalone and handle Mtime disagree")
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pid")
	if err := os.WriteFile(path, []byte("garbage\n"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := pidfile.Read(path); err == nil {
		t.Fatal("Read accepted non-numeric content")
	}
}
