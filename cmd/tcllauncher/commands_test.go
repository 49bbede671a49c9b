//go:build unix

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skyhawk180/tcllauncher/internal/pidfile"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommandLine(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestStatusNotRunning(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, `
[paths]
run_dir = "`+dir+`"
log_dir = "`+dir+`"
`)

	out, err := runCommandLine(t, context.Background(), "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "State: not running") {
		t.Errorf("status output missing state line:\n%s", out)
	}
}

func TestStatusSeesLiveOwner(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "owned.pid")
	cfgPath := writeTestConfig(t, `
[paths]
run_dir = "`+dir+`"
log_dir = "`+dir+`"

[daemon]
pid_file = "`+pidPath+`"
`)

	claim, err := pidfile.Open(pidPath, 0o600)
	if err != nil || !claim.Owned() {
		t.Fatalf("Open: %v owned=%v", err, claim.Owned())
	}
	defer claim.File.Close()
	if err := claim.File.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out, err := runCommandLine(t, context.Background(), "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "State: running") {
		t.Errorf("status output missing running state:\n%s", out)
	}
}

func TestStopNoInstance(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, `
[paths]
run_dir = "`+dir+`"
log_dir = "`+dir+`"
`)

	out, err := runCommandLine(t, context.Background(), "--config", cfgPath, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(out, "No running instance") {
		t.Errorf("stop output = %q", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "tcllauncher.toml")

	out, err := runCommandLine(t, context.Background(), "config", "init", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("init output does not name the file: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	// A second init must refuse to clobber.
	if _, err := runCommandLine(t, context.Background(), "config", "init", target); err == nil {
		t.Fatal("config init overwrote an existing file")
	}
}

func TestRunForegroundSupervisesPayload(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "run.pid")
	cfgPath := writeTestConfig(t, `
[paths]
run_dir = "`+dir+`"
log_dir = "`+dir+`"

[daemon]
detach = false
pid_file = "`+pidPath+`"
heartbeat_interval = 0

[payload]
command = "true"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := runCommandLine(t, ctx, "--config", cfgPath, "run", "--foreground"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Errorf("pidfile not removed after run: %v", err)
	}
}

func TestRunReportsContention(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "busy.pid")
	cfgPath := writeTestConfig(t, `
[paths]
run_dir = "`+dir+`"
log_dir = "`+dir+`"

[daemon]
detach = false
pid_file = "`+pidPath+`"

[payload]
command = "true"
`)

	claim, err := pidfile.Open(pidPath, 0o600)
	if err != nil || !claim.Owned() {
		t.Fatalf("Open: %v owned=%v", err, claim.Owned())
	}
	defer claim.File.Close()
	if err := claim.File.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = runCommandLine(t, ctx, "--config", cfgPath, "run", "--foreground")
	if err == nil {
		t.Fatal("run succeeded while another claim holds the lock")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("contention error = %v", err)
	}
}
