package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skyhawk180/tcllauncher/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("exists = true for a missing file")
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if !cfg.Daemon.Detach {
		t.Error("default daemon.detach should be true")
	}
	if cfg.Daemon.HeartbeatInterval != 15 {
		t.Errorf("default heartbeat_interval = %d, want 15", cfg.Daemon.HeartbeatInterval)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("default logging = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if !filepath.IsAbs(cfg.Paths.RunDir) {
		t.Errorf("run_dir %q was not expanded to an absolute path", cfg.Paths.RunDir)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
run_dir = "` + dir + `/run"

[daemon]
detach = false
pid_file = "` + dir + `/custom.pid"

[payload]
command = "/usr/bin/true"
args = ["-v"]

[logging]
format = "JSON"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false for a present file")
	}
	if cfg.Daemon.Detach {
		t.Error("daemon.detach not honoured")
	}
	if cfg.PidFilePath() != filepath.Join(dir, "custom.pid") {
		t.Errorf("PidFilePath = %q", cfg.PidFilePath())
	}
	if cfg.Payload.Command != "/usr/bin/true" || len(cfg.Payload.Args) != 1 {
		t.Errorf("payload = %q %v", cfg.Payload.Command, cfg.Payload.Args)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging.format = %q, want normalized json", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("Load accepted an unsupported log format")
	}
}

func TestPidFilePathDerivedFromRunDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.RunDir = "/tmp/tcllauncher-test"
	got := cfg.PidFilePath()
	if !strings.HasPrefix(got, "/tmp/tcllauncher-test/") || !strings.HasSuffix(got, ".pid") {
		t.Errorf("PidFilePath = %q", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[daemon]") {
		t.Error("sample config missing [daemon] section")
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("WriteSample overwrote an existing file")
	}
}

func TestConfigEnvFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[daemon]\ndetach = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TCLLAUNCHER_CONFIG", path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v, want env-provided path", resolved, exists)
	}
	if cfg.Daemon.Detach {
		t.Error("env-provided config not applied")
	}
}
