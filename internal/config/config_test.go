package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Transport.Kind != "ssh" {
		t.Errorf("Transport.Kind = %q, want ssh", cfg.Transport.Kind)
	}
	if cfg.Transport.SSHUser != "root" {
		t.Errorf("Transport.SSHUser = %q, want root", cfg.Transport.SSHUser)
	}
	if cfg.Collect.ScanLogPath != "/var/log/clamav/lastscan.log" {
		t.Errorf("Collect.ScanLogPath = %q, want /var/log/clamav/lastscan.log", cfg.Collect.ScanLogPath)
	}
	if cfg.Collect.TailLines != 12 {
		t.Errorf("Collect.TailLines = %d, want 12", cfg.Collect.TailLines)
	}
	if cfg.Collect.Workers != 10 {
		t.Errorf("Collect.Workers = %d, want 10", cfg.Collect.Workers)
	}
	if cfg.Session.LogPrefix != "ssm-session" {
		t.Errorf("Session.LogPrefix = %q, want ssm-session", cfg.Session.LogPrefix)
	}
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		if err := DefaultConfig().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("bad transport kind", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Transport.Kind = "telnet"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "transport.kind") {
			t.Errorf("expected transport.kind error, got: %v", err)
		}
	})

	t.Run("zero workers", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Collect.Workers = 0
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "collect.workers") {
			t.Errorf("expected collect.workers error, got: %v", err)
		}
	})

	t.Run("empty scan log path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Collect.ScanLogPath = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "collect.scan_log_path") {
			t.Errorf("expected collect.scan_log_path error, got: %v", err)
		}
	})

	t.Run("multiple errors joined", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Collect.Workers = -1
		cfg.Collect.Timeout = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "collect.workers") || !strings.Contains(err.Error(), "collect.timeout") {
			t.Errorf("expected both errors, got: %v", err)
		}
	})
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clamav-report.yaml")
	content := `
transport:
  kind: ssm
  aws_profile: fleet
collect:
  workers: 4
  tail_lines: 20
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Transport.Kind != "ssm" {
		t.Errorf("Transport.Kind = %q, want ssm", cfg.Transport.Kind)
	}
	if cfg.Transport.AWSProfile != "fleet" {
		t.Errorf("Transport.AWSProfile = %q, want fleet", cfg.Transport.AWSProfile)
	}
	if cfg.Collect.Workers != 4 {
		t.Errorf("Collect.Workers = %d, want 4", cfg.Collect.Workers)
	}
	if cfg.Collect.TailLines != 20 {
		t.Errorf("Collect.TailLines = %d, want 20", cfg.Collect.TailLines)
	}
	// Untouched keys keep defaults
	if cfg.Collect.ScanLogPath != DefaultScanLogPath {
		t.Errorf("Collect.ScanLogPath = %q, want default", cfg.Collect.ScanLogPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/clamav-report.yaml")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got: %v", err)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Collect.Workers != 10 && os.Getenv("CLAMRPT_COLLECT_WORKERS") == "" {
		t.Errorf("Collect.Workers = %d, want default 10", cfg.Collect.Workers)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLAMRPT_COLLECT_WORKERS", "3")
	t.Setenv("CLAMRPT_TRANSPORT_SSH_USER", "scanner")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Collect.Workers != 3 {
		t.Errorf("Collect.Workers = %d, want 3 from env", cfg.Collect.Workers)
	}
	if cfg.Transport.SSHUser != "scanner" {
		t.Errorf("Transport.SSHUser = %q, want scanner from env", cfg.Transport.SSHUser)
	}
}

func TestLoadAnsibleCfg(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ansible.cfg")
	content := `[defaults]
forks = 25
remote_user = deploy
inventory = /etc/ansible/hosts

[privilege_escalation]
become = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANSIBLE_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Collect.Workers != 25 {
		t.Errorf("Collect.Workers = %d, want 25 from ansible.cfg forks", cfg.Collect.Workers)
	}
	if cfg.Transport.SSHUser != "deploy" {
		t.Errorf("Transport.SSHUser = %q, want deploy", cfg.Transport.SSHUser)
	}
	if !cfg.Transport.Become {
		t.Error("Transport.Become should be true from ansible.cfg")
	}
}

func TestRemoteCommand(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.RemoteCommand()
	want := "hostname; tail --lines=12 /var/log/clamav/lastscan.log"
	if got != want {
		t.Errorf("RemoteCommand() = %q, want %q", got, want)
	}
}
