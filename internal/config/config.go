package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/ini.v1"
)

// DefaultScanLogPath is the well-known location of the ClamAV last-scan log
// on the target hosts.
const DefaultScanLogPath = "/var/log/clamav/lastscan.log"

// configSearchPaths lists config file paths to try, in priority order.
var configSearchPaths = []string{
	"./clamav-report.yaml",
	"/etc/clamav-report.yaml",
}

// ansibleCfgSearchPaths mirrors Ansible's own config resolution order so a
// fleet already managed with Ansible picks up the same defaults.
var ansibleCfgSearchPaths = []string{
	"./ansible.cfg",
	"~/.ansible.cfg",
	"/etc/ansible/ansible.cfg",
}

// FindConfigPath returns the first existing config file from the search paths,
// or an empty string when none exist (built-in defaults are used then).
func FindConfigPath() string {
	for _, path := range configSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Config holds all configuration values for clamav-report.
type Config struct {
	Transport TransportConfig `koanf:"transport"`
	Collect   CollectConfig   `koanf:"collect"`
	Session   SessionConfig   `koanf:"session"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// TransportConfig selects and parameterizes the remote-execution mechanism.
type TransportConfig struct {
	Kind           string `koanf:"kind"` // "ssh" or "ssm"
	SSHUser        string `koanf:"ssh_user"`
	Become         bool   `koanf:"become"` // prefix remote command with sudo -n
	ConnectTimeout int    `koanf:"connect_timeout"`
	AWSCLIPath     string `koanf:"aws_cli_path"`
	AWSProfile     string `koanf:"aws_profile"`
	SSMPollSeconds int    `koanf:"ssm_poll_seconds"`
}

// CollectConfig holds batch collection parameters.
type CollectConfig struct {
	ScanLogPath string `koanf:"scan_log_path"`
	TailLines   int    `koanf:"tail_lines"`
	Workers     int    `koanf:"workers"`
	Timeout     int    `koanf:"timeout"` // per-host timeout, seconds
}

// SessionConfig holds interactive session settings.
type SessionConfig struct {
	LogPrefix string `koanf:"log_prefix"`
	LogDir    string `koanf:"log_dir"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Kind:           "ssh",
			SSHUser:        "root",
			ConnectTimeout: 10,
			AWSCLIPath:     "aws",
			SSMPollSeconds: 2,
		},
		Collect: CollectConfig{
			ScanLogPath: DefaultScanLogPath,
			TailLines:   12,
			Workers:     10,
			Timeout:     120,
		},
		Session: SessionConfig{
			LogPrefix: "ssm-session",
			LogDir:    ".",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Load reads configuration, layering sources lowest to highest priority:
// built-in defaults, ansible.cfg (if one is found), the YAML config file
// (if path is non-empty), then CLAMRPT_ environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if acfg := findAnsibleCfg(); acfg != "" {
		if err := loadAnsibleCfg(k, acfg); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	}

	if err := loadEnvOverrides(k); err != nil {
		return nil, err
	}

	return unmarshalAndValidate(k)
}

// findAnsibleCfg returns the first existing ansible.cfg, honoring the
// ANSIBLE_CONFIG environment variable like Ansible itself does.
func findAnsibleCfg() string {
	if p := os.Getenv("ANSIBLE_CONFIG"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}
	for _, path := range ansibleCfgSearchPaths {
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				continue
			}
			path = filepath.Join(home, path[2:])
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ansibleKeyMap maps ansible.cfg section/key pairs to koanf key paths.
var ansibleKeyMap = map[string]string{
	"defaults.forks":              "collect.workers",
	"defaults.remote_user":        "transport.ssh_user",
	"defaults.timeout":            "transport.connect_timeout",
	"privilege_escalation.become": "transport.become",
}

// loadAnsibleCfg loads the subset of ansible.cfg keys that have a
// clamav-report equivalent. Unknown keys are ignored; this is a defaults
// source, not a full Ansible config reader.
func loadAnsibleCfg(k *koanf.Koanf, path string) error {
	iniFile, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to parse ansible.cfg %s: %w", path, err)
	}

	m := make(map[string]interface{})
	for _, section := range iniFile.Sections() {
		for _, key := range section.Keys() {
			lookup := strings.ToLower(section.Name()) + "." + strings.ToLower(key.Name())
			if koanfKey, ok := ansibleKeyMap[lookup]; ok {
				m[koanfKey] = key.Value()
			}
		}
	}

	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return fmt.Errorf("failed to load ansible.cfg values: %w", err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := DefaultConfig()
	return k.Load(confmap.Provider(map[string]interface{}{
		"transport.kind":             defaults.Transport.Kind,
		"transport.ssh_user":         defaults.Transport.SSHUser,
		"transport.become":           defaults.Transport.Become,
		"transport.connect_timeout":  defaults.Transport.ConnectTimeout,
		"transport.aws_cli_path":     defaults.Transport.AWSCLIPath,
		"transport.ssm_poll_seconds": defaults.Transport.SSMPollSeconds,
		"collect.scan_log_path":      defaults.Collect.ScanLogPath,
		"collect.tail_lines":         defaults.Collect.TailLines,
		"collect.workers":            defaults.Collect.Workers,
		"collect.timeout":            defaults.Collect.Timeout,
		"session.log_prefix":         defaults.Session.LogPrefix,
		"session.log_dir":            defaults.Session.LogDir,
		"telemetry.enabled":          defaults.Telemetry.Enabled,
	}, "."), nil)
}

func loadEnvOverrides(k *koanf.Koanf) error {
	// CLAMRPT_COLLECT_WORKERS → collect.workers
	return k.Load(env.Provider("CLAMRPT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CLAMRPT_")
		s = strings.ToLower(s)
		if idx := strings.Index(s, "_"); idx >= 0 {
			return s[:idx] + "." + s[idx+1:]
		}
		return s
	}), nil)
}

func unmarshalAndValidate(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that configured values are in range.
func (c *Config) Validate() error {
	var errs []error

	if c.Transport.Kind != "ssh" && c.Transport.Kind != "ssm" {
		errs = append(errs, fmt.Errorf("transport.kind must be \"ssh\" or \"ssm\", got %q", c.Transport.Kind))
	}
	if c.Transport.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("transport.connect_timeout must be greater than 0, got %d", c.Transport.ConnectTimeout))
	}
	if c.Transport.SSMPollSeconds <= 0 {
		errs = append(errs, fmt.Errorf("transport.ssm_poll_seconds must be greater than 0, got %d", c.Transport.SSMPollSeconds))
	}
	if c.Collect.ScanLogPath == "" {
		errs = append(errs, fmt.Errorf("collect.scan_log_path is required"))
	}
	if c.Collect.TailLines <= 0 {
		errs = append(errs, fmt.Errorf("collect.tail_lines must be greater than 0, got %d", c.Collect.TailLines))
	}
	if c.Collect.Workers <= 0 {
		errs = append(errs, fmt.Errorf("collect.workers must be greater than 0, got %d", c.Collect.Workers))
	}
	if c.Collect.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("collect.timeout must be greater than 0, got %d", c.Collect.Timeout))
	}
	if c.Session.LogPrefix == "" {
		errs = append(errs, fmt.Errorf("session.log_prefix is required"))
	}

	return errors.Join(errs...)
}

// RemoteCommand returns the fixed command executed on each target host:
// print the hostname, then the tail of the last-scan log.
func (c *Config) RemoteCommand() string {
	return fmt.Sprintf("hostname; tail --lines=%d %s", c.Collect.TailLines, c.Collect.ScanLogPath)
}
