package transport

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"log/slog"

	"github.com/kidoz/clamav-report-go/internal/config"
)

// SSH executes remote commands over plain ssh in batch mode.
type SSH struct {
	cfg *config.Config
	log *slog.Logger
}

// NewSSH creates an SSH transport.
func NewSSH(cfg *config.Config, log *slog.Logger) *SSH {
	return &SSH{
		cfg: cfg,
		log: log,
	}
}

// Name implements Runner.
func (t *SSH) Name() string { return "ssh" }

// Run executes a command on target via SSH. BatchMode prevents interactive
// password prompts from hanging a batch run.
func (t *SSH) Run(ctx context.Context, target, command string) (string, error) {
	if err := ValidateHostTarget(target); err != nil {
		return "", fmt.Errorf("invalid host: %w", err)
	}
	if err := ValidateSSHUser(t.cfg.Transport.SSHUser); err != nil {
		return "", fmt.Errorf("invalid SSH user: %w", err)
	}

	if t.cfg.Transport.Become {
		command = "sudo -n " + command
	}

	t.log.Debug("Executing command via SSH",
		slog.String("host", target),
		slog.String("user", t.cfg.Transport.SSHUser),
		slog.String("command", command),
	)

	cmd := exec.CommandContext(ctx, //nolint:gosec // G204: target and user are validated by sanitize.go before reaching here
		"ssh",
		"-o", "BatchMode=yes",
		"-o", fmt.Sprintf("ConnectTimeout=%d", t.cfg.Transport.ConnectTimeout),
		fmt.Sprintf("%s@%s", t.cfg.Transport.SSHUser, target),
		command,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("SSH failed: %w: %s", err, stderr.String())
	}

	return stdout.String(), nil
}
