package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"log/slog"

	"github.com/kidoz/clamav-report-go/internal/config"
)

// ssmDocument is the managed SSM document used for one-shot shell commands.
const ssmDocument = "AWS-RunShellScript"

// SSM executes remote commands through AWS Systems Manager using the aws CLI.
// Batch collection uses send-command + get-command-invocation polling;
// interactive use goes through start-session.
type SSM struct {
	cfg *config.Config
	log *slog.Logger
}

// NewSSM creates an SSM transport.
func NewSSM(cfg *config.Config, log *slog.Logger) *SSM {
	return &SSM{
		cfg: cfg,
		log: log,
	}
}

// Name implements Runner.
func (t *SSM) Name() string { return "ssm" }

// invocation is the subset of get-command-invocation output we care about.
type invocation struct {
	Status                string `json:"Status"`
	StandardOutputContent string `json:"StandardOutputContent"`
	StandardErrorContent  string `json:"StandardErrorContent"`
	ResponseCode          int    `json:"ResponseCode"`
}

// terminal reports whether the invocation has finished, one way or another.
func (inv *invocation) terminal() bool {
	switch inv.Status {
	case "Success", "Failed", "Cancelled", "TimedOut", "DeliveryTimedOut", "ExecutionTimedOut", "Undeliverable", "Terminated":
		return true
	}
	return false
}

// Run sends a command to one instance and polls until it completes.
func (t *SSM) Run(ctx context.Context, target, command string) (string, error) {
	if err := ValidateInstanceID(target); err != nil {
		return "", fmt.Errorf("invalid instance: %w", err)
	}

	t.log.Debug("Sending SSM command",
		slog.String("instance", target),
		slog.String("command", command),
	)

	commandID, err := t.sendCommand(ctx, target, command)
	if err != nil {
		return "", err
	}

	poll := time.Duration(t.cfg.Transport.SSMPollSeconds) * time.Second
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(poll):
		}

		inv, err := t.getInvocation(ctx, commandID, target)
		if err != nil {
			return "", err
		}
		if !inv.terminal() {
			continue
		}

		if inv.Status != "Success" {
			return "", fmt.Errorf("SSM command %s on %s: %s (rc=%d): %s",
				commandID, target, inv.Status, inv.ResponseCode, strings.TrimSpace(inv.StandardErrorContent))
		}
		return inv.StandardOutputContent, nil
	}
}

// sendCommand dispatches the command and returns the SSM command ID.
func (t *SSM) sendCommand(ctx context.Context, target, command string) (string, error) {
	args := t.awsArgs(
		"ssm", "send-command",
		"--instance-ids", target,
		"--document-name", ssmDocument,
		"--comment", "clamav-report collection",
		"--parameters", fmt.Sprintf("commands=%s", command),
		"--query", "Command.CommandId",
		"--output", "text",
	)

	cmd := exec.CommandContext(ctx, t.cfg.Transport.AWSCLIPath, args...) //nolint:gosec // G204: target is validated, cli path comes from config

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("aws ssm send-command failed: %w: %s", err, stderr.String())
	}

	commandID := strings.TrimSpace(stdout.String())
	if commandID == "" {
		return "", fmt.Errorf("aws ssm send-command returned no command ID")
	}
	return commandID, nil
}

// getInvocation fetches the current state of a sent command.
func (t *SSM) getInvocation(ctx context.Context, commandID, target string) (*invocation, error) {
	args := t.awsArgs(
		"ssm", "get-command-invocation",
		"--command-id", commandID,
		"--instance-id", target,
		"--output", "json",
	)

	cmd := exec.CommandContext(ctx, t.cfg.Transport.AWSCLIPath, args...) //nolint:gosec // G204: see sendCommand

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// InvocationDoesNotExist shows up briefly right after send-command;
		// report it as still pending instead of failing the host.
		if strings.Contains(stderr.String(), "InvocationDoesNotExist") {
			return &invocation{Status: "Pending"}, nil
		}
		return nil, fmt.Errorf("aws ssm get-command-invocation failed: %w: %s", err, stderr.String())
	}

	var inv invocation
	if err := json.Unmarshal(stdout.Bytes(), &inv); err != nil {
		return nil, fmt.Errorf("failed to decode invocation: %w", err)
	}
	return &inv, nil
}

// Session opens an interactive SSM session to target, wiring the session's
// combined output to the given writers. It blocks until the session ends.
func (t *SSM) Session(ctx context.Context, target string, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := ValidateInstanceID(target); err != nil {
		return fmt.Errorf("invalid instance: %w", err)
	}

	args := t.awsArgs("ssm", "start-session", "--target", target)

	t.log.Debug("Starting SSM session", slog.String("instance", target))

	cmd := exec.CommandContext(ctx, t.cfg.Transport.AWSCLIPath, args...) //nolint:gosec // G204: see sendCommand
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("aws ssm start-session failed: %w", err)
	}
	return nil
}

// awsArgs prepends the configured profile, if any.
func (t *SSM) awsArgs(args ...string) []string {
	if t.cfg.Transport.AWSProfile != "" {
		return append([]string{"--profile", t.cfg.Transport.AWSProfile}, args...)
	}
	return args
}
