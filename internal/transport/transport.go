// Package transport runs commands on remote hosts. Two mechanisms are
// supported: plain SSH and AWS Systems Manager (via the aws CLI). Both are
// consumed through the Runner interface so the collector does not care which
// one is configured.
package transport

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/kidoz/clamav-report-go/internal/config"
)

// Runner executes a command on a single remote target and returns its
// standard output. Implementations make exactly one attempt; retries are the
// caller's business (and the collector deliberately performs none).
type Runner interface {
	// Run executes command on target, blocking until completion or ctx is done.
	Run(ctx context.Context, target, command string) (string, error)
	// Name identifies the mechanism in logs and error messages.
	Name() string
}

// New selects a Runner from transport.kind.
func New(cfg *config.Config, log *slog.Logger) (Runner, error) {
	switch cfg.Transport.Kind {
	case "ssh":
		return NewSSH(cfg, log), nil
	case "ssm":
		return NewSSM(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}
}
