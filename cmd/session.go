package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kidoz/clamav-report-go/internal/teelog"
	"github.com/kidoz/clamav-report-go/internal/transport"
)

var sessionCmd = &cobra.Command{
	Use:   "session <instance-id>...",
	Short: "Open interactive SSM sessions, logging output to a dated file",
	Long: `Open an interactive AWS Systems Manager session to each given
instance in turn, for ad-hoc inspection of individual hosts.

Combined session output is written to the terminal and appended to a
dated log file (<prefix>-YYYYMMDD.log) in the current directory. The
file is opened in append mode, so interrupting a session never
truncates output already captured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := GetLogger()
		cfg := GetConfig()

		ssm := transport.NewSSM(cfg, GetSlogger())

		sessionLog, err := teelog.Open(cfg.Session.LogDir, cfg.Session.LogPrefix, time.Now())
		if err != nil {
			return err
		}
		defer func() { _ = sessionLog.Close() }()

		log.Info("Logging session output", zap.String("path", sessionLog.Path()))

		stdout := sessionLog.Tee(os.Stdout)
		stderr := sessionLog.Tee(os.Stderr)

		for _, target := range args {
			if err := sessionLog.Banner(target, time.Now()); err != nil {
				return err
			}

			// A SIGINT ends only the in-flight session; earlier output
			// is already on disk and later targets still get their turn.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			err := ssm.Session(ctx, target, os.Stdin, stdout, stderr)
			stop()

			if err != nil {
				log.Warn("Session ended with error",
					zap.Error(err),
					zap.String("target", target),
				)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}
