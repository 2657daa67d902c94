package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kidoz/clamav-report-go/internal/inventory"
	"github.com/kidoz/clamav-report-go/internal/report"
)

var (
	reportGroup     string
	reportForks     int
	reportBecome    bool
	reportTransport string
	reportSSHUser   string
	reportHosts     []string
	reportTable     bool
)

var reportCmd = &cobra.Command{
	Use:   "report <inventory> <output-csv>",
	Short: "Collect scan summaries from the fleet and write a CSV report",
	Long: `Collect ClamAV last-scan summaries from every host in the inventory
and consolidate them into one CSV file.

This command:
1. Enumerates target hosts from the inventory (or --hosts)
2. Runs "hostname; tail --lines=12 <scan-log>" on each host
3. Parses each host's scan summary block
4. Writes one CSV row per host, in inventory order

Individual host failures (unreachable, command error, unparseable
output) are logged as warnings and recorded in the CSV's error
column; they do not fail the run. Only unusable arguments, an
unreadable inventory, or an unwritable output path are fatal.`,
	Args: func(cmd *cobra.Command, args []string) error {
		// With --hosts the inventory argument is dropped.
		if len(reportHosts) > 0 {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log := GetLogger()
		cfg := GetConfig()

		applyReportFlags(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var hosts []inventory.Host
		var outputPath string
		var err error

		if len(reportHosts) > 0 {
			hosts, err = inventory.FromIdentifiers(reportHosts)
			outputPath = args[0]
		} else {
			hosts, err = inventory.Load(ctx, args[0], reportGroup)
			outputPath = args[1]
		}
		if err != nil {
			return fmt.Errorf("failed to enumerate hosts: %w", err)
		}

		log.Info("Gathering ClamAV data from remote hosts",
			zap.Int("hosts", len(hosts)),
			zap.String("transport", cfg.Transport.Kind),
		)

		c, agg, err := initCollector(cfg, GetSlogger())
		if err != nil {
			return fmt.Errorf("failed to initialize collector: %w", err)
		}

		results := c.Collect(ctx, hosts)

		agg.Reset()
		agg.AddAll(results)
		rep := agg.Report()

		log.Info("Generating consolidated virus report", zap.String("path", outputPath))
		if err := report.WriteCSV(outputPath, rep); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if reportTable {
			report.WriteTable(os.Stdout, rep)
		}

		// Partial host failures are expected intermittent noise, not a
		// run failure; the exit code stays 0.
		log.Info("Collection complete",
			zap.Int("hosts", rep.Stats.Total),
			zap.Int("succeeded", rep.Stats.Succeeded),
			zap.Int("failed", rep.Stats.Failed),
		)

		return nil
	},
}

// applyReportFlags folds explicitly-set CLI flags over the loaded config.
func applyReportFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("forks") {
		cfg.Collect.Workers = reportForks
	}
	if cmd.Flags().Changed("become") {
		cfg.Transport.Become = reportBecome
	}
	if cmd.Flags().Changed("transport") {
		cfg.Transport.Kind = reportTransport
	}
	if cmd.Flags().Changed("ssh-user") {
		cfg.Transport.SSHUser = reportSSHUser
	}
}

func init() {
	reportCmd.Flags().StringVarP(&reportGroup, "group", "g", inventory.GroupAll, "inventory host group to collect from")
	reportCmd.Flags().IntVarP(&reportForks, "forks", "f", 0, "number of hosts to process in parallel (default from config)")
	reportCmd.Flags().BoolVarP(&reportBecome, "become", "b", false, "run the remote command with sudo")
	reportCmd.Flags().StringVar(&reportTransport, "transport", "", "remote transport: ssh or ssm (default from config)")
	reportCmd.Flags().StringVar(&reportSSHUser, "ssh-user", "", "SSH user for remote execution (default from config)")
	reportCmd.Flags().StringSliceVar(&reportHosts, "hosts", nil, "explicit host identifiers instead of an inventory file")
	reportCmd.Flags().BoolVar(&reportTable, "table", false, "also print the report as a console table")

	rootCmd.AddCommand(reportCmd)
}
