// Package collector fans the fixed scan-log command out across the fleet and
// gathers per-host raw output.
package collector

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kidoz/clamav-report-go/internal/config"
	"github.com/kidoz/clamav-report-go/internal/inventory"
	"github.com/kidoz/clamav-report-go/internal/telemetry"
	"github.com/kidoz/clamav-report-go/internal/transport"
)

// Collector runs the remote command on every enumerated host.
type Collector struct {
	cfg    *config.Config
	log    *slog.Logger
	runner transport.Runner
}

// New creates a collector on top of the given transport.
func New(cfg *config.Config, log *slog.Logger, runner transport.Runner) *Collector {
	return &Collector{
		cfg:    cfg,
		log:    log,
		runner: runner,
	}
}

// Collect executes the remote command once per host, concurrently up to
// collect.workers. The returned slice is index-aligned with hosts, so output
// order always matches enumeration order regardless of completion order. A
// host failure never aborts the batch; it is captured in its Result. Each
// host gets exactly one attempt under its own timeout, so a hung host cannot
// stall the others beyond occupying one worker slot.
func (c *Collector) Collect(ctx context.Context, hosts []inventory.Host) []Result {
	ctx, span := telemetry.Tracer().Start(ctx, "Collector.Collect")
	defer span.End()
	span.SetAttributes(attribute.Int("host.count", len(hosts)))

	c.log.Info("Starting collection",
		slog.Int("hosts", len(hosts)),
		slog.String("transport", c.runner.Name()),
	)

	var wg sync.WaitGroup
	workers := c.cfg.Collect.Workers
	if workers <= 0 {
		workers = 1
	}
	semaphore := make(chan struct{}, workers)

	results := make([]Result, len(hosts))
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, h inventory.Host) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			results[i] = c.collectHost(ctx, h)
		}(i, host)
	}

	wg.Wait()

	return results
}

// collectHost runs the remote command on a single host.
func (c *Collector) collectHost(ctx context.Context, host inventory.Host) Result {
	ctx, span := telemetry.Tracer().Start(ctx, "Collector.collectHost")
	defer span.End()
	span.SetAttributes(attribute.String("host.id", host.ID))

	hostCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Collect.Timeout)*time.Second)
	defer cancel()

	c.log.Debug("Collecting from host", slog.String("host", host.Name))

	stdout, err := c.runner.Run(hostCtx, host.ID, c.cfg.RemoteCommand())
	if err != nil {
		c.log.Warn("Failed to collect from host",
			slog.Any("error", err),
			slog.String("host", host.Name),
		)
		return Result{Host: host, ErrorDetail: err.Error()}
	}

	c.log.Debug("Collected from host",
		slog.String("host", host.Name),
		slog.Int("bytes", len(stdout)),
	)

	return Result{Host: host, Succeeded: true, Stdout: stdout}
}
