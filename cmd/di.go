package cmd

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/kidoz/clamav-report-go/internal/collector"
	"github.com/kidoz/clamav-report-go/internal/config"
	"github.com/kidoz/clamav-report-go/internal/report"
)

func initCollector(cfg *config.Config, log *slog.Logger) (*collector.Collector, *report.Aggregator, error) {
	var c *collector.Collector
	var agg *report.Aggregator
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),
		collector.Module,
		report.Module,
		fx.Populate(&c, &agg),
	)
	if err := app.Err(); err != nil {
		return nil, nil, err
	}
	return c, agg, nil
}
