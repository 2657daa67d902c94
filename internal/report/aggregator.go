// Package report turns raw per-host collection results into the consolidated
// report and renders it to CSV or a console table.
package report

import (
	"log/slog"

	"github.com/kidoz/clamav-report-go/internal/clamav"
	"github.com/kidoz/clamav-report-go/internal/collector"
	"github.com/kidoz/clamav-report-go/internal/inventory"
)

// Row is one host's entry in the consolidated report. Summary is nil when
// the host failed (unreachable, command error, or unparseable output), with
// the cause in Err.
type Row struct {
	Host    inventory.Host
	Summary *clamav.ScanSummary
	Err     string
}

// Report is the consolidated result set, one row per enumerated host in
// enumeration order.
type Report struct {
	Rows  []Row
	Stats Stats
}

// Stats counts the outcome of a run for the final summary line.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
}

// Aggregator collects per-host results into a Report. Rows are kept in the
// order they are added; no sorting, deduplication, or cross-host validation
// is performed.
type Aggregator struct {
	log  *slog.Logger
	rows []Row
}

// NewAggregator creates a new aggregator.
func NewAggregator(log *slog.Logger) *Aggregator {
	return &Aggregator{log: log}
}

// Reset clears accumulated rows so repeated runs don't mix data.
func (a *Aggregator) Reset() {
	a.rows = nil
}

// AddResult converts one collection result into a report row. Successful raw
// output is parsed into a ScanSummary; a parse failure downgrades the host to
// a failed row rather than aborting anything.
func (a *Aggregator) AddResult(res collector.Result) {
	if !res.Succeeded {
		a.rows = append(a.rows, Row{Host: res.Host, Err: res.ErrorDetail})
		return
	}

	summary, err := clamav.ParseSummary(res.Stdout)
	if err != nil {
		a.log.Warn("Failed to parse scan summary",
			slog.Any("error", err),
			slog.String("host", res.Host.Name),
		)
		a.rows = append(a.rows, Row{Host: res.Host, Err: err.Error()})
		return
	}

	a.rows = append(a.rows, Row{Host: res.Host, Summary: summary})
}

// AddAll adds a batch of results in order.
func (a *Aggregator) AddAll(results []collector.Result) {
	for _, res := range results {
		a.AddResult(res)
	}
}

// Report returns the consolidated report built so far.
func (a *Aggregator) Report() *Report {
	rep := &Report{
		Rows:  a.rows,
		Stats: Stats{Total: len(a.rows)},
	}
	for _, row := range a.rows {
		if row.Summary != nil {
			rep.Stats.Succeeded++
		} else {
			rep.Stats.Failed++
		}
	}
	return rep
}
