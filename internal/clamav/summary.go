// Package clamav parses the fixed summary block that clamscan appends to its
// log after each run.
package clamav

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the timestamp format clamscan writes in its summary block.
const DateLayout = "2006:01:02 15:04:05"

// ScanSummary is the structured form of one host's scan summary block.
type ScanSummary struct {
	Hostname           string
	KnownViruses       int
	EngineVersion      string
	ScannedDirectories int
	ScannedFiles       int
	InfectedFiles      int
	DataScannedMB      float64
	DataReadMB         float64
	ElapsedSeconds     float64
	StartDate          time.Time
	EndDate            time.Time
}

// ParseError reports a summary block that is missing an expected labeled
// field or carries a malformed value for it.
type ParseError struct {
	Field  string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("scan summary: missing field %q", e.Field)
	}
	return fmt.Sprintf("scan summary: field %q: %s", e.Field, e.Detail)
}

// Field labels as they appear in the clamscan summary block.
const (
	labelKnownViruses  = "Known viruses"
	labelEngineVersion = "Engine version"
	labelScannedDirs   = "Scanned directories"
	labelScannedFiles  = "Scanned files"
	labelInfectedFiles = "Infected files"
	labelDataScanned   = "Data scanned"
	labelDataRead      = "Data read"
	labelTime          = "Time"
	labelStartDate     = "Start Date"
	labelEndDate       = "End Date"
)

var requiredLabels = []string{
	labelKnownViruses,
	labelEngineVersion,
	labelScannedDirs,
	labelScannedFiles,
	labelInfectedFiles,
	labelDataScanned,
	labelDataRead,
	labelTime,
	labelStartDate,
	labelEndDate,
}

// ParseSummary parses raw remote output: a hostname line followed by the tail
// of the ClamAV last-scan log. Fields are matched by label prefix, so line
// order does not matter, but every label must be present. The log is trusted
// input; values are converted, not cross-validated.
func ParseSummary(raw string) (*ScanSummary, error) {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) < 2 {
		return nil, &ParseError{Field: "hostname", Detail: "output has fewer lines than a summary block"}
	}

	summary := &ScanSummary{
		Hostname: strings.TrimSpace(lines[0]),
	}

	// Collect label → value for the remaining lines. The banner line
	// ("----------- SCAN SUMMARY -----------") carries no colon-separated
	// label and is skipped.
	values := make(map[string]string)
	for _, line := range lines[1:] {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		values[label] = strings.TrimSpace(value)
	}

	for _, label := range requiredLabels {
		value, ok := values[label]
		if !ok {
			return nil, &ParseError{Field: label}
		}
		if err := setField(summary, label, value); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

func setField(s *ScanSummary, label, value string) error {
	var err error
	switch label {
	case labelKnownViruses:
		s.KnownViruses, err = parseCount(label, value)
	case labelEngineVersion:
		s.EngineVersion = value
	case labelScannedDirs:
		s.ScannedDirectories, err = parseCount(label, value)
	case labelScannedFiles:
		s.ScannedFiles, err = parseCount(label, value)
	case labelInfectedFiles:
		s.InfectedFiles, err = parseCount(label, value)
	case labelDataScanned:
		s.DataScannedMB, err = parseLeadingFloat(label, value)
	case labelDataRead:
		s.DataReadMB, err = parseLeadingFloat(label, value)
	case labelTime:
		s.ElapsedSeconds, err = parseLeadingFloat(label, value)
	case labelStartDate:
		s.StartDate, err = parseDate(label, value)
	case labelEndDate:
		s.EndDate, err = parseDate(label, value)
	}
	return err
}

func parseCount(label, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ParseError{Field: label, Detail: fmt.Sprintf("malformed integer %q", value)}
	}
	return n, nil
}

// parseLeadingFloat parses the leading numeric token, ignoring unit suffixes
// ("MB", "sec") and parenthesized annotations ("(ratio 0.91:1)", "(9 m 34 s)").
func parseLeadingFloat(label, value string) (float64, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, &ParseError{Field: label, Detail: "empty value"}
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, &ParseError{Field: label, Detail: fmt.Sprintf("malformed number %q", fields[0])}
	}
	return f, nil
}

func parseDate(label, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &ParseError{Field: label, Detail: fmt.Sprintf("malformed timestamp %q", value)}
	}
	return t, nil
}

// Render writes the summary back out as the canonical labeled block. Parsing
// the rendered text yields an identical ScanSummary.
func (s *ScanSummary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Hostname)
	b.WriteString("----------- SCAN SUMMARY -----------\n")
	fmt.Fprintf(&b, "%s: %d\n", labelKnownViruses, s.KnownViruses)
	fmt.Fprintf(&b, "%s: %s\n", labelEngineVersion, s.EngineVersion)
	fmt.Fprintf(&b, "%s: %d\n", labelScannedDirs, s.ScannedDirectories)
	fmt.Fprintf(&b, "%s: %d\n", labelScannedFiles, s.ScannedFiles)
	fmt.Fprintf(&b, "%s: %d\n", labelInfectedFiles, s.InfectedFiles)
	fmt.Fprintf(&b, "%s: %s MB\n", labelDataScanned, formatFloat(s.DataScannedMB))
	fmt.Fprintf(&b, "%s: %s MB\n", labelDataRead, formatFloat(s.DataReadMB))
	fmt.Fprintf(&b, "%s: %s sec\n", labelTime, formatFloat(s.ElapsedSeconds))
	fmt.Fprintf(&b, "%s: %s\n", labelStartDate, s.StartDate.Format(DateLayout))
	fmt.Fprintf(&b, "%s:   %s\n", labelEndDate, s.EndDate.Format(DateLayout))
	return b.String()
}

// formatFloat uses the shortest representation that round-trips, so
// Render → ParseSummary cannot drift.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
