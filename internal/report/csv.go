package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// csvTimeLayout is how timestamps are rendered in the CSV output.
const csvTimeLayout = "2006-01-02T15:04:05"

// csvHeader lists the summary-block fields plus a trailing "error" column.
// Failed hosts are written rather than omitted: their data columns are empty
// and the failure detail lands in "error", so the row count always matches
// the inventory and failures are visible in the artifact itself.
var csvHeader = []string{
	"hostname",
	"known_viruses",
	"engine_version",
	"scanned_directories",
	"scanned_files",
	"infected_files",
	"data_scanned_mb",
	"data_read_mb",
	"start_date",
	"end_date",
	"error",
}

// WriteCSV writes the consolidated report to path, one row per host. An
// unwritable destination is a hard error; there is nowhere to put results.
func WriteCSV(path string, rep *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rep.Rows {
		if err := w.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", row.Host.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file %s: %w", path, err)
	}
	return nil
}

func csvRecord(row Row) []string {
	if row.Summary == nil {
		record := make([]string, len(csvHeader))
		record[0] = row.Host.Name
		record[len(record)-1] = row.Err
		return record
	}

	s := row.Summary
	return []string{
		s.Hostname,
		strconv.Itoa(s.KnownViruses),
		s.EngineVersion,
		strconv.Itoa(s.ScannedDirectories),
		strconv.Itoa(s.ScannedFiles),
		strconv.Itoa(s.InfectedFiles),
		strconv.FormatFloat(s.DataScannedMB, 'f', -1, 64),
		strconv.FormatFloat(s.DataReadMB, 'f', -1, 64),
		s.StartDate.Format(csvTimeLayout),
		s.EndDate.Format(csvTimeLayout),
		"",
	}
}
