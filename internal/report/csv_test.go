package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	agg := newTestAggregator()
	agg.AddResult(ok("h1"))
	agg.AddResult(failed("h2", "unreachable"))

	path := filepath.Join(t.TempDir(), "report.csv")
	if err := WriteCSV(path, agg.Report()); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}

	header := records[0]
	if header[0] != "hostname" || header[len(header)-1] != "error" {
		t.Errorf("header = %v, want hostname...error", header)
	}
	if len(header) != 11 {
		t.Errorf("header has %d columns, want 11", len(header))
	}

	good := records[1]
	if good[0] != "hostname1" {
		t.Errorf("good row hostname = %q, want hostname1", good[0])
	}
	if good[1] != "8654853" {
		t.Errorf("known_viruses = %q, want 8654853", good[1])
	}
	if good[6] != "2949.27" {
		t.Errorf("data_scanned_mb = %q, want 2949.27", good[6])
	}
	if good[8] != "2023-03-05T06:47:01" {
		t.Errorf("start_date = %q, want 2023-03-05T06:47:01", good[8])
	}
	if good[10] != "" {
		t.Errorf("error column should be empty on success, got %q", good[10])
	}

	bad := records[2]
	if bad[0] != "h2" {
		t.Errorf("failed row hostname = %q, want h2", bad[0])
	}
	for i := 1; i < len(bad)-1; i++ {
		if bad[i] != "" {
			t.Errorf("failed row column %d = %q, want empty", i, bad[i])
		}
	}
	if bad[len(bad)-1] != "unreachable" {
		t.Errorf("failed row error = %q, want unreachable", bad[len(bad)-1])
	}
}

func TestWriteCSV_OnlySuccessRows(t *testing.T) {
	agg := newTestAggregator()
	agg.AddResult(ok("h1"))

	path := filepath.Join(t.TempDir(), "report.csv")
	if err := WriteCSV(path, agg.Report()); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d lines, want header + 1 data row", len(lines))
	}
}

func TestWriteCSV_UnwritableDestination(t *testing.T) {
	agg := newTestAggregator()
	agg.AddResult(ok("h1"))

	err := WriteCSV(filepath.Join(t.TempDir(), "no", "such", "dir", "report.csv"), agg.Report())
	if err == nil {
		t.Fatal("expected error for unwritable destination")
	}
}

func TestWriteTable(t *testing.T) {
	agg := newTestAggregator()
	agg.AddResult(ok("h1"))
	agg.AddResult(failed("h2", "unreachable"))

	var buf bytes.Buffer
	WriteTable(&buf, agg.Report())

	out := buf.String()
	if !strings.Contains(out, "hostname1") {
		t.Errorf("table output missing hostname1:\n%s", out)
	}
	if !strings.Contains(out, "FAILED: unreachable") {
		t.Errorf("table output missing failure marker:\n%s", out)
	}
	if !strings.Contains(out, "2 hosts: 1 succeeded, 1 failed") {
		t.Errorf("table output missing summary line:\n%s", out)
	}
}
