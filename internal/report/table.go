package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// WriteTable renders the report as a console table for ad-hoc inspection.
// Unlike the CSV artifact it includes the scan duration column.
func WriteTable(w io.Writer, rep *Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Host", "Engine", "Scanned", "Infected", "Elapsed", "End Date", "Status"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, row := range rep.Rows {
		if row.Summary == nil {
			table.Append([]string{row.Host.Name, "", "", "", "", "", "FAILED: " + row.Err})
			continue
		}
		s := row.Summary
		table.Append([]string{
			s.Hostname,
			s.EngineVersion,
			strconv.Itoa(s.ScannedFiles),
			strconv.Itoa(s.InfectedFiles),
			fmt.Sprintf("%.0fs", s.ElapsedSeconds),
			s.EndDate.Format(csvTimeLayout),
			"ok",
		})
	}

	table.Render()
	fmt.Fprintf(w, "\n%d hosts: %d succeeded, %d failed\n",
		rep.Stats.Total, rep.Stats.Succeeded, rep.Stats.Failed)
}
