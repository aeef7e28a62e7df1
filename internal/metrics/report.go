// internal/metrics/report.go
package metrics

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderTable formats metrics as a terminal table: one row per model followed
// by one row per attempt depth.
func RenderTable(all []ModelMetrics) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Model", "Attempt", "Requests", "Succeeded", "Failed", "Transport", "Success %", "Mean ms", "StdDev ms", "Min ms", "Max ms"})
	for _, m := range all {
		t.AppendRow(statsRow(m.ModelName, "all", m.OverallStats))
		for _, b := range m.AttemptBuckets {
			t.AppendRow(statsRow("", strconv.Itoa(b.Attempt), b.Stats))
		}
		t.AppendSeparator()
	}
	return t.Render()
}

func statsRow(model, attempt string, s RunningAggregatedStats) table.Row {
	d := s.DurationMillis
	return table.Row{
		model,
		attempt,
		s.TotalRequests,
		s.Succeeded,
		s.Failed,
		s.TransportErrors,
		fmt.Sprintf("%.1f", s.SuccessRate()*100),
		fmt.Sprintf("%.0f", d.Mean),
		fmt.Sprintf("%.0f", d.StdDev()),
		fmt.Sprintf("%.0f", d.Min),
		fmt.Sprintf("%.0f", d.Max),
	}
}
