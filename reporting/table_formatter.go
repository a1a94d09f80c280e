package reporting

import (
	"bytes"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter formats a per-suite console summary as an ASCII table
type TableFormatter struct {
	title string
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(title string) *TableFormatter {
	return &TableFormatter{title: title}
}

// Format formats the report data as an ASCII table
func (tf *TableFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(tf.title)

	t.AppendHeader(table.Row{
		"Suite", "Time (s)", "Tests", "Passed", "Failed", "Skipped", "Status",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", WidthMax: 120, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Time (s)", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
	})

	for _, suite := range data.Suites {
		t.AppendRow(table.Row{
			suite.Name,
			FormatSeconds(suite.Duration),
			suite.Tests,
			suite.Passed,
			suite.Failures,
			suite.Skipped,
			suiteStatus(suite),
		})
	}

	overall := overallStatus(data)
	switch overall {
	case "FAIL":
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case "SKIP":
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		FormatSeconds(data.Elapsed),
		data.Stats.Total,
		data.Stats.Passed,
		data.Stats.Failed,
		data.Stats.Skipped,
		overall,
	})

	t.Render()
	return buf.String(), nil
}

func suiteStatus(suite ReportSuite) string {
	switch {
	case suite.Failures > 0:
		return "FAIL"
	case suite.Skipped > 0 && suite.Passed == 0:
		return "SKIP"
	default:
		return "PASS"
	}
}

func overallStatus(data *ReportData) string {
	switch {
	case data.Stats.Failed > 0 || data.FailingSuites > 0:
		return "FAIL"
	case data.Stats.Skipped > 0 && data.Stats.Passed == 0:
		return "SKIP"
	default:
		return "PASS"
	}
}
