package reporting

import (
	"fmt"
	"slices"
	"strings"
)

// Format identifies one report encoding
type Format string

const (
	FormatXML  Format = "xml"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// AllFormats lists every format in generation order
var AllFormats = []Format{FormatXML, FormatText, FormatJSON}

// ParseFormat converts a selection token into a Format
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(AllFormats, f) {
		return "", fmt.Errorf("unknown report format %q", s)
	}
	return f, nil
}

// Extension returns the file extension used for the format
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Label returns the human-readable name of the format
func (f Format) Label() string {
	switch f {
	case FormatXML:
		return "XML"
	case FormatText:
		return "Text"
	case FormatJSON:
		return "JSON"
	default:
		return string(f)
	}
}

// ReportFormatter defines the interface for different report output formats
type ReportFormatter interface {
	Format(data *ReportData) (string, error)
}

// ReportGenerator combines a formatter and a writer for one output format
type ReportGenerator struct {
	formatter ReportFormatter
	writer    ReportWriter
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(formatter ReportFormatter, writer ReportWriter) *ReportGenerator {
	return &ReportGenerator{
		formatter: formatter,
		writer:    writer,
	}
}

// GenerateReport formats pre-built report data and writes it, returning the written path
func (rg *ReportGenerator) GenerateReport(reportData *ReportData, dir, filename string) (string, error) {
	content, err := rg.formatter.Format(reportData)
	if err != nil {
		return "", fmt.Errorf("failed to format report: %w", err)
	}

	path, err := rg.writer.Write(content, dir, filename)
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
