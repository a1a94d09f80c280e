package reporting

import (
	"fmt"
	"strings"
)

const (
	SymbolPass = "✔"
	SymbolFail = "✘"
	SymbolSkip = "-"

	failurePrefix = "    Failure: "
)

// statusSymbol returns the glyph printed in front of a test line
func statusSymbol(status Outcome) string {
	switch status {
	case OutcomeFail:
		return SymbolFail
	case OutcomeSkip:
		return SymbolSkip
	default:
		return SymbolPass
	}
}

// TextFormatter formats reports as a plain text summary followed by per-suite details
type TextFormatter struct {
	companyName string
	projectName string
}

// NewTextFormatter creates a new text formatter. Empty names omit the project line.
func NewTextFormatter(companyName, projectName string) *TextFormatter {
	return &TextFormatter{
		companyName: companyName,
		projectName: projectName,
	}
}

// Format formats the report data as text
func (tf *TextFormatter) Format(data *ReportData) (string, error) {
	var report strings.Builder
	stats := data.Stats

	fmt.Fprintf(&report, "\n")
	if header := tf.projectHeader(); header != "" {
		fmt.Fprintf(&report, "Project:     %s\n", header)
	}
	fmt.Fprintf(&report, "Test Suites: %s %d passed, %s %d failed, %d total\n",
		SymbolPass, stats.PassedSuites, SymbolFail, stats.FailedSuites, stats.Suites)
	fmt.Fprintf(&report, "Tests:       %s %d passed, %s %d failed, %s %d skipped, %d total\n",
		SymbolPass, stats.Passed, SymbolFail, stats.Failed, SymbolSkip, stats.Skipped, stats.Total)
	fmt.Fprintf(&report, "Pass rate:   %.1f%%\n", stats.PassRate)
	fmt.Fprintf(&report, "Time:        %s s\n", FormatSeconds(data.Elapsed))
	fmt.Fprintf(&report, "\n")

	for _, suite := range data.Suites {
		fmt.Fprintf(&report, "\nTest Suite: %s\n", suite.Name)

		for _, test := range suite.Cases {
			fmt.Fprintf(&report, "  %s - %s\n", statusSymbol(test.Status), test.Name)

			if test.HasFailure() {
				fmt.Fprintf(&report, "%s%s\n", failurePrefix, indentContinuation(test.Failure, strings.Repeat(" ", len(failurePrefix))))
			}
		}
	}

	return report.String(), nil
}

func (tf *TextFormatter) projectHeader() string {
	switch {
	case tf.projectName != "" && tf.companyName != "":
		return fmt.Sprintf("%s (%s)", tf.projectName, tf.companyName)
	case tf.projectName != "":
		return tf.projectName
	default:
		return tf.companyName
	}
}

// indentContinuation indents every line after the first so multi-line
// failures stay aligned under the "Failure:" label
func indentContinuation(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
