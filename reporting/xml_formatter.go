package reporting

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	xmlRootName   = "jest tests"
	xmlTestMethod = "Test"

	// ISO-8601 with millisecond precision, as emitted by JavaScript's Date.toISOString
	isoTimestamp = "2006-01-02T15:04:05.000Z07:00"
)

type xmlTestSuites struct {
	XMLName  xml.Name       `xml:"testsuites"`
	Name     string         `xml:"name,attr"`
	Tests    int            `xml:"tests,attr"`
	Failures int            `xml:"failures,attr"`
	Errors   int            `xml:"errors,attr"`
	Time     string         `xml:"time,attr"`
	Suites   []xmlTestSuite `xml:"testsuite"`
}

type xmlTestSuite struct {
	Name      string    `xml:"name,attr"`
	Errors    int       `xml:"errors,attr"`
	Failures  int       `xml:"failures,attr"`
	Skipped   int       `xml:"skipped,attr"`
	Timestamp string    `xml:"timestamp,attr"`
	Time      string    `xml:"time,attr"`
	Tests     int       `xml:"tests,attr"`
	Cases     []xmlTest `xml:"test"`
}

type xmlTest struct {
	Name    string      `xml:"name,attr"`
	Type    string      `xml:"type,attr"`
	Method  string      `xml:"method,attr"`
	Time    string      `xml:"time,attr"`
	Result  string      `xml:"result,attr"`
	Traits  *xmlTraits  `xml:"traits,omitempty"`
	Failure *xmlFailure `xml:"failure,omitempty"`
}

type xmlTraits struct {
	Traits []xmlTrait `xml:"trait"`
}

type xmlTrait struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlFailure struct {
	Message string `xml:",chardata"`
}

// MarshalXML writes the message with line breaks and tabs kept literal so
// stack traces stay readable in the raw file.
func (f xmlFailure) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(struct {
		Inner string `xml:",innerxml"`
	}{Inner: escapeFailureText(f.Message)}, start)
}

// escapeFailureText escapes markup characters and carriage returns, and
// replaces characters XML cannot carry with U+FFFD.
func escapeFailureText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		i += width
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '\r':
			b.WriteString("&#xD;")
		case r == utf8.RuneError && width == 1, !isXMLChar(r):
			b.WriteRune(utf8.RuneError)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// XMLFormatter formats reports as xUnit-style XML
type XMLFormatter struct{}

// NewXMLFormatter creates a new XML formatter
func NewXMLFormatter() *XMLFormatter {
	return &XMLFormatter{}
}

// Format formats the report data as tab-indented XML
func (xf *XMLFormatter) Format(data *ReportData) (string, error) {
	timestamp := formatTimestamp(data.Timestamp)

	doc := xmlTestSuites{
		Name:     xmlRootName,
		Tests:    len(data.Suites),
		Failures: data.FailingSuites,
		Errors:   0,
		Time:     FormatSeconds(data.TotalTime),
		Suites:   make([]xmlTestSuite, 0, len(data.Suites)),
	}

	for _, suite := range data.Suites {
		xs := xmlTestSuite{
			Name:      suite.Name,
			Errors:    0,
			Failures:  suite.Failures,
			Skipped:   suite.Skipped,
			Timestamp: timestamp,
			Time:      FormatSeconds(suite.Duration),
			Tests:     suite.Tests,
			Cases:     make([]xmlTest, 0, len(suite.Cases)),
		}
		for i := range suite.Cases {
			xs.Cases = append(xs.Cases, newXMLTest(&suite.Cases[i]))
		}
		doc.Suites = append(doc.Suites, xs)
	}

	out, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML report: %w", err)
	}

	return xml.Header + string(out) + "\n", nil
}

func newXMLTest(item *ReportTestItem) xmlTest {
	xt := xmlTest{
		Name:   item.Name,
		Type:   item.Type,
		Method: xmlTestMethod,
		Time:   FormatSeconds(item.Duration),
		Result: string(item.Status),
	}

	if len(item.Traits) > 0 {
		xt.Traits = &xmlTraits{Traits: make([]xmlTrait, 0, len(item.Traits))}
		for _, trait := range item.Traits {
			xt.Traits.Traits = append(xt.Traits.Traits, xmlTrait{Name: trait.Name, Value: trait.Value})
		}
	}

	if item.HasFailure() {
		xt.Failure = &xmlFailure{Message: item.Failure}
	}

	return xt
}

// formatTimestamp is shared by formatters that print the generation time
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(isoTimestamp)
}
