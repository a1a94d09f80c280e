package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum-optimism/infra/op-reporter/traits"
)

// Field order of these structs is the key order of the output document
type jsonReport struct {
	TestSuites []jsonSuite `json:"testSuites"`
}

type jsonSuite struct {
	Name  string     `json:"name"`
	Tests []jsonTest `json:"tests"`
}

type jsonTest struct {
	Name           string         `json:"name"`
	Status         string         `json:"status"`
	Duration       string         `json:"duration"`
	FailureMessage *string        `json:"failureMessage,omitempty"`
	Traits         []traits.Trait `json:"traits,omitempty"`
}

// JSONFormatter formats reports as an indented JSON document
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats the report data as JSON with 2-space indentation
func (jf *JSONFormatter) Format(data *ReportData) (string, error) {
	doc := jsonReport{TestSuites: make([]jsonSuite, 0, len(data.Suites))}

	for _, suite := range data.Suites {
		js := jsonSuite{
			Name:  suite.Name,
			Tests: make([]jsonTest, 0, len(suite.Cases)),
		}
		for _, test := range suite.Cases {
			jt := jsonTest{
				Name:     test.Name,
				Status:   test.Status.Lower(),
				Duration: FormatSeconds(test.Duration),
				Traits:   test.Traits,
			}
			if test.HasFailure() {
				failure := test.Failure
				jt.FailureMessage = &failure
			}
			js.Tests = append(js.Tests, jt)
		}
		doc.TestSuites = append(doc.TestSuites, js)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to marshal JSON report: %w", err)
	}

	return buf.String(), nil
}
