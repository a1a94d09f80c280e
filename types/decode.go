package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// runnerStatusAliases maps statuses emitted by jest-style runners onto the three
// recognised outcomes. Statuses not listed here are kept verbatim so the
// aggregator can reject them.
var runnerStatusAliases = map[string]TestStatus{
	"passed":   TestStatusPassed,
	"failed":   TestStatusFailed,
	"skipped":  TestStatusSkipped,
	"pending":  TestStatusSkipped,
	"todo":     TestStatusSkipped,
	"disabled": TestStatusSkipped,
}

// epochMillis decodes a millisecond timestamp. Anything other than a JSON
// number leaves it unset rather than failing the whole document.
type epochMillis struct {
	ms  float64
	set bool
}

func (e *epochMillis) UnmarshalJSON(data []byte) error {
	var v float64
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = epochMillis{}
		return nil
	}
	if err := json.Unmarshal(data, &v); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*e = epochMillis{}
		return nil
	}
	*e = epochMillis{ms: v, set: true}
	return nil
}

func (e epochMillis) time() time.Time {
	if !e.set {
		return time.Time{}
	}
	whole := math.Trunc(e.ms)
	frac := time.Duration((e.ms - whole) * float64(time.Millisecond))
	return time.UnixMilli(int64(whole)).Add(frac)
}

type jsonAssertion struct {
	Title           string   `json:"title"`
	AncestorTitles  []string `json:"ancestorTitles"`
	Status          string   `json:"status"`
	Duration        *float64 `json:"duration"`
	FailureMessages []string `json:"failureMessages"`
}

type jsonPerfStats struct {
	Start epochMillis `json:"start"`
	End   epochMillis `json:"end"`
}

type jsonSuite struct {
	TestFilePath     string          `json:"testFilePath"`
	Name             string          `json:"name"`
	PerfStats        *jsonPerfStats  `json:"perfStats"`
	StartTime        epochMillis     `json:"startTime"`
	EndTime          epochMillis     `json:"endTime"`
	NumFailingTests  *int            `json:"numFailingTests"`
	NumPassingTests  *int            `json:"numPassingTests"`
	NumPendingTests  *int            `json:"numPendingTests"`
	TestResults      []jsonAssertion `json:"testResults"`
	AssertionResults []jsonAssertion `json:"assertionResults"`
}

type jsonRun struct {
	StartTime           epochMillis `json:"startTime"`
	NumTotalTests       int         `json:"numTotalTests"`
	NumFailedTests      int         `json:"numFailedTests"`
	NumPassedTests      int         `json:"numPassedTests"`
	NumPendingTests     int         `json:"numPendingTests"`
	NumTodoTests        int         `json:"numTodoTests"`
	NumTotalTestSuites  int         `json:"numTotalTestSuites"`
	NumFailedTestSuites int         `json:"numFailedTestSuites"`
	TestResults         []jsonSuite `json:"testResults"`
}

// LoadRunResult reads a run result document from a file, or from stdin when path is "-"
func LoadRunResult(path string) (*RunResult, error) {
	if path == "" || path == "-" {
		return DecodeRunResult(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run result %s: %w", path, err)
	}
	defer f.Close()

	run, err := DecodeRunResult(f)
	if err != nil {
		return nil, fmt.Errorf("reading run result %s: %w", path, err)
	}
	return run, nil
}

// DecodeRunResult decodes the JSON document a jest-style runner emits at run completion.
// Both the reporter payload (testResults/perfStats) and the --json output
// (assertionResults/startTime/endTime) are accepted.
func DecodeRunResult(r io.Reader) (*RunResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("run result document is empty")
	}

	var doc jsonRun
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing run result: %w", err)
	}

	run := &RunResult{
		Suites:              make([]*SuiteResult, 0, len(doc.TestResults)),
		StartTime:           doc.StartTime.time(),
		NumTotalTests:       doc.NumTotalTests,
		NumFailedTests:      doc.NumFailedTests,
		NumPassedTests:      doc.NumPassedTests,
		NumPendingTests:     doc.NumPendingTests + doc.NumTodoTests,
		NumTotalTestSuites:  doc.NumTotalTestSuites,
		NumFailedTestSuites: doc.NumFailedTestSuites,
	}

	for i := range doc.TestResults {
		run.Suites = append(run.Suites, convertSuite(&doc.TestResults[i]))
	}

	return run, nil
}

func convertSuite(js *jsonSuite) *SuiteResult {
	suite := &SuiteResult{Path: js.TestFilePath}
	if suite.Path == "" {
		suite.Path = js.Name
	}

	if js.PerfStats != nil {
		suite.Start = js.PerfStats.Start.time()
		suite.End = js.PerfStats.End.time()
	} else {
		suite.Start = js.StartTime.time()
		suite.End = js.EndTime.time()
	}

	assertions := js.TestResults
	if len(assertions) == 0 {
		assertions = js.AssertionResults
	}

	suite.Tests = make([]*TestResult, 0, len(assertions))
	for _, a := range assertions {
		suite.Tests = append(suite.Tests, convertAssertion(a))
	}

	if js.NumFailingTests == nil && js.NumPassingTests == nil && js.NumPendingTests == nil {
		for _, test := range suite.Tests {
			switch test.Status {
			case TestStatusFailed:
				suite.NumFailing++
			case TestStatusPassed:
				suite.NumPassing++
			case TestStatusSkipped:
				suite.NumPending++
			}
		}
		return suite
	}

	suite.NumFailing = derefInt(js.NumFailingTests)
	suite.NumPassing = derefInt(js.NumPassingTests)
	suite.NumPending = derefInt(js.NumPendingTests)
	return suite
}

func convertAssertion(a jsonAssertion) *TestResult {
	status, ok := runnerStatusAliases[a.Status]
	if !ok {
		status = TestStatus(a.Status)
	}

	var duration time.Duration
	if a.Duration != nil {
		duration = time.Duration(*a.Duration * float64(time.Millisecond))
	}

	ancestors := a.AncestorTitles
	if ancestors == nil {
		ancestors = []string{}
	}

	return &TestResult{
		Title:           a.Title,
		AncestorTitles:  ancestors,
		Status:          status,
		Duration:        duration,
		FailureMessages: a.FailureMessages,
	}
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
