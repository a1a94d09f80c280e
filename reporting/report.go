package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-reporter/logging"
	"github.com/ethereum-optimism/infra/op-reporter/traits"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Outcome is the three-way result label used in reports
type Outcome string

const (
	OutcomePass Outcome = "Pass"
	OutcomeFail Outcome = "Fail"
	OutcomeSkip Outcome = "Skip"
)

// Lower returns the lowercase label ("pass", "fail", "skip")
func (o Outcome) Lower() string {
	return strings.ToLower(string(o))
}

var outcomes = map[types.TestStatus]Outcome{
	types.TestStatusPassed:  OutcomePass,
	types.TestStatusFailed:  OutcomeFail,
	types.TestStatusSkipped: OutcomeSkip,
}

// ReportStats contains the run-wide counts. Test and suite counts are taken
// from the run result as reported by the test engine, not re-derived.
type ReportStats struct {
	Suites       int
	FailedSuites int
	PassedSuites int
	Total        int
	Passed       int
	Failed       int
	Skipped      int
	PassRate     float64
}

// ReportTestItem represents a single test case in the report
type ReportTestItem struct {
	Name     string
	Type     string // Ancestor titles joined by a single space
	Status   Outcome
	Duration time.Duration
	Failure  string // Sanitized failure text, only meaningful when HasFailure is true
	Traits   []traits.Trait
}

// HasFailure reports whether the test carries failure text.
// A failed test always has one, even if the engine reported no messages.
func (t *ReportTestItem) HasFailure() bool {
	return t.Status == OutcomeFail
}

// ReportSuite represents one test file in the report
type ReportSuite struct {
	Name     string
	Tests    int // Failures + Passed + Skipped
	Failures int
	Passed   int
	Skipped  int
	Duration time.Duration
	Cases    []ReportTestItem
}

// ReportData is the format-agnostic model shared by every formatter.
// It is built once per invocation and is read-only afterwards.
type ReportData struct {
	RunID     string
	Timestamp time.Time     // When the report was generated
	StartTime time.Time     // When the test run started
	Elapsed   time.Duration // Wall-clock time since the run started

	Stats  ReportStats
	Suites []ReportSuite

	// Derived from the suites rather than the run counts
	FailingSuites int           // Suites with at least one failing test
	TotalTime     time.Duration // Sum of suite durations at full precision
}

// ReportBuilder constructs ReportData from a run result
type ReportBuilder struct {
	traits   *traits.Extractor
	sanitize logging.Sanitizer
	now      func() time.Time
	runID    string
}

// NewReportBuilder creates a new report builder
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{
		sanitize: logging.StripANSI,
		now:      time.Now,
	}
}

// WithTraits sets the extractor used to annotate tests
func (rb *ReportBuilder) WithTraits(extractor *traits.Extractor) *ReportBuilder {
	rb.traits = extractor
	return rb
}

// WithSanitizer sets the function used to clean failure text
func (rb *ReportBuilder) WithSanitizer(sanitize logging.Sanitizer) *ReportBuilder {
	if sanitize != nil {
		rb.sanitize = sanitize
	}
	return rb
}

// WithClock overrides the wall clock used for timestamps and elapsed time
func (rb *ReportBuilder) WithClock(now func() time.Time) *ReportBuilder {
	if now != nil {
		rb.now = now
	}
	return rb
}

// WithRunID fixes the run identifier instead of generating one
func (rb *ReportBuilder) WithRunID(runID string) *ReportBuilder {
	rb.runID = runID
	return rb
}

// Build validates the run result and computes the statistics at every level
func (rb *ReportBuilder) Build(run *types.RunResult) (*ReportData, error) {
	if run == nil {
		return nil, &types.MalformedInputError{Reason: "run result is nil"}
	}

	now := rb.now()
	runID := rb.runID
	if runID == "" {
		runID = uuid.New().String()
	}

	report := &ReportData{
		RunID:     runID,
		Timestamp: now,
		StartTime: run.StartTime,
		Suites:    make([]ReportSuite, 0, len(run.Suites)),
		Stats: ReportStats{
			Suites:       run.NumTotalTestSuites,
			FailedSuites: run.NumFailedTestSuites,
			PassedSuites: max(run.NumTotalTestSuites-run.NumFailedTestSuites, 0),
			Total:        run.NumTotalTests,
			Passed:       run.NumPassedTests,
			Failed:       run.NumFailedTests,
			Skipped:      run.NumPendingTests,
		},
	}

	if !run.StartTime.IsZero() {
		report.Elapsed = max(now.Sub(run.StartTime), 0)
	}

	for i, suiteResult := range run.Suites {
		if suiteResult == nil {
			return nil, &types.MalformedInputError{Reason: fmt.Sprintf("suite %d is nil", i)}
		}
		suite, err := rb.buildSuite(suiteResult)
		if err != nil {
			return nil, err
		}
		if suite.Failures > 0 {
			report.FailingSuites++
		}
		report.TotalTime += suite.Duration
		report.Suites = append(report.Suites, suite)
	}

	if report.Stats.Total > 0 {
		report.Stats.PassRate = float64(report.Stats.Passed) / float64(report.Stats.Total) * 100
	}

	return report, nil
}

func (rb *ReportBuilder) buildSuite(sr *types.SuiteResult) (ReportSuite, error) {
	if !sr.HasTiming() {
		return ReportSuite{}, &types.MalformedInputError{Suite: sr.Path, Reason: "perf timestamps are missing"}
	}
	if sr.End.Before(sr.Start) {
		return ReportSuite{}, &types.MalformedInputError{Suite: sr.Path, Reason: "suite ends before it starts"}
	}
	if sr.NumFailing < 0 || sr.NumPassing < 0 || sr.NumPending < 0 {
		return ReportSuite{}, &types.MalformedInputError{Suite: sr.Path, Reason: "negative test count"}
	}

	suite := ReportSuite{
		Name:     sr.Path,
		Tests:    sr.NumFailing + sr.NumPassing + sr.NumPending,
		Failures: sr.NumFailing,
		Passed:   sr.NumPassing,
		Skipped:  sr.NumPending,
		Duration: sr.End.Sub(sr.Start),
		Cases:    make([]ReportTestItem, 0, len(sr.Tests)),
	}

	for _, tr := range sr.Tests {
		if tr == nil {
			return ReportSuite{}, &types.MalformedInputError{Suite: sr.Path, Reason: "nil test result"}
		}
		item, err := rb.createTestItem(tr)
		if err != nil {
			var malformed *types.MalformedInputError
			if errors.As(err, &malformed) {
				malformed.Suite = sr.Path
			}
			return ReportSuite{}, err
		}
		suite.Cases = append(suite.Cases, item)
	}

	return suite, nil
}

// createTestItem creates a ReportTestItem from a TestResult
func (rb *ReportBuilder) createTestItem(tr *types.TestResult) (ReportTestItem, error) {
	outcome, ok := outcomes[tr.Status]
	if !ok {
		return ReportTestItem{}, &types.MalformedInputError{
			Test:   tr.Title,
			Reason: fmt.Sprintf("unknown status %q", tr.Status),
		}
	}
	if tr.Duration < 0 {
		return ReportTestItem{}, &types.MalformedInputError{
			Test:   tr.Title,
			Reason: fmt.Sprintf("negative duration %s", tr.Duration),
		}
	}

	item := ReportTestItem{
		Name:     tr.Title,
		Type:     strings.Join(tr.AncestorTitles, " "),
		Status:   outcome,
		Duration: tr.Duration,
		Traits:   rb.traits.Extract(tr.Title),
	}
	if outcome == OutcomeFail {
		item.Failure = rb.sanitize(strings.Join(tr.FailureMessages, "\n"))
	}
	return item, nil
}

// FormatSeconds renders a duration as seconds with exactly three decimals
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
