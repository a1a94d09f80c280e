package types

import "time"

// SuiteResult represents one test file and the tests it contains
type SuiteResult struct {
	Path  string
	Tests []*TestResult
	Start time.Time // Zero when the engine did not report timing
	End   time.Time

	NumFailing int
	NumPassing int
	NumPending int
}

// HasTiming reports whether both perf timestamps were provided
func (s *SuiteResult) HasTiming() bool {
	return !s.Start.IsZero() && !s.End.IsZero()
}

// RunResult is the complete result of one test run, delivered once at run completion.
// The counts are authoritative and are not re-derived from the suites.
type RunResult struct {
	Suites    []*SuiteResult
	StartTime time.Time

	NumTotalTests       int
	NumFailedTests      int
	NumPassedTests      int
	NumPendingTests     int
	NumTotalTestSuites  int
	NumFailedTestSuites int
}

// TraitRule extracts a named trait from test titles that match Pattern.
// Replace is a regexp template ($1, ${name}) applied to the first match.
type TraitRule struct {
	Pattern string `yaml:"regex" json:"regex"`
	Name    string `yaml:"name" json:"name"`
	Replace string `yaml:"split" json:"split"`
}
