package types

import (
	"time"
)

// TestStatus represents the outcome of a single test case as reported by the test engine
type TestStatus string

const (
	TestStatusPassed  TestStatus = "passed"
	TestStatusFailed  TestStatus = "failed"
	TestStatusSkipped TestStatus = "skipped"
)

// IsValid reports whether the status is one of the three recognised outcomes
func (s TestStatus) IsValid() bool {
	switch s {
	case TestStatusPassed, TestStatusFailed, TestStatusSkipped:
		return true
	default:
		return false
	}
}

// TestResult captures the outcome of a single test case
type TestResult struct {
	Title           string
	AncestorTitles  []string // Enclosing describe blocks, outermost first
	Status          TestStatus
	Duration        time.Duration
	FailureMessages []string // Empty unless Status is failed
}
