package reporter

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-reporter/reporting"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include unreadable input, invalid configuration, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// ReportIOError is a failure to render or write one report format.
// It never affects the other formats.
type ReportIOError struct {
	Format reporting.Format
	Path   string
	Err    error
}

func (e *ReportIOError) Error() string {
	return fmt.Sprintf("%s report %s: %v", e.Format.Label(), e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *ReportIOError) Unwrap() error {
	return e.Err
}

// IsReportIOError checks if the error is or wraps a ReportIOError
func IsReportIOError(err error) bool {
	var ioErr *ReportIOError
	return err != nil && errors.As(err, &ioErr)
}

// ConfigurationError reports an invalid configuration value
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError checks if the error is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return err != nil && errors.As(err, &cfgErr)
}
