package reporter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-reporter/reporting"
)

func TestRuntimeError(t *testing.T) {
	base := errors.New("input missing")
	err := fmt.Errorf("wrapped: %w", NewRuntimeError(base))

	assert.True(t, IsRuntimeError(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsRuntimeError(base))
	assert.False(t, IsRuntimeError(nil))
	assert.Equal(t, "runtime error: input missing", NewRuntimeError(base).Error())
}

func TestReportIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := &ReportIOError{Format: reporting.FormatText, Path: "reports/r.txt", Err: base}

	assert.Equal(t, "Text report reports/r.txt: permission denied", err.Error())
	assert.True(t, IsReportIOError(fmt.Errorf("x: %w", err)))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsReportIOError(base))
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Field: "report-type", Err: errors.New("unknown report format \"html\"")}

	assert.Equal(t, `invalid configuration report-type: unknown report format "html"`, err.Error())
	assert.True(t, IsConfigurationError(err))
	assert.False(t, IsConfigurationError(nil))
}
