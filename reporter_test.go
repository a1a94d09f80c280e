package reporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const sampleInput = `{
  "startTime": 1704164643000,
  "numTotalTests": 2,
  "numFailedTests": 1,
  "numPassedTests": 1,
  "numPendingTests": 0,
  "numTotalTestSuites": 1,
  "numFailedTestSuites": 1,
  "testResults": [
    {
      "testFilePath": "math.spec.js",
      "perfStats": {"start": 1704164644000, "end": 1704164644010},
      "numFailingTests": 1,
      "numPassingTests": 1,
      "numPendingTests": 0,
      "testResults": [
        {"title": "adds numbers", "ancestorTitles": ["math"], "status": "passed", "duration": 5, "failureMessages": []},
        {"title": "divides by zero", "ancestorTitles": ["math"], "status": "failed", "duration": 2, "failureMessages": ["Error: division by zero"]}
      ]
    }
  ]
}`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReporter_Start(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "reports"))
	cfg.Input = writeInput(t, sampleInput)
	cfg.MetricsTextfile = filepath.Join(dir, "reporter.prom")

	done := make(chan error, 1)
	r, err := New(cfg, metrics.NewMetrics(nil), func(err error) { done <- err })
	require.NoError(t, err)
	var out bytes.Buffer
	r.out = &out

	require.NoError(t, r.Start(context.Background()))
	assert.False(t, r.Stopped())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not called")
	}

	require.NotNil(t, r.result)
	assert.Len(t, r.result.Reports, 3)
	for _, report := range r.result.Reports {
		assert.FileExists(t, report.Path)
		assert.Contains(t, out.String(), report.Path)
	}
	assert.Contains(t, out.String(), "math.spec.js")
	assert.Contains(t, out.String(), "TOTAL")

	prom, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `op_reporter_reports_written_total{format="json"} 1`)

	require.NoError(t, r.Stop(context.Background()))
	assert.True(t, r.Stopped())
}

func TestReporter_Quiet(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Input = writeInput(t, sampleInput)
	cfg.Quiet = true

	r, err := New(cfg, nil, nil)
	require.NoError(t, err)
	var out bytes.Buffer
	r.out = &out

	require.NoError(t, r.Start(context.Background()))
	assert.Empty(t, out.String())
}

func TestReporter_StdoutReportPath(t *testing.T) {
	cfg := testConfig(reporting.StdoutPath)
	cfg.Input = writeInput(t, sampleInput)
	cfg.Formats = []reporting.Format{reporting.FormatText}

	var summary bytes.Buffer
	printed := captureStdout(t, func() {
		r, err := New(cfg, nil, nil)
		require.NoError(t, err)
		r.out = &summary

		require.NoError(t, r.Start(context.Background()))
		require.Len(t, r.result.Reports, 1)
		assert.Equal(t, reporting.StdoutPath, r.result.Reports[0].Path)
	})

	assert.Empty(t, summary.String())
	assert.Contains(t, printed, "Test Suite: math.spec.js")
}

func TestReporter_RuntimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input func(t *testing.T) string
	}{
		{
			name:  "missing input",
			input: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.json") },
		},
		{
			name:  "invalid json",
			input: func(t *testing.T) string { return writeInput(t, "{not json") },
		},
		{
			name: "malformed run",
			input: func(t *testing.T) string {
				return writeInput(t, `{"testResults": [{"testFilePath": "a.spec.js", "testResults": []}]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t.TempDir())
			cfg.Input = tt.input(t)

			r, err := New(cfg, nil, func(error) { t.Error("shutdown callback must not be called") })
			require.NoError(t, err)
			r.out = &bytes.Buffer{}

			err = r.Start(context.Background())
			require.Error(t, err)
			assert.True(t, IsRuntimeError(err))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)

	cfg := testConfig(t.TempDir())
	cfg.TraitRules = append(cfg.TraitRules, badTraitRule())
	_, err = New(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func badTraitRule() types.TraitRule {
	return types.TraitRule{Name: "Broken", Pattern: "[unclosed"}
}
