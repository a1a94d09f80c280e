package types

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reporterPayload = `{
  "startTime": 1700000000000,
  "numTotalTests": 3,
  "numFailedTests": 1,
  "numPassedTests": 1,
  "numPendingTests": 1,
  "numTotalTestSuites": 1,
  "numFailedTestSuites": 1,
  "testResults": [
    {
      "testFilePath": "/repo/__tests__/math.spec.ts",
      "perfStats": {"start": 1700000000100, "end": 1700000001350},
      "numFailingTests": 1,
      "numPassingTests": 1,
      "numPendingTests": 1,
      "testResults": [
        {"title": "adds numbers", "ancestorTitles": ["math"], "status": "passed", "duration": 5, "failureMessages": []},
        {"title": "divides by zero", "ancestorTitles": ["math", "division"], "status": "failed", "duration": 2, "failureMessages": ["Error: division by zero"]},
        {"title": "rounds", "ancestorTitles": ["math"], "status": "pending", "duration": null, "failureMessages": []}
      ]
    }
  ]
}`

func TestDecodeRunResult_ReporterPayload(t *testing.T) {
	run, err := DecodeRunResult(strings.NewReader(reporterPayload))
	require.NoError(t, err)

	assert.Equal(t, time.UnixMilli(1700000000000), run.StartTime)
	assert.Equal(t, 3, run.NumTotalTests)
	assert.Equal(t, 1, run.NumFailedTests)
	assert.Equal(t, 1, run.NumPendingTests)
	assert.Equal(t, 1, run.NumFailedTestSuites)
	require.Len(t, run.Suites, 1)

	suite := run.Suites[0]
	assert.Equal(t, "/repo/__tests__/math.spec.ts", suite.Path)
	assert.True(t, suite.HasTiming())
	assert.Equal(t, 1250*time.Millisecond, suite.End.Sub(suite.Start))
	assert.Equal(t, 1, suite.NumFailing)
	assert.Equal(t, 1, suite.NumPassing)
	assert.Equal(t, 1, suite.NumPending)

	require.Len(t, suite.Tests, 3)
	assert.Equal(t, TestStatusPassed, suite.Tests[0].Status)
	assert.Equal(t, 5*time.Millisecond, suite.Tests[0].Duration)
	assert.Equal(t, []string{"math", "division"}, suite.Tests[1].AncestorTitles)
	assert.Equal(t, []string{"Error: division by zero"}, suite.Tests[1].FailureMessages)
	assert.Equal(t, TestStatusSkipped, suite.Tests[2].Status, "pending maps to skipped")
	assert.Zero(t, suite.Tests[2].Duration, "null duration decodes as zero")
}

func TestDecodeRunResult_JSONOutputShape(t *testing.T) {
	doc := `{
	  "startTime": 1700000000000,
	  "numTotalTests": 2,
	  "numTodoTests": 1,
	  "testResults": [
	    {
	      "name": "/repo/a.spec.ts",
	      "startTime": 1700000000000,
	      "endTime": 1700000000500,
	      "assertionResults": [
	        {"title": "works", "ancestorTitles": [], "status": "passed", "duration": 1},
	        {"title": "later", "status": "todo"}
	      ]
	    }
	  ]
	}`

	run, err := DecodeRunResult(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, run.Suites, 1)
	assert.Equal(t, 1, run.NumPendingTests, "todo tests count as pending")

	suite := run.Suites[0]
	assert.Equal(t, "/repo/a.spec.ts", suite.Path)
	assert.Equal(t, 500*time.Millisecond, suite.End.Sub(suite.Start))
	require.Len(t, suite.Tests, 2)
	assert.Equal(t, TestStatusSkipped, suite.Tests[1].Status)
	assert.NotNil(t, suite.Tests[1].AncestorTitles)

	// Counts absent from the document are derived from the tests
	assert.Equal(t, 1, suite.NumPassing)
	assert.Equal(t, 1, suite.NumPending)
	assert.Equal(t, 0, suite.NumFailing)
}

func TestDecodeRunResult_UnknownStatusKeptVerbatim(t *testing.T) {
	doc := `{"testResults":[{"testFilePath":"x","perfStats":{"start":1,"end":2},"testResults":[{"title":"t","status":"focused"}]}]}`
	run, err := DecodeRunResult(strings.NewReader(doc))
	require.NoError(t, err)
	status := run.Suites[0].Tests[0].Status
	assert.Equal(t, TestStatus("focused"), status)
	assert.False(t, status.IsValid())
}

func TestDecodeRunResult_BadTimestampsLeaveTimingUnset(t *testing.T) {
	tests := []struct {
		name      string
		perfStats string
	}{
		{name: "missing", perfStats: `{}`},
		{name: "null", perfStats: `{"start": null, "end": null}`},
		{name: "non-numeric", perfStats: `{"start": "soon", "end": "later"}`},
		{name: "one side only", perfStats: `{"start": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"testResults":[{"testFilePath":"x","perfStats":` + tt.perfStats + `,"testResults":[]}]}`
			run, err := DecodeRunResult(strings.NewReader(doc))
			require.NoError(t, err)
			assert.False(t, run.Suites[0].HasTiming())
		})
	}
}

func TestDecodeRunResult_Errors(t *testing.T) {
	_, err := DecodeRunResult(strings.NewReader("   "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = DecodeRunResult(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing run result")
}

func TestLoadRunResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(path, []byte(reporterPayload), 0644))

	run, err := LoadRunResult(path)
	require.NoError(t, err)
	assert.Len(t, run.Suites, 1)

	_, err = LoadRunResult(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening run result")
}

func TestTestStatus_IsValid(t *testing.T) {
	assert.True(t, TestStatusPassed.IsValid())
	assert.True(t, TestStatusFailed.IsValid())
	assert.True(t, TestStatusSkipped.IsValid())
	assert.False(t, TestStatus("pending").IsValid())
	assert.False(t, TestStatus("").IsValid())
}
