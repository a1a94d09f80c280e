package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reporter "github.com/ethereum-optimism/infra/op-reporter"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
)

const sampleRun = `{
  "startTime": 1704164643000,
  "numTotalTests": 2,
  "numFailedTests": 1,
  "numPassedTests": 1,
  "numTotalTestSuites": 1,
  "numFailedTestSuites": 1,
  "testResults": [
    {
      "testFilePath": "math.spec.js",
      "perfStats": {"start": 1704164644000, "end": 1704164644010},
      "testResults": [
        {"title": "adds numbers", "status": "passed", "duration": 5},
        {"title": "divides by zero", "status": "failed", "duration": 2, "failureMessages": ["Error: division by zero"]}
      ]
    }
  ]
}`

type failingTextWriter struct {
	next reporting.ReportWriter
}

func (w failingTextWriter) Write(content, dir, filename string) (string, error) {
	if strings.HasSuffix(filename, ".txt") {
		return "", errors.New("disk full")
	}
	return w.next.Write(content, dir, filename)
}

func newTestHandler(t *testing.T, opts ...reporter.EngineOption) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := reporter.DefaultConfig(log.NewLogger(log.DiscardHandler()))
	cfg.ReportPath = dir

	engine, err := reporter.NewEngine(cfg, nil, append([]reporter.EngineOption{reporter.WithRunSuffix()}, opts...)...)
	require.NoError(t, err)
	return NewHandler(cfg.Log, engine, nil), dir
}

func postRun(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, ReportResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHandleReports(t *testing.T) {
	h, dir := newTestHandler(t)

	rec, resp := postRun(t, h.Routes(), sampleRun)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, resp.RunID)
	assert.Empty(t, resp.Errors)

	require.Len(t, resp.Reports, 3)
	for _, report := range resp.Reports {
		assert.FileExists(t, report.Path)
		assert.True(t, strings.HasPrefix(report.Path, dir))
		assert.Contains(t, report.Path, resp.RunID[:8])
	}
}

func TestHandleReports_PartialFailure(t *testing.T) {
	h, _ := newTestHandler(t, reporter.WithWriter(failingTextWriter{next: reporting.NewFileWriter()}))

	rec, resp := postRun(t, h.Routes(), sampleRun)
	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	assert.Len(t, resp.Reports, 2)
	require.Contains(t, resp.Errors, "text")
	assert.Contains(t, resp.Errors["text"], "disk full")
}

type brokenWriter struct{}

func (brokenWriter) Write(content, dir, filename string) (string, error) {
	return "", errors.New("read-only file system")
}

func TestHandleReports_AllFormatsFailed(t *testing.T) {
	h, _ := newTestHandler(t, reporter.WithWriter(brokenWriter{}))

	rec, resp := postRun(t, h.Routes(), sampleRun)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, resp.RunID)
	assert.Empty(t, resp.Reports)
	assert.Len(t, resp.Errors, 3)
	for _, format := range reporting.AllFormats {
		assert.Contains(t, resp.Errors[string(format)], "read-only file system")
	}
}

func TestHandleReports_BadInput(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		errContains string
	}{
		{name: "empty body", body: "", errContains: "empty"},
		{name: "invalid json", body: "{", errContains: "parsing run result"},
		{
			name:        "unknown status",
			body:        strings.Replace(sampleRun, `"status": "passed"`, `"status": "flaky"`, 1),
			errContains: "unknown status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, dir := newTestHandler(t)

			rec, resp := postRun(t, h.Routes(), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, resp.Reports)
			assert.Contains(t, resp.Errors["input"], tt.errContains)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestHandleReports_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
