package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const (
	MetricsNamespace = "op_reporter"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

// Metricer records report generation activity
type Metricer interface {
	RecordReportWritten(format string)
	RecordReportFailed(format string, err error)
	RecordTests(status string, count int)
	RecordRunDuration(d time.Duration)
	RecordHTTPRequest(code int)
	RecordError(label string)
	RecordErrorDetails(label string, err error)
}

// Metrics is the prometheus-backed Metricer
type Metrics struct {
	registry *prometheus.Registry
	debug    bool

	errorsTotal    *prometheus.CounterVec
	reportsWritten *prometheus.CounterVec
	reportsFailed  *prometheus.CounterVec
	testsTotal     *prometheus.CounterVec
	runDuration    prometheus.Gauge
	httpRequests   *prometheus.CounterVec
}

var _ Metricer = (*Metrics)(nil)

// NewMetrics registers the reporter metrics with the given registry.
// A nil registry gets a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = opmetrics.NewRegistry()
	}
	factory := opmetrics.With(registry)

	return &Metrics{
		registry: registry,

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "errors_total",
			Help:      "Count of errors",
		}, []string{
			"error",
		}),
		reportsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "reports_written_total",
			Help:      "Number of report files written",
		}, []string{
			"format",
		}),
		reportsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "reports_failed_total",
			Help:      "Number of reports that could not be rendered or written",
		}, []string{
			"format",
		}),
		testsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "tests_total",
			Help:      "Number of test cases reported, by status",
		}, []string{
			"status",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the most recently reported test run",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "http_requests_total",
			Help:      "Number of report requests served, by response code",
		}, []string{
			"code",
		}),
	}
}

// WithDebug enables a debug log line for every error recorded
func (m *Metrics) WithDebug(debug bool) *Metrics {
	m.debug = debug
	return m
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values in the node-exporter
// textfile format, for batch runs that exit before they could be scraped
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

func (m *Metrics) RecordReportWritten(format string) {
	m.reportsWritten.WithLabelValues(format).Inc()
}

func (m *Metrics) RecordReportFailed(format string, err error) {
	m.reportsFailed.WithLabelValues(format).Inc()
	m.RecordErrorDetails("report."+format, err)
}

func (m *Metrics) RecordTests(status string, count int) {
	if count <= 0 {
		return
	}
	m.testsTotal.WithLabelValues(status).Add(float64(count))
}

func (m *Metrics) RecordRunDuration(d time.Duration) {
	m.runDuration.Set(d.Seconds())
}

func (m *Metrics) RecordHTTPRequest(code int) {
	m.httpRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) RecordError(label string) {
	if m.debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", label,
		)
	}
	m.errorsTotal.WithLabelValues(label).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func (m *Metrics) RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	m.RecordError(fmt.Sprintf("%s.%s", label, errToLabel(err)))
}

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

type noopMetrics struct{}

// NoopMetrics discards everything
var NoopMetrics Metricer = noopMetrics{}

func (noopMetrics) RecordReportWritten(string) {}
func (noopMetrics) RecordReportFailed(string, error) {}
func (noopMetrics) RecordTests(string, int) {}
func (noopMetrics) RecordRunDuration(time.Duration) {}
func (noopMetrics) RecordHTTPRequest(int) {}
func (noopMetrics) RecordError(string) {}
func (noopMetrics) RecordErrorDetails(string, error) {}
