package reporter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-reporter/logging"
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/traits"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const tracerName = "github.com/ethereum-optimism/infra/op-reporter"

// WrittenReport is one report file produced by a generation
type WrittenReport struct {
	Format reporting.Format `json:"format"`
	Path   string           `json:"path"`
}

// Result describes the outcome of one Generate call
type Result struct {
	RunID    string
	Data     *reporting.ReportData
	Reports  []WrittenReport
	Failures map[reporting.Format]error
}

// Err joins the per-format failures in generation order, or returns nil
func (r *Result) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	var errs []error
	for _, format := range reporting.AllFormats {
		if err, ok := r.Failures[format]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EngineOption customises an Engine at construction
type EngineOption func(*Engine)

// WithWriter replaces the filesystem writer
func WithWriter(w reporting.ReportWriter) EngineOption {
	return func(e *Engine) {
		e.writer = w
	}
}

// WithClock fixes the wall clock used for timestamps, elapsed time and filenames
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRunSuffix makes default filenames unique per run
func WithRunSuffix() EngineOption {
	return func(e *Engine) {
		e.filenames.WithRunSuffix(true)
	}
}

// Engine turns run results into report files. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	log        log.Logger
	reportPath string
	formats    []reporting.Format
	formatters map[reporting.Format]reporting.ReportFormatter
	writer     reporting.ReportWriter
	filenames  *reporting.FilenameResolver
	extractor  *traits.Extractor
	sanitize   logging.Sanitizer
	metrics    metrics.Metricer
	tracer     trace.Tracer
	now        func() time.Time
}

// NewEngine compiles the configured trait rules and prepares one formatter per selected format
func NewEngine(cfg *Config, m metrics.Metricer, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if m == nil {
		m = metrics.NoopMetrics
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}

	extractor, err := traits.Compile(cfg.TraitRules)
	if err != nil {
		return nil, &ConfigurationError{Field: "traitsRegex", Err: err}
	}

	formats := cfg.Formats
	if len(formats) == 0 {
		formats = reporting.AllFormats
	}

	var writer reporting.ReportWriter = reporting.NewFileWriter()
	if cfg.ReportPath == reporting.StdoutPath {
		writer = reporting.NewStdoutWriter(nil)
	}

	e := &Engine{
		log:        logger,
		reportPath: cfg.ReportPath,
		formats:    formats,
		formatters: map[reporting.Format]reporting.ReportFormatter{
			reporting.FormatXML:  reporting.NewXMLFormatter(),
			reporting.FormatText: reporting.NewTextFormatter(cfg.CompanyName, cfg.ProjectName),
			reporting.FormatJSON: reporting.NewJSONFormatter(),
		},
		writer:    writer,
		filenames: reporting.NewFilenameResolver(cfg.Filenames),
		extractor: extractor,
		sanitize:  logging.NewSanitizer(cfg.StripAllEscapes),
		metrics:   m,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	if e.reportPath == "" {
		e.reportPath = DefaultReportPath
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log.Debug("Report engine ready",
		"formats", e.formats,
		"reportPath", e.reportPath,
		"traitRules", extractor.Len())

	return e, nil
}

// Formats returns the formats generated, in order
func (e *Engine) Formats() []reporting.Format {
	return e.formats
}

// Generate aggregates the run once and writes every selected format.
// A malformed run result aborts before any file is written. A failure
// rendering or writing one format is recorded in the Result and the
// remaining formats are still generated.
func (e *Engine) Generate(ctx context.Context, run *types.RunResult) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "generate reports")
	defer span.End()

	data, err := reporting.NewReportBuilder().
		WithTraits(e.extractor).
		WithSanitizer(e.sanitize).
		WithClock(e.now).
		Build(run)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed run result")
		e.metrics.RecordErrorDetails("build", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("run_id", data.RunID),
		attribute.Int("suites", len(data.Suites)),
		attribute.Int("tests", data.Stats.Total),
	)
	e.metrics.RecordTests(reporting.OutcomePass.Lower(), data.Stats.Passed)
	e.metrics.RecordTests(reporting.OutcomeFail.Lower(), data.Stats.Failed)
	e.metrics.RecordTests(reporting.OutcomeSkip.Lower(), data.Stats.Skipped)
	e.metrics.RecordRunDuration(data.Elapsed)

	result := &Result{
		RunID:    data.RunID,
		Data:     data,
		Reports:  make([]WrittenReport, 0, len(e.formats)),
		Failures: make(map[reporting.Format]error),
	}

	for _, format := range e.formats {
		path, err := e.generateFormat(ctx, format, data)
		if err != nil {
			e.log.Error("Failed to generate report", "format", format, "err", err)
			e.metrics.RecordReportFailed(string(format), err)
			result.Failures[format] = err
			continue
		}
		e.log.Info(fmt.Sprintf("%s report written", format.Label()), "path", path)
		e.metrics.RecordReportWritten(string(format))
		result.Reports = append(result.Reports, WrittenReport{Format: format, Path: path})
	}

	if len(result.Failures) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d reports failed", len(result.Failures), len(e.formats)))
	}
	return result, nil
}

func (e *Engine) generateFormat(ctx context.Context, format reporting.Format, data *reporting.ReportData) (string, error) {
	_, span := e.tracer.Start(ctx, fmt.Sprintf("generate %s report", format))
	defer span.End()

	filename := e.filenames.Resolve(format, data)
	target := filepath.Join(e.reportPath, filename)
	if e.reportPath == reporting.StdoutPath {
		target = reporting.StdoutPath
	}
	span.SetAttributes(attribute.String("path", target))

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return "", &ReportIOError{Format: format, Path: target, Err: err}
	}

	formatter, ok := e.formatters[format]
	if !ok {
		err := &ReportIOError{Format: format, Path: target, Err: fmt.Errorf("no formatter for %q", format)}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	path, err := reporting.NewReportGenerator(formatter, e.writer).GenerateReport(data, e.reportPath, filename)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", &ReportIOError{Format: format, Path: target, Err: err}
	}
	return path, nil
}
