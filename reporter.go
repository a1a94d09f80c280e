package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// reporter implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = (*reporter)(nil)

// reporter generates the reports for a single run result and then asks the app to exit.
type reporter struct {
	config  *Config
	log     log.Logger
	engine  *Engine
	metrics *metrics.Metrics
	out     io.Writer
	result  *Result

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates the one-shot report generator used by the generate command
func New(config *Config, m *metrics.Metrics, shutdownCallback func(error)) (*reporter, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	engine, err := NewEngine(config, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create report engine: %w", err)
	}

	logger := config.Log
	if logger == nil {
		logger = log.Root()
	}

	return &reporter{
		config:           config,
		log:              logger,
		engine:           engine,
		metrics:          m,
		out:              os.Stdout,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start reads the run result and writes the reports.
// Start implements the cliapp.Lifecycle interface.
func (r *reporter) Start(ctx context.Context) error {
	r.running.Store(true)
	r.log.Info("Generating reports", "input", r.config.Input, "formats", r.engine.Formats())

	run, err := types.LoadRunResult(r.config.Input)
	if err != nil {
		r.metrics.RecordErrorDetails("input", err)
		return NewRuntimeError(err)
	}

	result, err := r.engine.Generate(ctx, run)
	if err != nil {
		return NewRuntimeError(err)
	}
	r.result = result

	// Stdout carries the reports themselves when the report path is "-"
	if !r.config.Quiet && r.config.ReportPath != reporting.StdoutPath {
		r.printSummary(result)
	}

	if failed := result.Err(); failed != nil {
		// Report failures are logged but never fail the invocation
		r.log.Warn("Some reports could not be generated", "written", len(result.Reports), "err", failed)
	}

	if r.config.MetricsTextfile != "" {
		if err := r.metrics.WriteTextfile(r.config.MetricsTextfile); err != nil {
			r.log.Error("Failed to write metrics textfile", "err", err)
		}
	}

	r.log.Info("Report generation completed", "run_id", result.RunID, "reports", len(result.Reports))

	go func() {
		if r.shutdownCallback != nil {
			r.shutdownCallback(nil)
		}
	}()
	return nil
}

func (r *reporter) printSummary(result *Result) {
	title := fmt.Sprintf("Test Results (%s)", result.RunID)
	if r.config.ProjectName != "" {
		title = fmt.Sprintf("%s Test Results (%s)", r.config.ProjectName, result.RunID)
	}
	summary, err := reporting.NewTableFormatter(title).Format(result.Data)
	if err != nil {
		r.log.Error("Failed to render summary table", "err", err)
		return
	}
	fmt.Fprint(r.out, summary)
	for _, report := range result.Reports {
		fmt.Fprintf(r.out, "%s report: %s\n", report.Format.Label(), report.Path)
	}
}

// Stop implements the cliapp.Lifecycle interface.
func (r *reporter) Stop(ctx context.Context) error {
	r.running.Store(false)
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (r *reporter) Stopped() bool {
	return !r.running.Load()
}
