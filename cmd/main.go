package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	reporter "github.com/ethereum-optimism/infra/op-reporter"
	"github.com/ethereum-optimism/infra/op-reporter/exitcodes"
	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	ctx := ctxinterrupt.WithSignalWaiterMain(context.Background())
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-reporter"
	app.Usage = "Test run report generator"
	app.Description = "op-reporter turns jest-style run results into XML, text and JSON reports"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(withTelemetry(generate))
	app.Commands = []*cli.Command{
		{
			Name:        "generate",
			Usage:       "Generate reports for a single run result (default)",
			Description: "Reads the run result from --input, or stdin, and writes the selected report formats",
			Flags:       cliapp.ProtectFlags(flags.Flags),
			Action:      cliapp.LifecycleCmd(withTelemetry(generate)),
		},
		{
			Name:        "serve",
			Usage:       "Run the report HTTP service",
			Description: "Accepts run results on POST /v1/reports and writes the reports for each",
			Flags:       cliapp.ProtectFlags(flags.Flags),
			Action:      cliapp.LifecycleCmd(withTelemetry(serve)),
		},
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
			return
		}
		cli.HandleExitCoder(cli.Exit(err.Error(), exitCode(err)))
	}
	return app
}

// exitCode maps an application error to the process exit code
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case reporter.IsRuntimeError(err), reporter.IsConfigurationError(err):
		return exitcodes.RuntimeErr
	default:
		return exitcodes.Failure
	}
}

func setupLogging(ctx *cli.Context) log.Logger {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())
	oplog.SetupDefaults()
	return logger
}

func generate(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogging(ctx)

	cfg, err := reporter.NewConfig(ctx, logger)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, reporter.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	m := metrics.NewMetrics(opmetrics.NewRegistry()).WithDebug(logCfgIsDebug(ctx))
	r, err := reporter.New(cfg, m, closeApp)
	if err != nil {
		return nil, reporter.NewRuntimeError(fmt.Errorf("failed to create reporter: %w", err))
	}
	return r, nil
}

func serve(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogging(ctx)

	cfg, err := reporter.NewConfig(ctx, logger)
	if err != nil {
		return nil, reporter.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	svc, err := service.New(logger, cfg, opmetrics.ReadCLIConfig(ctx))
	if err != nil {
		return nil, reporter.NewRuntimeError(fmt.Errorf("failed to create report service: %w", err))
	}
	return svc, nil
}

func logCfgIsDebug(ctx *cli.Context) bool {
	return oplog.ReadCLIConfig(ctx).Level <= log.LevelDebug
}

// telemetryLifecycle flushes the trace exporter once the wrapped lifecycle stops
type telemetryLifecycle struct {
	cliapp.Lifecycle
	shutdown func()
}

func (t *telemetryLifecycle) Stop(ctx context.Context) error {
	err := t.Lifecycle.Stop(ctx)
	t.shutdown()
	return err
}

// withTelemetry sets up OpenTelemetry before the action runs when --telemetry is set
func withTelemetry(action cliapp.LifecycleAction) cliapp.LifecycleAction {
	return func(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		if !ctx.Bool(flags.Telemetry.Name) {
			return action(ctx, closeApp)
		}

		tctx, shutdown, err := telemetry.SetupOpenTelemetry(
			ctx.Context,
			otelconfig.WithServiceName(ctx.App.Name),
			otelconfig.WithServiceVersion(ctx.App.Version),
		)
		if err != nil {
			return nil, reporter.NewRuntimeError(fmt.Errorf("failed to setup open telemetry: %w", err))
		}
		ctx.Context = tctx

		lifecycle, err := action(ctx, closeApp)
		if err != nil {
			shutdown()
			return nil, err
		}
		return &telemetryLifecycle{Lifecycle: lifecycle, shutdown: shutdown}, nil
	}
}
