package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_REPORTER"

var (
	Input = &cli.StringFlag{
		Name:    "input",
		Value:   "-",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "INPUT"),
		Usage:   "Path to the run result JSON emitted by the test runner. '-' reads stdin",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to a YAML reporter config file (eg. 'reporter.yaml')",
	}
	ReportType = &cli.StringSliceFlag{
		Name:    "report-type",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_TYPE"),
		Usage:   "Report formats to generate: xml, text, json or all. Repeatable or comma separated",
	}
	ReportPath = &cli.StringFlag{
		Name:    "report-path",
		Value:   "reports",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_PATH"),
		Usage:   "Directory reports are written to, or - to print them to stdout",
	}
	XMLFilename = &cli.StringFlag{
		Name:    "xml-filename",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "XML_FILENAME"),
		Usage:   "Filename of the XML report. Defaults to report-<timestamp>.xml",
	}
	TextFilename = &cli.StringFlag{
		Name:    "text-filename",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEXT_FILENAME"),
		Usage:   "Filename of the text report. Defaults to report-<timestamp>.txt",
	}
	JSONFilename = &cli.StringFlag{
		Name:    "json-filename",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "JSON_FILENAME"),
		Usage:   "Filename of the JSON report. Defaults to report-<timestamp>.json",
	}
	Trait = &cli.StringSliceFlag{
		Name:    "trait",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TRAIT"),
		Usage:   "Trait rule 'name=regex=>template' applied to test titles. Repeatable",
	}
	CompanyName = &cli.StringFlag{
		Name:    "company-name",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COMPANY_NAME"),
		Usage:   "Company name printed in the text report header",
	}
	ProjectName = &cli.StringFlag{
		Name:    "project-name",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROJECT_NAME"),
		Usage:   "Project name printed in the text report header",
	}
	StripAllEscapes = &cli.BoolFlag{
		Name:    "strip-all-escapes",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STRIP_ALL_ESCAPES"),
		Usage:   "Remove every ANSI escape sequence from failure text, not just colour codes",
	}
	Quiet = &cli.BoolFlag{
		Name:    "quiet",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "QUIET"),
		Usage:   "Do not print the summary table to stdout",
	}
	MetricsTextfile = &cli.StringFlag{
		Name:    "metrics-textfile",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_TEXTFILE"),
		Usage:   "Write metrics in node-exporter textfile format to this path after generating",
	}
	Telemetry = &cli.BoolFlag{
		Name:    "telemetry",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TELEMETRY"),
		Usage:   "Export OpenTelemetry traces using the OTEL_* environment configuration",
	}
	HTTPAddr = &cli.StringFlag{
		Name:    "http.addr",
		Value:   "0.0.0.0",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HTTP_ADDR"),
		Usage:   "Listen address of the report service",
	}
	HTTPPort = &cli.IntFlag{
		Name:    "http.port",
		Value:   8080,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HTTP_PORT"),
		Usage:   "Listen port of the report service",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Input,
	ConfigFile,
	ReportType,
	ReportPath,
	XMLFilename,
	TextFilename,
	JSONFilename,
	Trait,
	CompanyName,
	ProjectName,
	StripAllEscapes,
	Quiet,
	MetricsTextfile,
	Telemetry,
	HTTPAddr,
	HTTPPort,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
