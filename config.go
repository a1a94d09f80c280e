package reporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/traits"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const (
	DefaultReportPath = "reports"

	// allFormatsToken selects every format
	allFormatsToken = "all"
)

// Config holds the application configuration
type Config struct {
	Input           string                      // Run result path, "-" for stdin
	CompanyName     string                      // Printed in the text report header
	ProjectName     string                      // Printed in the text report header
	Formats         []reporting.Format          // Selected formats, always in generation order
	ReportPath      string                      // Directory reports are written to
	Filenames       map[reporting.Format]string // Per-format filename overrides
	TraitRules      []types.TraitRule
	StripAllEscapes bool   // Remove every escape sequence, not only colour codes
	Quiet           bool   // Suppress the console summary table
	MetricsTextfile string // Optional node-exporter textfile path
	Telemetry       bool
	HTTPAddr        string
	HTTPPort        int
	Log             log.Logger
}

// DefaultConfig returns a config that generates every format into "reports"
func DefaultConfig(log log.Logger) *Config {
	return &Config{
		Input:      "-",
		Formats:    reporting.AllFormats,
		ReportPath: DefaultReportPath,
		Filenames:  map[reporting.Format]string{},
		TraitRules: []types.TraitRule{},
		Log:        log,
	}
}

// FileConfig is the YAML config file layout
type FileConfig struct {
	CompanyName     string            `yaml:"companyName"`
	ProjectName     string            `yaml:"projectName"`
	ReportType      stringList        `yaml:"reportType"`
	ReportPath      string            `yaml:"reportPath"`
	Filenames       fileNames         `yaml:"filenames"`
	TraitsRegex     []types.TraitRule `yaml:"traitsRegex"`
	StripAllEscapes *bool             `yaml:"stripAllEscapes"`
}

type fileNames struct {
	XML  string `yaml:"xml"`
	Text string `yaml:"text"`
	JSON string `yaml:"json"`
}

// stringList accepts either a YAML sequence or a comma separated scalar
type stringList []string

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = splitList(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*s = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a comma separated string", value.Line)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFileConfig reads a YAML config file. Unknown keys are rejected.
func LoadFileConfig(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	var cfg FileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// An empty file is a valid, empty config
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// NewConfig creates a new Config from cli context. Values come from the
// config file when one is given and are overridden by flags set on the
// command line.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	cfg := DefaultConfig(log)
	cfg.Input = ctx.String(flags.Input.Name)
	cfg.MetricsTextfile = ctx.String(flags.MetricsTextfile.Name)
	cfg.Telemetry = ctx.Bool(flags.Telemetry.Name)
	cfg.Quiet = ctx.Bool(flags.Quiet.Name)
	cfg.HTTPAddr = ctx.String(flags.HTTPAddr.Name)
	cfg.HTTPPort = ctx.Int(flags.HTTPPort.Name)
	cfg.ReportPath = ctx.String(flags.ReportPath.Name)

	var formatTokens []string
	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		fileCfg, err := LoadFileConfig(path)
		if err != nil {
			return nil, &ConfigurationError{Field: "config", Err: err}
		}
		cfg.applyFile(fileCfg)
		formatTokens = fileCfg.ReportType
	}

	if ctx.IsSet(flags.CompanyName.Name) {
		cfg.CompanyName = ctx.String(flags.CompanyName.Name)
	}
	if ctx.IsSet(flags.ProjectName.Name) {
		cfg.ProjectName = ctx.String(flags.ProjectName.Name)
	}
	if ctx.IsSet(flags.ReportPath.Name) {
		cfg.ReportPath = ctx.String(flags.ReportPath.Name)
	}
	if ctx.IsSet(flags.StripAllEscapes.Name) {
		cfg.StripAllEscapes = ctx.Bool(flags.StripAllEscapes.Name)
	}
	if ctx.IsSet(flags.ReportType.Name) {
		formatTokens = ctx.StringSlice(flags.ReportType.Name)
	}

	filenameFlags := map[reporting.Format]*cli.StringFlag{
		reporting.FormatXML:  flags.XMLFilename,
		reporting.FormatText: flags.TextFilename,
		reporting.FormatJSON: flags.JSONFilename,
	}
	for format, flag := range filenameFlags {
		if ctx.IsSet(flag.Name) {
			cfg.Filenames[format] = ctx.String(flag.Name)
		}
	}

	for _, raw := range ctx.StringSlice(flags.Trait.Name) {
		rule, err := traits.ParseRule(raw)
		if err != nil {
			return nil, &ConfigurationError{Field: flags.Trait.Name, Err: err}
		}
		cfg.TraitRules = append(cfg.TraitRules, rule)
	}

	formats, err := SelectFormats(formatTokens)
	if err != nil {
		log.Warn("Invalid report type selection, generating all formats", "err", err)
	}
	cfg.Formats = formats

	if cfg.ReportPath == "" {
		cfg.ReportPath = DefaultReportPath
	}

	return cfg, nil
}

func (c *Config) applyFile(fc *FileConfig) {
	if fc.CompanyName != "" {
		c.CompanyName = fc.CompanyName
	}
	if fc.ProjectName != "" {
		c.ProjectName = fc.ProjectName
	}
	if fc.ReportPath != "" {
		c.ReportPath = fc.ReportPath
	}
	if fc.StripAllEscapes != nil {
		c.StripAllEscapes = *fc.StripAllEscapes
	}
	if fc.Filenames.XML != "" {
		c.Filenames[reporting.FormatXML] = fc.Filenames.XML
	}
	if fc.Filenames.Text != "" {
		c.Filenames[reporting.FormatText] = fc.Filenames.Text
	}
	if fc.Filenames.JSON != "" {
		c.Filenames[reporting.FormatJSON] = fc.Filenames.JSON
	}
	c.TraitRules = append(c.TraitRules, fc.TraitsRegex...)
}

// SelectFormats turns selection tokens into formats in generation order.
// No tokens selects every format. An unknown token, or a selection that is
// present but empty, also selects every format and returns a
// ConfigurationError describing the problem.
func SelectFormats(tokens []string) ([]reporting.Format, error) {
	if tokens == nil {
		return reporting.AllFormats, nil
	}

	selected := make(map[reporting.Format]bool)
	for _, token := range tokens {
		if strings.EqualFold(strings.TrimSpace(token), allFormatsToken) {
			return reporting.AllFormats, nil
		}
		format, err := reporting.ParseFormat(token)
		if err != nil {
			return reporting.AllFormats, &ConfigurationError{Field: flags.ReportType.Name, Err: err}
		}
		selected[format] = true
	}
	if len(selected) == 0 {
		return reporting.AllFormats, &ConfigurationError{Field: flags.ReportType.Name, Err: errors.New("no report format selected")}
	}

	formats := make([]reporting.Format, 0, len(selected))
	for _, format := range reporting.AllFormats {
		if selected[format] {
			formats = append(formats, format)
		}
	}
	return formats, nil
}
