package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/jacoelho/mdq/internal/exit"
	"github.com/jacoelho/mdq/internal/logger"
	"github.com/jacoelho/mdq/internal/output"
)

// DefaultFile is loaded from the working directory when --config is not given.
const DefaultFile = ".mdq.yaml"

const commandQuery = "query"

var (
	ErrNoArguments   = errors.New("no arguments provided")
	ErrNoCommand     = errors.New("no command specified")
	ErrUnknownCmd    = errors.New("unknown command")
	ErrInvalidType   = errors.New("invalid container type")
	ErrInvalidConfig = errors.New("invalid config file")
)

// Config represents the complete configuration for the mdq tool.
type Config struct {
	// Container
	Root string
	Type string // line, repo, or empty to detect

	// Query
	Tokens  []string
	Timeout time.Duration

	// Output
	Format    output.Format
	Debug     bool
	LogFormat string

	ConfigFile string
}

// LogLevel returns the slog level name implied by the debug switch.
func (c *Config) LogLevel() string {
	if c.Debug {
		return "DEBUG"
	}
	return "WARN"
}

// fileConfig mirrors the options accepted in a YAML config file.
type fileConfig struct {
	Root      *string `yaml:"root"`
	Type      *string `yaml:"type"`
	Format    *string `yaml:"format"`
	Timeout   *string `yaml:"timeout"`
	Debug     *bool   `yaml:"debug"`
	LogFormat *string `yaml:"log_format"`
}

type options struct {
	root      string
	typ       string
	format    string
	timeout   time.Duration
	debug     bool
	logFormat string
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage output since we handle it ourselves
	fs.Usage = func() {}
	// Suppress error output since we handle it ourselves
	fs.SetOutput(io.Discard)

	var opts options
	fs.StringVar(&opts.root, "root", ".", "Container root directory")
	fs.StringVar(&opts.typ, "type", "detect", "Container type: line, repo or detect")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json or yaml")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Abort the query after this duration (0 for none)")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging on stderr")
	fs.StringVar(&opts.logFormat, "log-format", logger.FormatText, "Log format: text or json")
	configFile := fs.String("config", "", "Path to a YAML config file")

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoCommand, Usage())
	}
	if rest[0] != commandQuery {
		return nil, exit.Usagef("Error: %v: %q\n\n%s", ErrUnknownCmd, rest[0], Usage())
	}

	path, required := *configFile, true
	if path == "" {
		path, required = DefaultFile, false
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	loaded, err := loadFile(path, required, &opts, explicit)
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	config, err := build(opts, rest[1:])
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}
	if loaded {
		config.ConfigFile = path
	}

	return config, nil
}

// loadFile applies values from the YAML file at path to opts, skipping any
// option set explicitly on the command line. A missing optional file is not
// an error.
func loadFile(path string, required bool, opts *options, explicit map[string]bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField()); err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrInvalidConfig, path, err)
	}

	setString := func(name string, value *string, target *string) {
		if value != nil && !explicit[name] {
			*target = *value
		}
	}
	setString("root", file.Root, &opts.root)
	setString("type", file.Type, &opts.typ)
	setString("format", file.Format, &opts.format)
	setString("log-format", file.LogFormat, &opts.logFormat)

	if file.Debug != nil && !explicit["debug"] {
		opts.debug = *file.Debug
	}
	if file.Timeout != nil && !explicit["timeout"] {
		timeout, err := time.ParseDuration(*file.Timeout)
		if err != nil {
			return false, fmt.Errorf("%w %s: timeout: %w", ErrInvalidConfig, path, err)
		}
		opts.timeout = timeout
	}

	return true, nil
}

func build(opts options, tokens []string) (*Config, error) {
	typ := strings.ToLower(strings.TrimSpace(opts.typ))
	switch typ {
	case "line", "repo":
	case "detect", "":
		typ = ""
	default:
		return nil, fmt.Errorf("%w: %q (supported: line, repo, detect)", ErrInvalidType, opts.typ)
	}

	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	logFormat := strings.ToLower(opts.logFormat)
	if logFormat != logger.FormatText && logFormat != logger.FormatJSON {
		return nil, fmt.Errorf("%w: %q (supported: text, json)", logger.ErrInvalidFormat, opts.logFormat)
	}

	if opts.timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", opts.timeout)
	}

	return &Config{
		Root:      opts.root,
		Type:      typ,
		Tokens:    tokens,
		Timeout:   opts.timeout,
		Format:    format,
		Debug:     opts.debug,
		LogFormat: logFormat,
	}, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `mdq - query experiment metadata

Usage: mdq [options] query <column>... [filter <expr>] [sort <expr> [desc]] [offset <n>] [limit <n>]

Options:
  --root DIR              Container root directory (default: .)
  --type TYPE             Container type: line, repo or detect (default: detect)
  --format FORMAT         Output format: text, json or yaml (default: text)
  --timeout DURATION      Abort the query after DURATION (default: no timeout)
  --config FILE           YAML config file (default: .mdq.yaml when present)
  --debug                 Enable debug logging on stderr
  --log-format FORMAT     Log format: text or json (default: text)
  -h, --help              Show this help message

Expressions:
  Columns, filters and sort keys are expressions over each metadata record:
  attribute access (params.lr), indexing (tags[0]), arithmetic, comparisons,
  and, or, not, in, is, and the functions min, max, len, abs, round, str,
  int, float, bool and jsonpath.

Examples:
  mdq query params.lr metrics.acc
  mdq query name 'metrics.acc' filter 'metrics.acc > 0.9' sort metrics.acc desc limit 5
  mdq --root runs --type repo query name len
  mdq --format json query 'jsonpath(params, "$.optimizer.name")'
`
}
