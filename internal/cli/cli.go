// Package cli turns command-line arguments into a validated Config.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/edp1096/spicerun/internal/consts"
	"github.com/edp1096/spicerun/pkg/rawfile"
)

// Exit codes.
const (
	ExitFailure         = 1
	ExitUsage           = 2
	ExitToolUnavailable = 3
	ExitTimeout         = 4
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// Mode selects what the binary does.
type Mode int

const (
	ModeSimulate Mode = iota // simulate one netlist
	ModeJob                  // run every simulation of an HCL job file
	ModeHeader               // print the preamble of an existing rawfile
	ModeCSV                  // convert an existing rawfile to CSV
)

// Config is the parsed command line.
type Config struct {
	Mode Mode
	Path string // netlist, job file or rawfile depending on Mode

	Plot          string
	CSV           string
	Nodes         []string
	Stats         bool
	Timeout       time.Duration
	Executable    string
	KeepRaw       string
	LenientSweep  bool
	Grid          int
	Interpolation rawfile.Interpolation

	LogLevel  string
	LogFormat string
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	cfg := &Config{Mode: ModeSimulate}
	if len(args) > 0 {
		switch args[0] {
		case "header":
			cfg.Mode, args = ModeHeader, args[1:]
		case "csv":
			cfg.Mode, args = ModeCSV, args[1:]
		}
	}

	flagSet := flag.NewFlagSet("spicerun", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
spicerun - batch ngspice runner with measurement and rawfile extraction.

Usage:
  spicerun [options] NETLIST
  spicerun [options] -job FILE.hcl
  spicerun header FILE.raw
  spicerun csv [-csv OUT.csv] [-nodes LIST] FILE.raw

Options:
`)
		flagSet.PrintDefaults()
	}

	jobFlag := flagSet.String("job", "", "Run every simulation of an HCL job file.")
	plotFlag := flagSet.String("plot", "", "Write a Bode or transient plot; the extension picks the format.")
	csvFlag := flagSet.String("csv", "", "Write the simulation vectors as CSV.")
	nodesFlag := flagSet.String("nodes", "", "Comma-separated vectors for plot and CSV, e.g. 'v(out),v(in)'.")
	statsFlag := flagSet.Bool("stats", false, "Print min, max, mean and RMS of each output node.")
	timeoutFlag := flagSet.Duration("timeout", consts.DefaultTimeout, "Wall clock limit per ngspice run; 0 disables it.")
	ngspiceFlag := flagSet.String("ngspice", consts.Executable, "Name or path of the ngspice binary.")
	keepRawFlag := flagSet.String("keep-raw", "", "Directory that receives a copy of each rawfile.")
	lenientFlag := flagSet.Bool("lenient-sweep", false, "Ignore a malformed .step directive instead of failing.")
	gridFlag := flagSet.Int("grid", 0, "Resample multi-run CSV output onto N common axis points; 0 keeps raw points.")
	interpFlag := flagSet.String("interp", "linear", "Resampling method. Options: 'linear' or 'spline'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	switch {
	case *jobFlag != "" && cfg.Mode != ModeSimulate:
		return nil, false, usageError("-job cannot be combined with a subcommand")
	case *jobFlag != "":
		if flagSet.NArg() > 0 {
			return nil, false, usageError("-job takes no positional arguments")
		}
		cfg.Mode, cfg.Path = ModeJob, *jobFlag
	case flagSet.NArg() == 0:
		flagSet.Usage()
		if cfg.Mode != ModeSimulate {
			return nil, false, usageError("missing rawfile argument")
		}
		return nil, true, nil
	case flagSet.NArg() > 1:
		return nil, false, usageError("expected one file argument, got %d", flagSet.NArg())
	default:
		cfg.Path = flagSet.Arg(0)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	switch strings.ToLower(*interpFlag) {
	case "linear":
		cfg.Interpolation = rawfile.Linear
	case "spline":
		cfg.Interpolation = rawfile.CubicSpline
	default:
		return nil, false, usageError("invalid interp: must be 'linear' or 'spline'")
	}

	if *timeoutFlag < 0 {
		return nil, false, usageError("invalid timeout: must not be negative")
	}
	if *gridFlag < 0 || *gridFlag == 1 {
		return nil, false, usageError("invalid grid: must be 0 or at least 2")
	}

	cfg.Plot = *plotFlag
	cfg.CSV = *csvFlag
	cfg.Nodes = splitNodes(*nodesFlag)
	cfg.Stats = *statsFlag
	cfg.Timeout = *timeoutFlag
	cfg.Executable = *ngspiceFlag
	cfg.KeepRaw = *keepRawFlag
	cfg.LenientSweep = *lenientFlag
	cfg.Grid = *gridFlag
	cfg.LogLevel = logLevel
	cfg.LogFormat = logFormat
	return cfg, false, nil
}

// splitNodes splits at commas outside parentheses so differential vectors
// such as v(a,b) stay whole.
func splitNodes(s string) []string {
	var nodes []string
	depth, start := 0, 0
	flush := func(end int) {
		if n := strings.TrimSpace(s[start:end]); n != "" {
			nodes = append(nodes, n)
		}
		start = end + 1
	}
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
			}
		}
	}
	flush(len(s))
	return nodes
}
