package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/edp1096/spicerun/internal/cli"
	"github.com/edp1096/spicerun/internal/ctxlog"
	"github.com/edp1096/spicerun/internal/job"
	"github.com/edp1096/spicerun/pkg/rawfile"
	"github.com/edp1096/spicerun/pkg/sim"
)

func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitFailure)
	}
}

// run holds everything main does apart from exiting. opts reach every
// Simulator it builds.
func run(ctx context.Context, outW, logW io.Writer, args []string, opts ...sim.Option) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	a := &app{out: outW, cfg: cfg, opts: opts}

	switch cfg.Mode {
	case cli.ModeHeader:
		return a.header(cfg.Path)
	case cli.ModeCSV:
		return a.convert(cfg.Path)
	case cli.ModeJob:
		return a.runJob(ctx, cfg.Path)
	default:
		s := sim.New(a.simConfig("", 0), opts...)
		err := a.simulate(ctx, s, sim.FromFile(cfg.Path), a.outputs())
		return exitError(err)
	}
}

type app struct {
	out  io.Writer
	cfg  *cli.Config
	opts []sim.Option
}

// simConfig applies the command line, then any per-job overrides.
func (a *app) simConfig(executable string, timeout time.Duration) sim.Config {
	c := sim.DefaultConfig()
	c.Executable = a.cfg.Executable
	c.Timeout = a.cfg.Timeout
	c.KeepRawDir = a.cfg.KeepRaw
	c.LenientSweep = a.cfg.LenientSweep
	if executable != "" {
		c.Executable = executable
	}
	if timeout > 0 {
		c.Timeout = timeout
	}
	return c
}

func (a *app) outputs() outputs {
	return outputs{
		CSV:    a.cfg.CSV,
		Plot:   a.cfg.Plot,
		Nodes:  a.cfg.Nodes,
		Grid:   a.cfg.Grid,
		Interp: a.cfg.Interpolation,
		Stats:  a.cfg.Stats,
	}
}

func (a *app) header(path string) error {
	h, err := rawfile.ParseHeader(path)
	if err != nil {
		return err
	}
	printHeader(a.out, h)
	return nil
}

// convert writes an existing rawfile as CSV, to -csv or to stdout.
func (a *app) convert(path string) error {
	f, err := rawfile.ParseAll(path)
	if err != nil {
		return err
	}
	o := a.outputs()
	logAxis := f.Header.Kind() == rawfile.AnalysisAC
	if o.CSV == "" {
		return exportCSV(a.out, f.Runs, nil, logAxis, o)
	}
	return writeFile(o.CSV, func(w io.Writer) error {
		return exportCSV(w, f.Runs, nil, logAxis, o)
	})
}

// runJob runs every simulation in file order. A failure is reported and the
// rest still run; the first failure decides the exit status.
func (a *app) runJob(ctx context.Context, path string) error {
	j, err := job.Load(path)
	if err != nil {
		return &cli.ExitError{Code: cli.ExitUsage, Message: err.Error()}
	}
	logger := ctxlog.FromContext(ctx)

	var first error
	failed := 0
	for i, js := range j.Simulations {
		if ctx.Err() != nil {
			first = errors.Join(first, ctx.Err())
			break
		}
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintf(a.out, "== %s ==\n", js.Name)

		cfg := a.simConfig(j.Executable, j.Timeout)
		if js.Timeout > 0 {
			cfg.Timeout = js.Timeout
		}
		src := sim.FromText(js.Text)
		if js.NetlistPath != "" {
			src = sim.FromFile(js.NetlistPath)
		}
		o := outputs{
			CSV:    js.CSV,
			Plot:   js.Plot,
			Nodes:  js.Nodes,
			Grid:   js.Grid,
			Interp: js.Interpolation,
			Stats:  a.cfg.Stats,
		}

		err := a.simulate(ctxlog.WithLogger(ctx, logger.With("simulation", js.Name)), sim.New(cfg, a.opts...), src, o)
		if err != nil {
			failed++
			fmt.Fprintf(a.out, "FAILED: %v\n", err)
			logger.Error("simulation failed", "simulation", js.Name, "code", sim.Classify(err), "error", err)
			if first == nil {
				first = err
			}
		}
	}
	if first == nil {
		return nil
	}
	if failed > 0 {
		logger.Error("job finished with failures", "failed", failed, "total", len(j.Simulations))
	}
	return exitError(first)
}

// exitError attaches the exit status for err's category.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	code := cli.ExitFailure
	switch sim.Classify(err) {
	case sim.CodeToolUnavailable:
		code = cli.ExitToolUnavailable
	case sim.CodeTimeout:
		code = cli.ExitTimeout
	}
	return &cli.ExitError{Code: code, Message: err.Error()}
}
