// Package sim drives ngspice in batch mode: it prepares the netlist, runs
// the simulator under a deadline and collects measurements and waveforms.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edp1096/spicerun/internal/consts"
	"github.com/edp1096/spicerun/internal/ctxlog"
	"github.com/edp1096/spicerun/pkg/measure"
	"github.com/edp1096/spicerun/pkg/netlist"
	"github.com/edp1096/spicerun/pkg/rawfile"
)

const tranEndTolerance = 1e-6

// Source is a netlist given either as a file or as text.
type Source struct {
	path   string
	text   string
	inline bool
}

func FromFile(path string) Source { return Source{path: path} }
func FromText(text string) Source { return Source{text: text, inline: true} }

// Name identifies the source in logs.
func (s Source) Name() string {
	if s.inline {
		return "<inline>"
	}
	return s.path
}

// Simulator runs netlists. It keeps no state between runs and is safe for
// concurrent use.
type Simulator struct {
	cfg       Config
	runner    Runner
	extractor *measure.Extractor
	lit       *netlist.LiteralParser
}

func New(cfg Config, opts ...Option) *Simulator {
	if cfg.Executable == "" {
		cfg.Executable = consts.Executable
	}
	s := &Simulator{cfg: cfg, runner: ExecRunner{}, extractor: measure.New(nil)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Config() Config { return s.cfg }

// Run simulates src once. A nonzero simulator exit is not an error as long
// as a rawfile was written; Result.ExitCode records it.
func (s *Simulator) Run(ctx context.Context, src Source) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("netlist", src.Name())

	exe, err := s.runner.LookPath(s.cfg.Executable)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, s.cfg.Executable, err)
	}

	ws := &workspace{dir: s.cfg.TempDir}
	defer ws.cleanup(logger)

	var nl netlist.Netlist
	netlistPath := src.path
	if src.inline {
		nl = netlist.New(src.text)
		if netlistPath, err = ws.writeTemp("*"+consts.NetlistExt, src.text); err != nil {
			return nil, err
		}
	} else if nl, err = netlist.Load(src.path); err != nil {
		return nil, err
	}
	if s.lit != nil {
		nl = nl.WithLiteralParser(*s.lit)
	}

	rawPath, err := ws.reserve("*" + consts.RawfileExt)
	if err != nil {
		return nil, err
	}

	res := &Result{Title: nl.Title(), Analysis: nl.Analysis()}
	logger.Debug("loaded netlist", "title", res.Title, "analysis", res.Analysis)
	if msg, ok := nl.UICWarning(); ok {
		logger.Warn("initial conditions will be ignored", "reason", firstLineOf(msg))
		res.Warnings = append(res.Warnings, msg)
	}

	sweep, err := nl.Sweep()
	if err != nil {
		if !s.cfg.LenientSweep {
			return nil, err
		}
		logger.Warn("ignoring malformed sweep", "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		sweep = nil
	}
	res.Sweep = sweep

	// A control block is needed for .meas output and for sweeps; a .step
	// that was dropped as malformed does not count.
	var args []string
	if nl.NeedsControlBlock(sweep) {
		rewritten := netlist.Inject(nl.Text(), rawPath, sweep)
		path, err := ws.writeTemp("*"+consts.NetlistExt, rewritten)
		if err != nil {
			return nil, err
		}
		args = []string{"-b", path}
		logger.Debug("injected control block", "sweep_points", sweep.Len(), "measure", nl.HasMeasure())
	} else {
		args = []string{"-b", "-r", rawPath, netlistPath}
	}
	args = append(args, s.cfg.ExtraFlags...)

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	logger.Debug("starting simulator", "path", exe, "args", args)
	start := time.Now()
	out, err := s.runner.Run(runCtx, Command{Path: exe, Args: args})
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			logger.Error("simulation timed out", "timeout", s.cfg.Timeout)
			return nil, &TimeoutError{Timeout: s.cfg.Timeout, Err: runCtx.Err()}
		}
		return nil, fmt.Errorf("running %s: %w", s.cfg.Executable, err)
	}
	res.Stdout, res.Stderr, res.ExitCode = out.Stdout, out.Stderr, out.ExitCode

	report := s.extractor.ExtractReport(out.Stdout)
	res.Measurements = report.Values
	if report.Skipped > 0 {
		logger.Debug("skipped non-numeric measurement lines", "count", report.Skipped)
	}

	if _, err := os.Stat(rawPath); err != nil {
		return nil, &ProcessError{
			ExitCode:   out.ExitCode,
			Stdout:     out.Stdout,
			Stderr:     out.Stderr,
			Diagnostic: diagnostic(out.Stderr, out.Stdout),
			Err:        ErrNoResult,
		}
	}

	if err := s.collect(res, rawPath, sweep, logger); err != nil {
		return nil, err
	}

	if s.cfg.KeepRawDir != "" {
		dst := filepath.Join(s.cfg.KeepRawDir, keptName(src))
		if err := copyFile(rawPath, dst); err != nil {
			return nil, fmt.Errorf("keeping rawfile: %w", err)
		}
		res.RawCopy = dst
	}

	if out.ExitCode != 0 {
		logger.Warn("simulator exited with nonzero status", "exit_code", out.ExitCode)
		checkTranEnd(res, nl, logger)
	}
	logger.Info("simulation finished",
		"analysis", res.Header.Kind(),
		"runs", len(res.Runs),
		"points", res.Header.NumPoints,
		"measurements", len(res.Measurements),
		"elapsed", elapsed.Round(time.Millisecond))
	return res, nil
}

// collect parses the rawfile into res. Sweeps may hold several runs.
func (s *Simulator) collect(res *Result, rawPath string, sweep *netlist.SweepSpec, logger *slog.Logger) error {
	var (
		f   *rawfile.File
		err error
	)
	if sweep != nil {
		f, err = rawfile.ParseAll(rawPath)
	} else {
		f, err = rawfile.Parse(rawPath)
	}
	if err != nil {
		return fmt.Errorf("reading results: %w", err)
	}
	res.Header, res.Runs, res.Layout = f.Header, f.Runs, f.Layout

	if sweep == nil {
		return nil
	}

	// A single preamble may declare the total point count of all runs; the
	// axis then restarts at every run boundary.
	k := sweep.Len()
	if len(res.Runs) == 1 && k > 1 && axisRestarts(res.Runs[0], k) {
		if runs, err := rawfile.SplitRun(res.Runs[0], k); err == nil {
			logger.Debug("split concatenated sweep data", "runs", k)
			res.Runs, res.Layout = runs, rawfile.LayoutShared
		}
	}
	if len(res.Runs) != k {
		msg := fmt.Sprintf("sweep of %s declared %d values but the rawfile holds %d runs", sweep.Param, k, len(res.Runs))
		logger.Warn("sweep run count mismatch", "expected", k, "actual", len(res.Runs))
		res.Warnings = append(res.Warnings, msg)
	}
	return nil
}

// checkTranEnd warns about runs whose time axis stops short of the .tran
// stop time, which is how an aborted transient shows up in the rawfile.
func checkTranEnd(res *Result, nl netlist.Netlist, logger *slog.Logger) {
	if res.Analysis != netlist.AnalysisTRAN || !res.IsTransient() {
		return
	}
	param, ok, err := nl.Tran()
	if err != nil || !ok || param.TStop <= 0 {
		return
	}
	for i := range res.Runs {
		axis := res.Axis(i)
		if len(axis) == 0 {
			continue
		}
		end := axis[len(axis)-1]
		if end >= param.TStop*(1-tranEndTolerance) {
			continue
		}
		msg := fmt.Sprintf("transient stopped at %s of %s", netlist.FormatLiteral(end), netlist.FormatLiteral(param.TStop))
		if len(res.Runs) > 1 {
			msg = fmt.Sprintf("run %d: %s", i+1, msg)
		}
		logger.Warn("transient ended early", "run", i+1, "end", end, "tstop", param.TStop)
		res.Warnings = append(res.Warnings, msg)
	}
}

func axisRestarts(run rawfile.Run, k int) bool {
	n := run.Len()
	if n%k != 0 || n/k == 0 {
		return false
	}
	axis := run.Axis().Real
	size := n / k
	for b := size; b < n; b += size {
		if axis[b] > axis[b-1] {
			return false
		}
	}
	return true
}

// diagnostic returns the first line that looks like a simulator error.
func diagnostic(streams ...string) string {
	for _, s := range streams {
		for _, line := range strings.Split(s, "\n") {
			line = strings.TrimSpace(line)
			lower := strings.ToLower(line)
			if strings.HasPrefix(lower, "error") ||
				strings.HasPrefix(lower, "fatal") ||
				strings.HasPrefix(lower, "!") {
				return line
			}
		}
	}
	return ""
}

func firstLineOf(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func keptName(src Source) string {
	if src.inline {
		return fmt.Sprintf("%s%d%s", consts.TempPrefix, time.Now().UnixNano(), consts.RawfileExt)
	}
	base := filepath.Base(src.path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + consts.RawfileExt
}

// workspace tracks temporary files for one run.
type workspace struct {
	dir   string
	paths []string
}

func (w *workspace) writeTemp(pattern, content string) (string, error) {
	f, err := os.CreateTemp(w.dir, consts.TempPrefix+pattern)
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	w.paths = append(w.paths, f.Name())
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing temporary file: %w", err)
	}
	return f.Name(), nil
}

// reserve claims a unique name and removes the file so the simulator can
// create it; the name stays tracked for cleanup.
func (w *workspace) reserve(pattern string) (string, error) {
	f, err := os.CreateTemp(w.dir, consts.TempPrefix+pattern)
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	name := f.Name()
	w.paths = append(w.paths, name)
	f.Close()
	if err := os.Remove(name); err != nil {
		return "", err
	}
	return name, nil
}

func (w *workspace) cleanup(logger *slog.Logger) {
	for _, p := range w.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to remove temporary file", "path", p, "error", err)
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
