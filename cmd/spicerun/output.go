package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edp1096/spicerun/internal/ctxlog"
	"github.com/edp1096/spicerun/pkg/plot"
	"github.com/edp1096/spicerun/pkg/rawfile"
	"github.com/edp1096/spicerun/pkg/sim"
)

// outputs are the artifacts requested for one simulation.
type outputs struct {
	CSV    string
	Plot   string
	Nodes  []string
	Grid   int
	Interp rawfile.Interpolation
	Stats  bool
}

// simulate runs src, prints its summary and writes the requested files.
func (a *app) simulate(ctx context.Context, s *sim.Simulator, src sim.Source, o outputs) error {
	logger := ctxlog.FromContext(ctx)

	res, err := s.Run(ctx, src)
	if err != nil {
		var pe *sim.ProcessError
		if errors.As(err, &pe) && pe.Diagnostic != "" {
			logger.Error("ngspice reported", "diagnostic", pe.Diagnostic)
		}
		return err
	}

	printSummary(a.out, res, o.Stats)

	if o.CSV != "" {
		var sweep *rawfile.SweepColumn
		if res.Sweep != nil && res.Sweep.Len() == len(res.Runs) {
			sweep = &rawfile.SweepColumn{Param: res.Sweep.Param, Values: res.Sweep.Values}
		}
		err := writeFile(o.CSV, func(w io.Writer) error {
			return exportCSV(w, res.Runs, sweep, res.IsAC(), o)
		})
		if err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		fmt.Fprintf(a.out, "CSV written to %s\n", o.CSV)
	}

	if o.Plot != "" {
		err := plot.Auto(res, o.Nodes, o.Plot, plot.Options{})
		switch {
		case errors.Is(err, plot.ErrUnsupported):
			fmt.Fprintf(a.out, "No plot for %s\n", res.Header.Plotname)
		case err != nil:
			return fmt.Errorf("plotting: %w", err)
		default:
			fmt.Fprintf(a.out, "Plot written to %s\n", o.Plot)
		}
	}

	if res.RawCopy != "" {
		fmt.Fprintf(a.out, "Rawfile kept at %s\n", res.RawCopy)
	}
	return nil
}

// exportCSV writes one run as plain CSV and several runs in long format,
// optionally resampled onto a common axis first.
func exportCSV(w io.Writer, runs []rawfile.Run, sweep *rawfile.SweepColumn, logAxis bool, o outputs) error {
	if len(runs) == 0 {
		return rawfile.ErrNoRuns
	}
	if len(o.Nodes) > 0 {
		selected := make([]rawfile.Run, len(runs))
		for i := range runs {
			run, err := runs[i].Select(o.Nodes...)
			if err != nil {
				return fmt.Errorf("run %d: %w", i+1, err)
			}
			selected[i] = run
		}
		runs = selected
	}
	if len(runs) == 1 && sweep == nil {
		return rawfile.DumpCSV(w, runs[0])
	}

	if o.Grid > 0 {
		axis, err := rawfile.UniformAxis(runs, o.Grid, logAxis)
		if err != nil {
			return err
		}
		resampled := make([]rawfile.Run, len(runs))
		for i := range runs {
			if resampled[i], err = rawfile.Resample(runs[i], axis, o.Interp); err != nil {
				return fmt.Errorf("run %d: %w", i+1, err)
			}
		}
		runs = resampled
	}
	return rawfile.DumpRunsCSV(w, runs, sweep)
}

// writeFile creates path and its parent directories and hands the file to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
