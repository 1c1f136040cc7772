package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/edp1096/spicerun/pkg/netlist"
	"github.com/edp1096/spicerun/pkg/rawfile"
	"github.com/edp1096/spicerun/pkg/sim"
	"github.com/edp1096/spicerun/pkg/util"
)

func printHeader(w io.Writer, h *rawfile.Header) {
	format := "binary"
	if !h.Binary {
		format = "ascii"
	}
	fmt.Fprintf(w, "Title:     %s\n", h.Title)
	fmt.Fprintf(w, "Date:      %s\n", h.Date)
	fmt.Fprintf(w, "Plotname:  %s (%s)\n", h.Plotname, h.Kind())
	fmt.Fprintf(w, "Flags:     %s\n", h.Flags)
	fmt.Fprintf(w, "Format:    %s\n", format)
	fmt.Fprintf(w, "Points:    %d\n", h.NumPoints)
	fmt.Fprintf(w, "Variables: %d\n", h.NumVariables)
	for _, v := range h.Variables {
		fmt.Fprintf(w, "  %3d  %-20s %s\n", v.Index, v.Name, v.Unit)
	}
}

func printSummary(w io.Writer, res *sim.Result, stats bool) {
	fmt.Fprintln(w, "\nSimulation Results:")
	fmt.Fprintln(w, "===================")
	if res.Title != "" {
		fmt.Fprintf(w, "Title:     %s\n", res.Title)
	}
	fmt.Fprintf(w, "Analysis:  %s\n", analysisLine(res))
	fmt.Fprintf(w, "Points:    %d\n", res.Header.NumPoints)
	if run := res.Run(0); run != nil {
		fmt.Fprintf(w, "Variables: %s\n", strings.Join(run.Names(), ", "))
	}
	fmt.Fprintf(w, "Runs:      %s\n", runsLine(res))
	if res.ExitCode != 0 {
		fmt.Fprintf(w, "Exit code: %d\n", res.ExitCode)
	}

	switch {
	case res.IsOP():
		printOperatingPoint(w, res)
	case res.IsAC():
		printACResponse(w, res)
	}

	if len(res.Measurements) > 0 {
		fmt.Fprintln(w, "\nMeasurements:")
		names := make([]string, 0, len(res.Measurements))
		for name := range res.Measurements {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-20s = %.6e\n", name, res.Measurements[name])
		}
	}

	if stats && res.IsTransient() {
		printStats(w, res)
	}

	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "\nWarning: %s\n", warning)
	}
}

// analysisLine falls back to the netlist's analysis when the plotname is
// not one the rawfile reader recognises.
func analysisLine(res *sim.Result) string {
	if res.Header.Kind() != rawfile.AnalysisOther || res.Analysis == netlist.AnalysisUnknown {
		return res.Header.Plotname
	}
	return fmt.Sprintf("%s (netlist: %s)", res.Header.Plotname, res.Analysis)
}

func runsLine(res *sim.Result) string {
	n := len(res.Runs)
	if res.Sweep == nil || res.Sweep.Len() != n {
		return fmt.Sprint(n)
	}
	values := make([]string, n)
	for i, v := range res.Sweep.Values {
		values[i] = netlist.FormatLiteral(v)
	}
	return fmt.Sprintf("%d (%s = %s)", n, res.Sweep.Param, strings.Join(values, ", "))
}

func runLabel(res *sim.Result, i int) string {
	if res.Sweep != nil && i < res.Sweep.Len() {
		return fmt.Sprintf("run %d (%s=%s)", i+1, res.Sweep.Param, netlist.FormatLiteral(res.Sweep.Values[i]))
	}
	return fmt.Sprintf("run %d", i+1)
}

func printOperatingPoint(w io.Writer, res *sim.Result) {
	fmt.Fprintln(w, "\nOperating Point:")
	for i := range res.Runs {
		if len(res.Runs) > 1 {
			fmt.Fprintf(w, "  %s\n", runLabel(res, i))
		}
		for _, v := range res.Runs[i].Vectors {
			if v.Len() == 0 {
				continue
			}
			fmt.Fprintf(w, "  %-20s = %s\n", v.Name, util.FormatOperatingPoint(v.Real[0]))
		}
	}
}

// printACResponse shows each output node at the lowest frequency and where
// it first falls 3 dB below that.
func printACResponse(w io.Writer, res *sim.Result) {
	nodes := res.OutputNodes()
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintln(w, "\nAC Response:")
	for i := range res.Runs {
		if len(res.Runs) > 1 {
			fmt.Fprintf(w, "  %s\n", runLabel(res, i))
		}
		freq := res.Axis(i)
		for _, node := range nodes {
			db, ok := res.MagDB(i, node)
			if !ok || len(db) == 0 {
				continue
			}
			deg, _ := res.PhaseDeg(i, node)
			line := fmt.Sprintf("  %s at %s", util.FormatMagnitudePhase(node, db[0], deg[0]), strings.TrimSpace(util.FormatFrequency(freq[0])))
			if fc, ok := util.CornerFrequency(freq, db); ok {
				line += fmt.Sprintf(", -3 dB at %s", strings.TrimSpace(util.FormatFrequency(fc)))
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printStats(w io.Writer, res *sim.Result) {
	fmt.Fprintln(w, "\nWaveform Statistics:")
	fmt.Fprintf(w, "  %-20s %12s %12s %12s %12s\n", "node", "min", "max", "mean", "rms")
	for i := range res.Runs {
		if len(res.Runs) > 1 {
			fmt.Fprintf(w, "  %s\n", runLabel(res, i))
		}
		t := res.Axis(i)
		for _, node := range res.OutputNodes() {
			v, ok := res.Real(i, node)
			if !ok {
				continue
			}
			st, err := util.WaveformStats(t, v)
			if err != nil {
				fmt.Fprintf(w, "  %-20s %v\n", node, err)
				continue
			}
			fmt.Fprintf(w, "  %-20s %12s %12s %12s %12s\n", node,
				util.FormatValueFactor(st.Min, "V"),
				util.FormatValueFactor(st.Max, "V"),
				util.FormatValueFactor(st.Mean, "V"),
				util.FormatValueFactor(st.RMS, "V"))
		}
	}
}
