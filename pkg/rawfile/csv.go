package rawfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Complex vectors are exported as two columns, "<name>_re" and "<name>_im".
// The axis is always a single column holding its real part; ngspice stores a
// zero imaginary part for the frequency axis.
const (
	realSuffix = "_re"
	imagSuffix = "_im"
)

// CSVColumns returns the header row DumpCSV writes for run.
func CSVColumns(run Run) []string {
	var cols []string
	for i, v := range run.Vectors {
		if i > 0 && v.Kind == Complex {
			cols = append(cols, v.Name+realSuffix, v.Name+imagSuffix)
			continue
		}
		cols = append(cols, v.Name)
	}
	return cols
}

// DumpCSV writes one row per sample point with the axis in the first column.
func DumpCSV(w io.Writer, run Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns(run)); err != nil {
		return err
	}
	for p := 0; p < run.Len(); p++ {
		if err := cw.Write(csvRow(run, p, nil)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SweepColumn labels multi-run CSV rows with the swept parameter value.
type SweepColumn struct {
	Param  string
	Values []float64
}

// DumpRunsCSV writes all runs in long format: a leading "run" column (1-based),
// an optional sweep parameter column, then the DumpCSV columns. Every run
// must share the first run's vector names.
func DumpRunsCSV(w io.Writer, runs []Run, sweep *SweepColumn) error {
	if len(runs) == 0 {
		return ErrNoRuns
	}
	if sweep != nil && len(sweep.Values) != len(runs) {
		return fmt.Errorf("rawfile: %d sweep values for %d runs", len(sweep.Values), len(runs))
	}

	cols := CSVColumns(runs[0])
	for i := 1; i < len(runs); i++ {
		other := CSVColumns(runs[i])
		if !slices.Equal(cols, other) {
			return fmt.Errorf("rawfile: run %d columns %v differ from run 1 columns %v", i+1, other, cols)
		}
	}

	header := []string{"run"}
	if sweep != nil {
		header = append(header, sweep.Param)
	}
	header = append(header, cols...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for r, run := range runs {
		prefix := []string{strconv.Itoa(r + 1)}
		if sweep != nil {
			prefix = append(prefix, formatFloat(sweep.Values[r]))
		}
		for p := 0; p < run.Len(); p++ {
			if err := cw.Write(csvRow(run, p, prefix)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(run Run, p int, prefix []string) []string {
	row := make([]string, 0, len(prefix)+2*len(run.Vectors))
	row = append(row, prefix...)
	for i, v := range run.Vectors {
		row = append(row, formatFloat(v.Real[p]))
		if i > 0 && v.Kind == Complex {
			var im float64
			if v.Imag != nil {
				im = v.Imag[p]
			}
			row = append(row, formatFloat(im))
		}
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
