package rawfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Write encodes runs under header h. With LayoutShared the preamble is
// written once and the data blocks are concatenated, so every run must have
// h.NumPoints points; otherwise each run gets its own preamble with its own
// point count. h.Binary selects Binary: or Values: sections.
func Write(w io.Writer, h Header, layout Layout, runs ...Run) error {
	if len(runs) == 0 {
		return ErrNoRuns
	}
	bw := bufio.NewWriter(w)

	for i, run := range runs {
		sh := h
		sh.NumVariables = len(run.Vectors)
		sh.NumPoints = run.Len()
		if len(sh.Variables) != sh.NumVariables {
			sh.Variables = run.Header(h.Title, h.Plotname).Variables
		}
		if layout == LayoutShared {
			if run.Len() != runs[0].Len() {
				return fmt.Errorf("rawfile: shared layout needs equal point counts, run %d has %d, want %d", i, run.Len(), runs[0].Len())
			}
			if i == 0 {
				writePreamble(bw, &sh)
			}
		} else {
			writePreamble(bw, &sh)
		}

		var err error
		if sh.Binary {
			err = writeBinary(bw, &sh, run)
		} else {
			err = writeASCII(bw, &sh, run)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile is Write to a new file at path.
func WriteFile(path string, h Header, layout Layout, runs ...Run) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, h, layout, runs...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePreamble(w *bufio.Writer, h *Header) {
	fmt.Fprintf(w, "Title: %s\n", h.Title)
	fmt.Fprintf(w, "Date: %s\n", h.Date)
	fmt.Fprintf(w, "Plotname: %s\n", h.Plotname)
	fmt.Fprintf(w, "Flags: %s\n", h.Flags)
	fmt.Fprintf(w, "No. Variables: %d\n", h.NumVariables)
	fmt.Fprintf(w, "No. Points: %d\n", h.NumPoints)
	if h.Command != "" {
		fmt.Fprintf(w, "Command: %s\n", h.Command)
	}
	fmt.Fprintf(w, "Variables:\n")
	for _, v := range h.Variables {
		fmt.Fprintf(w, "\t%d\t%s\t%s\n", v.Index, v.Name, v.Unit)
	}
	if h.Binary {
		fmt.Fprintf(w, "Binary:\n")
	} else {
		fmt.Fprintf(w, "Values:\n")
	}
}

func writeBinary(w *bufio.Writer, h *Header, run Run) error {
	width := h.ValueWidth()
	var buf [8]byte
	put := func(v float64) error {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, err := w.Write(buf[:])
		return err
	}
	for p := 0; p < run.Len(); p++ {
		for _, v := range run.Vectors {
			if err := put(v.Real[p]); err != nil {
				return err
			}
			if width == 2 {
				var im float64
				if v.Imag != nil {
					im = v.Imag[p]
				}
				if err := put(im); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeASCII(w *bufio.Writer, h *Header, run Run) error {
	complexValues := h.IsComplex()
	for p := 0; p < run.Len(); p++ {
		for i, v := range run.Vectors {
			if i == 0 {
				fmt.Fprintf(w, " %d", p)
			}
			text := strconv.FormatFloat(v.Real[p], 'e', -1, 64)
			if complexValues {
				var im float64
				if v.Imag != nil {
					im = v.Imag[p]
				}
				text += "," + strconv.FormatFloat(im, 'e', -1, 64)
			}
			if _, err := fmt.Fprintf(w, "\t%s\n", text); err != nil {
				return err
			}
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return nil
}
