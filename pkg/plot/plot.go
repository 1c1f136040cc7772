// Package plot renders simulation results to image files: Bode plots for AC
// analyses and time-domain plots for transient analyses. The output format
// follows the file extension (png, svg, pdf, jpg, tif).
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/edp1096/spicerun/pkg/sim"
	"github.com/edp1096/spicerun/pkg/util"
)

// ErrUnsupported is returned for analyses that have no automatic plot.
var ErrUnsupported = errors.New("no automatic plot for this analysis")

// Options sizes the figure. Zero values select defaults.
type Options struct {
	Width  vg.Length
	Height vg.Length
	Title  string
}

func (o Options) withDefaults(res *sim.Result, height vg.Length) Options {
	if o.Width == 0 {
		o.Width = 10 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = height
	}
	if o.Title == "" {
		o.Title = res.Header.Title
	}
	return o
}

// Auto picks Bode for AC results and Transient for transient results.
func Auto(res *sim.Result, nodes []string, path string, opt Options) error {
	switch {
	case res.IsAC():
		return Bode(res, nodes, path, opt)
	case res.IsTransient():
		return Transient(res, nodes, path, opt)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, res.Header.Plotname)
	}
}

// Bode draws magnitude (dB) above phase (degrees) on a shared logarithmic
// frequency axis, with a dashed -3 dB reference line. Sweeps get one
// series per node per run.
func Bode(res *sim.Result, nodes []string, path string, opt Options) error {
	opt = opt.withDefaults(res, 7*vg.Inch)
	nodes, err := selectNodes(res, nodes)
	if err != nil {
		return err
	}

	mag := gplot.New()
	mag.Title.Text = opt.Title
	mag.Y.Label.Text = "Magnitude (dB)"
	phase := gplot.New()
	phase.Y.Label.Text = "Phase (°)"
	phase.X.Label.Text = "Frequency (Hz)"
	for _, p := range []*gplot.Plot{mag, phase} {
		p.X.Scale = gplot.LogScale{}
		p.X.Tick.Marker = gplot.LogTicks{Prec: -1}
		p.Add(plotter.NewGrid())
		p.Legend.Top = true
	}

	fmin, fmax := math.Inf(1), math.Inf(-1)
	series := 0
	for r := range res.Runs {
		freq := res.Axis(r)
		for _, node := range nodes {
			db, ok := res.MagDB(r, node)
			if !ok {
				return fmt.Errorf("run %d has no vector %q", r+1, node)
			}
			deg, _ := res.PhaseDeg(r, node)
			label := seriesLabel(res, node, r)

			magXY, lo, hi := positiveXY(freq, db)
			phaseXY, _, _ := positiveXY(freq, deg)
			if len(magXY) == 0 {
				return fmt.Errorf("run %d has no positive frequencies", r+1)
			}
			fmin, fmax = math.Min(fmin, lo), math.Max(fmax, hi)

			if err := addLine(mag, magXY, label, series); err != nil {
				return err
			}
			if err := addLine(phase, phaseXY, "", series); err != nil {
				return err
			}
			series++
		}
	}

	ref, err := plotter.NewLine(plotter.XYs{{X: fmin, Y: -3}, {X: fmax, Y: -3}})
	if err != nil {
		return err
	}
	ref.LineStyle.Color = color.RGBA{R: 220, A: 160}
	ref.LineStyle.Width = vg.Points(0.8)
	ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	mag.Add(ref)

	return saveStacked(path, opt, mag, phase)
}

// Transient plots node voltages against time, scaled to ns, µs, ms or s.
func Transient(res *sim.Result, nodes []string, path string, opt Options) error {
	opt = opt.withDefaults(res, 5*vg.Inch)
	nodes, err := selectNodes(res, nodes)
	if err != nil {
		return err
	}

	axis := res.Axis(0)
	if len(axis) == 0 {
		return errors.New("result has no time samples")
	}
	scale, unit := util.TimeScale(axis[len(axis)-1])

	p := gplot.New()
	p.Title.Text = opt.Title
	p.X.Label.Text = fmt.Sprintf("Time (%s)", unit)
	p.Y.Label.Text = "Voltage (V)"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	series := 0
	for r := range res.Runs {
		t := res.Axis(r)
		for _, node := range nodes {
			v, ok := res.Real(r, node)
			if !ok {
				return fmt.Errorf("run %d has no vector %q", r+1, node)
			}
			xy := make(plotter.XYs, len(t))
			for i := range t {
				xy[i].X = t[i] * scale
				xy[i].Y = v[i]
			}
			if err := addLine(p, xy, seriesLabel(res, node, r), series); err != nil {
				return err
			}
			series++
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(opt.Width, opt.Height, path)
}

func selectNodes(res *sim.Result, nodes []string) ([]string, error) {
	if len(res.Runs) == 0 {
		return nil, errors.New("result has no runs")
	}
	if len(nodes) == 0 {
		nodes = res.OutputNodes()
	}
	if len(nodes) == 0 {
		return nil, errors.New("no voltage nodes to plot")
	}
	return nodes, nil
}

func seriesLabel(res *sim.Result, node string, run int) string {
	if len(res.Runs) < 2 {
		return node
	}
	if res.Sweep != nil && run < len(res.Sweep.Values) {
		return fmt.Sprintf("%s %s=%g", node, res.Sweep.Param, res.Sweep.Values[run])
	}
	return fmt.Sprintf("%s run %d", node, run+1)
}

// positiveXY drops non-positive abscissae, which a log axis cannot show.
func positiveXY(xs, ys []float64) (plotter.XYs, float64, float64) {
	xy := make(plotter.XYs, 0, len(xs))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, x := range xs {
		if x <= 0 {
			continue
		}
		xy = append(xy, plotter.XY{X: x, Y: ys[i]})
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return xy, lo, hi
}

func addLine(p *gplot.Plot, xy plotter.XYs, label string, i int) error {
	line, err := plotter.NewLine(xy)
	if err != nil {
		return err
	}
	line.LineStyle.Color = plotutil.Color(i)
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return nil
}

// saveStacked draws plots top to bottom on one canvas with aligned axes.
func saveStacked(path string, opt Options, plots ...*gplot.Plot) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		format = "png"
	}
	c, err := draw.NewFormattedCanvas(opt.Width, opt.Height, format)
	if err != nil {
		return err
	}

	grid := make([][]*gplot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*gplot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 4,
	}
	canvases := gplot.Align(grid, tiles, draw.New(c))
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
