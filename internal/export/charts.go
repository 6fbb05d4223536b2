package export

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/cruisesim/internal/experiment"
)

var ErrNoResults = errors.New("export: no results to chart")

const (
	ValidationChart = "1_optimal_speed_validation.png"
	EnergyChart     = "2_energy_distribution.png"
	SpeedChart      = "3_speed_profiles.png"
	PowerChart      = "4_power_profiles.png"
	GridChart       = "5_maneuver_grid.png"

	energyBins = 10
	gridCols   = 3
	// MaxGridCases bounds the per-case grid; later cases are left out of it.
	MaxGridCases = 24
)

var (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
	cellWidth   = 5 * vg.Inch
	cellHeight  = 2 * vg.Inch
)

// WriteCharts renders the batch figures into dir and returns the written
// paths in order.
func WriteCharts(dir string, results []*experiment.Result) ([]string, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	steps := []struct {
		name   string
		render func(string, []*experiment.Result) error
	}{
		{ValidationChart, validationChart},
		{EnergyChart, energyChart},
		{SpeedChart, func(p string, rs []*experiment.Result) error {
			return profileChart(p, rs, "Maneuver speed profiles", "speed (m/s)", func(r *experiment.Result) []float64 { return r.Speed })
		}},
		{PowerChart, func(p string, rs []*experiment.Result) error {
			return profileChart(p, rs, "Maneuver power profiles", "power (W)", func(r *experiment.Result) []float64 { return r.Power })
		}},
		{GridChart, gridChart},
	}

	paths := make([]string, 0, len(steps))
	for _, s := range steps {
		path := filepath.Join(dir, s.name)
		if err := s.render(path, results); err != nil {
			return paths, fmt.Errorf("export: %s: %w", s.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func validationChart(path string, results []*experiment.Result) error {
	p := plot.New()
	p.Title.Text = "Optimal speed: numeric vs analytic"
	p.X.Label.Text = "analytic v_opt (m/s)"
	p.Y.Label.Text = "numeric v_opt (m/s)"
	p.Add(plotter.NewGrid())

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range results {
		lo = math.Min(lo, math.Min(r.Analytic, r.Optimal))
		hi = math.Max(hi, math.Max(r.Analytic, r.Optimal))
	}

	ideal, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return err
	}
	ideal.LineStyle.Color = color.RGBA{R: 200, A: 255}
	ideal.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(ideal)

	if pts := validationPoints(results); len(pts) > 0 {
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = plotutil.Color(0)
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("converged cases", scatter)
	}
	p.Legend.Add("y = x", ideal)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(chartWidth, chartHeight, path)
}

// validationPoints pairs the analytic optimum with the solver's root for the
// converged cases only. A fallback case would sit on y = x by construction.
func validationPoints(results []*experiment.Result) plotter.XYs {
	pts := make(plotter.XYs, 0, len(results))
	for _, r := range results {
		if !r.Root.Converged {
			continue
		}
		pts = append(pts, plotter.XY{X: r.Analytic, Y: r.Root.Value})
	}
	return pts
}

func energyChart(path string, results []*experiment.Result) error {
	p := plot.New()
	p.Title.Text = "Maneuver energy distribution"
	p.X.Label.Text = "energy (J)"
	p.Y.Label.Text = "cases"

	values := make(plotter.Values, len(results))
	for i, r := range results {
		values[i] = r.Energy
	}

	hist, err := plotter.NewHist(values, energyBins)
	if err != nil {
		return err
	}
	hist.FillColor = plotutil.Color(1)
	p.Add(hist)

	return p.Save(chartWidth, chartHeight, path)
}

func profileChart(path string, results []*experiment.Result, title, ylabel string, series func(*experiment.Result) []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for i, r := range results {
		line, err := profileLine(r.Times, series(r))
		if err != nil {
			return fmt.Errorf("case %d: %w", r.Case, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		if len(results) <= 10 {
			p.Legend.Add(fmt.Sprintf("case %d", r.Case), line)
		}
	}

	return p.Save(chartWidth, chartHeight, path)
}

// gridChart lays out one speed cell above one power cell for each case.
func gridChart(path string, results []*experiment.Result) error {
	if len(results) > MaxGridCases {
		results = results[:MaxGridCases]
	}
	caseRows := (len(results) + gridCols - 1) / gridCols
	rows := 2 * caseRows

	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, gridCols)
	}

	for i, r := range results {
		row, col := 2*(i/gridCols), i%gridCols

		speed, err := cellPlot(r.Times, r.Speed, plotutil.Color(0))
		if err != nil {
			return fmt.Errorf("case %d: %w", r.Case, err)
		}
		speed.Title.Text = fmt.Sprintf("case %d (v_opt=%.2f m/s)", r.Case, r.Optimal)
		speed.Y.Label.Text = "speed (m/s)"

		power, err := cellPlot(r.Times, r.Power, plotutil.Color(2))
		if err != nil {
			return fmt.Errorf("case %d: %w", r.Case, err)
		}
		power.X.Label.Text = "time (s)"
		power.Y.Label.Text = "power (W)"

		plots[row][col], plots[row+1][col] = speed, power
	}

	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] == nil {
				blank := plot.New()
				blank.HideAxes()
				plots[i][j] = blank
			}
		}
	}

	img := vgimg.New(vg.Length(gridCols)*cellWidth, vg.Length(rows)*cellHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: gridCols,
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j, p := range plots[i] {
			p.Draw(canvases[i][j])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

func cellPlot(xs, ys []float64, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	line, err := profileLine(xs, ys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = c
	p.Add(plotter.NewGrid(), line)
	return p, nil
}

func profileLine(xs, ys []float64) (*plotter.Line, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("profile has %d times and %d samples", len(xs), len(ys))
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	return plotter.NewLine(pts)
}
