package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cruisesim/internal/experiment"
	"github.com/san-kum/cruisesim/internal/metrics"
)

// Series selects which maneuver profile a graph shows.
type Series int

const (
	SeriesSpeed Series = iota
	SeriesPower
)

func (s Series) String() string {
	if s == SeriesPower {
		return "power (W)"
	}
	return "speed (m/s)"
}

// RenderCase reports one case in the order it is computed: the optimum
// search, the power slope at the optimum, and the maneuver energy.
func RenderCase(r *experiment.Result) string {
	var s strings.Builder
	sc := r.Scenario

	s.WriteString(headerStyle.Render(fmt.Sprintf("CASE %d  c1=%g  c2=%g  v0=%g", r.Case, sc.C1, sc.C2, sc.V0)) + "\n\n")

	status := okStyle.Render(fmt.Sprintf("converged in %d iterations", r.Root.Iterations))
	if r.FellBack {
		status = warnStyle.Render(fmt.Sprintf("%s after %d iterations, using analytic optimum", r.Root.Stop, r.Root.Iterations))
	}
	s.WriteString(row("newton", status))
	s.WriteString(row("v_opt numeric", fmt.Sprintf("%.6f m/s", r.Optimal)))
	s.WriteString(row("v_opt analytic", fmt.Sprintf("%.6f m/s", r.Analytic)))
	s.WriteString(row("dP/dv numeric", fmt.Sprintf("%.6f W/(m/s)", r.DPDV)))
	s.WriteString(row("dP/dv analytic", fmt.Sprintf("%.6f W/(m/s)", r.DPDVExact)))
	s.WriteString(row("maneuver", fmt.Sprintf("%g -> %.6f m/s", r.StartSpeed(), r.Optimal)))
	s.WriteString(row("energy", fmt.Sprintf("%.6f J", r.Energy)))

	return s.String()
}

// RenderSummary reports batch statistics with an energy sparkline across
// the cases.
func RenderSummary(results []*experiment.Result) string {
	sum := metrics.Summarize(results)

	var s strings.Builder
	s.WriteString(headerStyle.Render("SUMMARY") + "\n\n")
	s.WriteString(row("cases", fmt.Sprintf("%d", sum.Cases)))

	conv := fmt.Sprintf("%d/%d", sum.Converged, sum.Cases)
	if sum.Fallbacks > 0 {
		s.WriteString(row("converged", warnStyle.Render(conv)))
		s.WriteString(row("fallbacks", warnStyle.Render(fmt.Sprintf("%d", sum.Fallbacks))))
	} else {
		s.WriteString(row("converged", okStyle.Render(conv)))
	}

	if sum.Cases > 0 {
		s.WriteString(row("energy min", fmt.Sprintf("%.4f J", sum.MinEnergy)))
		s.WriteString(row("energy mean", fmt.Sprintf("%.4f J", sum.MeanEnergy)))
		s.WriteString(row("energy max", fmt.Sprintf("%.4f J", sum.MaxEnergy)))
		s.WriteString(row("max root error", fmt.Sprintf("%.3e m/s", sum.MaxRootError)))
		s.WriteString(row("max slope error", fmt.Sprintf("%.3e", sum.MaxSlopeErr)))

		energies := make([]float64, len(results))
		for i, r := range results {
			energies[i] = r.Energy
		}
		s.WriteString(row("energy by case", Sparkline(energies, min(len(energies), 60))))
	}

	return panelStyle.Render(s.String())
}

// ProfileGraph plots one maneuver profile. An empty profile renders as an
// empty string.
func ProfileGraph(r *experiment.Result, series Series, width, height int) string {
	data := r.Speed
	if series == SeriesPower {
		data = r.Power
	}
	if len(data) == 0 {
		return ""
	}

	caption := fmt.Sprintf("case %d %s over %.0fs", r.Case, series, r.Duration())
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
