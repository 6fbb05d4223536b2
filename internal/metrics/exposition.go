package metrics

import (
	"fmt"
	"io"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/san-kum/cruisesim/internal/experiment"
)

const namespace = "cruisesim"

type caseGauge struct {
	name  string
	help  string
	value func(r *experiment.Result) float64
}

var caseGauges = []caseGauge{
	{"optimal_speed", "Optimal cruise speed used for the maneuver.", func(r *experiment.Result) float64 { return r.Optimal }},
	{"analytic_speed", "Closed-form optimal cruise speed.", func(r *experiment.Result) float64 { return r.Analytic }},
	{"maneuver_energy_joules", "Energy of the speed-transition maneuver.", func(r *experiment.Result) float64 { return r.Energy }},
	{"power_slope", "Numeric dP/dv at the optimal speed.", func(r *experiment.Result) float64 { return r.DPDV }},
	{"solver_iterations", "Newton iterations performed.", func(r *experiment.Result) float64 { return float64(r.Root.Iterations) }},
	{"solver_converged", "1 if Newton met the tolerance, 0 if the analytic fallback was used.", func(r *experiment.Result) float64 { return boolToFloat(r.Root.Converged) }},
}

// Families builds one gauge family per reported quantity, labeled by run and
// case, plus the run-level case counters.
func Families(runID string, results []*experiment.Result) []*dto.MetricFamily {
	families := make([]*dto.MetricFamily, 0, len(caseGauges)+2)

	for _, g := range caseGauges {
		mf := &dto.MetricFamily{
			Name: proto.String(namespace + "_" + g.name),
			Help: proto.String(g.help),
			Type: dto.MetricType_GAUGE.Enum(),
		}
		for _, r := range results {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: []*dto.LabelPair{
					{Name: proto.String("case"), Value: proto.String(strconv.Itoa(r.Case))},
					{Name: proto.String("run"), Value: proto.String(runID)},
				},
				Gauge: &dto.Gauge{Value: proto.Float64(g.value(r))},
			})
		}
		families = append(families, mf)
	}

	s := Summarize(results)
	families = append(families,
		runGauge("cases_total", "Cases evaluated in the run.", runID, float64(s.Cases)),
		runGauge("fallbacks_total", "Cases that used the analytic fallback.", runID, float64(s.Fallbacks)),
	)
	return families
}

func runGauge(name, help, runID string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + "_" + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Label: []*dto.LabelPair{{Name: proto.String("run"), Value: proto.String(runID)}},
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		}},
	}
}

// WriteExposition writes the run in the Prometheus text format, suitable for
// the node_exporter textfile collector.
func WriteExposition(w io.Writer, runID string, results []*experiment.Result) error {
	for _, mf := range Families(runID, results) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
