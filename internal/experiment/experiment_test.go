package experiment_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cruisesim/internal/dynamo"
	"github.com/san-kum/cruisesim/internal/experiment"
	"github.com/san-kum/cruisesim/internal/integrators"
	"github.com/san-kum/cruisesim/internal/models"
)

var reference = dynamo.Scenario{C1: 0.1, C2: 200.0, V0: 5.0, Tolerance: 1e-6, MaxIterations: 100}

var _ = Describe("Maneuver", func() {
	m := experiment.Maneuver{Start: 1.0, Target: 6.0, Duration: 10.0}

	It("starts and ends at rest on the ramp", func() {
		Expect(m.Speed(0)).To(Equal(1.0))
		Expect(m.Speed(10)).To(BeNumerically("~", 6.0, 1e-12))
	})

	It("is monotone between the endpoints", func() {
		_, speeds := m.Sample(50)
		for i := 1; i < len(speeds); i++ {
			Expect(speeds[i]).To(BeNumerically(">=", speeds[i-1]))
		}
	})

	It("has zero slope at both ends", func() {
		h := 1e-4
		Expect((m.Speed(h) - m.Speed(0)) / h).To(BeNumerically("~", 0, 1e-3))
		Expect((m.Speed(10) - m.Speed(10-h)) / h).To(BeNumerically("~", 0, 1e-3))
	})

	It("samples evenly including both endpoints", func() {
		times, speeds := m.Sample(5)
		Expect(times).To(Equal([]float64{0, 2.5, 5, 7.5, 10}))
		Expect(speeds).To(HaveLen(5))

		times, _ = m.Sample(1)
		Expect(times).To(HaveLen(2))
	})
})

var _ = Describe("Evaluator", func() {
	var ev *experiment.Evaluator

	BeforeEach(func() {
		ev = experiment.New(experiment.DefaultSettings())
	})

	Context("with the reference scenario", func() {
		var r *experiment.Result

		BeforeEach(func() {
			r = ev.Evaluate(reference)
		})

		It("converges to the analytic optimum", func() {
			Expect(r.Analytic).To(BeNumerically("~", 6.68740, 1e-5))
			Expect(r.Root.Converged).To(BeTrue())
			Expect(r.FellBack).To(BeFalse())
			Expect(r.Optimal).To(BeNumerically("~", r.Analytic, reference.Tolerance))
			Expect(r.RootError()).To(BeNumerically("<", reference.Tolerance))
		})

		It("estimates the power slope at the optimum", func() {
			Expect(r.DPDV).To(BeNumerically("~", r.DPDVExact, 1e-6))
		})

		It("integrates a finite positive maneuver energy", func() {
			Expect(math.IsNaN(r.Energy) || math.IsInf(r.Energy, 0)).To(BeFalse())
			Expect(r.Energy).To(BeNumerically(">", 0))

			model := models.FromScenario(reference)
			man := experiment.Maneuver{Start: 1, Target: r.Optimal, Duration: 10}
			fine := integrators.Trapezoid(func(t float64) float64 {
				return model.Power(man.Speed(t))
			}, 0, 10, 1<<14)
			Expect(r.Energy).To(BeNumerically("~", fine, 1e-4*fine))
		})

		It("samples the maneuver profile", func() {
			Expect(r.Times).To(HaveLen(200))
			Expect(r.Speed).To(HaveLen(200))
			Expect(r.Power).To(HaveLen(200))
			Expect(r.Times[0]).To(Equal(0.0))
			Expect(r.Times[199]).To(BeNumerically("~", 10.0, 1e-12))
			Expect(r.Speed[0]).To(Equal(1.0))
			Expect(r.Speed[199]).To(BeNumerically("~", r.Optimal, 1e-12))

			model := models.FromScenario(reference)
			for i, v := range r.Speed {
				Expect(r.Power[i]).To(Equal(model.Power(v)))
			}
		})

		It("is deterministic", func() {
			again := ev.Evaluate(reference)
			Expect(again).To(Equal(r))
		})
	})

	Context("when the solver does not converge", func() {
		It("falls back to the analytic root", func() {
			s := reference
			s.MaxIterations = 1

			r := ev.Evaluate(s)
			Expect(r.Root.Converged).To(BeFalse())
			Expect(r.Root.Stop).To(Equal(dynamo.StopMaxIterations))
			Expect(r.FellBack).To(BeTrue())
			Expect(r.Optimal).To(Equal(r.Analytic))
			Expect(r.Energy).To(BeNumerically(">", 0))
		})

		It("survives a degenerate start speed", func() {
			s := reference
			s.V0 = dynamo.Epsilon / 10

			r := ev.Evaluate(s)
			Expect(r.Root.Stop).To(Equal(dynamo.StopLeftDomain))
			Expect(r.Optimal).To(Equal(r.Analytic))
		})
	})

	Context("when the characteristic is flat at the start", func() {
		It("falls back on the flat-derivative stop", func() {
			s := dynamo.Scenario{C1: 1e-12, C2: 1e-12, V0: 1000, Tolerance: 1e-6, MaxIterations: 100}

			r := ev.Evaluate(s)
			Expect(r.Root.Stop).To(Equal(dynamo.StopFlatDerivative))
			Expect(r.Root.Converged).To(BeFalse())
			Expect(r.Root.Iterations).To(Equal(0))
			Expect(r.FellBack).To(BeTrue())
			Expect(r.Optimal).To(Equal(r.Analytic))
			Expect(r.Optimal).To(BeNumerically("~", 1.0, 1e-12))
			Expect(math.IsNaN(r.Energy)).To(BeFalse())
		})
	})

	Context("with zero-value settings", func() {
		It("evaluates like the defaults", func() {
			zero := experiment.New(experiment.Settings{})
			Expect(zero.Settings()).To(Equal(experiment.DefaultSettings()))

			r := zero.Evaluate(reference)
			Expect(math.IsNaN(r.Energy)).To(BeFalse())
			Expect(r.Times).To(HaveLen(200))
			Expect(r.Times[199]).To(BeNumerically("~", 10.0, 1e-12))
			Expect(r).To(Equal(ev.Evaluate(reference)))
		})

		It("keeps explicit values", func() {
			settings := experiment.Settings{Duration: 4, ProfileSamples: 9}
			got := experiment.New(settings).Settings()
			Expect(got.Duration).To(Equal(4.0))
			Expect(got.ProfileSamples).To(Equal(9))
			Expect(got.StartSpeed).To(Equal(1.0))
		})
	})

	Context("with custom settings", func() {
		It("honours the sample count and horizon", func() {
			settings := experiment.DefaultSettings()
			settings.ProfileSamples = 11
			settings.Duration = 20
			r := experiment.New(settings).Evaluate(reference)

			Expect(r.Times).To(HaveLen(11))
			Expect(r.Times[10]).To(BeNumerically("~", 20.0, 1e-12))
		})

		It("gains accuracy with more Romberg levels", func() {
			coarse := experiment.DefaultSettings()
			coarse.RombergLevels = 2
			fine := experiment.DefaultSettings()
			fine.RombergLevels = 10

			rc := experiment.New(coarse).Evaluate(reference)
			rf := experiment.New(fine).Evaluate(reference)
			r6 := ev.Evaluate(reference)

			Expect(math.Abs(r6.Energy - rf.Energy)).To(BeNumerically("<", math.Abs(rc.Energy-rf.Energy)))
		})
	})
})

var _ = Describe("Run", func() {
	cases := []dynamo.Scenario{
		reference,
		{C1: 0.05, C2: 100, V0: 2, Tolerance: 1e-6, MaxIterations: 100},
		{C1: 0.5, C2: 500, V0: 14, Tolerance: 1e-6, MaxIterations: 100},
		{C1: 0.3, C2: 250, V0: 1, Tolerance: 1e-6, MaxIterations: 3},
		{C1: 0.2, C2: 420, V0: 9, Tolerance: 1e-6, MaxIterations: 100},
	}

	It("returns results in input order", func() {
		results, err := experiment.New(experiment.DefaultSettings()).Run(context.Background(), cases)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(cases)))
		for i, r := range results {
			Expect(r.Case).To(Equal(i + 1))
			Expect(r.Scenario).To(Equal(cases[i]))
		}
	})

	It("produces identical results in parallel", func() {
		seq, err := experiment.New(experiment.DefaultSettings()).Run(context.Background(), cases)
		Expect(err).NotTo(HaveOccurred())

		settings := experiment.DefaultSettings()
		settings.Workers = 4
		par, err := experiment.New(settings).Run(context.Background(), cases)
		Expect(err).NotTo(HaveOccurred())
		Expect(par).To(Equal(seq))
	})

	It("always yields a usable optimum", func() {
		results, err := experiment.New(experiment.DefaultSettings()).Run(context.Background(), cases)
		Expect(err).NotTo(HaveOccurred())
		for _, r := range results {
			Expect(r.Optimal).To(BeNumerically(">", 0))
			Expect(r.Energy).To(BeNumerically(">", 0))
		}
	})

	It("rejects invalid scenarios before evaluating", func() {
		bad := append([]dynamo.Scenario{}, cases...)
		bad[1].C2 = -5

		results, err := experiment.New(experiment.DefaultSettings()).Run(context.Background(), bad)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		Expect(err.Error()).To(ContainSubstring("case 2"))
		Expect(results).To(BeNil())
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := experiment.New(experiment.DefaultSettings()).Run(ctx, cases)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("accepts an empty batch", func() {
		results, err := experiment.New(experiment.DefaultSettings()).Run(context.Background(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})
})
