package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/cruisesim/internal/automation"
	"github.com/san-kum/cruisesim/internal/config"
	"github.com/san-kum/cruisesim/internal/dataset"
	"github.com/san-kum/cruisesim/internal/dynamo"
	"github.com/san-kum/cruisesim/internal/experiment"
	"github.com/san-kum/cruisesim/internal/export"
	"github.com/san-kum/cruisesim/internal/metrics"
	"github.com/san-kum/cruisesim/internal/storage"
	"github.com/san-kum/cruisesim/internal/viz"
)

var (
	dataDir string
	verbose bool
	// Config file
	configFile string
	// Preset name
	preset string
	// Evaluation overrides
	workers       int
	diffStep      float64
	rombergLevels int
	duration      float64
	startSpeed    float64
	samples       int
	// Run behaviour
	watch bool
	save  bool
	quiet bool
	// Single scenario
	c1, c2, v0 float64
	tolerance  float64
	maxIter    int
	// Generator
	numCases int
	seed     int64
	outPath  string
	// Plot selection
	caseNum   int
	showPower bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cruisesim",
		Short:         "drone cruise-speed optimization lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "generate a synthetic case file",
		Args:  cobra.NoArgs,
		RunE:  generateCases,
	}
	generateCmd.Flags().IntVar(&numCases, "cases", config.DefaultCases, "number of cases")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default from config, else "+config.DefaultCasesFile+")")

	runCmd := &cobra.Command{
		Use:   "run [cases-file]",
		Short: "evaluate every case of a case file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCases,
	}
	addEvaluationFlags(runCmd)
	runCmd.Flags().BoolVar(&watch, "watch", false, "re-run when the config or case file changes")
	runCmd.Flags().BoolVar(&save, "save", true, "persist the run")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the summary")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "evaluate a single scenario",
		Args:  cobra.NoArgs,
		RunE:  solveScenario,
	}
	addEvaluationFlags(solveCmd)
	solveCmd.Flags().Float64Var(&c1, "c1", 0.1, "parasitic coefficient")
	solveCmd.Flags().Float64Var(&c2, "c2", 200, "induced coefficient")
	solveCmd.Flags().Float64Var(&v0, "v0", 5, "initial guess (m/s)")
	solveCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "convergence tolerance")
	solveCmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "iteration budget")
	solveCmd.Flags().BoolVar(&showPower, "power", false, "graph power instead of speed")

	sweepCmd := &cobra.Command{
		Use:   "sweep [plan.yaml]",
		Short: "evaluate a sweep plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addEvaluationFlags(sweepCmd)
	sweepCmd.Flags().BoolVar(&save, "save", true, "persist the run")
	sweepCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the summary")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the cases of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot maneuver profiles in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&caseNum, "case", 0, "case number (0 plots every case)")
	plotCmd.Flags().BoolVar(&showPower, "power", false, "plot power instead of speed")

	browseCmd := &cobra.Command{
		Use:   "browse [run_id]",
		Short: "browse the cases of a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, results, err := loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			return viz.Browse(results)
		},
	}

	chartsCmd := &cobra.Command{
		Use:   "charts [run_id]",
		Short: "render PNG figures for a run",
		Args:  cobra.ExactArgs(1),
		RunE:  renderCharts,
	}
	chartsCmd.Flags().StringVarP(&outPath, "out", "o", "", "output directory (default <data>/<run_id>/charts)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	metricsCmd := &cobra.Command{
		Use:   "metrics [run_id]",
		Short: "write a run in the Prometheus text format",
		Args:  cobra.ExactArgs(1),
		RunE:  writeMetrics,
	}
	metricsCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list evaluation presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(generateCmd, runCmd, solveCmd, sweepCmd, listCmd, showCmd, plotCmd,
		browseCmd, chartsCmd, exportJSONCmd, metricsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addEvaluationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset evaluation settings")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "parallel workers")
	cmd.Flags().Float64Var(&diffStep, "step", config.DefaultDiffStep, "finite-difference step")
	cmd.Flags().IntVar(&rombergLevels, "levels", config.DefaultRombergLevels, "romberg levels")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "maneuver duration (s)")
	cmd.Flags().Float64Var(&startSpeed, "start", config.DefaultStartSpeed, "maneuver start speed (m/s)")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultProfileSamples, "profile samples per case")
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveSettings layers the preset over the config file and explicit flags
// over both.
func resolveSettings(cmd *cobra.Command, cfg *config.Config, presetName string) (experiment.Settings, error) {
	ev := cfg.Evaluation
	if presetName != "" {
		p := config.GetPreset(presetName)
		if p == nil {
			return experiment.Settings{}, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
		ev = *p
		ev.Workers = cfg.Evaluation.Workers
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		ev.Workers = workers
	}
	if flags.Changed("step") {
		ev.DiffStep = diffStep
	}
	if flags.Changed("levels") {
		ev.RombergLevels = rombergLevels
	}
	if flags.Changed("time") {
		ev.Duration = duration
	}
	if flags.Changed("start") {
		ev.StartSpeed = startSpeed
	}
	if flags.Changed("samples") {
		ev.ProfileSamples = samples
	}

	if err := ev.Validate(); err != nil {
		return experiment.Settings{}, err
	}

	return experiment.Settings{
		DiffStep:       ev.DiffStep,
		RombergLevels:  ev.RombergLevels,
		Duration:       ev.Duration,
		StartSpeed:     ev.StartSpeed,
		ProfileSamples: ev.ProfileSamples,
		Workers:        ev.Workers,
	}, nil
}

// resolveDataDir prefers an explicit --data over the config's data_dir.
func resolveDataDir(cmd *cobra.Command, cfg *config.Config) string {
	if !cmd.Flags().Changed("data") && cfg.DataDir != "" {
		return cfg.DataDir
	}
	return dataDir
}

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.New(resolveDataDir(cmd, cfg)), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func generateCases(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gen := cfg.Generator
	if cmd.Flags().Changed("cases") || configFile == "" {
		gen.Cases = numCases
	}
	if cmd.Flags().Changed("seed") {
		gen.Seed = seed
	}
	if err := gen.Validate(); err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = cfg.CasesFile
	}
	if path == "" {
		path = config.DefaultCasesFile
	}

	fmt.Printf("generating %d cases into %s...\n", gen.Cases, path)
	if err := dataset.WriteFile(path, dataset.Generate(gen)); err != nil {
		return err
	}
	fmt.Println("done")
	return nil
}

func runCases(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	casesFile := cfg.CasesFile
	if len(args) > 0 {
		casesFile = args[0]
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := evaluateFile(ctx, cmd, cfg, casesFile); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	return config.Watch(ctx, configFile, func(next *config.Config) {
		fmt.Println()
		if err := evaluateFile(ctx, cmd, next, casesFile); err != nil {
			slog.Error("re-run failed", "err", err)
		}
	}, casesFile)
}

func evaluateFile(ctx context.Context, cmd *cobra.Command, cfg *config.Config, casesFile string) error {
	settings, err := resolveSettings(cmd, cfg, preset)
	if err != nil {
		return err
	}

	fmt.Printf("reading cases from %s...\n", casesFile)
	cases, bad, err := dataset.ReadFile(casesFile)
	if err != nil {
		return err
	}
	for _, pe := range bad {
		slog.Warn("skipping malformed line", "file", casesFile, "line", pe.Line, "err", pe.Err)
	}
	if len(cases) == 0 {
		return fmt.Errorf("no valid cases in %s", casesFile)
	}

	ev := experiment.New(settings)
	results, err := ev.Run(ctx, cases)
	if err != nil {
		return err
	}

	report(results)
	return persist(cmd, cfg, storage.RunMetadata{Source: casesFile, Preset: preset, Settings: ev.Settings()}, results)
}

func report(results []*experiment.Result) {
	if !quiet {
		for _, r := range results {
			fmt.Println(viz.RenderCase(r))
		}
	}
	fmt.Println(viz.RenderSummary(results))
}

func persist(cmd *cobra.Command, cfg *config.Config, meta storage.RunMetadata, results []*experiment.Result) error {
	if !save {
		return nil
	}
	st := storage.New(resolveDataDir(cmd, cfg))
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(meta, results)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func solveScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := resolveSettings(cmd, cfg, preset)
	if err != nil {
		return err
	}

	s := dynamo.Scenario{C1: c1, C2: c2, V0: v0, Tolerance: tolerance, MaxIterations: maxIter}
	results, err := experiment.New(settings).Run(context.Background(), []dynamo.Scenario{s})
	if err != nil {
		return err
	}

	series := viz.SeriesSpeed
	if showPower {
		series = viz.SeriesPower
	}
	fmt.Println(viz.RenderCase(results[0]))
	fmt.Println(viz.ProfileGraph(results[0], series, 80, 10))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	plan, err := automation.LoadPlan(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	presetName := plan.Preset
	if cmd.Flags().Changed("preset") {
		presetName = preset
	}
	settings, err := resolveSettings(cmd, cfg, presetName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweep %s: %d cases\n", plan.Name, plan.Size())
	ev := experiment.New(settings)
	results, err := automation.RunPlan(ctx, plan, ev)
	if err != nil {
		return err
	}

	report(results)
	return persist(cmd, cfg, storage.RunMetadata{Source: "plan:" + plan.Name, Preset: presetName, Settings: ev.Settings()}, results)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tCASES\tFALLBACKS\tPRESET")

	for _, run := range runs {
		fallbacks := 0
		for _, c := range run.Cases {
			if c.FellBack {
				fallbacks++
			}
		}
		p := run.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Cases),
			fallbacks,
			p,
		)
	}

	return w.Flush()
}

func loadRun(cmd *cobra.Command, runID string) (*storage.RunMetadata, []*experiment.Result, error) {
	st, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	return st.LoadResults(runID)
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("time: %s\n\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	for _, r := range results {
		fmt.Println(viz.RenderCase(r))
	}
	fmt.Println(viz.RenderSummary(results))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if caseNum < 0 || caseNum > len(results) {
		return fmt.Errorf("case %d out of range (run has %d cases)", caseNum, len(results))
	}

	series := viz.SeriesSpeed
	if showPower {
		series = viz.SeriesPower
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("cases: %d\n\n", len(results))

	for _, r := range results {
		if caseNum != 0 && r.Case != caseNum {
			continue
		}
		fmt.Println(viz.ProfileGraph(r, series, 80, 10))
		fmt.Println()
	}
	return nil
}

func renderCharts(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	dir := outPath
	if dir == "" {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		dir = filepath.Join(st.Dir(), meta.ID, "charts")
	}

	paths, err := export.WriteCharts(dir, results)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("saved %s\n", p)
	}
	return nil
}

// output returns stdout when outPath is empty.
func output() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outPath)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, results); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func writeMetrics(cmd *cobra.Command, args []string) error {
	meta, results, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	if err := metrics.WriteExposition(w, meta.ID, results); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEP\tLEVELS\tDURATION\tSTART\tSAMPLES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%d\t%.1fs\t%g\t%d\n",
			name, p.DiffStep, p.RombergLevels, p.Duration, p.StartSpeed, p.ProfileSamples)
	}
	return w.Flush()
}
