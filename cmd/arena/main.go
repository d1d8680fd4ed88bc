package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/arena/internal/analysis"
	"github.com/san-kum/arena/internal/config"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/experiment"
	"github.com/san-kum/arena/internal/optim"
	"github.com/san-kum/arena/internal/sim"
	"github.com/san-kum/arena/internal/storage"
	"github.com/san-kum/arena/internal/tui"
	"github.com/san-kum/arena/internal/wallfield"
	"github.com/spf13/cobra"
)

var (
	dataDir      string
	configFile   string
	preset       string
	overrides    []string
	verbose      bool
	sentryDSN    string
	statsAddr    string
	dt           float64
	duration     float64
	seed         int64
	integrator   string
	controller   string
	runs         int
	exportOut    string
	plotBody     int
	sweepParams  []string
	sweepMetric  string
	perturbation float64
	statsManager *statsview.ViewManager
	logger       *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "arena",
		Short:             "rigid craft arena simulator",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if statsManager != nil {
				statsManager.Stop()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".arena", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringArrayVar(&overrides, "set", nil, "override a config value, e.g. --set physics.stiffness=2000")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&sentryDSN, "sentry-dsn", os.Getenv("ARENA_SENTRY_DSN"), "report failures to sentry")
	pf.StringVar(&statsAddr, "statsview", "", "serve runtime charts on this address, e.g. localhost:18066")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addStepFlags(runCmd)
	runCmd.Flags().IntVar(&runs, "runs", 1, "number of seeds to run in parallel")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run simulation with live telemetry",
		Args:  cobra.NoArgs,
		RunE:  watchSimulation,
	}
	addStepFlags(watchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBody, "body", 0, "body whose position to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(exportOut, args[0])
		},
	}
	exportJSONCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the configured scenario",
		Args:  cobra.NoArgs,
		RunE:  benchScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBODIES\tARENA\tCTRL\tDURATION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.0fs\n",
					name, cfg.BodyCount(), cfg.Arena.Kind, cfg.Controller, cfg.Duration)
			}
			return w.Flush()
		},
	}

	fieldCmd := &cobra.Command{
		Use:   "field [dir]",
		Short: "write the configured wall field as csv layers",
		Args:  cobra.ExactArgs(1),
		RunE:  writeField,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "estimate the largest lyapunov exponent of the scenario",
		Args:  cobra.NoArgs,
		RunE:  sensitivity,
	}
	addStepFlags(sensitivityCmd)
	sensitivityCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial offset of the twin trajectory")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search config values minimising a metric",
		Args:  cobra.NoArgs,
		RunE:  sweep,
	}
	addStepFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "key=v1,v2,... e.g. physics.stiffness=2000,4000")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "max_penetration", "metric to minimise")

	rootCmd.AddCommand(runCmd, watchCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, benchCmd, analyzeCmd,
		sensitivityCmd, sweepCmd, presetsCmd, fieldCmd)

	err := execute(rootCmd)
	if sentryDSN != "" {
		if err != nil {
			sentry.CaptureException(err)
		}
		sentry.Flush(2 * time.Second)
	}
	if err != nil {
		os.Exit(1)
	}
}

func execute(rootCmd *cobra.Command) error {
	defer sentry.Recover()
	return rootCmd.Execute()
}

func addStepFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator")
	cmd.Flags().StringVar(&controller, "controller", "", "controller")
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if sentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDSN}); err != nil {
			return fmt.Errorf("sentry init: %w", err)
		}
	}

	if statsAddr != "" {
		viewer.SetConfiguration(viewer.WithAddr(statsAddr))
		statsManager = statsview.New()
		go statsManager.Start()
		logger.Info("statsview listening", "addr", statsAddr)
	}
	return nil
}

// loadConfig resolves the config in order: defaults, preset, file, --set,
// then the per-command step flags.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "sandbox"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, "", fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		if err := cfg.Set(key, value); err != nil {
			return nil, "", err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	return cfg, name, nil
}

type simResult struct {
	cfg *config.Config
	*sim.Result
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running", "scenario", name, "bodies", cfg.BodyCount(), "runs", runs,
		"integrator", cfg.Integrator, "controller", cfg.Controller)
	start := time.Now()

	var results []*simResult
	if runs > 1 {
		out, err := exp.Ensemble(runs).Run(ctx, cfg.SimConfig())
		if err != nil {
			return err
		}
		for i, r := range out {
			runCfg := cfg.Clone()
			runCfg.Seed = cfg.Seed + int64(i)
			results = append(results, &simResult{cfg: runCfg, Result: r})
		}
	} else {
		r, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		results = append(results, &simResult{cfg: cfg, Result: r})
	}

	elapsed := time.Since(start)
	fmt.Printf("completed in %v\n", elapsed)

	for _, r := range results {
		runID, err := st.Save(name, r.cfg, r.Result)
		if err != nil {
			return err
		}
		for _, e := range r.Errors {
			logger.Warn("run stopped early", "run", runID, "err", e)
		}

		fmt.Printf("\nrun id: %s\n", runID)
		fmt.Printf("steps: %d\n", r.StepsTaken)
		fmt.Printf("checksum: %016x\n", r.FinalChecksum)
		fmt.Println("metrics:")
		for el := r.Metrics.Front(); el != nil; el = el.Next() {
			fmt.Printf("  %s: %.6f\n", el.Key, el.Value)
		}
	}
	return nil
}

func watchSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	return tui.Run(name, func() (*sim.Simulator, error) { return exp.Build(cfg.Seed) }, cfg.Dt, cfg.Duration)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	list, err := st.List()
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tSTEPS\tDT\tINTEG\tCTRL")
	for _, run := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Controller,
		)
	}
	return w.Flush()
}

// plotRun recovers body properties by rebuilding the stored run's initial
// state, which is deterministic in its config and seed.
func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if plotBody < 0 || plotBody >= states[0].Bodies() {
		return fmt.Errorf("body %d out of range [0, %d)", plotBody, states[0].Bodies())
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	s, err := exp.Build(meta.Seed)
	if err != nil {
		return err
	}
	model := s.Arena().Model()

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d over %.2fs\n\n", len(states), times[len(times)-1])

	series := []struct {
		caption string
		value   func(x dynamo.State) float64
	}{
		{"kinetic energy", model.Energy},
		{"contacts", func(x dynamo.State) float64 { return float64(model.Contacts(x)) }},
		{"mean speed", meanSpeed},
		{fmt.Sprintf("body %d x", plotBody), func(x dynamo.State) float64 { return x.Body(plotBody)[dynamo.X] }},
		{fmt.Sprintf("body %d y", plotBody), func(x dynamo.State) float64 { return x.Body(plotBody)[dynamo.Y] }},
	}

	for _, ser := range series {
		data := make([]float64, len(states))
		for i, x := range states {
			data[i] = ser.value(x)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(ser.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func meanSpeed(x dynamo.State) float64 {
	n := x.Bodies()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		b := x.Body(i)
		sum += math.Hypot(b[dynamo.VX], b[dynamo.VY])
	}
	return sum / float64(n)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func benchScenario(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0}
	dts := []float64{0.005, 0.01, 0.02}

	fmt.Printf("benchmarking %s (%d bodies)\n\n", name, cfg.BodyCount())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range dts {
			c := cfg.Clone()
			c.Dt, c.Duration = step, dur
			c.RecordEvery = int(dur / step)
			c.ValidateState = false

			exp, err := experiment.New(c)
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(result.StepsTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, result.StepsTaken, elapsed, stepsPerSec)
		}
	}
	return w.Flush()
}

func writeField(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	field, err := cfg.BuildField()
	if err != nil {
		return err
	}
	if err := wallfield.SaveCSV(args[0], field); err != nil {
		return err
	}
	b := field.Bounds()
	fmt.Printf("wrote %dx%d field over [%g, %g]x[%g, %g] to %s\n",
		field.Width(), field.Height(), b.XMin, b.XMax, b.YMin, b.YMax, args[0])
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 3 {
		return fmt.Errorf("no data")
	}

	// The final sample may be closer than the recording interval.
	spacing := times[1] - times[0]
	data := make([]float64, 0, len(states))
	for i, x := range states {
		if i > 0 && i == len(states)-1 && times[i]-times[i-1] < spacing*0.999 {
			break
		}
		data = append(data, meanSpeed(x))
	}

	ps, freq := analysis.Spectrum(data, spacing)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	graph := asciigraph.Plot(ps,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (mean speed)"),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func sensitivity(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}
	s, err := exp.Build(cfg.Seed)
	if err != nil {
		return err
	}
	integ, err := experiment.NewRegistry().GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	a := s.Arena()
	u := dynamo.NewControl(a.Bodies())
	for i := 0; i < a.Bodies(); i++ {
		u[i*dynamo.ControlStride] = cfg.Control.Thrust
		u[i*dynamo.ControlStride+1] = cfg.Control.Torque
	}

	lambda := analysis.LyapunovExponent(a.Model(), integ, a.Snapshot(), u, cfg.Dt, cfg.Duration, perturbation)
	fmt.Printf("scenario: %s (%d bodies, constant thrust %.3g torque %.3g)\n",
		name, a.Bodies(), cfg.Control.Thrust, cfg.Control.Torque)
	fmt.Printf("lyapunov exponent: %.4f 1/s\n", lambda)
	if lambda > 0 {
		fmt.Printf("separation e-folding time: %.3f s\n", 1/lambda)
	}
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	var keys []string
	var ranges [][]float64
	for _, p := range sweepParams {
		key, list, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q, want key=v1,v2", p)
		}
		var values []float64
		for _, v := range strings.Split(list, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("--param %s: %w", key, err)
			}
			values = append(values, f)
		}
		keys = append(keys, key)
		ranges = append(ranges, values)
	}

	g, err := optim.NewGridSearch(keys, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("sweeping", "scenario", name, "metric", sweepMetric, "params", keys)
	trials, best, err := g.Search(ctx, cfg, sweepMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(keys, "\t")+"\t"+strings.ToUpper(sweepMetric))
	for i, tr := range trials {
		for _, k := range keys {
			fmt.Fprintf(w, "%g\t", tr.Params[k])
		}
		switch {
		case tr.Err != nil:
			fmt.Fprintf(w, "error: %v\n", tr.Err)
		case i == best:
			fmt.Fprintf(w, "%.6f *\n", tr.Value)
		default:
			fmt.Fprintf(w, "%.6f\n", tr.Value)
		}
	}
	return w.Flush()
}
