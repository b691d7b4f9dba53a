package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fabricsim/internal/config"
	"github.com/san-kum/fabricsim/internal/dynamo"
	"github.com/san-kum/fabricsim/internal/experiment"
	"github.com/san-kum/fabricsim/internal/integrators"
	"github.com/san-kum/fabricsim/internal/metrics"
	"github.com/san-kum/fabricsim/internal/spring"
	"github.com/san-kum/fabricsim/internal/storage"
	"github.com/san-kum/fabricsim/internal/viz"
)

var (
	dataDir      string
	configFile   string
	preset       string
	dt           float64
	steps        int
	nSub         int
	law          string
	integrator   string
	backend      string
	collide      bool
	verifyForces bool
	verbose      int
	theme        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fabricsim",
		Short:        "tethered membrane mass-spring simulator",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fabricsim", "data directory")
	rootCmd.PersistentFlags().IntVarP(&verbose, "verbose", "v", 0, "log verbosity (0-2)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store its history",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeNylon.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [law...]",
		Short: "run a scenario under several force laws at once",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareLaws,
	}
	addSimFlags(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios, force laws and integrators",
		RunE:  listScenarios,
	}

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", d.Dt, "macro timestep")
	cmd.Flags().IntVar(&steps, "steps", d.Steps, "number of macro steps")
	cmd.Flags().IntVar(&nSub, "nsub", d.NSub, "kernel sub-steps per macro step")
	cmd.Flags().StringVar(&law, "law", d.Law, "spring force law ("+strings.Join(spring.ListLaws(), ", ")+")")
	cmd.Flags().StringVar(&integrator, "integrator", d.Integrator, "kernel integrator")
	cmd.Flags().StringVar(&backend, "backend", d.Backend, "kernel backend (auto, cpu, cuda)")
	cmd.Flags().BoolVar(&collide, "collide", false, "resolve fabric-rigid crossings every step")
	cmd.Flags().BoolVar(&verifyForces, "verify-forces", false, "cross-check kernel springs against the mesh every step")
}

func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbose, LogTimestamp: true})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func setupExperiment(cmd *cobra.Command, scenario string, log logr.Logger, ms ...metrics.Metric) (*config.Config, *experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, scenario)
	if err != nil {
		return nil, nil, err
	}
	exp := experiment.New(experimentConfig(cfg), log)
	if err := exp.Setup(experiment.NewRegistry(), ms...); err != nil {
		return nil, nil, err
	}
	return cfg, exp, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	cfg, exp, err := setupExperiment(cmd, args[0], log, metrics.Defaults()...)
	if err != nil {
		return err
	}
	defer exp.Close()

	start := time.Now()
	result, err := exp.Run(ctx)
	elapsed := time.Since(start)
	if err != nil && !errors.Is(err, context.Canceled) {
		reportFailure(err, result)
		return err
	}
	if err != nil {
		fmt.Printf("interrupted after %d of %d steps\n", result.StepsTaken, cfg.Steps)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Scenario:   cfg.Scenario,
		Preset:     preset,
		Dt:         cfg.Dt,
		Steps:      cfg.Steps,
		NSub:       cfg.NSub,
		Integrator: cfg.Integrator,
		Law:        cfg.Law,
		Backend:    cfg.Backend,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("steps: %d (%.2fs wall)\n", result.StepsTaken, elapsed.Seconds())
	if n := len(result.History); n > 0 {
		last := result.History[n-1]
		fmt.Printf("t=%.4f com=(%.4f, %.4f, %.4f) max_speed=%.4f\n", last.Time, last.COM[0], last.COM[1], last.COM[2], last.MaxSpeed)
	}
	for _, m := range metrics.Defaults() {
		fmt.Printf("  %-16s %.6g\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

// reportFailure prints where a run stopped. Invariant violations are
// flagged as fatal.
func reportFailure(err error, result *experiment.Result) {
	kind := "error"
	if dynamo.IsFatal(err) {
		kind = "fatal"
	}
	taken := 0
	if result != nil {
		taken = result.StepsTaken
	}
	fmt.Fprintf(os.Stderr, "%s after %d steps: %v\n", kind, taken, err)
}

func runLive(cmd *cobra.Command, args []string) error {
	log := logr.Discard()
	ctx, cancel := signalContext()
	defer cancel()

	viz.SetTheme(theme)
	_, exp, err := setupExperiment(cmd, args[0], log)
	if err != nil {
		return err
	}
	defer exp.Close()

	if err := viz.Run(ctx, exp, args[0]); err != nil {
		reportFailure(err, nil)
		return err
	}
	return nil
}

func compareLaws(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	laws := args[1:]
	if len(laws) == 0 {
		laws = spring.ListLaws()
	}
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("comparing force laws for %s (dt=%.4f, steps=%d, nsub=%d)\n\n", cfg.Scenario, cfg.Dt, cfg.Steps, cfg.NSub)
	start := time.Now()
	results, err := experiment.NewEnsemble(experiment.NewRegistry(), experimentConfig(cfg), log).RunLaws(ctx, laws)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("%-10s  %-12s  %-12s  %-12s  %-12s\n", "law", "final_com_z", "max_speed", "kinetic", "elastic")
	fmt.Println(strings.Repeat("-", 66))
	for i, r := range results {
		comZ := 0.0
		if n := len(r.History); n > 0 {
			comZ = r.History[n-1].COM[2]
		}
		fmt.Printf("%-10s  %12.6f  %12.6f  %12.4e  %12.4e\n", laws[i], comZ,
			r.Metrics["max_speed"], r.Metrics["kinetic_energy"], r.Metrics["elastic_energy"])
	}
	fmt.Printf("\n%.2fs wall\n", elapsed.Seconds())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tSTEPS\tDT\tLAW\tINTEG")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StepsTaken, run.Steps,
			run.Dt,
			run.Law,
			run.Integrator,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(history))

	series := []struct {
		caption string
		value   func(experiment.Frame) float64
	}{
		{"center of mass height", func(f experiment.Frame) float64 { return f.COM[2] }},
		{"center of mass vertical velocity", func(f experiment.Frame) float64 { return f.COMVel[2] }},
		{"max point speed", func(f experiment.Frame) float64 { return f.MaxSpeed }},
	}
	if meta.Metrics["corrections"] > 0 {
		series = append(series, struct {
			caption string
			value   func(experiment.Frame) float64
		}{"corrected points per step", func(f experiment.Frame) float64 { return float64(f.Corrected) }})
	}

	for _, s := range series {
		data := make([]float64, len(history))
		for i, f := range history {
			data[i] = s.value(f)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tDESCRIPTION")
	for _, name := range reg.List() {
		sc, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", sc.Name, sc.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nforce laws: %s\n", strings.Join(spring.ListLaws(), ", "))
	fmt.Printf("integrators: %s\n", strings.Join(integrators.List(), ", "))
	return nil
}
