package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigidsim/internal/analysis"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/scenario"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/viz"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	seed       int64
	runs       int
	iterations int
	erp        float64
	links      int
	linkLength float64
	mass       float64
	tilt       float64
	motorVel   float64
	motorImp   float64
	limitLow   float64
	limitHigh  float64
	travel     float64
	configFile string
	preset     string
	// Plot/analyze selection
	bodyIdx int
	axis    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidsim",
		Short: "rigid body joint simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	runCmd.Flags().IntVar(&runs, "runs", 1, "ensemble size (parallel runs with consecutive seeds)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bodyIdx, "body", 1, "body index to plot")
	plotCmd.Flags().StringVar(&axis, "axis", "y", "axis to plot (x, y or z)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [output.svg]",
		Short: "render run trajectories to SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  exportSVG,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of one body coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&bodyIdx, "body", 1, "body index to analyze")
	analyzeCmd.Flags().StringVar(&axis, "axis", "y", "axis to analyze (x, y or z)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "benchmark a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScenario,
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
		Short: "list available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := scenario.NewRegistry()
			for _, name := range reg.List() {
				scn, err := reg.Get(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-16s %s\n", name, scn.Description())
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, analyzeCmd, liveCmd, benchCmd, presetsCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "solver iterations")
	cmd.Flags().Float64Var(&erp, "erp", config.DefaultERP, "error reduction parameter")
	cmd.Flags().IntVar(&links, "links", config.DefaultLinks, "chain links (pendulum_chain)")
	cmd.Flags().Float64Var(&linkLength, "length", config.DefaultLinkLength, "link length / half extent")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "body mass")
	cmd.Flags().Float64Var(&tilt, "tilt", 0.3, "initial tilt angle or spin")
	cmd.Flags().Float64Var(&motorVel, "motor-vel", 0.0, "motor target velocity (hinge_door)")
	cmd.Flags().Float64Var(&motorImp, "motor-impulse", 0.0, "max motor impulse (hinge_door)")
	cmd.Flags().Float64Var(&limitLow, "limit-low", 1.0, "lower joint limit")
	cmd.Flags().Float64Var(&limitHigh, "limit-high", -1.0, "upper joint limit")
	cmd.Flags().Float64Var(&travel, "travel", 0.5, "linear travel range (sixdof_crate)")
}

// buildConfig layers preset, config file and explicit CLI flags on top
// of the defaults, in that order.
func buildConfig(cmd *cobra.Command, scenarioName string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scenario = scenarioName

	if preset != "" {
		p := config.GetPreset(scenarioName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenarioName))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		*cfg = *loaded
		cfg.Scenario = scenarioName
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("runs") {
		cfg.Runs = runs
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Solver.Iterations = iterations
	}
	if cmd.Flags().Changed("erp") {
		cfg.Solver.ERP = erp
	}
	if cmd.Flags().Changed("links") {
		cfg.Scene.Links = links
	}
	if cmd.Flags().Changed("length") {
		cfg.Scene.LinkLength = linkLength
	}
	if cmd.Flags().Changed("mass") {
		cfg.Scene.Mass = mass
	}
	if cmd.Flags().Changed("tilt") {
		cfg.Scene.Tilt = tilt
	}
	if cmd.Flags().Changed("motor-vel") {
		cfg.Scene.MotorVelocity = motorVel
	}
	if cmd.Flags().Changed("motor-impulse") {
		cfg.Scene.MotorImpulse = motorImp
	}
	if cmd.Flags().Changed("limit-low") {
		cfg.Scene.LimitLow = limitLow
	}
	if cmd.Flags().Changed("limit-high") {
		cfg.Scene.LimitHigh = limitHigh
	}
	if cmd.Flags().Changed("travel") {
		cfg.Scene.Travel = travel
	}

	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("seed") && cfg.Seed == 0 {
		cfg.Seed = seed
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	reg := scenario.NewRegistry()
	scn, err := reg.Get(cfg.Scenario)
	if err != nil {
		return err
	}

	fmt.Printf("running %s...\n", cfg.Scenario)
	start := time.Now()

	if cfg.Runs > 1 {
		e := scenario.NewEnsemble(scn, cfg.Runs, cfg.Seed)
		e.SetMetricFactory(reg.DefaultMetrics)

		results, err := e.Run(context.Background(), cfg)
		if err != nil {
			return err
		}

		fmt.Printf("completed %d runs in %v\n\n", len(results), time.Since(start))
		for i, result := range results {
			runID, err := st.Save(cfg, result)
			if err != nil {
				return err
			}
			fmt.Printf("run %d (seed %d): %s\n", i, cfg.Seed+int64(i), runID)
			printMetrics(result.Metrics)
		}
		return nil
	}

	r := scenario.New(scn)
	for _, m := range reg.DefaultMetrics() {
		r.AddMetric(m)
	}

	result, err := r.Run(context.Background(), cfg)
	if err != nil {
		return err
	}

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if len(result.Errors) > 0 {
		fmt.Printf("step errors: %d (first: %v)\n", len(result.Errors), result.Errors[0])
	}
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	return nil
}

func printMetrics(metrics map[string]float64) {
	fmt.Print(viz.SummaryTable(metrics))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runList, err := st.List()
	if err != nil {
		return err
	}

	if len(runList) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tITERS\tBODIES")

	for _, run := range runList {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Iterations,
			run.Bodies,
		)
	}

	return w.Flush()
}

func axisOffset() (int, error) {
	switch axis {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unknown axis: %s", axis)
}

func loadSeries(runID string) ([]float64, *storage.RunMetadata, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	frames, _, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("no data")
	}

	off, err := axisOffset()
	if err != nil {
		return nil, nil, err
	}
	col := bodyIdx*3 + off
	if col >= len(frames[0]) {
		return nil, nil, fmt.Errorf("body %d out of range (%d bodies)", bodyIdx, meta.Bodies)
	}

	series := make([]float64, len(frames))
	for i := range frames {
		series[i] = frames[i][col]
	}
	return series, meta, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	series, meta, err := loadSeries(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series))

	caption := fmt.Sprintf("body %d %s vs time", bodyIdx, axis)
	fmt.Println(viz.PlotSeries(viz.Downsample(series, 160), caption, 10))

	return nil
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

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, times, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < len(frames[0])/3; i++ {
		header = append(header,
			fmt.Sprintf("b%d_x", i), fmt.Sprintf("b%d_y", i), fmt.Sprintf("b%d_z", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range frames {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range frames[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	frames, times, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	result := &scenario.Result{
		Times:      times,
		Frames:     make([]scenario.Frame, len(frames)),
		Metrics:    meta.Metrics,
		StepsTaken: len(times),
	}
	for i, flat := range frames {
		frame := make(scenario.Frame, 0, len(flat)/3)
		for j := 0; j+2 < len(flat); j += 3 {
			frame = append(frame, mgl64.Vec3{flat[j], flat[j+1], flat[j+2]})
		}
		result.Frames[i] = frame
	}

	return storage.ExportJSONStdout(meta.Scenario, meta.Dt, meta.Duration, result)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, _, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}

	if err := export.WriteTrajectorySVG(args[1], frames, 800, 600); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	series, meta, err := loadSeries(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s, body %d, axis %s\n\n", meta.Scenario, bodyIdx, axis)

	power, _ := analysis.Spectrum(series, meta.Dt)
	if len(power) < 2 {
		return fmt.Errorf("series too short to analyze")
	}

	fmt.Println(viz.PlotSeries(power[:len(power)/4], "power spectrum", 15))
	fmt.Println()

	freq := analysis.DominantFrequency(series, meta.Dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	reg := scenario.NewRegistry()
	scn, err := reg.Get(cfg.Scenario)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(scn, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func benchScenario(cmd *cobra.Command, args []string) error {
	reg := scenario.NewRegistry()
	scn, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0, 10.0}
	dts := []float64{1.0 / 240.0, 1.0 / 60.0, 1.0 / 30.0}

	fmt.Printf("benchmarking %s\n\n", args[0])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range dts {
			cfg := config.DefaultConfig()
			cfg.Scenario = args[0]
			cfg.Dt = step
			cfg.Duration = dur
			cfg.Seed = 42

			r := scenario.New(scn)

			start := time.Now()
			result, err := r.Run(context.Background(), cfg)
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
