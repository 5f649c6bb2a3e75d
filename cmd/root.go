package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/beam-planning/beamplan/plan"
	"github.com/beam-planning/beamplan/plan/observability"
	"github.com/beam-planning/beamplan/plan/store"
	"github.com/beam-planning/beamplan/plan/trace"
)

var (
	// CLI flags for the run command
	scenarioPath string // Scenario file (sat/user/interferer lines)
	configPath   string // Optional thresholds YAML
	logLevel     string // Log verbosity level
	workers      int    // Feasibility precompute workers
	colorAdvance string // Color cursor policy
	traceLevel   string // Decision trace level
	traceOut     string // Decision trace YAML output path
	printSummary bool   // Print planning metrics to stderr
	metricsOut   string // Prometheus textfile output path
	dbPath       string // SQLite run archive
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "beamplan",
	Short: "Greedy beam and color planner for satellite constellations",
}

// runOptions is the resolved configuration of one `run` invocation.
type runOptions struct {
	ScenarioPath string
	Config       plan.Config
	Trace        trace.TraceLevel
	TraceOut     string
	Summary      bool
	MetricsOut   string
	DBPath       string
}

// runCmd plans beams for a scenario and prints one line per decision
var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Plan beams and colors for a scenario file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		opts, err := resolveRunOptions(cmd, args)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := runPlan(cmd.Context(), opts, os.Stdout, os.Stderr); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// setLogLevel applies the --log flag to the package-level logger.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveRunOptions merges the thresholds file with flags. Flags only
// override the file when explicitly set.
func resolveRunOptions(cmd *cobra.Command, args []string) (runOptions, error) {
	path := scenarioPath
	if path == "" && len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return runOptions{}, fmt.Errorf("scenario file not provided (use -f <file>)")
	}

	cfg := plan.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = plan.LoadConfig(configPath); err != nil {
			return runOptions{}, err
		}
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("color-advance") {
		cfg.ColorAdvance = colorAdvance
	}
	if err := cfg.Validate(); err != nil {
		return runOptions{}, err
	}

	if !trace.IsValidTraceLevel(traceLevel) {
		return runOptions{}, fmt.Errorf("unknown trace level %q; valid: none, decisions", traceLevel)
	}
	level := trace.TraceLevel(traceLevel)
	if traceOut != "" {
		level = trace.TraceLevelDecisions
	}

	return runOptions{
		ScenarioPath: path,
		Config:       cfg,
		Trace:        level,
		TraceOut:     traceOut,
		Summary:      printSummary,
		MetricsOut:   metricsOut,
		DBPath:       dbPath,
	}, nil
}

// runPlan loads the scenario, plans it, and writes the output lines to
// stdout. Nothing is written to stdout unless planning succeeds.
func runPlan(ctx context.Context, opts runOptions, stdout, stderr io.Writer) error {
	sc, err := plan.LoadScenario(opts.ScenarioPath)
	if err != nil {
		return err
	}

	runID := store.NewRunID()
	log := logrus.WithField("run_id", runID)
	log.Infof("Starting planning of %d sats x %d users against %d interferers, workers=%d",
		len(sc.Sats), len(sc.Users), len(sc.Interferers), opts.Config.EffectiveWorkers())

	startTime := time.Now()
	res, err := plan.NewPlanner(opts.Config, trace.TraceConfig{Level: opts.Trace}).Plan(ctx, sc)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	elapsed := time.Since(startTime)

	w := bufio.NewWriter(stdout)
	if err := plan.WriteRecords(w, res.Records); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	metrics := plan.NewMetrics(sc, res, opts.Config.Thresholds)
	if opts.Summary {
		metrics.Print(stderr)
		if res.Trace.Enabled() {
			printTraceSummary(stderr, trace.Summarize(res.Trace))
		}
	}
	if opts.TraceOut != "" {
		if err := writeTrace(opts.TraceOut, res.Trace); err != nil {
			return err
		}
	}
	if opts.MetricsOut != "" {
		collector, err := observability.NewPlanCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		collector.Observe(metrics, elapsed)
		if err := collector.WriteTextfile(opts.MetricsOut); err != nil {
			return err
		}
	}
	if opts.DBPath != "" {
		if err := archiveRun(runID, opts, metrics, res.Records); err != nil {
			return err
		}
		log.Infof("Archived run to %s", opts.DBPath)
	}

	log.Infof("Planning complete in %s: %s beams, %s interference notices, %s users uncovered",
		elapsed, humanize.Comma(int64(metrics.Assigned)), humanize.Comma(int64(metrics.InterferenceNotices)),
		humanize.Comma(int64(metrics.UncoveredUsers)))
	return nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Decisions            : %d\n", s.TotalDecisions)
	for _, o := range []trace.Outcome{trace.OutcomeAssigned, trace.OutcomeInterference, trace.OutcomeNotVisible,
		trace.OutcomeSelfInterference, trace.OutcomeCapacityExhausted} {
		fmt.Fprintf(w, "  %-19s: %d\n", o, s.OutcomeCounts[o])
	}
	fmt.Fprintf(w, "Color Rotations      : %d (max %d)\n", s.TotalColorRotations, s.MaxColorRotations)
	fmt.Fprintf(w, "Serving Satellites   : %d\n", s.UniqueSatellites)
	if s.OutcomeCounts[trace.OutcomeNotVisible] > 0 {
		fmt.Fprintf(w, "Mean Rejected Elev.  : %.2f deg\n", s.MeanRejectedElevation)
	}
}

// writeTrace marshals the decision records to a YAML file.
func writeTrace(path string, pt *trace.PlanningTrace) error {
	data, err := yaml.Marshal(pt.Decisions)
	if err != nil {
		return fmt.Errorf("YAML marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

func archiveRun(runID string, opts runOptions, m *plan.Metrics, records []plan.Record) error {
	db, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	cfgYAML, err := yaml.Marshal(opts.Config)
	if err != nil {
		return fmt.Errorf("YAML marshal failed: %w", err)
	}
	return db.SaveRun(store.Run{
		ID:           runID,
		ScenarioPath: opts.ScenarioPath,
		CreatedUnix:  time.Now().UnixNano(),
		Satellites:   m.Satellites,
		Users:        m.Users,
		Interferers:  m.Interferers,
		Assigned:     m.Assigned,
		Interference: m.InterferenceNotices,
		ConfigYAML:   string(cfgYAML),
	}, records)
}

// Execute runs the CLI root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVarP(&scenarioPath, "file", "f", "", "Scenario file with sat/user/interferer lines")
	runCmd.Flags().StringVar(&configPath, "config", "", "Thresholds YAML (see `beamplan defaults`)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Feasibility precompute workers (0 = GOMAXPROCS, 1 = serial)")
	runCmd.Flags().StringVar(&colorAdvance, "color-advance", plan.ColorAdvancePerBeam, "Color cursor policy (per_beam, on_conflict)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write decision trace YAML to this path (implies --trace decisions)")
	runCmd.Flags().BoolVar(&printSummary, "summary", false, "Print planning metrics to stderr")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics textfile to this path")
	runCmd.Flags().StringVar(&dbPath, "db", "", "Archive the run into this SQLite database")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
