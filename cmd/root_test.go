package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/beam-planning/beamplan/plan"
	"github.com/beam-planning/beamplan/plan/trace"
)

// testScenario has one satellite 550 km above one user, a second user on the
// far side of the earth, and an interferer close to the satellite's line of
// sight.
const testScenario = `# single satellite over the north pole
sat 1 0 0 6921
user 10 0 0 6371
user 11 0 0 -6371
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testOptions(path string) runOptions {
	cfg := plan.DefaultConfig()
	cfg.Workers = 1
	return runOptions{ScenarioPath: path, Config: cfg, Trace: trace.TraceLevelNone}
}

func TestRunPlan_WritesRecordsToStdout(t *testing.T) {
	// GIVEN a scenario with one reachable user and one user behind the earth
	path := writeTempFile(t, "scenario.txt", testScenario)
	var stdout, stderr bytes.Buffer

	// WHEN the plan runs
	err := runPlan(context.Background(), testOptions(path), &stdout, &stderr)

	// THEN only the reachable user is assigned and stderr stays empty
	require.NoError(t, err)
	assert.Equal(t, "sat 1 beam 1 user 10 color A\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunPlan_InvalidLine_NoStdout(t *testing.T) {
	// GIVEN a scenario with a truncated sat line
	path := writeTempFile(t, "scenario.txt", "sat s1 1.0 2.0\n")
	var stdout, stderr bytes.Buffer

	// WHEN the plan runs
	err := runPlan(context.Background(), testOptions(path), &stdout, &stderr)

	// THEN the line is reported and nothing reaches stdout
	require.Error(t, err)
	assert.ErrorIs(t, err, plan.ErrInvalidLine)
	assert.Contains(t, err.Error(), "line 1")
	assert.Empty(t, stdout.String())
}

func TestRunPlan_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := runPlan(context.Background(), testOptions(filepath.Join(t.TempDir(), "absent.txt")), &stdout, &stderr)

	require.Error(t, err)
	assert.Empty(t, stdout.String())
}

func TestRunPlan_OptionalOutputs(t *testing.T) {
	// GIVEN every optional output enabled
	dir := t.TempDir()
	path := writeTempFile(t, "scenario.txt", testScenario)
	opts := testOptions(path)
	opts.Trace = trace.TraceLevelDecisions
	opts.Summary = true
	opts.TraceOut = filepath.Join(dir, "trace.yaml")
	opts.MetricsOut = filepath.Join(dir, "beamplan.prom")
	opts.DBPath = filepath.Join(dir, "runs.db")
	var stdout, stderr bytes.Buffer

	// WHEN the plan runs
	require.NoError(t, runPlan(context.Background(), opts, &stdout, &stderr))

	// THEN the summary goes to stderr, leaving stdout untouched
	assert.Equal(t, "sat 1 beam 1 user 10 color A\n", stdout.String())
	assert.Contains(t, stderr.String(), "=== Planning Metrics ===")
	assert.Contains(t, stderr.String(), "=== Decision Trace ===")

	// AND the trace file holds both decisions
	data, err := os.ReadFile(opts.TraceOut)
	require.NoError(t, err)
	var decisions []trace.DecisionRecord
	require.NoError(t, yaml.Unmarshal(data, &decisions))
	require.Len(t, decisions, 2)
	assert.Equal(t, trace.OutcomeAssigned, decisions[0].Outcome)
	assert.Equal(t, trace.OutcomeNotVisible, decisions[1].Outcome)

	// AND the metrics textfile is written
	prom, err := os.ReadFile(opts.MetricsOut)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `beamplan_records_total{kind="assigned"} 1`)
	assert.Contains(t, string(prom), "beamplan_uncovered_users 1")

	// AND the archived run can be listed and replayed
	var list bytes.Buffer
	require.NoError(t, showHistory(&list, opts.DBPath, "", 0))
	fields := strings.Fields(list.String())
	require.NotEmpty(t, fields)
	assert.Contains(t, list.String(), "assigned=1")

	var replay bytes.Buffer
	require.NoError(t, showHistory(&replay, opts.DBPath, fields[0], 0))
	assert.Equal(t, stdout.String(), replay.String())
}

func TestShowHistory_UnknownRun(t *testing.T) {
	var out bytes.Buffer

	err := showHistory(&out, filepath.Join(t.TempDir(), "runs.db"), "missing", 0)

	assert.Error(t, err)
	assert.Empty(t, out.String())
}

// resetRunFlags restores the run flag globals after a test that changes them.
func resetRunFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		scenarioPath, configPath, colorAdvance = "", "", plan.ColorAdvancePerBeam
		traceLevel, traceOut = string(trace.TraceLevelNone), ""
		workers = 0
		for _, name := range []string{"file", "config", "workers", "color-advance", "trace", "trace-out"} {
			runCmd.Flags().Lookup(name).Changed = false
		}
	})
}

func TestResolveRunOptions_FlagsOverrideConfig(t *testing.T) {
	resetRunFlags(t)
	// GIVEN a config file and an explicitly set --workers flag
	cfgPath := writeTempFile(t, "config.yaml", "workers: 2\ncolor_advance: on_conflict\nthresholds:\n  beams_per_satellite: 8\n")
	require.NoError(t, runCmd.Flags().Set("config", cfgPath))
	require.NoError(t, runCmd.Flags().Set("workers", "6"))

	// WHEN options are resolved
	opts, err := resolveRunOptions(runCmd, []string{"scenario.txt"})

	// THEN the flag wins for workers and the file wins where no flag was set
	require.NoError(t, err)
	assert.Equal(t, "scenario.txt", opts.ScenarioPath)
	assert.Equal(t, 6, opts.Config.Workers)
	assert.Equal(t, plan.ColorAdvanceOnConflict, opts.Config.ColorAdvance)
	assert.Equal(t, 8, opts.Config.Thresholds.BeamsPerSatellite)
	assert.Equal(t, 45.0, opts.Config.Thresholds.MaxUserVisibleAngle)
}

func TestResolveRunOptions_TraceOutImpliesDecisions(t *testing.T) {
	resetRunFlags(t)
	require.NoError(t, runCmd.Flags().Set("file", "scenario.txt"))
	require.NoError(t, runCmd.Flags().Set("trace", "none"))
	require.NoError(t, runCmd.Flags().Set("trace-out", "trace.yaml"))

	opts, err := resolveRunOptions(runCmd, nil)

	require.NoError(t, err)
	assert.Equal(t, trace.TraceLevelDecisions, opts.Trace)
}

func TestResolveRunOptions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string]string
		args    []string
		wantErr string
	}{
		{name: "missing scenario", wantErr: "scenario file not provided"},
		{name: "unknown trace level", flags: map[string]string{"trace": "verbose"}, args: []string{"s.txt"}, wantErr: "unknown trace level"},
		{name: "unknown color policy", flags: map[string]string{"color-advance": "random"}, args: []string{"s.txt"}, wantErr: "color_advance"},
		{name: "negative workers", flags: map[string]string{"workers": "-1"}, args: []string{"s.txt"}, wantErr: "workers"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resetRunFlags(t)
			for k, v := range tc.flags {
				require.NoError(t, runCmd.Flags().Set(k, v))
			}

			_, err := resolveRunOptions(runCmd, tc.args)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestResolveRunOptions_UnregisteredFlagsUseDefaults(t *testing.T) {
	resetRunFlags(t)
	// A bare command has none of the run flags, so nothing counts as changed.
	opts, err := resolveRunOptions(&cobra.Command{}, []string{"s.txt"})

	require.NoError(t, err)
	assert.Equal(t, plan.DefaultConfig(), opts.Config)
	assert.Equal(t, trace.TraceLevelNone, opts.Trace)
}

func TestValidateScenario(t *testing.T) {
	path := writeTempFile(t, "scenario.txt", testScenario+"interferer 7 0 0 42164\n")
	var out bytes.Buffer

	require.NoError(t, validateScenario(&out, path))

	assert.Equal(t, path+": 1 sats, 2 users, 1 interferers\n", out.String())
}

func TestValidateScenario_BadCoordinate(t *testing.T) {
	path := writeTempFile(t, "scenario.txt", "user 1 0 0 abc\n")
	var out bytes.Buffer

	err := validateScenario(&out, path)

	assert.ErrorIs(t, err, plan.ErrInvalidLocation)
	assert.Empty(t, out.String())
}

func TestWriteConfig_LoadsBackAsDefaults(t *testing.T) {
	// GIVEN the printed defaults
	var out bytes.Buffer
	require.NoError(t, writeConfig(&out, plan.DefaultConfig()))
	assert.Contains(t, out.String(), "max_user_visible_angle: 45")

	// WHEN fed back through --config
	cfg, err := plan.LoadConfig(writeTempFile(t, "defaults.yaml", out.String()))

	// THEN the thresholds are unchanged
	require.NoError(t, err)
	assert.Equal(t, plan.DefaultConfig(), cfg)
}
