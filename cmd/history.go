package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beam-planning/beamplan/plan"
	"github.com/beam-planning/beamplan/plan/store"
)

var (
	historyDBPath string
	historyRunID  string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived planning runs, or replay the output of one run",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if err := showHistory(cmd.OutOrStdout(), historyDBPath, historyRunID, historyLimit); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// showHistory prints the run list, or the output lines of runID when set.
func showHistory(w io.Writer, path, runID string, limit int) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if runID != "" {
		if _, err := db.GetRun(runID); err != nil {
			return err
		}
		records, err := db.LoadRecords(runID)
		if err != nil {
			return err
		}
		return plan.WriteRecords(w, records)
	}

	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(w, "%s  %-16s  %s  sats=%d users=%d interferers=%d assigned=%d interference=%d\n",
			r.ID, humanize.Time(r.CreatedAt()), r.ScenarioPath,
			r.Satellites, r.Users, r.Interferers, r.Assigned, r.Interference); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	historyCmd.Flags().StringVar(&historyDBPath, "db", "", "SQLite run archive written by `run --db`")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "Replay the output lines of this run ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 = all)")
	_ = historyCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(historyCmd)
}
