package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beam-planning/beamplan/plan"
)

var validatePath string

var validateCmd = &cobra.Command{
	Use:   "validate [scenario]",
	Short: "Parse and validate a scenario file without planning",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		path := validatePath
		if path == "" && len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			logrus.Fatalf("scenario file not provided (use -f <file>)")
		}
		if err := validateScenario(cmd.OutOrStdout(), path); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// validateScenario loads path and reports entity counts.
func validateScenario(w io.Writer, path string) error {
	sc, err := plan.LoadScenario(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %d sats, %d users, %d interferers\n",
		path, len(sc.Sats), len(sc.Users), len(sc.Interferers))
	return err
}

func init() {
	validateCmd.Flags().StringVarP(&validatePath, "file", "f", "", "Scenario file with sat/user/interferer lines")

	rootCmd.AddCommand(validateCmd)
}
