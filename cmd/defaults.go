package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/beam-planning/beamplan/plan"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default thresholds YAML",
	Long:  "Print the default planning thresholds as YAML. Output is written to stdout and can be edited and passed back with `run --config`.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeConfig(cmd.OutOrStdout(), plan.DefaultConfig()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// writeConfig marshals a Config to YAML.
func writeConfig(w io.Writer, cfg plan.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("YAML marshal failed: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
}
