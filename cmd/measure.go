package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cardiokit/ecg-pipeline/orchestrator"
)

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Segment ECG_*.txt measurement dumps into fixed-duration CSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := orchestrator.New(cfg).RunMeasure(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(measureCmd)
}
