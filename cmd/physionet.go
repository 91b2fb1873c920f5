package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cardiokit/ecg-pipeline/orchestrator"
)

var physionetCmd = &cobra.Command{
	Use:   "physionet",
	Short: "Convert waveform database records (EDF) into per-record CSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := orchestrator.New(cfg).RunPhysionet(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(physionetCmd)
}
