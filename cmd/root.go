// Package cmd wires the CLI: configuration loading, log level, and the two
// conversion subcommands.
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cardiokit/ecg-pipeline/config"
)

var (
	cfgFile string
	cfg     *config.Root
)

var rootCmd = &cobra.Command{
	Use:   "ecg-pipeline",
	Short: "Convert raw ECG recordings into tabular time-indexed CSV",
	Long: `ecg-pipeline converts raw ECG recordings into a uniform tabular,
time-indexed CSV representation.

Two source shapes are supported: free-text measurement dumps of
"<index>;<value>" lines (segmented into fixed-duration windows) and the
PTB-XL style waveform database of multi-lead EDF records (converted whole
or segmented, per configuration).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		lvl, err := log.ParseLevel(cfg.Pipeline.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log_level %q: %w", cfg.Pipeline.LogLevel, err)
		}
		log.SetLevel(lvl)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default ./config.yaml)")
}
