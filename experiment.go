package main

import (
	"fmt"

	"abt/experiments"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var experimentCmd = &cobra.Command{
	Use:       "experiment [parallel|depth]",
	Short:     "Sweep solver configs on the tiger problem and write CSV records",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"parallel", "depth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		configs, err := experiments.Configs(args[0])
		if err != nil {
			return err
		}
		repetitions, err := cmd.Flags().GetInt("repetitions")
		if err != nil {
			return err
		}

		dir, err := experiments.Run(cmd.Context(), experiments.Experiment{
			Name:        args[0],
			Configs:     configs,
			Repetitions: repetitions,
			Problem:     tigerConfig(cfg),
			OutputDir:   cfg.Metrics.OutputDir,
		})
		if err != nil {
			return fmt.Errorf("experiment failed: %w", err)
		}
		log.Info().Msgf("records written to %s", dir)
		return nil
	},
}

func init() {
	experimentCmd.Flags().Int("repetitions", experiments.Repetitions, "runs per solver config")
	experimentCmd.Flags().String("output-dir", "experiments", "directory for experiment records")
	rootCmd.AddCommand(experimentCmd)
}
