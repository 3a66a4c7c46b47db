package main

import (
	"fmt"
	"os"
	"time"

	"abt/config"
	"abt/problems/tiger"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "abt",
	Short:         "abt grows a belief tree for a POMDP by simulating particle trajectories",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./abt.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("abt failed")
		os.Exit(1)
	}
}

// loadConfig reads the config for cmd and sets up the global logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Logging)
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func tigerConfig(cfg *config.Config) tiger.Config {
	p := cfg.Problem
	return tiger.Config{
		ListenAccuracy:      p.ListenAccuracy,
		ListenReward:        p.ListenReward,
		TreasureReward:      p.TreasureReward,
		TigerReward:         p.TigerReward,
		Confidence:          p.Confidence,
		PreferredInit:       p.PreferredInit,
		PreferredVisitCount: p.PreferredVisitCount,
		PreferredQValue:     p.PreferredQValue,
		ShuffleActions:      p.ShuffleActions,
		Seed:                cfg.Solver.Seed,
	}
}
