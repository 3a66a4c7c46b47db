package main

import (
	"errors"
	"fmt"
	"net/http"
	"text/tabwriter"

	"abt/config"
	"abt/experiments/metrics"
	"abt/problems/tiger"
	"abt/solver"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the tiger problem and print the root action statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		collector, err := searchCollector(cfg.Metrics)
		if err != nil {
			return err
		}
		s, _ := tiger.NewSolver(tigerConfig(cfg), solverOptions(cfg.Solver, collector)...)

		log.Info().Msgf("searching with %d goroutines, %d episodes, duration %v, max depth %d",
			cfg.Solver.Goroutines, cfg.Solver.Episodes, cfg.Solver.Duration, cfg.Solver.MaxDepth)
		metric, err := s.Search(cmd.Context())
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		log.Info().Msgf("completed %d episodes in %v, %d belief nodes created", metric.Episodes, metric.Duration, metric.Nodes)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ACTION\tVISITS\tMEAN Q\tPARTICLES")
		for _, stat := range s.RootStatistics() {
			fmt.Fprintf(w, "%v\t%d\t%.3f\t%d\n", stat.Action, stat.Visits, stat.MeanQ, stat.NParticles)
		}
		return w.Flush()
	},
}

func init() {
	flags := searchCmd.Flags()
	flags.Int("goroutines", 1, "number of search goroutines")
	flags.Int("episodes", 1000, "number of episodes to simulate")
	flags.Duration("duration", 0, "search for this long instead of a number of episodes")
	flags.Int("max-depth", solver.DefaultMaxDepth, "maximum belief tree depth")
	flags.Uint64("seed", 1, "random seed")
	flags.Bool("tracing", false, "wrap the search in an OpenTelemetry span")
	flags.Bool("metrics", false, "collect Prometheus metrics")
	flags.String("metrics-addr", "", "serve /metrics on this address while searching")
	rootCmd.AddCommand(searchCmd)
}

func searchCollector(cfg config.MetricsConfig) (metrics.Collector, error) {
	if !cfg.Enabled {
		return metrics.NewCollector(), nil
	}
	registry := prometheus.NewRegistry()
	collector, err := metrics.NewPrometheusCollector(registry, metrics.NewCollector())
	if err != nil {
		return nil, err
	}
	if cfg.Address != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.Address, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		log.Info().Msgf("serving metrics on %s/metrics", cfg.Address)
	}
	return collector, nil
}

func solverOptions(cfg config.SolverConfig, collector metrics.Collector) []solver.Option {
	return []solver.Option{
		solver.WithGoroutines(cfg.Goroutines),
		solver.WithEpisodes(cfg.Episodes),
		solver.WithDuration(cfg.Duration),
		solver.WithMaxDepth(cfg.MaxDepth),
		solver.WithDiscountFactor(cfg.DiscountFactor),
		solver.WithExplorationCoefficient(cfg.ExplorationCoefficient),
		solver.WithRolloutSteps(cfg.RolloutSteps),
		solver.WithSeed(cfg.Seed),
		solver.WithTracing(cfg.Tracing),
		solver.WithMetrics(collector),
	}
}
