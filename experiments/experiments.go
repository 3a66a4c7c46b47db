package experiments

import (
	"context"
	"fmt"
	"time"

	"abt/experiments/metrics"
	"abt/problems/tiger"
	"abt/solver"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	Repetitions = 10 // Per solver config
	TimeBudget  = 10 * time.Millisecond
)

var parallelConfigs = []metrics.SolverConfig{
	{ID: 1, Goroutines: 1, Duration: TimeBudget},
	{ID: 2, Goroutines: 2, Duration: TimeBudget},
	{ID: 3, Goroutines: 4, Duration: TimeBudget},
	{ID: 4, Goroutines: 8, Duration: TimeBudget},
	{ID: 5, Goroutines: 16, Duration: TimeBudget},
	{ID: 6, Goroutines: 32, Duration: TimeBudget},
}

var depthConfigs = []metrics.SolverConfig{
	{ID: 1, Goroutines: 4, Duration: TimeBudget, MaxDepth: 2},
	{ID: 2, Goroutines: 4, Duration: TimeBudget, MaxDepth: 5},
	{ID: 3, Goroutines: 4, Duration: TimeBudget, MaxDepth: 10},
	{ID: 4, Goroutines: 4, Duration: TimeBudget, MaxDepth: 20},
	{ID: 5, Goroutines: 4, Duration: TimeBudget, MaxDepth: 50},
}

// Configs returns the solver configs of a named sweep: "parallel" or "depth".
func Configs(name string) ([]metrics.SolverConfig, error) {
	switch name {
	case "parallel":
		return parallelConfigs, nil
	case "depth":
		return depthConfigs, nil
	default:
		return nil, fmt.Errorf("unknown experiment %q", name)
	}
}

type Experiment struct {
	Name        string
	Configs     []metrics.SolverConfig
	Repetitions int
	Problem     tiger.Config
	OutputDir   string
}

// Run searches the tiger problem Repetitions times with each config and
// writes the records into a fresh directory under OutputDir, which it returns.
func Run(ctx context.Context, exp Experiment) (string, error) {
	if exp.Repetitions <= 0 {
		exp.Repetitions = Repetitions
	}
	setup := metrics.Setup{
		RunID:       uuid.NewString(),
		Name:        exp.Name,
		Repetitions: exp.Repetitions,
		StartTime:   time.Now().UTC(),
		Configs:     exp.Configs,
	}

	count := 0
	runRecords := []metrics.RunRecord{}
	actionRecords := []metrics.ActionRecord{}

	log.Info().Msgf("starting %s experiment %s...", exp.Name, setup.RunID)

	for ci, config := range exp.Configs {
		log.Info().Msgf("starting config %d of %d: %+v...", ci+1, len(exp.Configs), config)

		for i := 0; i < exp.Repetitions; i++ {
			problem := exp.Problem
			problem.Seed = exp.Problem.Seed + uint64(count)

			s, _ := tiger.NewSolver(problem, solverOptions(config)...)
			metric, err := s.Search(ctx)
			if err != nil {
				return "", fmt.Errorf("failed to run config %d repetition %d: %w", config.ID, i+1, err)
			}
			count++
			runRecords = append(runRecords, metrics.RunRecord{
				ID:           count,
				Config:       config.ID,
				SearchMetric: metric,
			})
			for _, stat := range s.RootStatistics() {
				actionRecords = append(actionRecords, metrics.ActionRecord{
					Run:        count,
					Action:     fmt.Sprint(stat.Action),
					Visits:     stat.Visits,
					MeanQValue: stat.MeanQ,
				})
			}
		}
		log.Info().Msgf("completed config %d of %d", ci+1, len(exp.Configs))
	}

	setup.EndTime = time.Now().UTC()
	log.Info().Msgf("completed %s experiment", exp.Name)

	for id, rate := range Throughput(runRecords) {
		log.Info().Msgf("config %d: %.0f episodes/s", id, rate)
	}

	return write(exp, setup, runRecords, actionRecords)
}

func write(exp Experiment, setup metrics.Setup, runs []metrics.RunRecord, actions []metrics.ActionRecord) (string, error) {
	writer, err := metrics.NewWriter(exp.OutputDir, exp.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err = writer.WriteSetup(setup); err != nil {
		return "", err
	}
	if err = writer.WriteSolverConfigs(exp.Configs); err != nil {
		return "", err
	}
	log.Info().Msg("stored solver configs")

	if err = writer.WriteRunRecords(runs); err != nil {
		return "", err
	}
	log.Info().Msg("stored run records")

	if err = writer.WriteActionRecords(actions); err != nil {
		return "", err
	}
	log.Info().Msg("stored action records")
	return writer.Dir(), nil
}

func solverOptions(config metrics.SolverConfig) []solver.Option {
	options := []solver.Option{
		solver.WithGoroutines(config.Goroutines),
		solver.WithMetrics(metrics.NewCollector()),
	}
	if config.Episodes > 0 {
		options = append(options, solver.WithEpisodes(config.Episodes))
	}
	if config.Duration > 0 {
		options = append(options, solver.WithDuration(config.Duration))
	}
	if config.MaxDepth > 0 {
		options = append(options, solver.WithMaxDepth(config.MaxDepth))
	}
	if config.DiscountFactor > 0 {
		options = append(options, solver.WithDiscountFactor(config.DiscountFactor))
	}
	if config.RolloutSteps > 0 {
		options = append(options, solver.WithRolloutSteps(config.RolloutSteps))
	}
	return options
}
