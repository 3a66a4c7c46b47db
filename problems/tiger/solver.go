package tiger

import (
	"abt/solver"
	"abt/solver/mappings/observations"
)

// NewSolver wires a solver for the tiger problem. Options are applied after the
// problem's own, so callers may replace the heuristic or the root data.
func NewSolver(cfg Config, options ...solver.Option) (*solver.Solver, *Model) {
	model := NewModel(cfg)
	defaults := []solver.Option{
		solver.WithHistoricalData(model.InitialBelief()),
		solver.WithHeuristic(model.Heuristic),
		solver.WithSeed(cfg.Seed),
	}
	s := solver.New(model, NewActionPool(model), observations.NewDiscretePool(), append(defaults, options...)...)
	return s, model
}
