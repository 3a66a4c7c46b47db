package solver

import (
	"sync/atomic"

	"golang.org/x/exp/rand"
)

// RolloutFactory builds generators that pick uniformly among the legal actions
// for at most maxSteps steps.
type RolloutFactory struct {
	model    Model
	maxSteps int
	seed     uint64
	count    atomic.Uint64
}

func NewRolloutFactory(model Model, maxSteps int, seed uint64) *RolloutFactory {
	return &RolloutFactory{
		model:    model,
		maxSteps: maxSteps,
		seed:     seed,
	}
}

func (f *RolloutFactory) CreateGenerator(status *StatusSignal, entry *HistoryEntry, state State, data HistoricalData) StepGenerator {
	status.CompareAndSwap(StatusUninitialized, StatusInitial)
	return &rolloutGenerator{
		model:     f.model,
		remaining: f.maxSteps,
		rng:       rand.New(rand.NewSource(f.seed ^ (f.count.Add(1) << 32))),
	}
}

type rolloutGenerator struct {
	model     Model
	remaining int
	rng       *rand.Rand
}

func (g *rolloutGenerator) GetStep(entry *HistoryEntry, state State, data HistoricalData) StepResult {
	if g.remaining <= 0 {
		return StepResult{}
	}
	actions := g.model.LegalActions(state, data)
	if len(actions) == 0 {
		return StepResult{}
	}
	g.remaining--

	action := actions[g.rng.Intn(len(actions))] // Random rollout policy
	result := g.model.GenerateStep(state, action)
	result.Action = action
	return result
}
