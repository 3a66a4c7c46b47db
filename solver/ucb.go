package solver

import (
	"math"
	"sync/atomic"

	"golang.org/x/exp/rand"
)

// UCBFactory builds generators that descend the existing tree. An untried
// action is taken first; otherwise the visited entry with the best upper
// confidence bound is. The generator hands over to the next phase once it has
// left the explored part of the tree.
type UCBFactory struct {
	model    Model
	cSquared float64
	seed     uint64
	count    atomic.Uint64
}

func NewUCBFactory(model Model, explorationCoefficient float64, seed uint64) *UCBFactory {
	return &UCBFactory{
		model:    model,
		cSquared: explorationCoefficient * explorationCoefficient,
		seed:     seed,
	}
}

func (f *UCBFactory) CreateGenerator(status *StatusSignal, entry *HistoryEntry, state State, data HistoricalData) StepGenerator {
	status.CompareAndSwap(StatusUninitialized, StatusInitial)
	return &ucbGenerator{
		model:    f.model,
		cSquared: f.cSquared,
		rng:      rand.New(rand.NewSource(f.seed + f.count.Add(1))),
	}
}

type ucbGenerator struct {
	model    Model
	cSquared float64
	rng      *rand.Rand
	done     bool
}

func (g *ucbGenerator) GetStep(entry *HistoryEntry, state State, data HistoricalData) StepResult {
	if g.done {
		return StepResult{}
	}
	node := entry.BeliefNode()
	action, untried := g.chooseAction(node)
	if action == nil {
		g.done = true
		return StepResult{}
	}

	result := g.model.GenerateStep(state, action)
	result.Action = action
	if untried {
		g.done = true
		return result
	}

	node.RLock()
	edge := node.Mapping().ActionNode(action)
	// A step without an observation is handed back so the search can reject it
	explored := edge != nil && result.Observation != nil && edge.Child(result.Observation) != nil
	node.RUnlock()
	if !explored {
		g.done = true
	}
	return result
}

func (g *ucbGenerator) chooseAction(node *BeliefNode) (Action, bool) {
	node.RLock()
	defer node.RUnlock()

	mapping := node.Mapping()
	if mapping.HasActionsToTry() {
		return mapping.NextActionToTry(), true
	}

	total := mapping.TotalVisitCount()
	if total <= 0 {
		return nil, false
	}
	bound := newUCBBound(g.cSquared, total)

	var best []Action
	bestScore := math.Inf(-1)
	for _, entry := range mapping.VisitedEntries() {
		if !entry.IsLegal() || entry.VisitCount() <= 0 {
			continue
		}
		score := bound.score(entry.TotalQValue(), entry.VisitCount())
		switch {
		case score > bestScore:
			bestScore = score
			best = append(best[:0], entry.Action())
		case score == bestScore:
			best = append(best, entry.Action())
		}
	}
	if len(best) == 0 {
		return nil, false
	}
	return best[g.rng.Intn(len(best))], false // Break ties at random
}
