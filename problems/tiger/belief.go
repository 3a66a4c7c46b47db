package tiger

import (
	"math"

	"abt/solver"
	"abt/solver/mappings/actions"
)

// Belief is the historical data of a tiger belief node: the posterior that the
// tiger is on the left given the observations along the path.
type Belief struct {
	PLeft   float64
	Listens int
	model   *Model
}

func (m *Model) InitialBelief() Belief {
	return Belief{PLeft: 0.5, model: m}
}

func (b Belief) CreateChild(action solver.Action, observation solver.Observation) solver.HistoricalData {
	child := b
	if action.(Action) != Listen {
		return child
	}

	accuracy := b.model.cfg.ListenAccuracy
	left, right := b.PLeft, 1-b.PLeft
	switch observation.(Observation) {
	case HearLeft:
		left, right = left*accuracy, right*(1-accuracy)
	case HearRight:
		left, right = left*(1-accuracy), right*accuracy
	}
	if left+right > 0 {
		child.PLeft = left / (left + right)
	}
	child.Listens++
	return child
}

// PreferredAction opens the door away from the tiger once the belief is
// confident enough and listens otherwise.
func (b Belief) PreferredAction() Action {
	confidence := b.model.cfg.Confidence
	switch {
	case b.PLeft >= confidence:
		return OpenRight
	case 1-b.PLeft >= confidence:
		return OpenLeft
	default:
		return Listen
	}
}

// Heuristic values a truncated trajectory by acting on the belief at once: the
// expected reward of the better door.
func (m *Model) Heuristic(entry *solver.HistoryEntry, state solver.State, data solver.HistoricalData) float64 {
	if m.IsTerminal(state) {
		return 0
	}
	b, ok := data.(Belief)
	if !ok {
		return 0
	}
	openLeft := b.PLeft*m.cfg.TigerReward + (1-b.PLeft)*m.cfg.TreasureReward
	openRight := (1-b.PLeft)*m.cfg.TigerReward + b.PLeft*m.cfg.TreasureReward
	return math.Max(openLeft, openRight)
}

// NewActionPool enumerates the tiger actions, seeding the preferred action of
// each new node when the config asks for it.
func NewActionPool(m *Model) *actions.EnumeratedPool {
	all := make([]actions.DiscretizedAction, len(Actions))
	for i, a := range Actions {
		all[i] = a
	}

	var options []actions.PoolOption
	if m.cfg.ShuffleActions {
		options = append(options, actions.WithShuffle(m.cfg.Seed))
	}
	if m.cfg.PreferredInit {
		options = append(options, actions.WithPrior(m.preferredPrior))
	}
	return actions.NewEnumeratedPool(all, options...)
}

func (m *Model) preferredPrior(data solver.HistoricalData) []actions.Seed {
	b, ok := data.(Belief)
	if !ok || m.cfg.PreferredVisitCount <= 0 {
		return nil
	}
	return []actions.Seed{{
		Bin:    b.PreferredAction().BinNumber(),
		Visits: m.cfg.PreferredVisitCount,
		MeanQ:  m.cfg.PreferredQValue,
	}}
}
