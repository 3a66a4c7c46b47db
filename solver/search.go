package solver

import "github.com/rs/zerolog/log"

// StepGenerator yields successive steps of one trajectory.
type StepGenerator interface {
	GetStep(entry *HistoryEntry, state State, data HistoricalData) StepResult
}

// StepGeneratorFactory builds a generator starting at entry. A factory that
// succeeds moves status from StatusUninitialized to StatusInitial.
type StepGeneratorFactory interface {
	CreateGenerator(status *StatusSignal, entry *HistoryEntry, state State, data HistoricalData) StepGenerator
}

// StagedStepGeneratorFactory chains phase factories: when a phase has nothing
// more to offer, the next one takes over from the current trajectory point.
type StagedStepGeneratorFactory struct {
	factories []StepGeneratorFactory
}

func NewStagedStepGeneratorFactory(factories ...StepGeneratorFactory) *StagedStepGeneratorFactory {
	return &StagedStepGeneratorFactory{factories: factories}
}

func (f *StagedStepGeneratorFactory) CreateGenerator(status *StatusSignal, entry *HistoryEntry, state State, data HistoricalData) StepGenerator {
	if len(f.factories) == 0 {
		return nil
	}
	return &stagedStepGenerator{
		status:    status,
		factories: f.factories,
		next:      1,
		generator: f.factories[0].CreateGenerator(status, entry, state, data),
	}
}

type stagedStepGenerator struct {
	status    *StatusSignal
	factories []StepGeneratorFactory
	next      int
	generator StepGenerator
}

func (g *stagedStepGenerator) GetStep(entry *HistoryEntry, state State, data HistoricalData) StepResult {
	var result StepResult
	if g.generator != nil {
		result = g.generator.GetStep(entry, state, data)
	}
	for result.Action == nil {
		if g.status.Load() == StatusFinished || g.next >= len(g.factories) {
			g.generator = nil
			return StepResult{}
		}
		g.generator = g.factories[g.next].CreateGenerator(g.status, entry, state, data)
		g.next++
		if g.generator != nil {
			result = g.generator.GetStep(entry, state, data)
		}
	}
	return result
}

// Facade is the part of the solver a search strategy grows the tree through.
type Facade interface {
	Model() Model
	StatePool() *StatePool
	CreateOrGetChild(node *BeliefNode, action Action, obs Observation) *BeliefNode
	UpdateEstimate(node *BeliefNode, deltaTotalQ float64, deltaNContinuations int64)
	UpdateImmediate(node *BeliefNode, action Action, obs Observation, reward float64, deltaNVisits int64)
}

type SearchStrategy interface {
	ExtendSequence(sequence *HistorySequence, maximumDepth int) SearchStatus
}

// BasicSearchStrategy extends a sequence with steps from a single generator
// factory and backs every step up through the facade.
type BasicSearchStrategy struct {
	facade    Facade
	factory   StepGeneratorFactory
	heuristic Heuristic
}

func NewBasicSearchStrategy(facade Facade, factory StepGeneratorFactory, heuristic Heuristic) *BasicSearchStrategy {
	if heuristic == nil {
		heuristic = zeroHeuristic
	}
	return &BasicSearchStrategy{
		facade:    facade,
		factory:   factory,
		heuristic: heuristic,
	}
}

// ExtendSequence grows sequence from its frontier until a terminal state, the
// depth cap, or the end of the generator chain. A truncated trajectory is
// valued with the heuristic. The tree is left untouched when the frontier is
// terminal or already carries an action.
func (s *BasicSearchStrategy) ExtendSequence(sequence *HistorySequence, maximumDepth int) SearchStatus {
	entry := sequence.LastEntry()
	if entry == nil {
		log.Error().Msg("cannot extend an empty sequence")
		return StatusError
	}
	node := entry.BeliefNode()
	if node == nil {
		log.Error().Msgf("frontier entry %d is not registered at a belief node", entry.Index())
		return StatusError
	}
	if s.facade.Model().IsTerminal(entry.State()) {
		log.Warn().Msg("attempted to continue sequence from a terminal state")
		return StatusError
	}
	if entry.Action() != nil {
		log.Error().Msgf("frontier entry %d already has an action", entry.Index())
		return StatusError
	}

	status := NewStatusSignal(StatusUninitialized)
	generator := s.factory.CreateGenerator(status, entry, entry.State(), node.HistoricalData())
	if status.Load() == StatusUninitialized {
		return StatusUninitialized
	}
	if generator == nil {
		log.Error().Msgf("step generator reported %v but was not built", status.Load())
		return StatusError
	}

	first := true
	for {
		if node.Depth() >= maximumDepth {
			status.Store(StatusOutOfSteps)
			break
		}

		result := generator.GetStep(entry, entry.State(), node.HistoricalData())
		if result.Action == nil {
			status.CompareAndSwap(StatusInitial, StatusOutOfSteps) // Generator chain ran dry
			break
		}
		if result.Observation == nil {
			log.Error().Msgf("step generator returned action %v without an observation", result.Action)
			status.Store(StatusError)
			break
		}

		if first {
			first = false
		} else {
			s.facade.UpdateEstimate(node, 0, 1)
		}

		entry.reward = result.Reward
		entry.action = result.Action.Copy()
		entry.params = result.TransitionParameters
		entry.observation = result.Observation.Copy()

		child := s.facade.CreateOrGetChild(node, result.Action, result.Observation)
		s.facade.UpdateImmediate(node, result.Action, result.Observation, result.Reward, 1)
		node = child

		entry = sequence.AddEntry(s.facade.StatePool().Intern(result.NextState))
		entry.RegisterNode(node)

		if result.IsTerminal {
			status.Store(StatusFinished)
			return StatusFinished
		}
	}

	switch final := status.Load(); final {
	case StatusOutOfSteps:
		entry.reward = s.heuristic(entry, entry.State(), node.HistoricalData())
		s.facade.UpdateEstimate(node, entry.reward, 0)
		status.Store(StatusFinished)
		return StatusFinished
	case StatusFinished:
		return StatusFinished
	case StatusUninitialized:
		log.Error().Msg("search algorithm could not initialize")
	case StatusInitial:
		log.Error().Msg("search algorithm stopped in its initial state")
	case StatusError:
		log.Error().Msg("error while generating steps")
	default:
		log.Error().Msgf("invalid search status %v", final)
	}
	return StatusError
}
