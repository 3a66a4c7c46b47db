package solver

type StateHash uint64

// State is a simulated state. Equal states must hash equally so the state pool
// can intern them.
type State interface {
	Hash() StateHash
	Equals(other State) bool
}

type Action interface {
	Copy() Action
	Equals(other Action) bool
}

type Observation interface {
	Copy() Observation
	Equals(other Observation) bool
	Hash() uint64
}

// TransitionParameters carries whatever the model wants to remember about a
// transition, opaque to the solver.
type TransitionParameters any

// StepResult is one simulated step. A nil Action means the generator that
// produced it has nothing further to contribute from this point. Every step
// with an Action must carry an Observation.
type StepResult struct {
	Action               Action
	Reward               float64
	Observation          Observation
	NextState            State
	TransitionParameters TransitionParameters
	IsTerminal           bool
}

// HistoricalData is per-belief-node data derived along the path of actions and
// observations that reaches the node.
type HistoricalData interface {
	CreateChild(action Action, observation Observation) HistoricalData
}

type Model interface {
	IsTerminal(state State) bool
	// GenerateStep simulates taking action from state
	GenerateStep(state State, action Action) StepResult
	SampleInitialState() State
	// LegalActions lists the actions a default policy may pick from state
	LegalActions(state State, data HistoricalData) []Action
}

// Heuristic estimates the value of a frontier whose simulation was truncated.
type Heuristic func(entry *HistoryEntry, state State, data HistoricalData) float64

func zeroHeuristic(*HistoryEntry, State, HistoricalData) float64 {
	return 0
}
