package tiger

import (
	"fmt"
	"sync"

	"abt/solver"

	"golang.org/x/exp/rand"
)

type Action int

const (
	Listen Action = iota
	OpenLeft
	OpenRight
)

var Actions = []Action{Listen, OpenLeft, OpenRight}

func (a Action) Copy() solver.Action {
	return a
}

func (a Action) Equals(other solver.Action) bool {
	o, ok := other.(Action)
	return ok && o == a
}

func (a Action) BinNumber() int {
	return int(a)
}

func (a Action) String() string {
	switch a {
	case Listen:
		return "listen"
	case OpenLeft:
		return "open-left"
	case OpenRight:
		return "open-right"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

type Observation int

const (
	HearLeft Observation = iota
	HearRight
	Nothing // After a door opens
)

func (o Observation) Copy() solver.Observation {
	return o
}

func (o Observation) Equals(other solver.Observation) bool {
	x, ok := other.(Observation)
	return ok && x == o
}

func (o Observation) Hash() uint64 {
	return uint64(o)
}

func (o Observation) String() string {
	switch o {
	case HearLeft:
		return "hear-left"
	case HearRight:
		return "hear-right"
	default:
		return "nothing"
	}
}

type State struct {
	TigerLeft bool
	Done      bool // A door has been opened
}

func (s State) Hash() solver.StateHash {
	var h solver.StateHash
	if s.TigerLeft {
		h |= 1
	}
	if s.Done {
		h |= 2
	}
	return h
}

func (s State) Equals(other solver.State) bool {
	o, ok := other.(State)
	return ok && o == s
}

func (s State) String() string {
	side := "right"
	if s.TigerLeft {
		side = "left"
	}
	return fmt.Sprintf("tiger=%s done=%t", side, s.Done)
}

type Config struct {
	ListenAccuracy float64
	ListenReward   float64
	TreasureReward float64
	TigerReward    float64
	// Belief at which opening the other door becomes the preferred action
	Confidence          float64
	PreferredInit       bool
	PreferredVisitCount int64
	PreferredQValue     float64
	ShuffleActions      bool
	Seed                uint64
}

func DefaultConfig() Config {
	return Config{
		ListenAccuracy:      0.85,
		ListenReward:        -1,
		TreasureReward:      10,
		TigerReward:         -100,
		Confidence:          0.9,
		PreferredVisitCount: 5,
		PreferredQValue:     0,
	}
}

// Model is the tiger problem: a tiger waits behind one of two doors and the
// agent may listen, at a cost, before opening one.
type Model struct {
	cfg Config
	mu  sync.Mutex // Guards rng, shared by every search goroutine
	rng *rand.Rand
}

func NewModel(cfg Config) *Model {
	return &Model{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (m *Model) Config() Config {
	return m.cfg
}

func (m *Model) float64() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func (m *Model) IsTerminal(state solver.State) bool {
	return state.(State).Done
}

func (m *Model) SampleInitialState() solver.State {
	return State{TigerLeft: m.float64() < 0.5}
}

func (m *Model) GenerateStep(state solver.State, action solver.Action) solver.StepResult {
	s := state.(State)
	a := action.(Action)
	result := solver.StepResult{Action: a}

	switch a {
	case Listen:
		correct := m.float64() < m.cfg.ListenAccuracy
		heardLeft := s.TigerLeft == correct
		result.Observation = HearRight
		if heardLeft {
			result.Observation = HearLeft
		}
		result.Reward = m.cfg.ListenReward
		result.NextState = s
	case OpenLeft, OpenRight:
		result.Reward = m.cfg.TreasureReward
		if (a == OpenLeft) == s.TigerLeft {
			result.Reward = m.cfg.TigerReward
		}
		result.Observation = Nothing
		result.NextState = State{TigerLeft: s.TigerLeft, Done: true}
		result.IsTerminal = true
	default:
		panic(fmt.Sprintf("unknown tiger action %d", int(a)))
	}
	return result
}

func (m *Model) LegalActions(state solver.State, data solver.HistoricalData) []solver.Action {
	if m.IsTerminal(state) {
		return nil
	}
	actions := make([]solver.Action, len(Actions))
	for i, a := range Actions {
		actions[i] = a
	}
	return actions
}
