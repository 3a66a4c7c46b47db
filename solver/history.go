package solver

// HistoryEntry is one step of a particle trajectory. The last entry of a
// sequence is the frontier: it has a state and a belief node but no action yet.
type HistoryEntry struct {
	sequence *HistorySequence
	index    int

	state       StateHandle
	action      Action
	observation Observation
	reward      float64
	params      TransitionParameters
	node        *BeliefNode
}

func (e *HistoryEntry) Index() int {
	return e.index
}

func (e *HistoryEntry) StateHandle() StateHandle {
	return e.state
}

func (e *HistoryEntry) State() State {
	return e.sequence.pool.State(e.state)
}

func (e *HistoryEntry) Action() Action {
	return e.action
}

func (e *HistoryEntry) Observation() Observation {
	return e.observation
}

// ImmediateReward is the reward of the step taken from this entry, or the
// heuristic estimate when the trajectory was truncated here.
func (e *HistoryEntry) ImmediateReward() float64 {
	return e.reward
}

func (e *HistoryEntry) TransitionParameters() TransitionParameters {
	return e.params
}

func (e *HistoryEntry) BeliefNode() *BeliefNode {
	return e.node
}

// RegisterNode places the entry in node as one of its particles.
func (e *HistoryEntry) RegisterNode(node *BeliefNode) {
	e.node = node
	node.addParticle(e)
}

// HistorySequence is an ordered particle trajectory. It is extended by one
// goroutine at a time.
type HistorySequence struct {
	pool    *StatePool
	entries []*HistoryEntry
}

func NewHistorySequence(pool *StatePool) *HistorySequence {
	return &HistorySequence{pool: pool}
}

// AddEntry appends a new frontier entry for the interned state.
func (s *HistorySequence) AddEntry(state StateHandle) *HistoryEntry {
	entry := &HistoryEntry{
		sequence: s,
		index:    len(s.entries),
		state:    state,
	}
	s.entries = append(s.entries, entry)
	return entry
}

func (s *HistorySequence) Entry(i int) *HistoryEntry {
	return s.entries[i]
}

func (s *HistorySequence) LastEntry() *HistoryEntry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

func (s *HistorySequence) Len() int {
	return len(s.entries)
}
