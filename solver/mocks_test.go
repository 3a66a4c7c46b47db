package solver

import "fmt"

type mockAction int

func (a mockAction) Copy() Action { return a }

func (a mockAction) Equals(other Action) bool {
	o, ok := other.(mockAction)
	return ok && o == a
}

func (a mockAction) String() string { return fmt.Sprintf("a%d", int(a)) }

type mockObservation int

func (o mockObservation) Copy() Observation { return o }

func (o mockObservation) Equals(other Observation) bool {
	x, ok := other.(mockObservation)
	return ok && x == o
}

func (o mockObservation) Hash() uint64 { return uint64(o) }

type mockState struct {
	id       int
	terminal bool
}

func (s mockState) Hash() StateHash { return StateHash(s.id) }

func (s mockState) Equals(other State) bool {
	o, ok := other.(mockState)
	return ok && o == s
}

// collidingState hashes every value to the same bucket.
type collidingState int

func (s collidingState) Hash() StateHash { return 7 }

func (s collidingState) Equals(other State) bool {
	o, ok := other.(collidingState)
	return ok && o == s
}

type mockData struct {
	path string
}

func (d mockData) CreateChild(action Action, obs Observation) HistoricalData {
	return mockData{path: fmt.Sprintf("%s/%v:%v", d.path, action, obs)}
}

// mockModel walks a line of states: every action moves one state forward and
// the state with id terminalAt is terminal.
type mockModel struct {
	terminalAt int
}

func (m mockModel) IsTerminal(state State) bool {
	s := state.(mockState)
	return s.terminal || (m.terminalAt > 0 && s.id >= m.terminalAt)
}

func (m mockModel) GenerateStep(state State, action Action) StepResult {
	next := mockState{id: state.(mockState).id + 1}
	return StepResult{
		Action:      action,
		Reward:      1,
		Observation: mockObservation(0),
		NextState:   next,
		IsTerminal:  m.IsTerminal(next),
	}
}

func (m mockModel) SampleInitialState() State { return mockState{} }

func (m mockModel) LegalActions(state State, data HistoricalData) []Action {
	return []Action{mockAction(0), mockAction(1)}
}

type mockActionPool struct {
	actions int
}

func (p mockActionPool) CreateActionMapping(owner *BeliefNode) ActionMapping {
	m := &mockActionMapping{owner: owner}
	for i := 0; i < p.actions; i++ {
		m.entries = append(m.entries, &mockEntry{mapping: m, action: mockAction(i)})
	}
	return m
}

type mockActionMapping struct {
	owner   *BeliefNode
	entries []*mockEntry
}

func (m *mockActionMapping) Owner() *BeliefNode { return m.owner }
func (m *mockActionMapping) Initialize()        {}

func (m *mockActionMapping) entry(action Action) *mockEntry {
	a, ok := action.(mockAction)
	if !ok || int(a) < 0 || int(a) >= len(m.entries) {
		return nil
	}
	return m.entries[a]
}

func (m *mockActionMapping) ActionNode(action Action) *ActionNode {
	if e := m.entry(action); e != nil {
		return e.node
	}
	return nil
}

func (m *mockActionMapping) CreateActionNode(action Action) *ActionNode {
	e := m.entry(action)
	if e.node == nil {
		e.node = NewActionNode(e)
	}
	return e.node
}

func (m *mockActionMapping) NumChildren() int {
	n := 0
	for _, e := range m.entries {
		if e.node != nil {
			n++
		}
	}
	return n
}

func (m *mockActionMapping) NumVisitedEntries() int { return len(m.VisitedEntries()) }

func (m *mockActionMapping) VisitedEntries() []ActionMappingEntry {
	var visited []ActionMappingEntry
	for _, e := range m.entries {
		if e.visits != 0 {
			visited = append(visited, e)
		}
	}
	return visited
}

func (m *mockActionMapping) Entry(action Action) ActionMappingEntry {
	if e := m.entry(action); e != nil {
		return e
	}
	return nil
}

func (m *mockActionMapping) HasActionsToTry() bool { return m.NextActionToTry() != nil }

func (m *mockActionMapping) NextActionToTry() Action {
	for _, e := range m.entries {
		if e.visits == 0 {
			return e.action
		}
	}
	return nil
}

func (m *mockActionMapping) TotalVisitCount() int64 {
	var total int64
	for _, e := range m.entries {
		total += e.visits
	}
	return total
}

func (m *mockActionMapping) Update(action Action, deltaNVisits int64, deltaTotalQ float64) bool {
	return UpdateEntry(m, action, deltaNVisits, deltaTotalQ)
}

type mockEntry struct {
	mapping *mockActionMapping
	action  mockAction
	node    *ActionNode
	visits  int64
	totalQ  float64
}

func (e *mockEntry) Mapping() ActionMapping  { return e.mapping }
func (e *mockEntry) Action() Action          { return e.action }
func (e *mockEntry) ActionNode() *ActionNode { return e.node }
func (e *mockEntry) VisitCount() int64       { return e.visits }
func (e *mockEntry) TotalQValue() float64    { return e.totalQ }
func (e *mockEntry) IsLegal() bool           { return true }

func (e *mockEntry) MeanQValue() float64 {
	if e.visits <= 0 {
		return 0
	}
	return e.totalQ / float64(e.visits)
}

func (e *mockEntry) Update(deltaNVisits int64, deltaTotalQ float64) bool {
	old := e.MeanQValue()
	e.visits += deltaNVisits
	e.totalQ += deltaTotalQ
	if e.node != nil {
		e.node.UpdateValueAndVisits(deltaTotalQ, deltaNVisits)
	}
	return e.MeanQValue() != old
}

type mockObservationPool struct{}

func (mockObservationPool) CreateObservationMapping(owner *ActionNode) ObservationMapping {
	return &mockObservationMapping{
		owner:    owner,
		children: map[mockObservation]*BeliefNode{},
		visits:   map[mockObservation]int64{},
	}
}

type mockObservationMapping struct {
	owner    *ActionNode
	children map[mockObservation]*BeliefNode
	visits   map[mockObservation]int64
}

func (m *mockObservationMapping) Owner() *ActionNode { return m.owner }

func (m *mockObservationMapping) Belief(obs Observation) *BeliefNode {
	return m.children[obs.(mockObservation)]
}

func (m *mockObservationMapping) CreateBelief(obs Observation) *BeliefNode {
	o := obs.(mockObservation)
	if m.children[o] == nil {
		m.children[o] = NewChildBelief(m.owner, obs)
	}
	return m.children[o]
}

func (m *mockObservationMapping) NumChildren() int { return len(m.children) }

func (m *mockObservationMapping) VisitCount(obs Observation) int64 {
	return m.visits[obs.(mockObservation)]
}

func (m *mockObservationMapping) UpdateVisitCount(obs Observation, delta int64) {
	m.visits[obs.(mockObservation)] += delta
}

func (m *mockObservationMapping) TotalVisitCount() int64 {
	var total int64
	for _, n := range m.visits {
		total += n
	}
	return total
}

// scriptedFactory builds generators that replay steps in order.
type scriptedFactory struct {
	steps   []StepResult
	created int
	entries []*HistoryEntry // Frontier each generator was built at
}

func (f *scriptedFactory) CreateGenerator(status *StatusSignal, entry *HistoryEntry, state State, data HistoricalData) StepGenerator {
	f.created++
	f.entries = append(f.entries, entry)
	status.CompareAndSwap(StatusUninitialized, StatusInitial)
	return &scriptedGenerator{steps: f.steps}
}

type scriptedGenerator struct {
	steps []StepResult
	next  int
}

func (g *scriptedGenerator) GetStep(entry *HistoryEntry, state State, data HistoricalData) StepResult {
	if g.next >= len(g.steps) {
		return StepResult{}
	}
	g.next++
	return g.steps[g.next-1]
}

// signallingFactory builds generators that set status and yield nothing.
type signallingFactory struct {
	status SearchStatus
}

func (f signallingFactory) CreateGenerator(status *StatusSignal, entry *HistoryEntry, state State, data HistoricalData) StepGenerator {
	status.CompareAndSwap(StatusUninitialized, StatusInitial)
	return signallingGenerator{status: status, set: f.status}
}

type signallingGenerator struct {
	status *StatusSignal
	set    SearchStatus
}

func (g signallingGenerator) GetStep(entry *HistoryEntry, state State, data HistoricalData) StepResult {
	g.status.Store(g.set)
	return StepResult{}
}

// failingFactory never builds a generator.
type failingFactory struct{}

func (failingFactory) CreateGenerator(status *StatusSignal, entry *HistoryEntry, state State, data HistoricalData) StepGenerator {
	return nil
}

type estimateCall struct {
	depth  int
	deltaQ float64
	deltaN int64
}

// recordingFacade records continuation and estimate updates on their way to
// the solver.
type recordingFacade struct {
	*Solver
	estimates []estimateCall
}

func (f *recordingFacade) UpdateEstimate(node *BeliefNode, deltaTotalQ float64, deltaNContinuations int64) {
	f.estimates = append(f.estimates, estimateCall{node.Depth(), deltaTotalQ, deltaNContinuations})
	f.Solver.UpdateEstimate(node, deltaTotalQ, deltaNContinuations)
}

func (f *recordingFacade) continuations() int {
	n := 0
	for _, call := range f.estimates {
		if call.deltaN != 0 {
			n++
		}
	}
	return n
}

func newTestSolver(options ...Option) *Solver {
	return New(mockModel{}, mockActionPool{actions: 2}, mockObservationPool{}, append([]Option{WithHistoricalData(mockData{})}, options...)...)
}

// newRootSequence starts a sequence at the root of s with the given state.
func newRootSequence(s *Solver, state State) *HistorySequence {
	sequence := NewHistorySequence(s.StatePool())
	sequence.AddEntry(s.StatePool().Intern(state)).RegisterNode(s.Tree().Root())
	return sequence
}

func step(action, obs int, reward float64, next int, terminal bool) StepResult {
	return StepResult{
		Action:      mockAction(action),
		Reward:      reward,
		Observation: mockObservation(obs),
		NextState:   mockState{id: next},
		IsTerminal:  terminal,
	}
}
