package actions

import (
	"fmt"
	"slices"
	"sync"

	"abt/solver"

	"golang.org/x/exp/rand"
)

// DiscretizedAction is an action from a finite set, numbered by bin.
type DiscretizedAction interface {
	solver.Action
	BinNumber() int
}

// BinSequencer lists the bins a new belief node may try, in the order it should
// try them. Bins left out are illegal at that node.
type BinSequencer func(data solver.HistoricalData) []int

// Seed is a prior credited to a fresh mapping before any simulation.
type Seed struct {
	Bin    int
	Visits int64
	MeanQ  float64
}

// Prior computes the seeds of a new belief node from its data.
type Prior func(data solver.HistoricalData) []Seed

type PoolOption func(p *EnumeratedPool)

// WithShuffle randomises each node's try order.
func WithShuffle(seed uint64) PoolOption {
	return func(p *EnumeratedPool) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

func WithBinSequencer(sequencer BinSequencer) PoolOption {
	return func(p *EnumeratedPool) {
		if sequencer != nil {
			p.sequencer = sequencer
		}
	}
}

func WithPrior(prior Prior) PoolOption {
	return func(p *EnumeratedPool) {
		p.prior = prior
	}
}

// EnumeratedPool creates discretized action maps over a fixed list of actions.
type EnumeratedPool struct {
	actions   []DiscretizedAction
	sequencer BinSequencer
	prior     Prior

	mu  sync.Mutex // Guards rng, shared by every node
	rng *rand.Rand
}

// NewEnumeratedPool panics unless actions[i] is in bin i.
func NewEnumeratedPool(actions []DiscretizedAction, options ...PoolOption) *EnumeratedPool {
	for i, action := range actions {
		if action.BinNumber() != i {
			panic(fmt.Sprintf("action %v is in bin %d, listed at %d", action, action.BinNumber(), i))
		}
	}
	p := &EnumeratedPool{actions: actions}
	p.sequencer = p.allBins
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *EnumeratedPool) NumBins() int {
	return len(p.actions)
}

func (p *EnumeratedPool) Action(bin int) DiscretizedAction {
	return p.actions[bin]
}

func (p *EnumeratedPool) allBins(solver.HistoricalData) []int {
	bins := make([]int, len(p.actions))
	for i := range bins {
		bins[i] = i
	}
	return bins
}

func (p *EnumeratedPool) CreateActionMapping(owner *solver.BeliefNode) solver.ActionMapping {
	bins := slices.Clone(p.sequencer(owner.HistoricalData())) // Sequencers may return a shared slice
	if p.rng != nil {
		p.mu.Lock()
		p.rng.Shuffle(len(bins), func(i, j int) { bins[i], bins[j] = bins[j], bins[i] })
		p.mu.Unlock()
	}
	return newDiscretizedActionMap(owner, p, bins)
}

// DiscretizedActionMap keeps one entry per bin. Untried legal bins are offered
// in the node's bin sequence order.
type DiscretizedActionMap struct {
	owner       *solver.BeliefNode
	pool        *EnumeratedPool
	binSequence []int
	entries     []*discretizedEntry

	nChildren       int
	nVisitedEntries int
	totalVisitCount int64
	best            *discretizedEntry
}

func newDiscretizedActionMap(owner *solver.BeliefNode, pool *EnumeratedPool, bins []int) *DiscretizedActionMap {
	m := &DiscretizedActionMap{
		owner:       owner,
		pool:        pool,
		binSequence: bins,
		entries:     make([]*discretizedEntry, len(pool.actions)),
	}
	for bin := range m.entries {
		m.entries[bin] = &discretizedEntry{mapping: m, bin: bin}
	}
	for _, bin := range bins {
		m.entries[bin].legal = true
	}
	return m
}

func (m *DiscretizedActionMap) Owner() *solver.BeliefNode {
	return m.owner
}

// Initialize credits the pool's prior, if any.
func (m *DiscretizedActionMap) Initialize() {
	if m.pool.prior == nil {
		return
	}
	for _, seed := range m.pool.prior(m.owner.HistoricalData()) {
		if seed.Bin < 0 || seed.Bin >= len(m.entries) {
			continue
		}
		m.entries[seed.Bin].Update(seed.Visits, float64(seed.Visits)*seed.MeanQ)
	}
}

func (m *DiscretizedActionMap) entryFor(action solver.Action) *discretizedEntry {
	discretized, ok := action.(DiscretizedAction)
	if !ok {
		return nil
	}
	bin := discretized.BinNumber()
	if bin < 0 || bin >= len(m.entries) {
		return nil
	}
	return m.entries[bin]
}

func (m *DiscretizedActionMap) ActionNode(action solver.Action) *solver.ActionNode {
	entry := m.entryFor(action)
	if entry == nil {
		return nil
	}
	return entry.node
}

func (m *DiscretizedActionMap) CreateActionNode(action solver.Action) *solver.ActionNode {
	entry := m.entryFor(action)
	if entry == nil {
		return nil
	}
	if entry.node == nil {
		entry.node = solver.NewActionNode(entry)
		m.nChildren++
	}
	return entry.node
}

func (m *DiscretizedActionMap) NumChildren() int {
	return m.nChildren
}

func (m *DiscretizedActionMap) NumVisitedEntries() int {
	return m.nVisitedEntries
}

func (m *DiscretizedActionMap) VisitedEntries() []solver.ActionMappingEntry {
	visited := make([]solver.ActionMappingEntry, 0, m.nVisitedEntries)
	for _, entry := range m.entries {
		if entry.visitCount != 0 {
			visited = append(visited, entry)
		}
	}
	return visited
}

func (m *DiscretizedActionMap) Entry(action solver.Action) solver.ActionMappingEntry {
	entry := m.entryFor(action)
	if entry == nil {
		return nil // Avoid a typed nil in the interface
	}
	return entry
}

// BestEntry is the visited entry with the highest mean, nil before any visit.
func (m *DiscretizedActionMap) BestEntry() solver.ActionMappingEntry {
	if m.best == nil {
		return nil
	}
	return m.best
}

func (m *DiscretizedActionMap) HasActionsToTry() bool {
	return m.nextBinToTry() >= 0
}

func (m *DiscretizedActionMap) NextActionToTry() solver.Action {
	bin := m.nextBinToTry()
	if bin < 0 {
		return nil
	}
	return m.pool.actions[bin]
}

func (m *DiscretizedActionMap) nextBinToTry() int {
	for _, bin := range m.binSequence {
		if m.entries[bin].visitCount == 0 {
			return bin
		}
	}
	return -1
}

func (m *DiscretizedActionMap) TotalVisitCount() int64 {
	return m.totalVisitCount
}

func (m *DiscretizedActionMap) Update(action solver.Action, deltaNVisits int64, deltaTotalQ float64) bool {
	return solver.UpdateEntry(m, action, deltaNVisits, deltaTotalQ)
}

// refreshBest keeps the cached best entry current after entry's mean moved.
func (m *DiscretizedActionMap) refreshBest(entry *discretizedEntry) {
	if entry.visitCount != 0 && (m.best == nil || entry.meanQValue > m.best.meanQValue) {
		m.best = entry
		return
	}
	if entry != m.best {
		return
	}
	m.best = nil
	for _, e := range m.entries {
		if e.visitCount != 0 && (m.best == nil || e.meanQValue > m.best.meanQValue) {
			m.best = e
		}
	}
}

type discretizedEntry struct {
	mapping *DiscretizedActionMap
	bin     int
	node    *solver.ActionNode
	legal   bool

	visitCount  int64
	totalQValue float64
	meanQValue  float64
}

func (e *discretizedEntry) Mapping() solver.ActionMapping {
	return e.mapping
}

func (e *discretizedEntry) Action() solver.Action {
	return e.mapping.pool.actions[e.bin]
}

func (e *discretizedEntry) BinNumber() int {
	return e.bin
}

func (e *discretizedEntry) ActionNode() *solver.ActionNode {
	return e.node
}

func (e *discretizedEntry) VisitCount() int64 {
	return e.visitCount
}

func (e *discretizedEntry) TotalQValue() float64 {
	return e.totalQValue
}

func (e *discretizedEntry) MeanQValue() float64 {
	return e.meanQValue
}

func (e *discretizedEntry) IsLegal() bool {
	return e.legal
}

func (e *discretizedEntry) Update(deltaNVisits int64, deltaTotalQ float64) bool {
	if deltaNVisits == 0 && deltaTotalQ == 0 {
		return false
	}

	m := e.mapping
	wasVisited := e.visitCount != 0
	e.visitCount += deltaNVisits
	e.totalQValue += deltaTotalQ
	m.totalVisitCount += deltaNVisits
	isVisited := e.visitCount != 0
	switch {
	case isVisited && !wasVisited:
		m.nVisitedEntries++
	case !isVisited && wasVisited:
		m.nVisitedEntries--
	}

	if e.node != nil {
		e.node.UpdateValueAndVisits(deltaTotalQ, deltaNVisits)
	}

	oldMean := e.meanQValue
	if e.visitCount > 0 {
		e.meanQValue = e.totalQValue / float64(e.visitCount)
	} else {
		e.meanQValue = 0
	}
	changed := e.meanQValue != oldMean
	if changed || isVisited != wasVisited {
		m.refreshBest(e)
	}
	return changed
}
