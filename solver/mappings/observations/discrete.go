package observations

import "abt/solver"

// DiscretePool creates observation maps keyed by observation hash and equality.
type DiscretePool struct{}

func NewDiscretePool() *DiscretePool {
	return &DiscretePool{}
}

func (p *DiscretePool) CreateObservationMapping(owner *solver.ActionNode) solver.ObservationMapping {
	return &DiscreteMap{
		owner:   owner,
		buckets: make(map[uint64][]*entry),
	}
}

type entry struct {
	observation solver.Observation
	child       *solver.BeliefNode
	visitCount  int64
}

type DiscreteMap struct {
	owner           *solver.ActionNode
	buckets         map[uint64][]*entry
	nChildren       int
	totalVisitCount int64
}

func (m *DiscreteMap) Owner() *solver.ActionNode {
	return m.owner
}

func (m *DiscreteMap) find(obs solver.Observation) *entry {
	for _, e := range m.buckets[obs.Hash()] {
		if e.observation.Equals(obs) {
			return e
		}
	}
	return nil
}

func (m *DiscreteMap) findOrAdd(obs solver.Observation) *entry {
	if e := m.find(obs); e != nil {
		return e
	}
	e := &entry{observation: obs.Copy()}
	hash := obs.Hash()
	m.buckets[hash] = append(m.buckets[hash], e)
	return e
}

func (m *DiscreteMap) Belief(obs solver.Observation) *solver.BeliefNode {
	if e := m.find(obs); e != nil {
		return e.child
	}
	return nil
}

func (m *DiscreteMap) CreateBelief(obs solver.Observation) *solver.BeliefNode {
	e := m.findOrAdd(obs)
	if e.child == nil {
		e.child = solver.NewChildBelief(m.owner, e.observation)
		m.nChildren++
	}
	return e.child
}

func (m *DiscreteMap) NumChildren() int {
	return m.nChildren
}

func (m *DiscreteMap) VisitCount(obs solver.Observation) int64 {
	if e := m.find(obs); e != nil {
		return e.visitCount
	}
	return 0
}

func (m *DiscreteMap) UpdateVisitCount(obs solver.Observation, delta int64) {
	m.findOrAdd(obs).visitCount += delta
	m.totalVisitCount += delta
}

func (m *DiscreteMap) TotalVisitCount() int64 {
	return m.totalVisitCount
}
