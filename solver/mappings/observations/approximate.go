package observations

import (
	"math"

	"abt/solver"
)

// MetricObservation is an observation from a continuous space.
type MetricObservation interface {
	solver.Observation
	DistanceTo(other solver.Observation) float64
}

// ApproximatePool creates maps that group an observation with the nearest one
// already seen, as long as it lies within maxDistance.
type ApproximatePool struct {
	maxDistance float64
}

func NewApproximatePool(maxDistance float64) *ApproximatePool {
	return &ApproximatePool{maxDistance: maxDistance}
}

func (p *ApproximatePool) CreateObservationMapping(owner *solver.ActionNode) solver.ObservationMapping {
	return &ApproximateMap{
		owner:       owner,
		maxDistance: p.maxDistance,
	}
}

type ApproximateMap struct {
	owner           *solver.ActionNode
	maxDistance     float64
	entries         []*entry
	nChildren       int
	totalVisitCount int64
}

func (m *ApproximateMap) Owner() *solver.ActionNode {
	return m.owner
}

func (m *ApproximateMap) distance(a, b solver.Observation) float64 {
	if metric, ok := a.(MetricObservation); ok {
		return metric.DistanceTo(b)
	}
	if a.Equals(b) {
		return 0
	}
	return math.Inf(1)
}

func (m *ApproximateMap) nearest(obs solver.Observation) *entry {
	var best *entry
	bestDistance := math.Inf(1)
	for _, e := range m.entries {
		if d := m.distance(e.observation, obs); d <= m.maxDistance && d < bestDistance {
			best, bestDistance = e, d
		}
	}
	return best
}

func (m *ApproximateMap) nearestOrAdd(obs solver.Observation) *entry {
	if e := m.nearest(obs); e != nil {
		return e
	}
	e := &entry{observation: obs.Copy()}
	m.entries = append(m.entries, e)
	return e
}

func (m *ApproximateMap) Belief(obs solver.Observation) *solver.BeliefNode {
	if e := m.nearest(obs); e != nil {
		return e.child
	}
	return nil
}

func (m *ApproximateMap) CreateBelief(obs solver.Observation) *solver.BeliefNode {
	e := m.nearestOrAdd(obs)
	if e.child == nil {
		e.child = solver.NewChildBelief(m.owner, e.observation)
		m.nChildren++
	}
	return e.child
}

func (m *ApproximateMap) NumChildren() int {
	return m.nChildren
}

func (m *ApproximateMap) VisitCount(obs solver.Observation) int64 {
	if e := m.nearest(obs); e != nil {
		return e.visitCount
	}
	return 0
}

func (m *ApproximateMap) UpdateVisitCount(obs solver.Observation, delta int64) {
	m.nearestOrAdd(obs).visitCount += delta
	m.totalVisitCount += delta
}

func (m *ApproximateMap) TotalVisitCount() int64 {
	return m.totalVisitCount
}
