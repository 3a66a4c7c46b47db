package solver

import "github.com/rs/zerolog/log"

// ActionMapping holds the per-action statistics of one belief node. It is
// guarded by the owning node's lock.
type ActionMapping interface {
	Owner() *BeliefNode
	// Initialize runs once, right after the owning node is created
	Initialize()

	ActionNode(action Action) *ActionNode
	CreateActionNode(action Action) *ActionNode
	NumChildren() int

	NumVisitedEntries() int
	// VisitedEntries returns every entry with a nonzero visit count, including
	// seeded entries that have no action node yet
	VisitedEntries() []ActionMappingEntry
	Entry(action Action) ActionMappingEntry

	HasActionsToTry() bool
	NextActionToTry() Action

	TotalVisitCount() int64
	// Update applies a visit and value delta to the entry for action and
	// reports whether its mean changed
	Update(action Action, deltaNVisits int64, deltaTotalQ float64) bool
}

type ActionMappingEntry interface {
	Mapping() ActionMapping
	Action() Action
	ActionNode() *ActionNode
	VisitCount() int64
	TotalQValue() float64
	MeanQValue() float64
	IsLegal() bool
	// Update applies the deltas to the entry and forwards them to its action
	// node when there is one
	Update(deltaNVisits int64, deltaTotalQ float64) bool
}

// UpdateEntry is the usual ActionMapping.Update: look the entry up and let it
// apply the deltas.
func UpdateEntry(m ActionMapping, action Action, deltaNVisits int64, deltaTotalQ float64) bool {
	entry := m.Entry(action)
	if entry == nil {
		log.Error().Msgf("no mapping entry for action %v", action)
		return false
	}
	return entry.Update(deltaNVisits, deltaTotalQ)
}

// ObservationMapping holds the children of one action node. It is guarded by
// the lock of the belief node owning that action node.
type ObservationMapping interface {
	Owner() *ActionNode
	Belief(obs Observation) *BeliefNode
	CreateBelief(obs Observation) *BeliefNode
	NumChildren() int
	VisitCount(obs Observation) int64
	UpdateVisitCount(obs Observation, delta int64)
	TotalVisitCount() int64
}

type ActionPool interface {
	CreateActionMapping(owner *BeliefNode) ActionMapping
}

type ObservationPool interface {
	CreateObservationMapping(owner *ActionNode) ObservationMapping
}
