package solver

// ActionNode is the statistics edge between a belief node and the belief nodes
// reached by observations after taking one action. Every access happens under
// the lock of the belief node that owns the edge.
type ActionNode struct {
	entry       ActionMappingEntry
	mapping     ObservationMapping
	nParticles  int64
	totalQValue float64
	meanQValue  float64
}

// NewActionNode creates the edge for entry together with its observation
// mapping, taken from the observation pool of the tree the entry belongs to.
func NewActionNode(entry ActionMappingEntry) *ActionNode {
	n := &ActionNode{entry: entry}
	n.mapping = n.ParentBelief().Tree().ObservationPool().CreateObservationMapping(n)
	return n
}

func (n *ActionNode) Entry() ActionMappingEntry {
	return n.entry
}

func (n *ActionNode) Action() Action {
	return n.entry.Action()
}

func (n *ActionNode) ParentBelief() *BeliefNode {
	return n.entry.Mapping().Owner()
}

func (n *ActionNode) Mapping() ObservationMapping {
	return n.mapping
}

func (n *ActionNode) NParticles() int64 {
	return n.nParticles
}

func (n *ActionNode) TotalQValue() float64 {
	return n.totalQValue
}

func (n *ActionNode) MeanQValue() float64 {
	return n.meanQValue
}

func (n *ActionNode) UpdateValue(increase float64) {
	n.totalQValue += increase
	n.recalculate()
}

// UpdateValueAndVisits adjusts the visit count, possibly downwards, before
// adding increase to the total.
func (n *ActionNode) UpdateValueAndVisits(increase float64, deltaNParticles int64) {
	n.nParticles += deltaNParticles
	n.totalQValue += increase
	n.recalculate()
}

func (n *ActionNode) recalculate() {
	if n.nParticles > 0 {
		n.meanQValue = n.totalQValue / float64(n.nParticles)
	} else {
		n.meanQValue = 0
	}
}

func (n *ActionNode) Child(obs Observation) *BeliefNode {
	return n.mapping.Belief(obs)
}

// CreateOrGetChild returns the belief node reached by obs, creating it on first
// use. added is true only when the node was created by this call.
func (n *ActionNode) CreateOrGetChild(obs Observation) (child *BeliefNode, added bool) {
	if child = n.mapping.Belief(obs); child != nil {
		return child, false
	}
	return n.mapping.CreateBelief(obs), true
}
