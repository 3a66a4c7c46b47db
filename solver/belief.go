package solver

import (
	"sync"
	"sync/atomic"
)

// BeliefNode is a node of the belief tree. Its lock guards the action mapping,
// the mapping's entries and action nodes, their observation mappings, and the
// node's own particle and continuation counts.
type BeliefNode struct {
	sync.RWMutex
	id     int64
	depth  int
	tree   *BeliefTree
	parent *ActionNode
	data   HistoricalData

	mapping        ActionMapping
	particles      []*HistoryEntry
	nContinuations int64
}

func (b *BeliefNode) ID() int64 {
	return b.id
}

// Depth is the number of action/observation steps from the root.
func (b *BeliefNode) Depth() int {
	return b.depth
}

func (b *BeliefNode) Tree() *BeliefTree {
	return b.tree
}

// ParentActionNode is nil for the root.
func (b *BeliefNode) ParentActionNode() *ActionNode {
	return b.parent
}

func (b *BeliefNode) ParentBelief() *BeliefNode {
	if b.parent == nil {
		return nil
	}
	return b.parent.ParentBelief()
}

func (b *BeliefNode) HistoricalData() HistoricalData {
	return b.data
}

func (b *BeliefNode) Mapping() ActionMapping {
	return b.mapping
}

func (b *BeliefNode) NumParticles() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.particles)
}

func (b *BeliefNode) NContinuations() int64 {
	b.RLock()
	defer b.RUnlock()
	return b.nContinuations
}

func (b *BeliefNode) addParticle(entry *HistoryEntry) {
	b.Lock()
	defer b.Unlock()
	b.particles = append(b.particles, entry)
}

// BeliefTree owns the root and allocates every belief node.
type BeliefTree struct {
	actionPool      ActionPool
	observationPool ObservationPool
	root            *BeliefNode
	nextID          atomic.Int64
	size            atomic.Int64
}

func NewBeliefTree(actionPool ActionPool, observationPool ObservationPool, rootData HistoricalData) *BeliefTree {
	t := &BeliefTree{
		actionPool:      actionPool,
		observationPool: observationPool,
	}
	t.root = t.newNode(nil, 0, rootData)
	return t
}

func (t *BeliefTree) Root() *BeliefNode {
	return t.root
}

// Size is the number of belief nodes created so far, root included.
func (t *BeliefTree) Size() int64 {
	return t.size.Load()
}

func (t *BeliefTree) ActionPool() ActionPool {
	return t.actionPool
}

func (t *BeliefTree) ObservationPool() ObservationPool {
	return t.observationPool
}

// NewChildBelief creates the belief node reached from parent by obs. Observation
// mappings call it from CreateBelief, under the lock of the parent's belief node.
func NewChildBelief(parent *ActionNode, obs Observation) *BeliefNode {
	owner := parent.ParentBelief()
	var data HistoricalData
	if owner.data != nil {
		data = owner.data.CreateChild(parent.Action(), obs)
	}
	return owner.tree.newNode(parent, owner.depth+1, data)
}

func (t *BeliefTree) newNode(parent *ActionNode, depth int, data HistoricalData) *BeliefNode {
	node := &BeliefNode{
		id:     t.nextID.Add(1) - 1,
		depth:  depth,
		tree:   t,
		parent: parent,
		data:   data,
	}
	node.mapping = t.actionPool.CreateActionMapping(node)
	node.mapping.Initialize()
	t.size.Add(1)
	return node
}
