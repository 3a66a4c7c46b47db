package solver

import "sync"

// StateHandle indexes a state interned in a StatePool.
type StateHandle int

const NilState StateHandle = -1

// StatePool interns states by content so equal states reached by different
// trajectories share one handle.
type StatePool struct {
	mu      sync.RWMutex
	states  []State
	buckets map[StateHash][]StateHandle
}

func NewStatePool() *StatePool {
	return &StatePool{buckets: make(map[StateHash][]StateHandle)}
}

// Intern returns the handle of a state equal to state, adding state to the
// pool when there is none.
func (p *StatePool) Intern(state State) StateHandle {
	if state == nil {
		return NilState
	}
	hash := state.Hash()

	p.mu.RLock()
	h := p.find(hash, state)
	p.mu.RUnlock()
	if h != NilState {
		return h
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if h = p.find(hash, state); h != NilState { // Interned while unlocked
		return h
	}
	h = StateHandle(len(p.states))
	p.states = append(p.states, state)
	p.buckets[hash] = append(p.buckets[hash], h)
	return h
}

func (p *StatePool) find(hash StateHash, state State) StateHandle {
	for _, h := range p.buckets[hash] {
		if p.states[h].Equals(state) {
			return h
		}
	}
	return NilState
}

func (p *StatePool) State(h StateHandle) State {
	if h == NilState {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.states[h]
}

func (p *StatePool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.states)
}
