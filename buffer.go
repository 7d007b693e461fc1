package hfsm

import "time"

// activePathBuffer mirrors the chain from the root to the active leaf.
// Storage grows when a deeper path is observed and is never shrunk, so ticks
// and switches between known depths do not allocate.
type activePathBuffer struct {
	states []*State
	count  int
	// generation increments on every rebuild.
	generation uint64
}

func (b *activePathBuffer) capacity() int { return len(b.states) }

func (b *activePathBuffer) grow(n int) {
	if n <= len(b.states) {
		return
	}
	states := make([]*State, n)
	copy(states, b.states)
	b.states = states
}

// setFromState rebuilds the buffer for leaf: one pass to count the depth,
// one pass to write the chain back to front.
func (b *activePathBuffer) setFromState(leaf *State) {
	count := 0
	for s := leaf; s != nil; s = s.parent {
		count++
	}
	b.grow(count)
	for i := count; i < b.count; i++ {
		b.states[i] = nil
	}
	b.count = count
	s := leaf
	for i := count - 1; i >= 0; i-- {
		b.states[i] = s
		s = s.parent
	}
	b.generation++
}

func (b *activePathBuffer) clear() {
	for i := 0; i < b.count; i++ {
		b.states[i] = nil
	}
	b.count = 0
	b.generation++
}

// path returns the valid prefix. Callers must not retain it across switches.
func (b *activePathBuffer) path() []*State { return b.states[:b.count] }

func (b *activePathBuffer) indexOf(s *State) int {
	for i := 0; i < b.count; i++ {
		if b.states[i] == s {
			return i
		}
	}
	return -1
}

// checkForTransitions scans root to leaf so an ancestor's transition
// preempts a descendant's.
func (b *activePathBuffer) checkForTransitions() (bool, *State) {
	for i := 0; i < b.count; i++ {
		if ok, dest := b.states[i].TryToTransition(); ok {
			return true, dest
		}
	}
	return false, nil
}

// updateAll updates every state root to leaf. It stops early if an update
// callback switched the active state.
func (b *activePathBuffer) updateAll(dt time.Duration) {
	gen := b.generation
	for i := 0; i < b.count; i++ {
		b.states[i].update(dt)
		if b.generation != gen {
			return
		}
	}
}
