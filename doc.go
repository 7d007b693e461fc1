// Package hfsm is a hierarchical finite-state machine runtime for per-tick
// behavior such as character and AI logic.
//
// States form a tree. Exactly one path from the root to a leaf is active at
// any time. Each call to Machine.Update first checks the transitions of every
// state on that path, root first, so a transition on an outer state preempts
// one on an inner state. If nothing fires, every state on the path is
// updated, root to leaf.
//
// Switching computes the nearest common ancestor of the old leaf and the new
// one: states below it on the old path are exited leaf first, states below it
// on the new path are entered root first, and the ancestor itself is left
// alone. A state entered under a parent learns which sibling it replaces
// through OnEnter's argument; a state being exited learns which sibling
// replaces it through OnExit's argument.
//
// # Example
//
//	m := hfsm.New()
//	root, _ := hfsm.NewState(m, nil, "Root", nil)
//	idle, _ := hfsm.NewState(m, root, "Idle", idleBehavior)
//	move, _ := hfsm.NewState(m, root, "Move", nil)
//	walk, _ := hfsm.NewState(m, move, "Walk", walkBehavior)
//	_, _ = hfsm.NewState(m, move, "Run", runBehavior)
//	idle.AddTransitions(hfsm.When(move, func() bool { return input.Moving() }))
//	_ = m.SetRootState(root)
//	_ = m.Initialize() // active leaf: Idle
//
//	for range ticker.C {
//		m.Update(16 * time.Millisecond)
//	}
//
// The active path is kept in a buffer that only grows, so steady-state ticks
// and switches between already-seen depths do not allocate.
package hfsm
