package hfsm

import (
	"fmt"
	"time"
)

// Behavior is the lifecycle capability a State runs. prev and next carry the
// sibling that was or will be active under the same parent, or nil when the
// state is entered through a default-substate chain or its branch goes away
// entirely.
type Behavior interface {
	OnEnter(prev *State)
	OnExit(next *State)
	OnUpdate(dt time.Duration)
}

// BehaviorFuncs adapts optional functions to Behavior. Nil fields are skipped.
type BehaviorFuncs struct {
	Enter  func(prev *State)
	Exit   func(next *State)
	Update func(dt time.Duration)
}

func (b BehaviorFuncs) OnEnter(prev *State) {
	if b.Enter != nil {
		b.Enter(prev)
	}
}

func (b BehaviorFuncs) OnExit(next *State) {
	if b.Exit != nil {
		b.Exit(next)
	}
}

func (b BehaviorFuncs) OnUpdate(dt time.Duration) {
	if b.Update != nil {
		b.Update(dt)
	}
}

// State is one node of the behavior tree. The tree owns its nodes through
// parent->children containment; Parent is a plain back-reference.
type State struct {
	name     string
	id       ID
	machine  *Machine
	parent   *State
	children []*State
	behavior Behavior

	transitions []*Transition

	defaultSubState *State
	activeSubState  *State
	explicitDefault bool

	enabled       bool
	canTransition bool
	elapsed       time.Duration
}

// NewState creates a state owned by m under parent (nil for a root) and
// registers it with m. A duplicate name is reported through the machine's
// ErrorReporter and the state stays out of the identifier map; it is still
// part of the tree. Errors are returned only for construction misuse.
func NewState(m *Machine, parent *State, name string, b Behavior) (*State, error) {
	if m == nil {
		return nil, fmt.Errorf("new state %q: nil machine", name)
	}
	if m.frozen {
		return nil, fmt.Errorf("new state %q: %w", name, ErrFrozen)
	}
	if parent != nil && parent.machine != m {
		return nil, fmt.Errorf("new state %q under %q: %w", name, parent.name, ErrForeignState)
	}

	s := &State{
		name:          name,
		id:            HashName(name),
		machine:       m,
		parent:        parent,
		behavior:      b,
		enabled:       true,
		canTransition: true,
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	_ = m.RegisterState(s) // duplicates are already reported
	return s, nil
}

// Name returns the state's name.
func (s *State) Name() string { return s.name }

// ID returns the hashed identifier of the state's name.
func (s *State) ID() ID { return s.id }

// Machine returns the owning machine.
func (s *State) Machine() *Machine { return s.machine }

// Parent returns the enclosing state, or nil for the root.
func (s *State) Parent() *State { return s.parent }

// Children returns the direct substates in registration order. The returned
// slice must not be modified.
func (s *State) Children() []*State { return s.children }

// Behavior returns the state's lifecycle capability, which may be nil.
func (s *State) Behavior() Behavior { return s.behavior }

// IsLeaf reports whether the state has no default substate once finalized.
func (s *State) IsLeaf() bool { return len(s.children) == 0 }

// Enabled reports whether transitions may target this state.
func (s *State) Enabled() bool { return s.enabled }

// SetEnabled toggles whether transitions may target this state.
func (s *State) SetEnabled(enabled bool) { s.enabled = enabled }

// CanTransition reports whether this state's own transitions are evaluated.
func (s *State) CanTransition() bool { return s.canTransition }

// SetCanTransition toggles evaluation of this state's transitions. The state
// still updates while disabled.
func (s *State) SetCanTransition(can bool) { s.canTransition = can }

// ActiveSubState returns the child most recently entered under this state.
func (s *State) ActiveSubState() *State { return s.activeSubState }

// DefaultSubState returns the child entered when this state is activated
// without a more specific target. It is nil before Initialize and for leaves.
func (s *State) DefaultSubState() *State { return s.defaultSubState }

// SetDefaultSubState overrides the default child (the first registered child
// otherwise). Only direct children are accepted and only before Initialize.
func (s *State) SetDefaultSubState(child *State) error {
	if s.machine.frozen {
		return fmt.Errorf("set default of %q: %w", s.name, ErrFrozen)
	}
	if child == nil || child.parent != s {
		return fmt.Errorf("set default of %q: %w", s.name, ErrStateNotFound)
	}
	s.defaultSubState = child
	s.explicitDefault = true
	return nil
}

// Elapsed returns the update time accumulated since the state was last entered.
func (s *State) Elapsed() time.Duration { return s.elapsed }

// Transitions returns the outgoing transitions in evaluation order. The
// returned slice must not be modified.
func (s *State) Transitions() []*Transition { return s.transitions }

// AddTransitions appends transitions. Earlier transitions keep priority.
func (s *State) AddTransitions(transitions ...*Transition) {
	for _, t := range transitions {
		if t != nil {
			s.transitions = append(s.transitions, t)
		}
	}
}

// TryToTransition evaluates the transitions in order and returns the
// destination of the first one whose destination is enabled and whose
// condition holds. It fails closed when CanTransition is false.
func (s *State) TryToTransition() (bool, *State) {
	if !s.canTransition {
		return false, nil
	}
	for _, t := range s.transitions {
		dest := t.destination
		if dest == nil || !dest.enabled {
			continue
		}
		if t.TryTransition() {
			return true, dest
		}
	}
	return false, nil
}

// Depth returns the number of ancestors above s.
func (s *State) Depth() int {
	d := 0
	for p := s.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// NearestCommonAncestorWith returns the deepest state that is an ancestor of
// (or equal to) both s and other, or nil if they are in disjoint trees.
func (s *State) NearestCommonAncestorWith(other *State) *State {
	if other == nil {
		return nil
	}
	a, b := s, other
	da, db := a.Depth(), b.Depth()
	for ; da > db; da-- {
		a = a.parent
	}
	for ; db > da; db-- {
		b = b.parent
	}
	for a != b {
		a, b = a.parent, b.parent
	}
	return a
}

// IsSiblingOf reports whether s and other are distinct states with the same
// non-nil parent.
func (s *State) IsSiblingOf(other *State) bool {
	return other != nil && other != s && s.parent != nil && s.parent == other.parent
}

// IsAncestorOf reports whether s appears above other in other's parent chain.
func (s *State) IsAncestorOf(other *State) bool {
	if other == nil {
		return false
	}
	for p := other.parent; p != nil; p = p.parent {
		if p == s {
			return true
		}
	}
	return false
}

// IsDescendantOf reports whether other appears above s in s's parent chain.
func (s *State) IsDescendantOf(other *State) bool {
	return other != nil && other.IsAncestorOf(s)
}

// Path returns the dot-separated names from the root down to s.
func (s *State) Path() string {
	if s.parent == nil {
		return s.name
	}
	return s.parent.Path() + "." + s.name
}

func (s *State) String() string { return s.name }

func (s *State) finalize() {
	if !s.explicitDefault && len(s.children) > 0 {
		s.defaultSubState = s.children[0]
	}
}

func (s *State) enter(prev *State) {
	s.elapsed = 0
	if s.behavior != nil {
		s.behavior.OnEnter(prev)
	}
}

func (s *State) exit(next *State) {
	if s.behavior != nil {
		s.behavior.OnExit(next)
	}
}

func (s *State) update(dt time.Duration) {
	s.elapsed += dt
	if s.behavior != nil {
		s.behavior.OnUpdate(dt)
	}
}
