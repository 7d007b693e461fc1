package hfsm

import (
	"fmt"
	"strings"
)

// Builder provides a fluent API for constructing a Machine using dot-separated
// state paths ("Move.Walk") instead of wiring parents by hand. Transition
// targets may be referenced before they are declared.
type Builder struct {
	m       *Machine
	root    *State
	byPath  map[string]*State
	pending []pendingTransition
	err     error
}

// StateBuilder provides fluent methods for configuring individual states.
type StateBuilder struct {
	b     *Builder
	state *State
	path  string
}

type pendingTransition struct {
	from   *State
	target string
	cond   Condition
}

// NewBuilder creates a builder whose machine has a root named rootName.
func NewBuilder(rootName string, opts ...Option) *Builder {
	m := New(opts...)
	b := &Builder{
		m:      m,
		byPath: make(map[string]*State),
	}
	root, err := NewState(m, nil, rootName, nil)
	if err != nil {
		b.fail(err)
		return b
	}
	b.root = root
	b.fail(m.SetRootState(root))
	return b
}

// Machine returns the machine under construction.
func (b *Builder) Machine() *Machine { return b.m }

// Root returns a StateBuilder for the root state.
func (b *Builder) Root() *StateBuilder {
	return &StateBuilder{b: b, state: b.root}
}

// State creates or retrieves the state at path, relative to the root.
// Missing ancestors are created without behavior. A non-nil behavior
// replaces the state's current one.
func (b *Builder) State(path string, behavior Behavior) *StateBuilder {
	s := b.ensure(path)
	if s != nil && behavior != nil {
		s.behavior = behavior
	}
	return &StateBuilder{b: b, state: s, path: path}
}

// Lookup returns the state declared at path.
func (b *Builder) Lookup(path string) (*State, bool) {
	if path == "" {
		return b.root, b.root != nil
	}
	s, ok := b.byPath[path]
	return s, ok
}

// Build resolves transition targets and validates the tree. The returned
// machine still needs Initialize.
func (b *Builder) Build() (*Machine, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, p := range b.pending {
		dest, err := b.resolve(p.target)
		if err != nil {
			return nil, fmt.Errorf("state %s has transition to %q: %w", p.from.Path(), p.target, err)
		}
		p.from.AddTransitions(NewTransition(dest, p.cond))
	}
	b.pending = nil
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b.m, nil
}

func (b *Builder) ensure(path string) *State {
	if b.err != nil || b.root == nil {
		return nil
	}
	if path == "" {
		return b.root
	}
	if s, ok := b.byPath[path]; ok {
		return s
	}
	parentPath, name := splitPath(path)
	if name == "" {
		b.fail(fmt.Errorf("invalid state path %q", path))
		return nil
	}
	parent := b.ensure(parentPath)
	if parent == nil {
		return nil
	}
	s, err := NewState(b.m, parent, name, nil)
	if err != nil {
		b.fail(err)
		return nil
	}
	b.byPath[path] = s
	return s
}

// resolve accepts a full path or, failing that, a registered state name.
func (b *Builder) resolve(target string) (*State, error) {
	if s, ok := b.Lookup(target); ok {
		return s, nil
	}
	if s, ok := b.m.StateByName(target); ok {
		return s, nil
	}
	return nil, ErrStateNotFound
}

// validate rejects trees whose names collide, since colliding states cannot
// be activated by name.
func (b *Builder) validate() error {
	seen := make(map[ID]*State, len(b.m.all))
	for _, s := range b.m.all {
		if other, ok := seen[s.id]; ok {
			return fmt.Errorf("states %s and %s share id %d: %w", other.Path(), s.Path(), s.id, ErrDuplicateState)
		}
		seen[s.id] = s
	}
	return nil
}

func (b *Builder) fail(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

// splitPath splits a hierarchical path into parent and name components.
// For example, "parent.child" returns ("parent", "child").
// For "child", returns ("", "child").
func splitPath(path string) (parent, name string) {
	idx := strings.LastIndex(path, ".")
	if idx == -1 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// StateBuilder fluent methods

// State returns the configured state, or nil if the builder has failed.
func (sb *StateBuilder) State() *State { return sb.state }

// Child creates or retrieves a substate of this state.
func (sb *StateBuilder) Child(name string, behavior Behavior) *StateBuilder {
	path := name
	if sb.path != "" {
		path = sb.path + "." + name
	}
	return sb.b.State(path, behavior)
}

// Default makes this state its parent's default substate.
func (sb *StateBuilder) Default() *StateBuilder {
	if sb.state == nil {
		return sb
	}
	if sb.state.parent == nil {
		sb.b.fail(fmt.Errorf("default: %w", ErrNotRoot))
		return sb
	}
	sb.b.fail(sb.state.parent.SetDefaultSubState(sb.state))
	return sb
}

// On adds a transition to target (a path or a state name) that fires when
// cond holds. Targets are resolved in Build.
func (sb *StateBuilder) On(target string, cond Condition) *StateBuilder {
	if sb.state == nil {
		return sb
	}
	sb.b.pending = append(sb.b.pending, pendingTransition{from: sb.state, target: target, cond: cond})
	return sb
}

// OnFunc is On with a plain predicate function.
func (sb *StateBuilder) OnFunc(target string, fn func() bool) *StateBuilder {
	if fn == nil {
		return sb.On(target, nil)
	}
	return sb.On(target, ConditionFunc(fn))
}

// Enabled sets whether transitions may target this state.
func (sb *StateBuilder) Enabled(enabled bool) *StateBuilder {
	if sb.state != nil {
		sb.state.SetEnabled(enabled)
	}
	return sb
}

// CanTransition sets whether this state's own transitions are evaluated.
func (sb *StateBuilder) CanTransition(can bool) *StateBuilder {
	if sb.state != nil {
		sb.state.SetCanTransition(can)
	}
	return sb
}
