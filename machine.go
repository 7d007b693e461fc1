package hfsm

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Machine owns a state tree and the single active path through it.
// It is not safe for concurrent use; drive it from one goroutine (see the
// realtime package for a ticking runner that does so).
type Machine struct {
	name     string
	root     *State
	active   *State
	buffer   activePathBuffer
	states   map[ID]*State
	all      []*State
	logger   zerolog.Logger
	reporter ErrorReporter

	stateChanged observerList[StateChange]
	initialized  observerList[struct{}]
	nextHandle   Handle

	isInitialized bool
	frozen        bool
	switching     bool
}

// New creates an empty machine. Build the tree with NewState (or a Builder),
// then call SetRootState and Initialize.
func New(opts ...Option) *Machine {
	m := &Machine{
		states:   make(map[ID]*State),
		logger:   zerolog.Nop(),
		reporter: nopReporter{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name != "" {
		m.logger = m.logger.With().Str("machine", m.name).Logger()
	}
	return m
}

// Name returns the label given with WithName.
func (m *Machine) Name() string { return m.name }

// Root returns the root state.
func (m *Machine) Root() *State { return m.root }

// ActiveState returns the active leaf, or nil before Initialize.
func (m *Machine) ActiveState() *State { return m.active }

// Initialized reports whether Initialize has completed and Stop has not run.
func (m *Machine) Initialized() bool { return m.isInitialized }

// AllStates returns every registered state in registration order. The
// returned slice must not be modified.
func (m *Machine) AllStates() []*State { return m.all }

// ActivePath appends the active path, root first, to dst[:0] and returns it.
func (m *Machine) ActivePath(dst []*State) []*State {
	return append(dst[:0], m.buffer.path()...)
}

// IsActive reports whether s lies on the active path.
func (m *Machine) IsActive(s *State) bool {
	return s != nil && m.buffer.indexOf(s) >= 0
}

// StateByName looks a state up by its hashed name.
func (m *Machine) StateByName(name string) (*State, bool) {
	return m.StateByID(HashName(name))
}

// StateByID looks a state up by identifier.
func (m *Machine) StateByID(id ID) (*State, bool) {
	s, ok := m.states[id]
	return s, ok
}

// SetRootState sets the tree's single entry node. It may be called once,
// before Initialize.
func (m *Machine) SetRootState(root *State) error {
	switch {
	case root == nil:
		return ErrNoRootState
	case root.machine != m:
		return fmt.Errorf("set root %q: %w", root.name, ErrForeignState)
	case root.parent != nil:
		return fmt.Errorf("set root %q: %w", root.name, ErrNotRoot)
	case m.frozen:
		return fmt.Errorf("set root %q: %w", root.name, ErrFrozen)
	case m.root != nil && m.root != root:
		return fmt.Errorf("set root %q: %w", root.name, ErrRootAlreadySet)
	}
	m.root = root
	return nil
}

// RegisterState adds s to the machine's registries. NewState calls it; it is
// exported for trees assembled by other means. A duplicate identifier is
// reported and the first registration keeps the identifier.
func (m *Machine) RegisterState(s *State) error {
	if s == nil {
		return fmt.Errorf("register state: %w", ErrStateNotFound)
	}
	if s.machine != m {
		return fmt.Errorf("register state %q: %w", s.name, ErrForeignState)
	}
	if m.frozen {
		return fmt.Errorf("register state %q: %w", s.name, ErrFrozen)
	}
	if existing, ok := m.states[s.id]; ok {
		err := fmt.Errorf("register state %q (id %d, held by %q): %w", s.name, s.id, existing.name, ErrDuplicateState)
		m.report(err)
		if existing != s && !m.registered(s) {
			m.all = append(m.all, s)
		}
		return err
	}
	m.states[s.id] = s
	m.all = append(m.all, s)
	return nil
}

func (m *Machine) registered(s *State) bool {
	for _, r := range m.all {
		if r == s {
			return true
		}
	}
	return false
}

// Initialize finalizes the tree, activates the root's default leaf, enters the
// path and finally enters the root itself.
func (m *Machine) Initialize() error {
	if m.isInitialized {
		return ErrAlreadyInitialized
	}
	if m.root == nil {
		return ErrNoRootState
	}
	for _, s := range m.all {
		s.finalize()
	}
	m.frozen = true
	m.isInitialized = true

	m.SetState(m.root)
	m.enterRoot()

	m.logger.Debug().Str("leaf", m.active.name).Int("states", len(m.all)).Msg("state machine initialized")
	m.initialized.notify(struct{}{})
	return nil
}

// Update runs one tick. If any state on the active path has a matching
// transition, the machine switches to its destination and nothing is updated
// this tick, even when the switch turns out to be a no-op; otherwise every
// state on the path is updated, root to leaf.
func (m *Machine) Update(dt time.Duration) {
	if !m.isInitialized {
		m.report(fmt.Errorf("update: %w", ErrNotInitialized))
		return
	}
	if ok, dest := m.buffer.checkForTransitions(); ok {
		m.SetState(dest)
		return
	}
	m.buffer.updateAll(dt)
}

// SetStateByName activates the state registered under name.
func (m *Machine) SetStateByName(name string) bool {
	s, ok := m.StateByName(name)
	if !ok {
		m.report(fmt.Errorf("set state %q: %w", name, ErrStateNotFound))
		return false
	}
	return m.SetState(s)
}

// SetStateByID activates the state registered under id.
func (m *Machine) SetStateByID(id ID) bool {
	s, ok := m.StateByID(id)
	if !ok {
		m.report(fmt.Errorf("set state id %d: %w", id, ErrStateNotFound))
		return false
	}
	return m.SetState(s)
}

// SetState activates target. When target is not a leaf, its default
// substates are followed down to a leaf. States between the old leaf and the
// common ancestor are exited leaf first, then the new path below the ancestor
// is entered root first.
//
// It returns false without side effects when target is nil, already the
// active leaf, or an ancestor of the active leaf.
func (m *Machine) SetState(target *State) bool {
	if target == nil || target == m.active {
		return false
	}
	if target.machine != m {
		m.report(fmt.Errorf("set state %q: %w", target.name, ErrForeignState))
		return false
	}
	if !m.isInitialized {
		m.report(fmt.Errorf("set state %q: %w", target.name, ErrNotInitialized))
		return false
	}
	if m.active != nil && target.IsAncestorOf(m.active) {
		return false
	}
	if top(target) != m.root {
		m.report(fmt.Errorf("set state %q: %w", target.name, ErrDetachedState))
		return false
	}
	if m.switching {
		m.report(fmt.Errorf("set state %q: %w", target.name, ErrReentrantSwitch))
		return false
	}
	m.switching = true
	defer func() { m.switching = false }()

	former := m.active
	next := target
	for next.defaultSubState != nil {
		next.activeSubState = nil
		next = next.defaultSubState
	}

	common := m.root
	if former != nil {
		common = former.NearestCommonAncestorWith(next)
	}

	m.setActiveState(next)

	if former != nil {
		path := m.buffer.path()
		for s := former; s != nil && s != common; s = s.parent {
			replacement := next
			for _, candidate := range path {
				if candidate.IsSiblingOf(s) {
					replacement = candidate
					break
				}
			}
			s.exit(replacement)
		}
	}

	// Entry starts below the ancestor shared with the requested target, not
	// with the leaf it resolved to.
	if target != next && former != nil {
		common = former.NearestCommonAncestorWith(target)
	}

	path := m.buffer.path()
	for i := m.buffer.indexOf(common) + 1; i < len(path); i++ {
		s := path[i]
		var prev *State
		if s.parent != nil {
			prev = s.parent.activeSubState
			s.parent.activeSubState = s
		}
		s.enter(prev)
	}

	m.logger.Debug().Str("from", stateName(former)).Str("to", next.name).Str("target", target.name).Msg("state switched")
	return true
}

// Stop exits every state on the active path, leaf to root, and returns the
// machine to its uninitialized state. The tree stays frozen.
func (m *Machine) Stop() error {
	if !m.isInitialized {
		return ErrNotInitialized
	}
	m.exitAll()

	former := m.active
	m.active = nil
	m.buffer.clear()
	m.isInitialized = false
	m.logger.Debug().Str("from", stateName(former)).Msg("state machine stopped")
	m.stateChanged.notify(StateChange{From: former})
	return nil
}

func (m *Machine) enterRoot() {
	m.switching = true
	defer func() { m.switching = false }()
	m.root.enter(nil)
}

// exitAll exits the active path leaf to root with a nil next state.
func (m *Machine) exitAll() {
	m.switching = true
	defer func() { m.switching = false }()
	path := m.buffer.path()
	for i := len(path) - 1; i >= 0; i-- {
		path[i].exit(nil)
	}
}

func top(s *State) *State {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// OnStateChanged registers fn to run synchronously, in registration order,
// right after the active leaf changes (before exit and entry callbacks run).
func (m *Machine) OnStateChanged(fn func(StateChange)) Handle {
	m.nextHandle++
	m.stateChanged.add(m.nextHandle, fn)
	return m.nextHandle
}

// OnInitialized registers fn to run once Initialize completes.
func (m *Machine) OnInitialized(fn func()) Handle {
	m.nextHandle++
	m.initialized.add(m.nextHandle, func(struct{}) { fn() })
	return m.nextHandle
}

// Unsubscribe removes a registration made with OnStateChanged or OnInitialized.
func (m *Machine) Unsubscribe(h Handle) bool {
	return m.stateChanged.remove(h) || m.initialized.remove(h)
}

func (m *Machine) setActiveState(s *State) {
	former := m.active
	m.active = s
	m.buffer.setFromState(s)
	m.stateChanged.notify(StateChange{From: former, To: s})
}

func (m *Machine) report(err error) {
	m.logger.Debug().Err(err).Msg("state machine error")
	m.reporter.LogError(err.Error())
}

func stateName(s *State) string {
	if s == nil {
		return ""
	}
	return s.name
}
