package hfsm

// Condition decides whether a transition should fire. Implementations may
// read external state (timers, input, sensors) but must not block and should
// not have observable side effects.
type Condition interface {
	Evaluate() bool
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func() bool

func (f ConditionFunc) Evaluate() bool { return f() }

// Transition is an edge from the state it is attached to toward Destination.
type Transition struct {
	destination *State
	condition   Condition
}

// NewTransition creates a transition to dest that fires when cond holds.
// A nil condition never fires.
func NewTransition(dest *State, cond Condition) *Transition {
	return &Transition{destination: dest, condition: cond}
}

// When is shorthand for NewTransition(dest, ConditionFunc(fn)).
func When(dest *State, fn func() bool) *Transition {
	if fn == nil {
		return NewTransition(dest, nil)
	}
	return NewTransition(dest, ConditionFunc(fn))
}

// Destination returns the target state.
func (t *Transition) Destination() *State { return t.destination }

// Condition returns the decision capability, which may be nil.
func (t *Transition) Condition() Condition { return t.condition }

// TryTransition reports whether the transition's condition currently holds.
func (t *Transition) TryTransition() bool {
	if t.condition == nil {
		return false
	}
	return t.condition.Evaluate()
}
