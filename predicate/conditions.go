package predicate

import (
	"time"

	"github.com/comalice/hfsm"
)

type constant bool

func (c constant) Evaluate() bool { return bool(c) }

// Always returns a condition that always holds.
func Always() hfsm.Condition { return constant(true) }

// Never returns a condition that never holds.
func Never() hfsm.Condition { return constant(false) }

type after struct {
	state *hfsm.State
	d     time.Duration
}

func (a after) Evaluate() bool { return a.state.Elapsed() >= a.d }

// After holds once s has accumulated at least d of update time since it was
// last entered.
func After(s *hfsm.State, d time.Duration) hfsm.Condition {
	return after{state: s, d: d}
}

type flag struct {
	bb   *Blackboard
	key  string
	want bool
}

func (f flag) Evaluate() bool {
	v, ok := f.bb.Bool(f.key)
	return ok && v == f.want
}

// Flag holds while the blackboard stores true at key.
func Flag(bb *Blackboard, key string) hfsm.Condition {
	return flag{bb: bb, key: key, want: true}
}

// FlagEquals holds while the blackboard stores want at key. A missing or
// non-bool value never matches.
func FlagEquals(bb *Blackboard, key string, want bool) hfsm.Condition {
	return flag{bb: bb, key: key, want: want}
}

type not struct{ c hfsm.Condition }

func (n not) Evaluate() bool { return !n.c.Evaluate() }

// Not negates c.
func Not(c hfsm.Condition) hfsm.Condition { return not{c: c} }

type all []hfsm.Condition

func (a all) Evaluate() bool {
	for _, c := range a {
		if !c.Evaluate() {
			return false
		}
	}
	return true
}

// All holds when every condition holds, evaluated in order with short-circuit.
func All(conds ...hfsm.Condition) hfsm.Condition { return all(conds) }

type anyOf []hfsm.Condition

func (a anyOf) Evaluate() bool {
	for _, c := range a {
		if c.Evaluate() {
			return true
		}
	}
	return false
}

// Any holds when at least one condition holds, evaluated in order with short-circuit.
func Any(conds ...hfsm.Condition) hfsm.Condition { return anyOf(conds) }
