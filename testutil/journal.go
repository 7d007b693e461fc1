// Package testutil holds helpers shared by the hfsm test suites: a journal
// that records behavior callbacks and adapters that drive a machine directly
// or through a realtime.Runner.
package testutil

import (
	"fmt"
	"time"

	"github.com/comalice/hfsm"
)

// Kind identifies a recorded callback.
type Kind int

const (
	Enter Kind = iota
	Exit
	Update
)

func (k Kind) String() string {
	switch k {
	case Enter:
		return "enter"
	case Exit:
		return "exit"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Record is one behavior callback. Other is the previous state for Enter and
// the next state for Exit; it is empty when the callback received nil.
type Record struct {
	Kind  Kind
	State string
	Other string
	DT    time.Duration
}

func (r Record) String() string {
	switch r.Kind {
	case Update:
		return fmt.Sprintf("update %s %s", r.State, r.DT)
	default:
		return fmt.Sprintf("%s %s (%s)", r.Kind, r.State, r.Other)
	}
}

// Journal records callbacks from the behaviors it creates, in call order.
type Journal struct {
	records []Record
}

// Behavior returns a behavior for the state named state that records into j.
func (j *Journal) Behavior(state string) hfsm.Behavior {
	return hfsm.BehaviorFuncs{
		Enter: func(prev *hfsm.State) {
			j.records = append(j.records, Record{Kind: Enter, State: state, Other: nameOf(prev)})
		},
		Exit: func(next *hfsm.State) {
			j.records = append(j.records, Record{Kind: Exit, State: state, Other: nameOf(next)})
		},
		Update: func(dt time.Duration) {
			j.records = append(j.records, Record{Kind: Update, State: state, DT: dt})
		},
	}
}

// Records returns a copy of everything recorded so far.
func (j *Journal) Records() []Record {
	return append([]Record(nil), j.records...)
}

// Names returns the state names recorded for kind, in order.
func (j *Journal) Names(kind Kind) []string {
	var names []string
	for _, r := range j.records {
		if r.Kind == kind {
			names = append(names, r.State)
		}
	}
	return names
}

// Reset discards all records.
func (j *Journal) Reset() { j.records = j.records[:0] }

func nameOf(s *hfsm.State) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
