// Package predicate provides Condition implementations for hfsm transitions:
// state timers, blackboard flags and "key op value" expressions, and boolean
// combinators.
//
// Conditions are evaluated on the machine's goroutine every tick and do not
// allocate. The Blackboard they read may be written from other goroutines.
package predicate
