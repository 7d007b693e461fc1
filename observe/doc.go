// Package observe connects hfsm machines to logging, metrics and event
// consumers through the machine's ErrorReporter and state-change observers.
package observe
