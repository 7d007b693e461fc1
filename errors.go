package hfsm

import "errors"

var (
	// ErrDuplicateState is reported when a state's ID is already registered.
	ErrDuplicateState = errors.New("duplicate state identifier")
	// ErrStateNotFound is reported when a name or ID lookup fails.
	ErrStateNotFound = errors.New("state not found")
	// ErrNotInitialized is returned by operations that need Initialize first.
	ErrNotInitialized = errors.New("state machine not initialized")
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("state machine already initialized")
	// ErrNoRootState is returned by Initialize when no root was set.
	ErrNoRootState = errors.New("state machine has no root state")
	// ErrReentrantSwitch is reported when SetState is called while a switch is in progress.
	ErrReentrantSwitch = errors.New("state switch already in progress")
	// ErrForeignState is returned when a state belongs to another machine.
	ErrForeignState = errors.New("state belongs to a different machine")
	// ErrDetachedState is reported when a state is not a descendant of the
	// machine's root, such as a second parentless state.
	ErrDetachedState = errors.New("state is not part of the root's tree")
	// ErrFrozen is returned when the tree is modified after Initialize.
	ErrFrozen = errors.New("state tree is frozen after initialization")
	// ErrRootAlreadySet is returned by a second SetRootState with a different root.
	ErrRootAlreadySet = errors.New("root state already set")
	// ErrNotRoot is returned when a state with a parent is used as the root.
	ErrNotRoot = errors.New("root state must not have a parent")
)

// ErrorReporter receives non-fatal errors from a Machine. Reports are plain
// messages; the machine never stops because of them.
type ErrorReporter interface {
	LogError(message string)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(message string)

func (f ErrorReporterFunc) LogError(message string) { f(message) }

type nopReporter struct{}

func (nopReporter) LogError(string) {}
