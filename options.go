package hfsm

import "github.com/rs/zerolog"

// Option applies configuration to Machine via functional options pattern.
type Option func(*Machine)

// WithLogger sets the structured logger. Switches are logged at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithErrorReporter sets the collaborator that receives non-fatal errors
// such as duplicate identifiers and failed lookups. The default drops them.
func WithErrorReporter(r ErrorReporter) Option {
	return func(m *Machine) {
		if r == nil {
			r = nopReporter{}
		}
		m.reporter = r
	}
}

// WithName labels the machine in logs and metrics.
func WithName(name string) Option {
	return func(m *Machine) {
		m.name = name
	}
}
