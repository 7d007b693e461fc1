package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/definition"
	"github.com/comalice/hfsm/observe"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate -f <definition.yaml>",
		Short: "Check that a definition builds and initializes",
		Long: `Load a YAML definition, build the machine with the built-in condition
kinds and initialize it. Prints the number of states and the initial leaf.

Definitions that name behaviors are validated with empty stand-ins, since
behaviors are supplied by the host program.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, file, cmd)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "definition file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runValidate(opts *RootOptions, file string, cmd *cobra.Command) error {
	def, err := definition.Load(file)
	if err != nil {
		return err
	}

	m, err := def.Build(standInRegistry(def), nil,
		hfsm.WithLogger(opts.Logger),
		hfsm.WithErrorReporter(observe.NewZerologReporter(opts.Logger)),
	)
	if err != nil {
		return fmt.Errorf("build %s: %w", file, err)
	}
	if err := m.Initialize(); err != nil {
		return fmt.Errorf("initialize %s: %w", file, err)
	}

	name := def.Name
	if name == "" {
		name = file
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d states, initial state %s\n", name, len(m.AllStates()), m.ActiveState().Path())
	return nil
}

// standInRegistry registers a no-op behavior for every behavior name used in
// def so the tree can be built without the host program.
func standInRegistry(def *definition.Definition) *definition.Registry {
	reg := definition.NewRegistry()
	for _, name := range behaviorNames(def) {
		reg.RegisterBehavior(name, func(string) hfsm.Behavior { return nil })
	}
	return reg
}

func behaviorNames(def *definition.Definition) []string {
	var names []string
	var walk func(s *definition.StateDef)
	walk = func(s *definition.StateDef) {
		if s.Behavior != "" {
			names = append(names, s.Behavior)
		}
		for i := range s.States {
			walk(&s.States[i])
		}
	}
	walk(&def.Root)
	return names
}
