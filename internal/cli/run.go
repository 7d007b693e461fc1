package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/definition"
	"github.com/comalice/hfsm/observe"
	"github.com/comalice/hfsm/predicate"
	"github.com/comalice/hfsm/realtime"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	File   string
	Config string
	Ticks  int
	Tick   time.Duration
	Sets   []string
	Flags  []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run -f <definition.yaml>",
		Short: "Simulate a definition for a number of ticks",
		Long: `Build a machine from a YAML definition and step it tick by tick,
printing every state change, entry and exit.

Scripted input is scheduled per tick:
  --set Name@tick        request a switch to Name before the tick
  --flag key=value@tick  write value to the blackboard before the tick

Values true/false become booleans, numbers become float64 and anything
else is stored as a string. "@tick" defaults to 0.`,
		Example: `  hfsm run -f enemy.yaml --ticks 200 --flag health=20@150
  hfsm run -f enemy.yaml --tick 100ms --set Flee@3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "definition file (required)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "runner config file (YAML: tick_rate, max_requests_per_tick)")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 10, "number of ticks to simulate")
	cmd.Flags().DurationVar(&opts.Tick, "tick", 0, "fixed tick duration (overrides --config; default 16.667ms)")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "request a state switch: Name@tick (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Flags, "flag", nil, "set a blackboard value: key=value@tick (repeatable)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

type scheduledSet struct {
	tick  int
	state string
}

type scheduledFlag struct {
	tick  int
	key   string
	value any
}

func runRun(rootOpts *RootOptions, opts *RunOptions, cmd *cobra.Command) error {
	if opts.Ticks < 0 {
		return fmt.Errorf("--ticks must not be negative")
	}
	sets, err := parseSets(opts.Sets)
	if err != nil {
		return err
	}
	flags, err := parseFlags(opts.Flags)
	if err != nil {
		return err
	}

	cfg := realtime.Config{}
	if opts.Config != "" {
		if cfg, err = realtime.LoadConfig(opts.Config); err != nil {
			return err
		}
	}
	if opts.Tick > 0 {
		cfg.TickRate = opts.Tick
	}

	def, err := definition.Load(opts.File)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	label := "init"
	tracer := func(state string) hfsm.Behavior {
		return &traceBehavior{name: state, w: out, label: &label}
	}
	reg := definition.NewRegistry()
	reg.SetDefaultBehavior(tracer)
	for _, name := range behaviorNames(def) {
		reg.RegisterBehavior(name, tracer)
	}

	bb := predicate.NewBlackboard()
	m, err := def.Build(reg, bb,
		hfsm.WithLogger(rootOpts.Logger),
		hfsm.WithErrorReporter(observe.NewZerologReporter(rootOpts.Logger)),
	)
	if err != nil {
		return fmt.Errorf("build %s: %w", opts.File, err)
	}
	m.OnStateChanged(func(c hfsm.StateChange) {
		from, to := "-", "-"
		if c.From != nil {
			from = c.From.Path()
		}
		if c.To != nil {
			to = c.To.Path()
		}
		fmt.Fprintf(out, "[%s] change %s -> %s\n", label, from, to)
	})

	rt := realtime.NewRunner(m, cfg, realtime.WithLogger(rootOpts.Logger))
	if err := m.Initialize(); err != nil {
		return fmt.Errorf("initialize %s: %w", opts.File, err)
	}

	for tick := 0; tick < opts.Ticks; tick++ {
		label = strconv.Itoa(tick)
		for _, f := range flags {
			if f.tick == tick {
				bb.Set(f.key, f.value)
				fmt.Fprintf(out, "[%s] flag %s=%v\n", label, f.key, f.value)
			}
		}
		for _, s := range sets {
			if s.tick == tick {
				if err := rt.Request(s.state); err != nil {
					return fmt.Errorf("tick %d: request %s: %w", tick, s.state, err)
				}
			}
		}
		if err := rt.Step(); err != nil {
			return err
		}
	}

	label = "stop"
	final := m.ActiveState().Path()
	if err := m.Stop(); err != nil {
		return err
	}
	fmt.Fprintf(out, "final state %s after %d ticks (%s)\n", final, rt.Ticks(), time.Duration(rt.Ticks())*rt.Config().TickRate)
	return nil
}

// traceBehavior prints entry and exit. Updates are too frequent to trace.
type traceBehavior struct {
	name  string
	w     io.Writer
	label *string
}

func (b *traceBehavior) OnEnter(prev *hfsm.State) {
	fmt.Fprintf(b.w, "[%s] enter %s%s\n", *b.label, b.name, suffix("from", prev))
}

func (b *traceBehavior) OnExit(next *hfsm.State) {
	fmt.Fprintf(b.w, "[%s] exit %s%s\n", *b.label, b.name, suffix("to", next))
}

func (b *traceBehavior) OnUpdate(time.Duration) {}

func suffix(word string, s *hfsm.State) string {
	if s == nil {
		return ""
	}
	return " (" + word + " " + s.Name() + ")"
}

// splitAt splits "value@tick" into value and tick; the tick defaults to 0.
func splitAt(arg string) (string, int, error) {
	idx := strings.LastIndex(arg, "@")
	if idx == -1 {
		return arg, 0, nil
	}
	tick, err := strconv.Atoi(arg[idx+1:])
	if err != nil || tick < 0 {
		return "", 0, fmt.Errorf("invalid tick in %q", arg)
	}
	return arg[:idx], tick, nil
}

func parseSets(args []string) ([]scheduledSet, error) {
	out := make([]scheduledSet, 0, len(args))
	for _, arg := range args {
		name, tick, err := splitAt(arg)
		if err != nil {
			return nil, fmt.Errorf("--set: %w", err)
		}
		if name == "" {
			return nil, fmt.Errorf("--set %q: missing state name", arg)
		}
		out = append(out, scheduledSet{tick: tick, state: name})
	}
	return out, nil
}

func parseFlags(args []string) ([]scheduledFlag, error) {
	out := make([]scheduledFlag, 0, len(args))
	for _, arg := range args {
		assignment, tick, err := splitAt(arg)
		if err != nil {
			return nil, fmt.Errorf("--flag: %w", err)
		}
		key, raw, ok := strings.Cut(assignment, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--flag %q: want key=value[@tick]", arg)
		}
		out = append(out, scheduledFlag{tick: tick, key: key, value: parseValue(raw)})
	}
	return out, nil
}

func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
