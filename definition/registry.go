package definition

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/predicate"
)

var (
	// ErrUnknownBehavior is returned when a state names an unregistered behavior.
	ErrUnknownBehavior = errors.New("unknown behavior")
	// ErrUnknownCondition is returned when a transition names an unregistered condition kind.
	ErrUnknownCondition = errors.New("unknown condition")
	// ErrInvalidArgs is returned when a condition's args do not decode.
	ErrInvalidArgs = errors.New("invalid condition args")
)

// BehaviorFactory creates the behavior for the state named state.
type BehaviorFactory func(state string) hfsm.Behavior

// ConditionContext is what a ConditionFactory may bind to.
type ConditionContext struct {
	From       *hfsm.State
	Blackboard *predicate.Blackboard
}

// ConditionFactory builds a condition from a transition's args. Use
// DecodeArgs to turn args into a typed struct.
type ConditionFactory func(ctx ConditionContext, args map[string]any) (hfsm.Condition, error)

// Registry maps the names used in definitions to code.
type Registry struct {
	behaviors       map[string]BehaviorFactory
	conditions      map[string]ConditionFactory
	defaultBehavior BehaviorFactory
}

// NewRegistry returns a registry holding the built-in condition kinds:
// always, never, after, flag and expr.
func NewRegistry() *Registry {
	r := &Registry{
		behaviors:  make(map[string]BehaviorFactory),
		conditions: make(map[string]ConditionFactory),
	}
	r.RegisterCondition("always", noArgs(predicate.Always))
	r.RegisterCondition("never", noArgs(predicate.Never))
	r.RegisterCondition("after", afterCondition)
	r.RegisterCondition("flag", flagCondition)
	r.RegisterCondition("expr", exprCondition)
	return r
}

// RegisterBehavior binds name to f, replacing any earlier binding.
func (r *Registry) RegisterBehavior(name string, f BehaviorFactory) {
	r.behaviors[name] = f
}

// RegisterCondition binds a condition kind to f, replacing any earlier binding.
func (r *Registry) RegisterCondition(kind string, f ConditionFactory) {
	r.conditions[kind] = f
}

// SetDefaultBehavior sets the factory used for states that name no behavior.
// Without one those states have no behavior.
func (r *Registry) SetDefaultBehavior(f BehaviorFactory) {
	r.defaultBehavior = f
}

func (r *Registry) behavior(name, state string) (hfsm.Behavior, error) {
	if name == "" {
		if r.defaultBehavior == nil {
			return nil, nil
		}
		return r.defaultBehavior(state), nil
	}
	f, ok := r.behaviors[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownBehavior)
	}
	return f(state), nil
}

func (r *Registry) condition(kind string, ctx ConditionContext, args map[string]any) (hfsm.Condition, error) {
	f, ok := r.conditions[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownCondition)
	}
	c, err := f(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return c, nil
}

// DecodeArgs decodes args into out, a pointer to a struct with mapstructure
// tags. Duration strings such as "2s" decode into time.Duration fields and
// unknown keys are errors.
func DecodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

func noArgs(f func() hfsm.Condition) ConditionFactory {
	return func(_ ConditionContext, args map[string]any) (hfsm.Condition, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: takes no args", ErrInvalidArgs)
		}
		return f(), nil
	}
}

type afterArgs struct {
	Duration time.Duration `mapstructure:"duration"`
}

func afterCondition(ctx ConditionContext, args map[string]any) (hfsm.Condition, error) {
	var a afterArgs
	if err := DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidArgs)
	}
	return predicate.After(ctx.From, a.Duration), nil
}

type flagArgs struct {
	Key   string `mapstructure:"key"`
	Value *bool  `mapstructure:"value"`
}

func flagCondition(ctx ConditionContext, args map[string]any) (hfsm.Condition, error) {
	var a flagArgs
	if err := DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidArgs)
	}
	want := true
	if a.Value != nil {
		want = *a.Value
	}
	return predicate.FlagEquals(ctx.Blackboard, a.Key, want), nil
}

type exprArgs struct {
	Expr string `mapstructure:"expr"`
}

func exprCondition(ctx ConditionContext, args map[string]any) (hfsm.Condition, error) {
	var a exprArgs
	if err := DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	return predicate.Expr(ctx.Blackboard, a.Expr)
}
