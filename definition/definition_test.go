package definition

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/predicate"
)

func TestLoad(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "enemy.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "enemy", def.Name)
	assert.Equal(t, "Root", def.Root.Name)
	assert.Equal(t, 6, def.StateCount())
	require.Len(t, def.Root.States, 3)

	idle := def.Root.States[0]
	assert.Equal(t, "idle", idle.Behavior)
	require.Len(t, idle.Transitions, 2)
	assert.Equal(t, TransitionDef{To: "Move", When: "after", Args: map[string]any{"duration": "2s"}}, idle.Transitions[0])

	flee := def.Root.States[2]
	require.NotNil(t, flee.Enabled)
	assert.False(t, *flee.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "", "empty document"},
		{"unknown field", "root: {name: R, colour: red}", "colour"},
		{"no root name", "root: {states: [{name: A}]}", "has no name"},
		{"dotted name", "root: {name: R, states: [{name: A.B}]}", "must not contain"},
		{"duplicate child", "root: {name: R, states: [{name: A}, {name: A}]}", "two children"},
		{"bad default", "root: {name: R, default: B, states: [{name: A}]}", "not a child"},
		{"missing to", "root: {name: R, transitions: [{when: always}]}", "missing 'to'"},
		{"missing when", "root: {name: R, transitions: [{to: R}]}", "missing 'when'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseValidationErrorsWrapSentinel(t *testing.T) {
	_, err := Parse([]byte("root: {name: R, states: [{name: A}, {name: A}]}"))
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestBuildEnemy(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "enemy.yaml"))
	require.NoError(t, err)

	var entered []string
	reg := NewRegistry()
	reg.RegisterBehavior("idle", func(state string) hfsm.Behavior {
		return hfsm.BehaviorFuncs{Enter: func(*hfsm.State) { entered = append(entered, state) }}
	})
	bb := predicate.NewBlackboard()
	bb.Set("health", 100)

	m, err := def.Build(reg, bb)
	require.NoError(t, err)
	assert.Equal(t, "enemy", m.Name())
	require.NoError(t, m.Initialize())

	assert.Equal(t, "Idle", m.ActiveState().Name())
	assert.Equal(t, []string{"Idle"}, entered)

	flee, ok := m.StateByName("Flee")
	require.True(t, ok)
	assert.False(t, flee.Enabled())

	// Low health matches, but Flee is disabled.
	bb.Set("health", 10)
	m.Update(time.Second)
	assert.Equal(t, "Idle", m.ActiveState().Name())

	// after: 2s resolves through Move's explicit default.
	m.Update(time.Second)
	m.Update(time.Second)
	assert.Equal(t, "Run", m.ActiveState().Name())

	bb.Set("tired", true)
	m.Update(time.Second)
	assert.Equal(t, "Idle", m.ActiveState().Name())
}

func TestBuildWithDefaultBehavior(t *testing.T) {
	def, err := Parse([]byte(`
root:
  name: Root
  states:
    - name: A
    - name: B
      behavior: custom
`))
	require.NoError(t, err)

	var made []string
	reg := NewRegistry()
	reg.SetDefaultBehavior(func(state string) hfsm.Behavior {
		made = append(made, "default:"+state)
		return nil
	})
	reg.RegisterBehavior("custom", func(state string) hfsm.Behavior {
		made = append(made, "custom:"+state)
		return nil
	})

	_, err = def.Build(reg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"default:Root", "default:A", "custom:B"}, made)
}

func TestBuildOptionsOverrideName(t *testing.T) {
	def, err := Parse([]byte("name: fromfile\nroot: {name: R}"))
	require.NoError(t, err)

	m, err := def.Build(nil, nil, hfsm.WithName("explicit"))
	require.NoError(t, err)
	assert.Equal(t, "explicit", m.Name())
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		target error
	}{
		{"unknown behavior", "root: {name: R, behavior: nope}", ErrUnknownBehavior},
		{"unknown condition", "root: {name: R, states: [{name: A, transitions: [{to: A, when: sometimes}]}]}", ErrUnknownCondition},
		{"unused arg", "root: {name: R, states: [{name: A, transitions: [{to: A, when: after, args: {duration: 1s, jitter: 2}}]}]}", ErrInvalidArgs},
		{"args on always", "root: {name: R, states: [{name: A, transitions: [{to: A, when: always, args: {x: 1}}]}]}", ErrInvalidArgs},
		{"zero duration", "root: {name: R, states: [{name: A, transitions: [{to: A, when: after}]}]}", ErrInvalidArgs},
		{"flag without key", "root: {name: R, states: [{name: A, transitions: [{to: A, when: flag}]}]}", ErrInvalidArgs},
		{"bad expr", "root: {name: R, states: [{name: A, transitions: [{to: A, when: expr, args: {expr: \"x ~ 1\"}}]}]}", predicate.ErrInvalidExpression},
		{"unknown target", "root: {name: R, states: [{name: A, transitions: [{to: Z, when: always}]}]}", hfsm.ErrStateNotFound},
		{"duplicate name", "root: {name: R, states: [{name: A, states: [{name: X}]}, {name: B, states: [{name: X}]}]}", hfsm.ErrDuplicateState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = def.Build(NewRegistry(), nil)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestFlagValueFalse(t *testing.T) {
	def, err := Parse([]byte(`
root:
  name: R
  states:
    - name: Calm
      transitions:
        - {to: Alert, when: flag, args: {key: safe, value: false}}
    - name: Alert
`))
	require.NoError(t, err)

	bb := predicate.NewBlackboard()
	m, err := def.Build(nil, bb)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())

	m.Update(time.Millisecond)
	assert.Equal(t, "Calm", m.ActiveState().Name(), "missing key never matches")

	bb.Set("safe", false)
	m.Update(time.Millisecond)
	assert.Equal(t, "Alert", m.ActiveState().Name())
}

func TestCustomCondition(t *testing.T) {
	def, err := Parse([]byte(`
root:
  name: R
  states:
    - name: A
      transitions:
        - {to: B, when: ticks, args: {count: 3}}
    - name: B
`))
	require.NoError(t, err)

	reg := NewRegistry()
	reg.RegisterCondition("ticks", func(ctx ConditionContext, args map[string]any) (hfsm.Condition, error) {
		var a struct {
			Count int `mapstructure:"count"`
		}
		if err := DecodeArgs(args, &a); err != nil {
			return nil, err
		}
		n := 0
		return hfsm.ConditionFunc(func() bool {
			n++
			return n >= a.Count
		}), nil
	})

	m, err := def.Build(reg, nil)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())

	var trail []string
	for range 3 {
		m.Update(time.Millisecond)
		trail = append(trail, m.ActiveState().Name())
	}
	assert.Equal(t, "A,A,B", strings.Join(trail, ","))
}
