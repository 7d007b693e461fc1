package predicate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hfsm"
)

type counting struct {
	result bool
	calls  int
}

func (c *counting) Evaluate() bool {
	c.calls++
	return c.result
}

func TestConstants(t *testing.T) {
	assert.True(t, Always().Evaluate())
	assert.False(t, Never().Evaluate())
}

func TestFlag(t *testing.T) {
	bb := NewBlackboard()
	seen := Flag(bb, "seen")
	notSeen := FlagEquals(bb, "seen", false)

	assert.False(t, seen.Evaluate(), "missing key")
	assert.False(t, notSeen.Evaluate(), "missing key never matches")

	bb.Set("seen", true)
	assert.True(t, seen.Evaluate())
	assert.False(t, notSeen.Evaluate())

	bb.Set("seen", false)
	assert.False(t, seen.Evaluate())
	assert.True(t, notSeen.Evaluate())

	bb.Set("seen", "yes")
	assert.False(t, seen.Evaluate(), "non-bool value")
}

func TestCombinators(t *testing.T) {
	yes, no := &counting{result: true}, &counting{result: false}

	assert.True(t, Not(no).Evaluate())
	assert.False(t, Not(yes).Evaluate())

	assert.False(t, All(no, yes).Evaluate())
	assert.Equal(t, 0, yes.calls, "All short-circuits")
	assert.True(t, All(yes, yes).Evaluate())
	assert.True(t, All().Evaluate())

	yes.calls = 0
	assert.True(t, Any(yes, no).Evaluate())
	assert.Equal(t, 2, no.calls, "Any short-circuits after a match")
	assert.False(t, Any(no).Evaluate())
	assert.False(t, Any().Evaluate())
}

func TestAfter(t *testing.T) {
	b := hfsm.NewBuilder("Root")
	wait := b.State("Wait", nil)
	wait.On("Done", After(wait.State(), 30*time.Millisecond))
	b.State("Done", nil)
	m, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, m.Initialize())

	for i := 0; i < 3; i++ {
		m.Update(10 * time.Millisecond)
		require.Equal(t, "Wait", m.ActiveState().Name(), "tick %d", i)
	}
	m.Update(10 * time.Millisecond)
	assert.Equal(t, "Done", m.ActiveState().Name())
}
