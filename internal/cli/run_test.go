package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTrace(t *testing.T) {
	out, _, err := execute(t, "run", "-f", "testdata/guard.yaml",
		"--ticks", "6", "--tick", "20ms",
		"--flag", "noise=true@1", "--flag", "noise=false@2")
	require.NoError(t, err)

	want := strings.Join([]string{
		"[init] change - -> Root.Patrol",
		"[init] enter Patrol",
		"[init] enter Root",
		"[1] flag noise=true",
		"[1] change Root.Patrol -> Root.Alert.Search",
		"[1] exit Patrol (to Alert)",
		"[1] enter Alert (from Patrol)",
		"[1] enter Search",
		"[2] flag noise=false",
		"[5] change Root.Alert.Search -> Root.Patrol",
		"[5] exit Search (to Patrol)",
		"[5] exit Alert (to Patrol)",
		"[5] enter Patrol (from Alert)",
		"[stop] exit Patrol",
		"[stop] exit Root",
		"[stop] change Root.Patrol -> -",
		"final state Root.Patrol after 6 ticks (120ms)",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRunScriptedSet(t *testing.T) {
	out, _, err := execute(t, "run", "-f", "testdata/guard.yaml",
		"--ticks", "3", "--set", "Chase@1")
	require.NoError(t, err)

	assert.Contains(t, out, "[1] change Root.Patrol -> Root.Alert.Chase\n")
	assert.Contains(t, out, "[1] enter Chase\n")
	assert.Contains(t, out, "final state Root.Alert.Chase after 3 ticks")
}

func TestRunConfigFile(t *testing.T) {
	out, _, err := execute(t, "run", "-f", "testdata/guard.yaml", "--ticks", "2", "--config", "testdata/runner.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "after 2 ticks (50ms)")

	out, _, err = execute(t, "run", "-f", "testdata/guard.yaml", "--ticks", "2", "--config", "testdata/runner.yaml", "--tick", "1s")
	require.NoError(t, err)
	assert.Contains(t, out, "after 2 ticks (2s)")
}

func TestRunUnknownStateIsLogged(t *testing.T) {
	out, errOut, err := execute(t, "run", "-f", "testdata/guard.yaml", "--ticks", "1", "--set", "Sleep")
	require.NoError(t, err)
	assert.Contains(t, errOut, "state not found")
	assert.Contains(t, out, "final state Root.Patrol")
}

func TestRunJSONLogFormat(t *testing.T) {
	_, errOut, err := execute(t, "--log-format", "json", "run", "-f", "testdata/guard.yaml", "--ticks", "1", "--set", "Sleep")
	require.NoError(t, err)

	line, _, _ := strings.Cut(errOut, "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Contains(t, entry["err"], "state not found")
}

func TestRunBadScript(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad tick", []string{"--set", "Chase@soon"}, "invalid tick"},
		{"missing name", []string{"--set", "@3"}, "missing state name"},
		{"bad flag", []string{"--flag", "noise"}, "want key=value"},
		{"negative ticks", []string{"--ticks", "-1"}, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"run", "-f", "testdata/guard.yaml"}, tt.args...)
			_, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("false"))
	assert.Equal(t, 12.5, parseValue("12.5"))
	assert.Equal(t, "patrol", parseValue("patrol"))
}
