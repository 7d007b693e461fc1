package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition wraps every structural problem found by Validate.
var ErrInvalidDefinition = errors.New("invalid definition")

// Definition is the YAML document describing one machine.
type Definition struct {
	Name string   `yaml:"name,omitempty"`
	Root StateDef `yaml:"root"`
}

// StateDef describes one state and, recursively, its children.
type StateDef struct {
	Name          string          `yaml:"name"`
	Behavior      string          `yaml:"behavior,omitempty"`
	Default       string          `yaml:"default,omitempty"`
	Enabled       *bool           `yaml:"enabled,omitempty"`
	CanTransition *bool           `yaml:"can_transition,omitempty"`
	Transitions   []TransitionDef `yaml:"transitions,omitempty"`
	States        []StateDef      `yaml:"states,omitempty"`
}

// TransitionDef describes one outgoing transition. To is a dot path below the
// root ("Move.Run") or a unique state name. When names a condition kind and
// Args holds that kind's parameters.
type TransitionDef struct {
	To   string         `yaml:"to"`
	When string         `yaml:"when"`
	Args map[string]any `yaml:"args,omitempty"`
}

// Parse decodes and validates a definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one YAML document from r.
func Decode(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses the definition file at path.
func Load(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition: %w", err)
	}
	defer f.Close()

	def, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks names, default references and transition fields. Target
// resolution happens in Build, since targets may be plain state names.
func (d *Definition) Validate() error {
	return validateState(&d.Root, "")
}

func validateState(s *StateDef, parentPath string) error {
	path := joinPath(parentPath, s.Name)
	switch {
	case s.Name == "":
		return fmt.Errorf("state under %q has no name: %w", parentPath, ErrInvalidDefinition)
	case strings.Contains(s.Name, "."):
		return fmt.Errorf("state %q: name must not contain '.': %w", path, ErrInvalidDefinition)
	}

	seen := make(map[string]bool, len(s.States))
	for i := range s.States {
		child := &s.States[i]
		if seen[child.Name] {
			return fmt.Errorf("state %q has two children named %q: %w", path, child.Name, ErrInvalidDefinition)
		}
		seen[child.Name] = true
	}
	if s.Default != "" && !seen[s.Default] {
		return fmt.Errorf("state %q: default %q is not a child: %w", path, s.Default, ErrInvalidDefinition)
	}

	for i, t := range s.Transitions {
		if t.To == "" {
			return fmt.Errorf("state %q transition %d: missing 'to': %w", path, i, ErrInvalidDefinition)
		}
		if t.When == "" {
			return fmt.Errorf("state %q transition %d: missing 'when': %w", path, i, ErrInvalidDefinition)
		}
	}

	for i := range s.States {
		if err := validateState(&s.States[i], path); err != nil {
			return err
		}
	}
	return nil
}

// StateCount returns the number of states in the definition, root included.
func (d *Definition) StateCount() int {
	return countStates(&d.Root)
}

func countStates(s *StateDef) int {
	n := 1
	for i := range s.States {
		n += countStates(&s.States[i])
	}
	return n
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
