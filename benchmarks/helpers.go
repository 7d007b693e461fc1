// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/definition"
)

// Flip is a condition toggled by the benchmark loop.
type Flip struct{ On bool }

func (f *Flip) Evaluate() bool { return f.On }

// GenFlat creates a machine whose root has n leaves s0..s(n-1). Each leaf
// moves to the next one while flip holds.
func GenFlat(n int, flip *Flip) *hfsm.Machine {
	if n < 1 {
		n = 1
	}
	b := hfsm.NewBuilder("root")
	for i := 0; i < n; i++ {
		b.State(fmt.Sprintf("s%d", i), nil).On(fmt.Sprintf("s%d", (i+1)%n), flip)
	}
	return mustBuild(b)
}

// GenDeep creates a chain of depth compound states c0.c1... with two leaves
// at the bottom that flip between each other while flip holds.
func GenDeep(depth int, flip *Flip) *hfsm.Machine {
	if depth < 1 {
		depth = 1
	}
	b := hfsm.NewBuilder("root")
	path := ""
	for i := 0; i < depth; i++ {
		if path != "" {
			path += "."
		}
		path += fmt.Sprintf("c%d", i)
	}
	b.State(path+".leaf1", nil).On("leaf2", flip)
	b.State(path+".leaf2", nil).On("leaf1", flip)
	return mustBuild(b)
}

// GenWideTransitions creates one main state with n outgoing transitions of
// which only the last one holds, so every check scans the whole list.
func GenWideTransitions(n int) *hfsm.Machine {
	if n < 1 {
		n = 1
	}
	b := hfsm.NewBuilder("root")
	main := b.State("main", nil)
	for i := 0; i < n; i++ {
		target := fmt.Sprintf("target%d", i)
		last := i == n-1
		main.OnFunc(target, func() bool { return last })
		b.State(target, nil).OnFunc("main", func() bool { return true })
	}
	return mustBuild(b)
}

// GenDefinitionYAML renders a definition with n leaves under one compound
// state, every leaf flagged toward the next.
func GenDefinitionYAML(n int) []byte {
	group := definition.StateDef{Name: "group"}
	for i := 0; i < n; i++ {
		group.States = append(group.States, definition.StateDef{
			Name: fmt.Sprintf("s%d", i),
			Transitions: []definition.TransitionDef{{
				To:   fmt.Sprintf("s%d", (i+1)%n),
				When: "flag",
				Args: map[string]any{"key": fmt.Sprintf("go%d", i)},
			}},
		})
	}
	def := definition.Definition{
		Name: fmt.Sprintf("generated_%d", n),
		Root: definition.StateDef{Name: "root", States: []definition.StateDef{group}},
	}
	data, err := yaml.Marshal(def)
	if err != nil {
		panic(err)
	}
	return data
}

func mustBuild(b *hfsm.Builder) *hfsm.Machine {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	if err := m.Initialize(); err != nil {
		panic(err)
	}
	return m
}
