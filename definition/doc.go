// Package definition loads state machine trees from YAML.
//
// A definition names the root state and nests children under "states".
// Behaviors and transition conditions are referenced by name and resolved
// through a Registry, so the YAML stays declarative while the host program
// supplies the code:
//
//	def, err := definition.Load("enemy.yaml")
//	reg := definition.NewRegistry()
//	reg.RegisterBehavior("patrol", func(state string) hfsm.Behavior { ... })
//	m, err := def.Build(reg, bb)
//	err = m.Initialize()
package definition
