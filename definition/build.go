package definition

import (
	"fmt"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/predicate"
)

// Build constructs the machine described by d. Behaviors and conditions are
// resolved through reg; blackboard conditions read bb, which is created when
// nil. Options are passed to the machine; the definition's name is applied
// first so an explicit WithName wins. The machine is returned uninitialized.
func (d *Definition) Build(reg *Registry, bb *predicate.Blackboard, opts ...hfsm.Option) (*hfsm.Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if bb == nil {
		bb = predicate.NewBlackboard()
	}
	if d.Name != "" {
		opts = append([]hfsm.Option{hfsm.WithName(d.Name)}, opts...)
	}

	b := hfsm.NewBuilder(d.Root.Name, opts...)
	if err := declare(b, reg, bb, &d.Root, "", ""); err != nil {
		return nil, err
	}
	return b.Build()
}

// declare adds s at builder path and recurses into its children. display is
// the root-qualified path used in errors.
func declare(b *hfsm.Builder, reg *Registry, bb *predicate.Blackboard, s *StateDef, path, display string) error {
	display = joinPath(display, s.Name)

	behavior, err := reg.behavior(s.Behavior, s.Name)
	if err != nil {
		return fmt.Errorf("state %s: %w", display, err)
	}
	sb := b.State(path, behavior)
	if sb.State() == nil {
		// The builder has failed; Build reports why.
		return nil
	}
	if s.Enabled != nil {
		sb.Enabled(*s.Enabled)
	}
	if s.CanTransition != nil {
		sb.CanTransition(*s.CanTransition)
	}

	ctx := ConditionContext{From: sb.State(), Blackboard: bb}
	for i, t := range s.Transitions {
		cond, err := reg.condition(t.When, ctx, t.Args)
		if err != nil {
			return fmt.Errorf("state %s transition %d: %w", display, i, err)
		}
		sb.On(t.To, cond)
	}

	for i := range s.States {
		child := &s.States[i]
		if err := declare(b, reg, bb, child, joinPath(path, child.Name), display); err != nil {
			return err
		}
	}
	if s.Default != "" {
		b.State(joinPath(path, s.Default), nil).Default()
	}
	return nil
}
