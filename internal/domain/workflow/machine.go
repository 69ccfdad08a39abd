package workflow

import (
	"context"
	"fmt"
)

// GuardFunc is a function that evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachine tracks the current lifecycle state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}

// transition represents a state transition with optional guard
type transition struct {
	toState State
	guard   GuardFunc
}

type stateMachine struct {
	currentState State
	transitions  map[State]map[Trigger][]transition
}

// Builder configures transitions before a machine is built
type Builder struct {
	transitions map[State]map[Trigger][]transition
}

// NewBuilder creates a new state machine builder
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger][]transition)}
}

// Permit allows a trigger to transition from one state to another
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	return b.PermitIf(from, trigger, to, nil)
}

// PermitIf allows a trigger to transition if the guard condition passes
func (b *Builder) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}

	byTrigger, ok := b.transitions[from]
	if !ok {
		byTrigger = make(map[Trigger][]transition)
		b.transitions[from] = byTrigger
	}
	byTrigger[trigger] = append(byTrigger[trigger], transition{toState: to, guard: guard})
	return b
}

// Build creates a new state machine instance with the given initial state
func (b *Builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Copy configuration so later builder use cannot mutate a built machine
	transitionsCopy := make(map[State]map[Trigger][]transition, len(b.transitions))
	for state, byTrigger := range b.transitions {
		copied := make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[trigger] = append([]transition{}, ts...)
		}
		transitionsCopy[state] = copied
	}

	return &stateMachine{
		currentState: initialState,
		transitions:  transitionsCopy,
	}
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// CanFire returns true if the trigger is permitted in the current state
func (m *stateMachine) CanFire(trigger Trigger) bool {
	byTrigger, ok := m.transitions[m.currentState]
	if !ok {
		return false
	}
	return len(byTrigger[trigger]) > 0
}

// Fire attempts to execute the trigger, transitioning to the new state if allowed
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	byTrigger, ok := m.transitions[m.currentState]
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}

	ts := byTrigger[trigger]
	if len(ts) == 0 {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}

	// Try each transition in order until one succeeds
	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.currentState)
}

// PermittedTriggers returns all triggers that can be fired in the current state
func (m *stateMachine) PermittedTriggers() []Trigger {
	byTrigger, ok := m.transitions[m.currentState]
	if !ok {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(byTrigger))
	for trigger := range byTrigger {
		triggers = append(triggers, trigger)
	}
	return triggers
}
