package workflow

import (
	"context"
	"fmt"
	"slices"
)

// GuardFunc is a function that evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder[S State, T Trigger] interface {
	// Configure returns a state configuration for the given state
	Configure(state S) StateConfiguration[S, T]

	// Build creates a new state machine instance with the given initial state
	Build(initialState S) (StateMachine[S, T], error)
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration[S State, T Trigger] interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger T, toState S) StateConfiguration[S, T]

	// PermitIf allows a trigger to transition to the target state if the guard condition passes
	PermitIf(trigger T, toState S, guard GuardFunc) StateConfiguration[S, T]
}

type transition[S State] struct {
	toState S
	guard   GuardFunc
}

type stateConfig[S State, T Trigger] struct {
	transitions map[T][]transition[S]
}

type stateMachineBuilder[S State, T Trigger] struct {
	configurations map[S]*stateConfig[S, T]
}

type stateMachine[S State, T Trigger] struct {
	currentState   S
	configurations map[S]*stateConfig[S, T]
}

// NewBuilder creates a new state machine builder
func NewBuilder[S State, T Trigger]() StateMachineBuilder[S, T] {
	return &stateMachineBuilder[S, T]{
		configurations: make(map[S]*stateConfig[S, T]),
	}
}

// Configure returns a state configuration for the given state.
// Configuring a terminal or unknown state is a programming error and panics.
func (b *stateMachineBuilder[S, T]) Configure(state S) StateConfiguration[S, T] {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if state.IsTerminal() {
		panic(fmt.Sprintf("terminal state cannot have transitions: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig[S, T]{
			transitions: make(map[T][]transition[S]),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial state
func (b *stateMachineBuilder[S, T]) Build(initialState S) (StateMachine[S, T], error) {
	if !initialState.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initialState)
	}

	// Machines never share transition slices with the builder
	configsCopy := make(map[S]*stateConfig[S, T], len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[T][]transition[S], len(config.transitions))
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition[S]{}, transitions...)
		}
		configsCopy[state] = &stateConfig[S, T]{transitions: transitionsCopy}
	}

	return &stateMachine[S, T]{
		currentState:   initialState,
		configurations: configsCopy,
	}, nil
}

// Permit allows a trigger to transition to the target state
func (c *stateConfig[S, T]) Permit(trigger T, toState S) StateConfiguration[S, T] {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf allows a trigger to transition to the target state if the guard condition passes
func (c *stateConfig[S, T]) PermitIf(trigger T, toState S, guard GuardFunc) StateConfiguration[S, T] {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition[S]{
		toState: toState,
		guard:   guard,
	})

	return c
}

func (m *stateMachine[S, T]) State() S {
	return m.currentState
}

// CanFire reports whether any transition exists for the trigger. Guards are not evaluated.
func (m *stateMachine[S, T]) CanFire(trigger T) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

func (m *stateMachine[S, T]) Fire(ctx context.Context, trigger T) error {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}

	// First transition whose guard passes wins
	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.currentState)
}

func (m *stateMachine[S, T]) PermittedTriggers() []T {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []T{}
	}

	triggers := make([]T, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	slices.Sort(triggers)

	return triggers
}
