package workflow

import "context"

// StateMachine tracks the current stage and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured for the current state (guards not evaluated)
	CanFire(trigger Trigger) bool

	// Evaluate runs the guards for the trigger without transitioning.
	// Returns nil when Fire would succeed.
	Evaluate(ctx context.Context, trigger Trigger) error

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}
