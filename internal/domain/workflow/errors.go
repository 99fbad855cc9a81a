package workflow

import "errors"

var (
	// ErrInvalidTransition means the trigger is not permitted from the current state
	ErrInvalidTransition = errors.New("transition not permitted")

	// ErrInvalidState means a machine was built from an unknown state
	ErrInvalidState = errors.New("unknown state")

	// ErrGuardFailed means every transition for the trigger was vetoed by its guard
	ErrGuardFailed = errors.New("transition guard rejected")
)
