package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for input of the wrong shape or range
	ErrValidation = errors.New("validation error")

	// ErrNotFound is wrapped by every per-entity not-found error
	ErrNotFound = errors.New("not found")

	ErrClientNotFound  = fmt.Errorf("client %w", ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrInvoiceNotFound = fmt.Errorf("invoice %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)

	// ErrInvalidOperation is returned for valid input that is illegal in the current state
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrDuplicate is returned when a unique value already exists
	ErrDuplicate = errors.New("duplicate")

	ErrDuplicateTransaction = fmt.Errorf("%w transaction id", ErrDuplicate)

	// ErrPersistence wraps failures of the underlying store
	ErrPersistence = errors.New("persistence error")
)

// Invalid wraps ErrValidation with a formatted message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// InvalidErr wraps ErrValidation around err, keeping err in the chain.
func InvalidErr(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// NotAllowed wraps ErrInvalidOperation with a formatted message.
func NotAllowed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
