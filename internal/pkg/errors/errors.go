package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrAuthenticationRequired is returned by writes that refuse to run
	// without an authenticated user on the context.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPromptUnavailable marks a prompt template that could not be
	// loaded from the registry. Callers must not proceed without it.
	ErrPromptUnavailable = errors.New("critical prompt unavailable")
)

// PromptUnavailable wraps ErrPromptUnavailable with the prompt name so the
// failing template is identifiable from the error chain.
func PromptUnavailable(name string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %w", ErrPromptUnavailable, name, cause)
	}
	return fmt.Errorf("%w: %s", ErrPromptUnavailable, name)
}
