package helper

import "fmt"

// NewError wraps an error with the action that failed so callers can
// build a readable chain without repeating boilerplate.
func NewError(action string, err error) error {
	return fmt.Errorf("error %v: %w", action, err)
}
