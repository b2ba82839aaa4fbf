package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoRoots is returned when no active mixins were given and the schema
	// declares no root mixins to choose from.
	ErrNoRoots = errors.New("prompt: schema has no root mixins")
)
