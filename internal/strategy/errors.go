// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import "fmt"

// GenerationError reports a completion failure or an empty answer. The
// pipeline turns it into an apology result.
type GenerationError struct {
	Strategy string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation: %v", e.Strategy, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
