// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"errors"
	"fmt"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// Sentinel errors for retrieval.
var (
	ErrInvalidLimit     = errors.New("max results must be positive")
	ErrNoIndex          = errors.New("no vector index configured")
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrWebUnavailable   = errors.New("web search unavailable")
)

// Stage names a cascade stage.
type Stage string

const (
	StagePrimary Stage = "primary"
	StageRelated Stage = "related"
	StageWeb     Stage = "web"
)

// RetrievalError records a capability failure in one cascade stage. The
// cascade continues past it.
type RetrievalError struct {
	Stage  Stage
	Domain types.Domain
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Domain != "" {
		return fmt.Sprintf("retrieval %s stage (%s): %v", e.Stage, e.Domain, e.Err)
	}
	return fmt.Sprintf("retrieval %s stage: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
