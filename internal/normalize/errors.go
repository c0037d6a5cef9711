// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "errors"

// Sentinel errors for input that cannot be normalized.
var (
	ErrEmptyInput   = errors.New("question is empty")
	ErrInvalidInput = errors.New("question is not valid UTF-8 text")
	ErrTooLong      = errors.New("question exceeds maximum length")
	ErrUnknownHint  = errors.New("unknown domain or region hint")
)
