package ai

import (
	"errors"
	"fmt"
)

// ErrModel is the uniform "AI invocation failed" error. Every failure kind
// below wraps it, so orchestrators can match the whole family with
// errors.Is(err, ai.ErrModel) and route to their fallback policy, while
// still distinguishing kinds when the policy cares.
var ErrModel = errors.New("model invocation failed")

var (
	// ErrModelTimeout covers deadline expiry and caller cancellation.
	ErrModelTimeout = fmt.Errorf("%w: deadline exceeded", ErrModel)
	// ErrModelUnavailable covers transport and provider errors.
	ErrModelUnavailable = fmt.Errorf("%w: provider unavailable", ErrModel)
	// ErrModelRefused covers empty output and explicit refusals.
	ErrModelRefused = fmt.Errorf("%w: model declined to answer", ErrModel)
	// ErrModelInvalid covers undecodable output and schema violations.
	// Non-conforming responses are rejected, never coerced.
	ErrModelInvalid = fmt.Errorf("%w: non-conforming response", ErrModel)
)
