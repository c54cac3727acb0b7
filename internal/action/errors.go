// internal/action/errors.go
package action

import (
	"errors"
	"fmt"
)

// ErrStale marks a failure caused by an element reference that no longer points
// into the live document, typically after a re-render or navigation. Drivers wrap
// it so the template can recover from it.
var ErrStale = errors.New("element reference is stale")

// ErrInvisible marks a failure caused by an element that exists but cannot be
// interacted with because it is not visible.
var ErrInvisible = errors.New("element is not visible")

// Kind is the classification of an operation outcome.
type Kind int

const (
	// KindNone means the operation succeeded.
	KindNone Kind = iota
	// KindStale is a transient failure, recoverable exactly once.
	KindStale
	// KindInvisible is terminal and reported as an *InvisibleError.
	KindInvisible
	// KindOther is any other terminal failure, reported unchanged.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStale:
		return "stale"
	case KindInvisible:
		return "invisible"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Classify maps an operation error onto a Kind. Errors that already are terminal
// template failures (from a nested template) are classified as KindOther so they
// pass through unchanged instead of being recovered or wrapped a second time.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var recoveryErr *StaleRecoveryError
	var invisibleErr *InvisibleError
	switch {
	case errors.As(err, &recoveryErr), errors.As(err, &invisibleErr):
		return KindOther
	case errors.Is(err, ErrStale):
		return KindStale
	case errors.Is(err, ErrInvisible):
		return KindInvisible
	default:
		return KindOther
	}
}

// InvisibleError reports an action that failed because its target was not visible.
type InvisibleError struct {
	Target string
	Err    error
}

// NewInvisibleError wraps cause for the given target.
func NewInvisibleError(target Target, cause error) *InvisibleError {
	return &InvisibleError{Target: identityOf(target), Err: cause}
}

func (e *InvisibleError) Error() string {
	return fmt.Sprintf("page object '%s' is invisible: %v", e.Target, e.Err)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *InvisibleError) Unwrap() error { return e.Err }

// StaleRecoveryError reports that an operation failed again after its target
// was re-resolved following a stale element failure.
type StaleRecoveryError struct {
	Target string
	Err    error
}

// NewStaleRecoveryError wraps cause, the failure of the recovery attempt.
func NewStaleRecoveryError(target Target, cause error) *StaleRecoveryError {
	return &StaleRecoveryError{Target: identityOf(target), Err: cause}
}

func (e *StaleRecoveryError) Error() string {
	return fmt.Sprintf("failed to recover from stale element '%s': %v", e.Target, e.Err)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *StaleRecoveryError) Unwrap() error { return e.Err }

func identityOf(t Target) string {
	if t == nil {
		return ""
	}
	return t.Identity()
}
