package workflow

import (
	"errors"
	"fmt"

	"github.com/kazz187/taskforge/internal/agent"
	"github.com/kazz187/taskforge/pkg/cerr"
)

var (
	ErrInvalidTransition        = errors.New("invalid transition")
	ErrAttemptCeilingExceeded   = errors.New("attempt ceiling exceeded")
	ErrExternalInvocationFailed = errors.New("external invocation failed")
	ErrConflict                 = errors.New("concurrent modification")

	ErrNoEligibleAgent = agent.ErrNoEligibleAgent
	ErrHasActiveWork   = agent.ErrHasActiveWork
)

// Error kinds carried as the rule id of the first error detail.
const (
	KindNotFound                 = "NOT_FOUND"
	KindInvalidTransition        = "INVALID_TRANSITION"
	KindAttemptCeilingExceeded   = "ATTEMPT_CEILING_EXCEEDED"
	KindNoEligibleAgent          = "NO_ELIGIBLE_AGENT"
	KindExternalInvocationFailed = "EXTERNAL_INVOCATION_FAILED"
	KindConflict                 = "CONFLICT"
	KindHasActiveWork            = "HAS_ACTIVE_WORK"
)

func invalidTransition(msg string) error {
	return cerr.NewKindError(cerr.FailedPrecondition, KindInvalidTransition, msg, ErrInvalidTransition)
}

func attemptCeilingExceeded(msg string) error {
	return cerr.NewKindError(cerr.ResourceExhausted, KindAttemptCeilingExceeded, msg, ErrAttemptCeilingExceeded)
}

func conflict(msg string, underlying error) error {
	if underlying == nil {
		underlying = ErrConflict
	} else {
		underlying = fmt.Errorf("%w: %w", ErrConflict, underlying)
	}
	return cerr.NewKindError(cerr.Aborted, KindConflict, msg, underlying)
}

// asConflict turns a failed version check from a repository into a Conflict.
func asConflict(err error, msg string) error {
	if cerr.IsCode(err, cerr.Aborted) {
		return conflict(msg, err)
	}
	return err
}
