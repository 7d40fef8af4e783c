package pipeline

import (
	"errors"
	"fmt"
)

// Conditions that invalidate an entire batch. Item- and vote-level
// failures are recovered locally and never surface here.
var (
	ErrInvalidConfig         = errors.New("pipeline: invalid configuration")
	ErrNoItems               = errors.New("pipeline: no work items submitted")
	ErrNoStrategy            = errors.New("pipeline: no processing strategy registered")
	ErrNoValidators          = errors.New("pipeline: no validators registered")
	ErrDuplicateItemID       = errors.New("pipeline: duplicate work item id")
	ErrValidatorsUnavailable = errors.New("pipeline: all validators unavailable")
)

// RunError is the typed failure a caller receives when a run ends in the
// Failed state. It records which state the run was in when the batch
// became meaningless.
type RunError struct {
	State State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed in state %s: %v", e.State, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
