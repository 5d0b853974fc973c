package task

import (
	"errors"
	"fmt"
)

// Scheduler errors returned by the public API. Work-unit failures are never
// surfaced this way; they are captured into the failing task's record.
var (
	// ErrSchedulerStopped indicates a submission was made while the
	// scheduler is not running. This is the only rejection reason for an
	// otherwise valid submission; the pending queue is unbounded.
	ErrSchedulerStopped = errors.New("scheduler is not running")

	// ErrTaskNotFound indicates the task id is absent from the registry,
	// either because it never existed or was removed by a retention sweep.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNilWork indicates Submit was called without a work function.
	ErrNilWork = errors.New("work function is nil")

	// ErrDuplicateTaskID indicates a registry insert collided with an
	// existing id. Ids are random UUIDs, so this points at a caller bug
	// rather than an expected runtime condition.
	ErrDuplicateTaskID = errors.New("duplicate task id")

	// ErrTaskNotTerminal indicates an attempt to remove a task that has not
	// reached a terminal state.
	ErrTaskNotTerminal = errors.New("task is not in a terminal state")
)

// panicError wraps a recovered panic value from a work unit so it can be
// recorded in the task's error field without the usual type prefix.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// formatWorkError renders a work-unit failure as "kind: message" for the
// task record. Recovered panics keep their "panic:" prefix.
func formatWorkError(err error) string {
	var pe *panicError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	return fmt.Sprintf("%T: %v", err, err)
}
