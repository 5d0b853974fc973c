package task

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a task.
type Status string

// Possible task status values. Transitions are monotone:
// pending → running → {completed, failed}, with pending → cancelled as the
// only other edge. No transition leaves a terminal state.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Priority tags a task's urgency. It is recorded and reported but advisory:
// the pending queue is strictly FIFO regardless of priority.
type Priority int

// Priority levels, ascending.
const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 5
	PriorityHigh   Priority = 10
	PriorityUrgent Priority = 20
)

// WorkFunc is a caller-supplied unit of background work. It receives the
// worker pool's context, cancelled when the scheduler stops, and a Progress
// handle bound to the executing task's id. The returned value becomes the
// task's result; a non-nil error or a panic marks the task failed.
type WorkFunc func(ctx context.Context, p *Progress) (any, error)

// CallbackFunc is invoked with a task's terminal snapshot. A returned error
// is logged and isolated; it never affects the task record or sibling
// callbacks.
type CallbackFunc func(s Snapshot) error

// Task is the internal lifecycle record for one submitted work unit. It is
// owned by the registry, which guards every field behind its lock; code
// outside this package only ever sees Snapshot copies.
type Task struct {
	id       uuid.UUID
	seq      uint64
	name     string
	status   Status
	priority Priority
	progress int
	result   any
	errMsg   string
	owner    string
	metadata map[string]any

	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time

	// work is exclusively owned by the task until a worker claims it, at
	// which point ownership transfers to that worker and the field is
	// cleared.
	work WorkFunc
}

// snapshot copies the task's externally visible state. Callers must hold
// the registry lock.
func (t *Task) snapshot() Snapshot {
	s := Snapshot{
		ID:        t.id,
		Name:      t.name,
		Status:    t.status,
		Priority:  t.priority,
		Progress:  t.progress,
		Result:    t.result,
		Error:     t.errMsg,
		Owner:     t.owner,
		CreatedAt: t.createdAt,
	}
	if len(t.metadata) > 0 {
		s.Metadata = maps.Clone(t.metadata)
	}
	if t.startedAt != nil {
		ts := *t.startedAt
		s.StartedAt = &ts
	}
	if t.completedAt != nil {
		ts := *t.completedAt
		s.CompletedAt = &ts
	}
	return s
}

// Snapshot is an immutable copy of a task's externally visible state. The
// HTTP layer maps snapshots to its own response shape; Result never leaves
// the process through the status endpoint.
type Snapshot struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Priority    Priority       `json:"priority"`
	Progress    int            `json:"progress"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// submitOptions collects the optional attributes of a submission.
type submitOptions struct {
	priority Priority
	owner    string
	metadata map[string]any
}

// SubmitOption configures an optional attribute of a submitted task.
type SubmitOption func(*submitOptions)

// WithPriority records the task's priority. The default is PriorityNormal.
func WithPriority(p Priority) SubmitOption {
	return func(o *submitOptions) {
		o.priority = p
	}
}

// WithOwner associates the task with the submitting principal so it can be
// found through owner-filtered listings.
func WithOwner(owner string) SubmitOption {
	return func(o *submitOptions) {
		o.owner = owner
	}
}

// WithMetadata seeds the task's metadata map. The map is copied; later
// changes to md are not observed.
func WithMetadata(md map[string]any) SubmitOption {
	return func(o *submitOptions) {
		if len(md) == 0 {
			return
		}
		o.metadata = maps.Clone(md)
	}
}
