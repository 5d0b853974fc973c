package task

import (
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// registry is the single source of truth for task state, shared by the
// scheduler API and all workers. One RWMutex guards the whole map; every
// mutation is a whole-task atomic step under the write lock, so no reader
// ever observes a half-updated task.
type registry struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
}

func newRegistry() *registry {
	return &registry{
		tasks: make(map[uuid.UUID]*Task),
	}
}

// register inserts a new pending task.
func (r *registry) register(t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[t.id]; exists {
		return ErrDuplicateTaskID
	}
	r.tasks[t.id] = t
	return nil
}

// snapshot returns a copy of the task's current state.
func (r *registry) snapshot(id uuid.UUID) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	return t.snapshot(), nil
}

// list returns a lazy, restartable sequence of snapshots filtered by owner
// and status (either may be zero to match everything), newest submission
// first. The matching set is captured per iteration, so ranging twice
// reflects the registry at each call, and breaking early stops the walk.
func (r *registry) list(owner string, status Status) iter.Seq[Snapshot] {
	return func(yield func(Snapshot) bool) {
		type entry struct {
			seq  uint64
			snap Snapshot
		}
		r.mu.RLock()
		matched := make([]entry, 0, len(r.tasks))
		for _, t := range r.tasks {
			if owner != "" && t.owner != owner {
				continue
			}
			if status != "" && t.status != status {
				continue
			}
			matched = append(matched, entry{seq: t.seq, snap: t.snapshot()})
		}
		r.mu.RUnlock()

		sort.Slice(matched, func(i, j int) bool {
			return matched[i].seq > matched[j].seq
		})
		for _, e := range matched {
			if !yield(e.snap) {
				return
			}
		}
	}
}

// pendingIDs returns the ids of all pending tasks in submission order,
// oldest first. Start uses it to rebuild the queue after a stop.
func (r *registry) pendingIDs() []uuid.UUID {
	r.mu.RLock()
	type entry struct {
		seq uint64
		id  uuid.UUID
	}
	pending := make([]entry, 0)
	for _, t := range r.tasks {
		if t.status == StatusPending {
			pending = append(pending, entry{seq: t.seq, id: t.id})
		}
	}
	r.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].seq < pending[j].seq
	})
	ids := make([]uuid.UUID, len(pending))
	for i, e := range pending {
		ids[i] = e.id
	}
	return ids
}

// claim transitions a pending task to running, stamps started_at, and
// transfers ownership of the work function to the calling worker. It
// returns false when the task is missing or not pending anymore (notably
// when it was cancelled while queued), in which case the dequeued id is
// simply discarded.
func (r *registry) claim(id uuid.UUID) (WorkFunc, Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.status != StatusPending {
		return nil, Snapshot{}, false
	}
	work := t.work
	t.work = nil
	t.status = StatusRunning
	now := time.Now().UTC()
	t.startedAt = &now
	return work, t.snapshot(), true
}

// complete records a successful outcome for a running task and forces
// progress to 100.
func (r *registry) complete(id uuid.UUID, result any) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.status != StatusRunning {
		return Snapshot{}, false
	}
	t.status = StatusCompleted
	t.result = result
	t.progress = 100
	now := time.Now().UTC()
	t.completedAt = &now
	return t.snapshot(), true
}

// fail records a failed outcome for a running task.
func (r *registry) fail(id uuid.UUID, errMsg string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.status != StatusRunning {
		return Snapshot{}, false
	}
	t.status = StatusFailed
	t.errMsg = errMsg
	now := time.Now().UTC()
	t.completedAt = &now
	return t.snapshot(), true
}

// cancelPending moves a pending task to cancelled. completed_at is stamped
// so the retention sweep ages cancelled tasks out like any other terminal
// task. Running and terminal tasks are left untouched.
func (r *registry) cancelPending(id uuid.UUID) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.status != StatusPending {
		return Snapshot{}, false
	}
	t.status = StatusCancelled
	t.work = nil
	now := time.Now().UTC()
	t.completedAt = &now
	return t.snapshot(), true
}

// setProgress clamps value into [0,100] and merges the metadata patch,
// last writer wins per key. Unknown ids and terminal tasks are silent
// no-ops: a work unit may race a retention sweep or report just after its
// own terminal transition, and neither is an error.
func (r *registry) setProgress(id uuid.UUID, value int, patch map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.status.Terminal() {
		return
	}
	t.progress = min(max(value, 0), 100)
	if len(patch) > 0 {
		if t.metadata == nil {
			t.metadata = make(map[string]any, len(patch))
		}
		for k, v := range patch {
			t.metadata[k] = v
		}
	}
}

// remove deletes a single terminal task.
func (r *registry) remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if !t.status.Terminal() {
		return ErrTaskNotTerminal
	}
	delete(r.tasks, id)
	return nil
}

// sweep removes every terminal task whose completed_at predates now-maxAge
// and returns the removed ids so the scheduler can drop any callback
// registrations left for them.
func (r *registry) sweep(maxAge time.Duration) []uuid.UUID {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []uuid.UUID
	for id, t := range r.tasks {
		if !t.status.Terminal() || t.completedAt == nil {
			continue
		}
		if now.Sub(*t.completedAt) > maxAge {
			delete(r.tasks, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// size reports the number of registered tasks.
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
