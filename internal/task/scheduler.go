package task

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultWorkerCount is the worker budget used when the configured count is
// zero or negative.
const DefaultWorkerCount = 3

// Config holds scheduler configuration.
type Config struct {
	// WorkerCount determines how many concurrent workers drain the pending
	// queue. Each worker executes one task at a time.
	WorkerCount int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: DefaultWorkerCount,
	}
}

// Scheduler runs submitted work units on a fixed pool of workers and tracks
// their lifecycle in a shared registry. One instance is owned by the
// application's composition root and passed by handle to every submitting
// component; there is no process-wide default.
//
// All methods are safe for concurrent use.
type Scheduler struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	reg     *registry
	seq     atomic.Uint64

	// lifeMu serializes Start and Stop so a Stop's worker join can never
	// interleave with a concurrent Start spawning on the same WaitGroup.
	lifeMu sync.Mutex
	wg     sync.WaitGroup

	// mu guards the running flag and the queue handle; Submit holds the
	// read side across its enqueue so Stop cannot release the queue under
	// an in-flight submission.
	mu      sync.RWMutex
	running bool
	queue   *fifoQueue
	cancel  context.CancelFunc

	cbMu      sync.Mutex
	callbacks map[uuid.UUID][]CallbackFunc
}

// NewScheduler creates a stopped scheduler. Call Start to begin draining
// submissions. A nil logger falls back to slog.Default; a nil metrics
// handle disables instrumentation.
func NewScheduler(cfg Config, logger *slog.Logger, metrics *Metrics) *Scheduler {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
		metrics:   metrics,
		reg:       newRegistry(),
		callbacks: make(map[uuid.UUID][]CallbackFunc),
	}
}

// Start allocates a fresh queue, re-enqueues every task still pending in
// the registry (oldest first), and spawns the worker pool. Starting a
// running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	queue := newFIFOQueue()
	// Tasks left pending by a previous stop are re-enqueued, not
	// re-registered; their records never left the registry.
	requeued := s.reg.pendingIDs()
	for _, id := range requeued {
		queue.push(id)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.queue = queue
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	if len(requeued) > 0 {
		s.logger.Info("requeued pending tasks", "count", len(requeued))
	}
	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, queue, i)
	}
	s.logger.Info("scheduler started", "worker_count", s.cfg.WorkerCount)
}

// Stop rejects further submissions, signals workers to exit, and waits for
// in-flight work units to return. Tasks still pending stay registered and
// resume draining on the next Start. Stopping a stopped scheduler is a
// no-op.
func (s *Scheduler) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.queue = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the scheduler currently accepts submissions.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Submit registers a new pending task and enqueues it for execution. It
// returns the task id immediately and never blocks on execution. The queue
// is unbounded: the only rejection reasons are a stopped scheduler and a
// nil work function.
func (s *Scheduler) Submit(name string, work WorkFunc, opts ...SubmitOption) (uuid.UUID, error) {
	if work == nil {
		return uuid.Nil, ErrNilWork
	}
	options := submitOptions{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return uuid.Nil, ErrSchedulerStopped
	}

	t := &Task{
		id:        uuid.New(),
		seq:       s.seq.Add(1),
		name:      name,
		status:    StatusPending,
		priority:  options.priority,
		owner:     options.owner,
		metadata:  options.metadata,
		createdAt: time.Now().UTC(),
		work:      work,
	}
	if err := s.reg.register(t); err != nil {
		return uuid.Nil, err
	}
	s.queue.push(t.id)
	s.metrics.taskSubmitted(name)
	s.logger.Debug("task submitted",
		"task_id", t.id,
		"task_name", name,
		"priority", int(options.priority),
		"owner", options.owner)
	return t.id, nil
}

// Status returns a snapshot of the task's current state.
func (s *Scheduler) Status(id uuid.UUID) (Snapshot, error) {
	return s.reg.snapshot(id)
}

// ListForOwner returns a lazy, restartable sequence of task snapshots
// filtered by owner and status (either may be zero to match everything),
// newest submission first.
func (s *Scheduler) ListForOwner(owner string, status Status) iter.Seq[Snapshot] {
	return s.reg.list(owner, status)
}

// Cancel moves a pending task to cancelled and reports whether it took
// effect. Running tasks are not preempted: they hold their worker until
// they return, and cancelling them returns false, as it does for terminal
// or unknown ids. Completion callbacks fire on a successful cancel since
// cancelled is a terminal state.
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	snap, ok := s.reg.cancelPending(id)
	if !ok {
		return false
	}
	s.metrics.taskCancelled(snap.Name)
	s.logger.Info("task cancelled", "task_id", id, "task_name", snap.Name)
	s.fireCallbacks(snap)
	return true
}

// UpdateProgress clamps value into [0,100] and merges the metadata patch
// into the task, last writer wins per key. It is best-effort: unknown ids
// and terminal tasks are silently ignored.
func (s *Scheduler) UpdateProgress(id uuid.UUID, value int, patch map[string]any) {
	s.reg.setProgress(id, value, patch)
}

// OnComplete registers fn to run once when the task next reaches a terminal
// state. Registrations for one id run in registration order, after the
// terminal status write, on the goroutine that performed the transition.
// Registering for an unknown or already-terminal task drops fn: the "next"
// terminal transition will never come.
func (s *Scheduler) OnComplete(id uuid.UUID, fn CallbackFunc) {
	if fn == nil {
		return
	}
	// The status check happens under cbMu. Terminal transitions write
	// status first and acquire cbMu second, so either this registration is
	// collected by the transition's callback fire, or the check here
	// already sees the terminal status and drops it. No registration can
	// fall between the two.
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	snap, err := s.reg.snapshot(id)
	if err != nil || snap.Status.Terminal() {
		s.logger.Debug("dropping completion callback for finished or unknown task", "task_id", id)
		return
	}
	s.callbacks[id] = append(s.callbacks[id], fn)
}

// Cleanup removes terminal tasks whose completed_at predates now-maxAge and
// returns the number removed. It also drops any callback registrations left
// for the removed ids. The scheduler never invokes it on its own; a
// surrounding timer owns the cadence.
func (s *Scheduler) Cleanup(maxAge time.Duration) int {
	removed := s.reg.sweep(maxAge)
	if len(removed) == 0 {
		return 0
	}
	s.cbMu.Lock()
	for _, id := range removed {
		delete(s.callbacks, id)
	}
	s.cbMu.Unlock()
	s.metrics.tasksSwept(len(removed))
	s.logger.Info("removed aged terminal tasks", "count", len(removed))
	return len(removed)
}

// worker drains the queue until the pool context is cancelled.
func (s *Scheduler) worker(ctx context.Context, queue *fifoQueue, workerID int) {
	defer s.wg.Done()
	s.logger.Debug("starting worker", "worker_id", workerID)

	for {
		// Check for shutdown between tasks so a stop lands even while the
		// queue still holds work; whatever is left drains on the next
		// Start.
		select {
		case <-ctx.Done():
			s.logger.Debug("stopping worker", "worker_id", workerID)
			return
		default:
		}

		id, ok := queue.pop()
		if !ok {
			select {
			case <-ctx.Done():
				s.logger.Debug("stopping worker", "worker_id", workerID)
				return
			case <-queue.wake:
				continue
			}
		}
		s.runTask(ctx, id, workerID)
	}
}

// runTask executes a single dequeued task through its full lifecycle. A
// work-unit failure of any kind ends up in the task record and never
// propagates out of the loop.
func (s *Scheduler) runTask(ctx context.Context, id uuid.UUID, workerID int) {
	work, snap, ok := s.reg.claim(id)
	if !ok {
		// Cancelled while queued, or already removed. Nothing to run.
		s.logger.Debug("discarding queued task no longer runnable", "task_id", id, "worker_id", workerID)
		return
	}
	s.metrics.taskClaimed()
	logger := s.logger.With("task_id", id, "task_name", snap.Name, "worker_id", workerID)
	logger.Info("processing task")

	started := time.Now()
	result, err := invoke(ctx, work, &Progress{scheduler: s, id: id})
	elapsed := time.Since(started)

	var terminal Snapshot
	if err != nil {
		terminal, _ = s.reg.fail(id, formatWorkError(err))
		logger.Error("task execution failed", "error", err, "duration_ms", elapsed.Milliseconds())
	} else {
		terminal, _ = s.reg.complete(id, result)
		logger.Info("task completed", "duration_ms", elapsed.Milliseconds())
	}
	s.metrics.taskFinished(snap.Name, terminal.Status, elapsed)
	s.fireCallbacks(terminal)
}

// invoke runs the work unit, converting panics into ordinary errors so one
// bad unit cannot take down its worker.
func invoke(ctx context.Context, work WorkFunc, p *Progress) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &panicError{value: r}
		}
	}()
	return work(ctx, p)
}

// fireCallbacks pops and runs every callback registered for the task, in
// registration order. Each callback is isolated: errors are logged, panics
// recovered, and neither touches the task record or later callbacks.
func (s *Scheduler) fireCallbacks(snap Snapshot) {
	s.cbMu.Lock()
	callbacks := s.callbacks[snap.ID]
	delete(s.callbacks, snap.ID)
	s.cbMu.Unlock()

	for i, fn := range callbacks {
		s.runCallback(snap, i, fn)
	}
}

func (s *Scheduler) runCallback(snap Snapshot, index int, fn CallbackFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("completion callback panicked",
				"task_id", snap.ID,
				"callback_index", index,
				"panic", r)
		}
	}()
	if err := fn(snap); err != nil {
		s.logger.Warn("completion callback failed",
			"task_id", snap.ID,
			"callback_index", index,
			"error", err)
	}
}

// Progress is the reporting handle passed to a running work unit, bound to
// its task id. It stays safe to call after the task ends; late updates are
// no-ops.
type Progress struct {
	scheduler *Scheduler
	id        uuid.UUID
}

// Update reports execution progress (clamped into [0,100]) and merges the
// metadata patch into the task.
func (p *Progress) Update(value int, patch map[string]any) {
	if p == nil || p.scheduler == nil {
		return
	}
	p.scheduler.UpdateProgress(p.id, value, patch)
}

// TaskID returns the id of the task this handle is bound to.
func (p *Progress) TaskID() uuid.UUID {
	if p == nil {
		return uuid.Nil
	}
	return p.id
}
