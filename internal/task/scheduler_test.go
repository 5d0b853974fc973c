package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// newRunningScheduler returns a started scheduler that stops itself when
// the test ends.
func newRunningScheduler(t *testing.T, workers int) *Scheduler {
	t.Helper()
	s := NewScheduler(Config{WorkerCount: workers}, testLogger(), nil)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

// waitForTerminal polls until the task reaches a terminal state.
func waitForTerminal(t *testing.T, s *Scheduler, id uuid.UUID) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		got, err := s.Status(id)
		if err != nil {
			return false
		}
		snap = got
		return snap.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return snap
}

// blockingWork returns a work unit that signals once it starts running and
// then holds its worker until released (or the pool shuts down).
func blockingWork(started chan<- struct{}, release <-chan struct{}) WorkFunc {
	return func(ctx context.Context, p *Progress) (any, error) {
		close(started)
		select {
		case <-release:
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestScheduler_SubmitAndComplete(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 2)

	id, err := s.Submit("probe.duration", func(ctx context.Context, p *Progress) (any, error) {
		return map[string]any{"duration": 12.5}, nil
	}, WithOwner("user-1"), WithPriority(PriorityHigh))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	snap := waitForTerminal(t, s, id)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, "probe.duration", snap.Name)
	assert.Equal(t, "user-1", snap.Owner)
	assert.Equal(t, PriorityHigh, snap.Priority)
	assert.Empty(t, snap.Error)
	assert.Equal(t, map[string]any{"duration": 12.5}, snap.Result)
	assert.False(t, snap.CreatedAt.IsZero())
	require.NotNil(t, snap.StartedAt)
	require.NotNil(t, snap.CompletedAt)
	assert.False(t, snap.CompletedAt.Before(*snap.StartedAt))
}

func TestScheduler_SubmitRejectedWhenStopped(t *testing.T) {
	t.Parallel()
	s := NewScheduler(DefaultConfig(), testLogger(), nil)

	work := func(ctx context.Context, p *Progress) (any, error) { return nil, nil }

	_, err := s.Submit("never.started", work)
	assert.ErrorIs(t, err, ErrSchedulerStopped)

	s.Start()
	_, err = s.Submit("while.running", work)
	assert.NoError(t, err)

	s.Stop()
	_, err = s.Submit("after.stop", work)
	assert.ErrorIs(t, err, ErrSchedulerStopped)
}

func TestScheduler_SubmitNilWork(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	_, err := s.Submit("nothing.to.do", nil)
	assert.ErrorIs(t, err, ErrNilWork)
}

func TestScheduler_WorkUnitFailureIsContained(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	failed, err := s.Submit("encode.clip", func(ctx context.Context, p *Progress) (any, error) {
		return nil, errors.New("encode blew up")
	})
	require.NoError(t, err)

	snap := waitForTerminal(t, s, failed)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "*errors.errorString: encode blew up", snap.Error)
	assert.Nil(t, snap.Result)
	require.NotNil(t, snap.CompletedAt)

	// The worker survives a failing unit and keeps draining the queue.
	next, err := s.Submit("encode.retry", func(ctx context.Context, p *Progress) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, waitForTerminal(t, s, next).Status)
}

func TestScheduler_WorkUnitPanicIsContained(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	panicked, err := s.Submit("explode", func(ctx context.Context, p *Progress) (any, error) {
		panic("boom")
	})
	require.NoError(t, err)

	snap := waitForTerminal(t, s, panicked)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "panic: boom", snap.Error)

	next, err := s.Submit("after.panic", func(ctx context.Context, p *Progress) (any, error) {
		return "still alive", nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, waitForTerminal(t, s, next).Status)
}

func TestScheduler_FIFOOrderWithSingleWorker(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	const n = 8
	var mu sync.Mutex
	var order []int

	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		i := i
		id, err := s.Submit("ordered", func(ctx context.Context, p *Progress) (any, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil, nil
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for _, id := range ids {
		waitForTerminal(t, s, id)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, order[i])
	}
}

func TestScheduler_WorkerBudgetAndNoDoubleDispatch(t *testing.T) {
	t.Parallel()
	const workers = 3
	s := newRunningScheduler(t, workers)

	var mu sync.Mutex
	inFlight := make(map[uuid.UUID]bool)
	maxInFlight := 0
	doubleDispatch := false

	work := func(ctx context.Context, p *Progress) (any, error) {
		id := p.TaskID()
		mu.Lock()
		if inFlight[id] {
			doubleDispatch = true
		}
		inFlight[id] = true
		if len(inFlight) > maxInFlight {
			maxInFlight = len(inFlight)
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		delete(inFlight, id)
		mu.Unlock()
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, 24)
	for i := 0; i < 24; i++ {
		id, err := s.Submit("concurrent", work)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for _, id := range ids {
		waitForTerminal(t, s, id)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, doubleDispatch, "a task id ran on two workers at once")
	assert.LessOrEqual(t, maxInFlight, workers)
	assert.Greater(t, maxInFlight, 0)
}

func TestScheduler_StatusTransitionsNeverRegress(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	id, err := s.Submit("watched", func(ctx context.Context, p *Progress) (any, error) {
		time.Sleep(20 * time.Millisecond)
		return nil, nil
	})
	require.NoError(t, err)

	rank := map[Status]int{
		StatusPending:   0,
		StatusRunning:   1,
		StatusCompleted: 2,
	}
	seen := []Status{}
	require.Eventually(t, func() bool {
		snap, err := s.Status(id)
		if err != nil {
			return false
		}
		if len(seen) == 0 || seen[len(seen)-1] != snap.Status {
			seen = append(seen, snap.Status)
		}
		return snap.Status.Terminal()
	}, 5*time.Second, time.Millisecond)

	for i := 1; i < len(seen); i++ {
		assert.Greater(t, rank[seen[i]], rank[seen[i-1]],
			"status regressed from %s to %s", seen[i-1], seen[i])
	}
}

func TestScheduler_CancelPendingOnly(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	blocker, err := s.Submit("blocker", blockingWork(started, release))
	require.NoError(t, err)
	<-started

	var executed bool
	var mu sync.Mutex
	queued, err := s.Submit("queued.behind", func(ctx context.Context, p *Progress) (any, error) {
		mu.Lock()
		executed = true
		mu.Unlock()
		return nil, nil
	})
	require.NoError(t, err)

	// Pending task: cancel takes effect, work never runs.
	assert.True(t, s.Cancel(queued))
	snap, err := s.Status(queued)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, snap.Status)
	require.NotNil(t, snap.CompletedAt)
	assert.Nil(t, snap.StartedAt)

	// Running task: not cancellable, status unchanged.
	assert.False(t, s.Cancel(blocker))
	running, err := s.Status(blocker)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, running.Status)

	close(release)
	done := waitForTerminal(t, s, blocker)
	assert.Equal(t, StatusCompleted, done.Status)

	// Terminal and unknown ids: cancel reports no effect.
	assert.False(t, s.Cancel(blocker))
	assert.False(t, s.Cancel(uuid.New()))

	// Second cancel of the same cancelled task reports no effect either.
	assert.False(t, s.Cancel(queued))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, executed, "cancelled task's work unit must never run")
}

func TestScheduler_ProgressClampsAndMerges(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	reported := make(chan struct{})
	release := make(chan struct{})
	id, err := s.Submit("trim.video", func(ctx context.Context, p *Progress) (any, error) {
		p.Update(150, nil)
		close(reported)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, nil
	}, WithMetadata(map[string]any{"source": "a.mp4"}))
	require.NoError(t, err)

	<-reported
	snap, err := s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 100, snap.Progress, "progress above 100 clamps down")

	s.UpdateProgress(id, -5, map[string]any{"stage": "demux"})
	snap, err = s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Progress, "progress below 0 clamps up")
	assert.Equal(t, "demux", snap.Metadata["stage"])
	assert.Equal(t, "a.mp4", snap.Metadata["source"], "patch merges instead of replacing")

	s.UpdateProgress(id, 40, map[string]any{"stage": "encode"})
	snap, err = s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, 40, snap.Progress)
	assert.Equal(t, "encode", snap.Metadata["stage"], "last writer wins per key")

	close(release)
	final := waitForTerminal(t, s, id)
	assert.Equal(t, 100, final.Progress, "completion forces progress to 100")

	// Terminal task and unknown id: best-effort no-ops.
	s.UpdateProgress(id, 10, nil)
	final, err = s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, 100, final.Progress)
	s.UpdateProgress(uuid.New(), 50, nil)
}

func TestScheduler_CompletionCallbackOrderAndOnce(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	id, err := s.Submit("with.callbacks", blockingWork(started, release))
	require.NoError(t, err)
	<-started

	var mu sync.Mutex
	var fired []int
	for i := 1; i <= 3; i++ {
		i := i
		s.OnComplete(id, func(snap Snapshot) error {
			mu.Lock()
			fired = append(fired, i)
			mu.Unlock()
			// Callbacks observe the terminal state, never an earlier one.
			assert.Equal(t, StatusCompleted, snap.Status)
			assert.Equal(t, "done", snap.Result)
			return nil
		})
	}

	close(release)
	waitForTerminal(t, s, id)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 3
	}, 5*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, fired, "callbacks fire exactly once, in registration order")
}

func TestScheduler_CallbackFailuresAreIsolated(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	id, err := s.Submit("callback.chaos", blockingWork(started, release))
	require.NoError(t, err)
	<-started

	var mu sync.Mutex
	lastRan := false
	s.OnComplete(id, func(Snapshot) error { return errors.New("notify failed") })
	s.OnComplete(id, func(Snapshot) error { panic("callback panic") })
	s.OnComplete(id, func(Snapshot) error {
		mu.Lock()
		lastRan = true
		mu.Unlock()
		return nil
	})

	close(release)
	snap := waitForTerminal(t, s, id)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Empty(t, snap.Error, "callback failures never touch the task record")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return lastRan
	}, 5*time.Second, 5*time.Millisecond)
}

func TestScheduler_LateCallbackIsDropped(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	id, err := s.Submit("already.done", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)
	waitForTerminal(t, s, id)

	var mu sync.Mutex
	fired := false
	s.OnComplete(id, func(Snapshot) error {
		mu.Lock()
		fired = true
		mu.Unlock()
		return nil
	})
	// Unknown ids are dropped the same way.
	s.OnComplete(uuid.New(), func(Snapshot) error { return nil })
	s.OnComplete(id, nil)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, fired, "registration after the terminal transition never fires")
}

func TestScheduler_CallbacksFireOnCancel(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	_, err := s.Submit("blocker", blockingWork(started, release))
	require.NoError(t, err)
	<-started

	queued, err := s.Submit("will.cancel", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	var got Snapshot
	var mu sync.Mutex
	fired := false
	s.OnComplete(queued, func(snap Snapshot) error {
		mu.Lock()
		fired = true
		got = snap
		mu.Unlock()
		return nil
	})

	require.True(t, s.Cancel(queued))

	// Cancellation transitions on the calling goroutine, so the callback
	// has fired by the time Cancel returns.
	mu.Lock()
	assert.True(t, fired)
	assert.Equal(t, StatusCancelled, got.Status)
	mu.Unlock()

	close(release)
}

func TestScheduler_CleanupRemovesAgedTerminal(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	done, err := s.Submit("short.lived", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)
	waitForTerminal(t, s, done)

	assert.Equal(t, 0, s.Cleanup(time.Hour), "young terminal tasks survive the sweep")

	removed := s.Cleanup(0)
	assert.Equal(t, 1, removed)
	_, err = s.Status(done)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.Equal(t, 0, s.Cleanup(0), "second sweep finds nothing")
}

func TestScheduler_CleanupSparesActiveTasks(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	blocker, err := s.Submit("running", blockingWork(started, release))
	require.NoError(t, err)
	<-started

	queued, err := s.Submit("pending", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 0, s.Cleanup(0))
	_, err = s.Status(blocker)
	assert.NoError(t, err)
	_, err = s.Status(queued)
	assert.NoError(t, err)

	close(release)
	waitForTerminal(t, s, blocker)
	waitForTerminal(t, s, queued)
}

func TestScheduler_CleanupRemovesCancelled(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	_, err := s.Submit("blocker", blockingWork(started, release))
	require.NoError(t, err)
	<-started

	queued, err := s.Submit("doomed", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)
	require.True(t, s.Cancel(queued))

	assert.Equal(t, 1, s.Cleanup(0), "cancelled tasks age out like any terminal task")
	_, err = s.Status(queued)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	close(release)
}

func TestScheduler_StopStartDrainsLeftoverPending(t *testing.T) {
	t.Parallel()
	s := NewScheduler(Config{WorkerCount: 1}, testLogger(), nil)
	s.Start()
	t.Cleanup(s.Stop)

	started := make(chan struct{})
	blocker, err := s.Submit("holds.worker", func(ctx context.Context, p *Progress) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	var mu sync.Mutex
	var ran []string
	mkWork := func(label string) WorkFunc {
		return func(ctx context.Context, p *Progress) (any, error) {
			mu.Lock()
			ran = append(ran, label)
			mu.Unlock()
			return nil, nil
		}
	}
	first, err := s.Submit("left.behind.1", mkWork("first"))
	require.NoError(t, err)
	second, err := s.Submit("left.behind.2", mkWork("second"))
	require.NoError(t, err)

	s.Stop()

	// The in-flight unit observed the pool shutdown and failed; the queued
	// tasks were never claimed and stay pending.
	blocked, err := s.Status(blocker)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, blocked.Status)
	for _, id := range []uuid.UUID{first, second} {
		snap, err := s.Status(id)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, snap.Status)
	}

	_, err = s.Submit("while.stopped", mkWork("rejected"))
	assert.ErrorIs(t, err, ErrSchedulerStopped)

	s.Start()
	waitForTerminal(t, s, first)
	waitForTerminal(t, s, second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, ran, "leftover tasks drain in submission order")
}

func TestScheduler_LifecycleIdempotent(t *testing.T) {
	t.Parallel()
	s := NewScheduler(Config{WorkerCount: 2}, testLogger(), nil)

	assert.False(t, s.Running())
	s.Stop()
	assert.False(t, s.Running())

	s.Start()
	s.Start()
	assert.True(t, s.Running())

	id, err := s.Submit("after.double.start", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)
	waitForTerminal(t, s, id)

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

func TestScheduler_ListForOwner(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	ok := func(ctx context.Context, p *Progress) (any, error) { return nil, nil }
	bad := func(ctx context.Context, p *Progress) (any, error) { return nil, errors.New("nope") }

	aliceA, err := s.Submit("alice.first", ok, WithOwner("alice"))
	require.NoError(t, err)
	aliceB, err := s.Submit("alice.second", bad, WithOwner("alice"))
	require.NoError(t, err)
	bobC, err := s.Submit("bob.only", ok, WithOwner("bob"))
	require.NoError(t, err)

	for _, id := range []uuid.UUID{aliceA, aliceB, bobC} {
		waitForTerminal(t, s, id)
	}

	var aliceIDs []uuid.UUID
	for snap := range s.ListForOwner("alice", "") {
		aliceIDs = append(aliceIDs, snap.ID)
	}
	assert.Equal(t, []uuid.UUID{aliceB, aliceA}, aliceIDs, "newest submission first")

	var failedIDs []uuid.UUID
	for snap := range s.ListForOwner("alice", StatusFailed) {
		failedIDs = append(failedIDs, snap.ID)
	}
	assert.Equal(t, []uuid.UUID{aliceB}, failedIDs)

	all := 0
	for range s.ListForOwner("", "") {
		all++
	}
	assert.Equal(t, 3, all)

	assert.Empty(t, collectIDs(s.ListForOwner("carol", "")))

	// The sequence is restartable and honors early breaks.
	seq := s.ListForOwner("alice", "")
	assert.Len(t, collectIDs(seq), 2)
	taken := 0
	for range seq {
		taken++
		break
	}
	assert.Equal(t, 1, taken)
}

func collectIDs(seq func(yield func(Snapshot) bool)) []uuid.UUID {
	var ids []uuid.UUID
	for snap := range seq {
		ids = append(ids, snap.ID)
	}
	return ids
}

func TestScheduler_StatusUnknownID(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	_, err := s.Status(uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestScheduler_MetadataIsCopied(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	seed := map[string]any{"source": "a.mp4"}
	id, err := s.Submit("isolated", blockingWork(started, release), WithMetadata(seed))
	require.NoError(t, err)
	<-started

	// Mutating the caller's map after submission changes nothing.
	seed["source"] = "tampered"
	snap, err := s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", snap.Metadata["source"])

	// Mutating a returned snapshot changes nothing either.
	snap.Metadata["source"] = "also tampered"
	again, err := s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", again.Metadata["source"])

	close(release)
}

func TestScheduler_ZeroConfigDefaults(t *testing.T) {
	t.Parallel()
	s := NewScheduler(Config{WorkerCount: -1}, testLogger(), nil)
	s.Start()
	t.Cleanup(s.Stop)

	id, err := s.Submit("defaults", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, waitForTerminal(t, s, id).Status)
}

func TestScheduler_ExternalProgressOnPendingTask(t *testing.T) {
	t.Parallel()
	s := newRunningScheduler(t, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	_, err := s.Submit("blocker", blockingWork(started, release))
	require.NoError(t, err)
	<-started

	queued, err := s.Submit("queued", func(ctx context.Context, p *Progress) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	s.UpdateProgress(queued, 42, nil)
	snap, err := s.Status(queued)
	require.NoError(t, err)
	assert.Equal(t, 42, snap.Progress)

	close(release)
	waitForTerminal(t, s, queued)
}

func TestProgress_NilHandleIsSafe(t *testing.T) {
	t.Parallel()
	var p *Progress
	p.Update(50, map[string]any{"stage": "noop"})
	assert.Equal(t, uuid.Nil, p.TaskID())
}
