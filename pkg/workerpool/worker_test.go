package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met before timeout")
}

func TestThread_StartsWaitingByDefault(t *testing.T) {
	th := newThread(1, nil)
	defer th.Terminate(true)
	assert.Equal(t, StateWaiting, th.State())
	assert.True(t, th.Joinable())
}

func TestThread_StartsWorkingWithImmediateTask(t *testing.T) {
	var ran atomic.Bool
	done := make(chan struct{})
	task := Task{Fn: func(any) { ran.Store(true); close(done) }, Priority: PriorityNormal}

	th := newThread(1, &task)
	defer th.Terminate(true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("immediate task never ran")
	}
	assert.True(t, ran.Load())
}

func TestThread_ScheduleExecutesTask(t *testing.T) {
	th := newThread(1, nil)
	defer th.Terminate(true)

	var got atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)
	ok := th.Schedule(func(data any) {
		got.Store(int64(data.(int)))
		wg.Done()
	}, 42)
	require.True(t, ok)

	wg.Wait()
	assert.EqualValues(t, 42, got.Load())
}

func TestThread_ScheduleRejectedWhenTerminated(t *testing.T) {
	th := newThread(1, nil)
	th.Terminate(true)

	ok := th.Schedule(func(any) {}, nil)
	assert.False(t, ok)
	assert.False(t, th.Joinable())
}

func TestThread_PriorityOrdering(t *testing.T) {
	th := newThread(1, nil)
	defer th.Terminate(true)

	assert.False(t, th.Suspend(), "cannot suspend a worker that starts waiting")

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	wg.Add(5)
	record := func(name string) TaskFunc {
		return func(any) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			wg.Done()
		}
	}

	require.True(t, th.ScheduleWithPriority(record("A"), nil, PriorityNormal))
	require.True(t, th.ScheduleWithPriority(record("B"), nil, PriorityLow))
	require.True(t, th.ScheduleWithPriority(record("C"), nil, PriorityHigh))
	require.True(t, th.ScheduleWithPriority(record("D"), nil, PriorityNormal))
	require.True(t, th.ScheduleWithPriority(record("E"), nil, PriorityIdle))

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"C", "A", "D", "B", "E"}, order)
}

func TestThread_SuspendResumeSemantics(t *testing.T) {
	th := newThread(1, nil)
	defer th.Terminate(true)

	assert.False(t, th.Suspend(), "cannot suspend from waiting")

	var wg sync.WaitGroup
	wg.Add(1)
	th.Schedule(func(any) { wg.Done() }, nil)
	wg.Wait()

	waitFor(t, time.Second, func() bool { return th.State() == StateWaiting })

	assert.True(t, th.Resume())
	assert.Equal(t, StateWorking, th.State())
}

func TestThread_SuspendResumeCallbacksAndTerminate(t *testing.T) {
	th := newThread(1, nil)

	var suspendCount, resumeCount, terminateCount atomic.Int32
	th.RegisterEventCallback(EventSuspend, func(Event, any) { suspendCount.Add(1) }, nil)
	th.RegisterEventCallback(EventResume, func(Event, any) { resumeCount.Add(1) }, nil)
	th.RegisterEventCallback(EventTerminate, func(Event, any) { terminateCount.Add(1) }, nil)

	require.True(t, th.Resume())
	require.True(t, th.Suspend())
	require.True(t, th.Terminate(true))

	assert.EqualValues(t, 1, suspendCount.Load())
	assert.EqualValues(t, 1, resumeCount.Load())
	assert.EqualValues(t, 1, terminateCount.Load())
	assert.False(t, th.Joinable())
}

func TestThread_TerminateIsSticky(t *testing.T) {
	th := newThread(1, nil)
	require.True(t, th.Terminate(true))
	assert.False(t, th.Terminate(true))
	assert.False(t, th.Resume())
	assert.False(t, th.Suspend())
}

func TestThread_CancelAllPendingTasksLeavesRunningTaskAlone(t *testing.T) {
	th := newThread(1, nil)
	defer th.Terminate(true)

	started := make(chan struct{})
	release := make(chan struct{})
	th.Schedule(func(any) {
		close(started)
		<-release
	}, nil)

	<-started
	th.Schedule(func(any) {}, nil)
	require.Equal(t, 1, th.PendingTasks())

	th.CancelAllPendingTasks()
	assert.Equal(t, 0, th.PendingTasks())

	close(release)
}

func TestThread_PanicIsRecoveredAndReported(t *testing.T) {
	var recovered atomic.Value
	done := make(chan struct{})

	th := newThread(1, nil, WithPanicHandler(func(id uint64, r any) {
		recovered.Store(r)
		close(done)
	}))
	defer th.Terminate(true)

	th.Schedule(func(any) { panic("boom") }, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panic handler never invoked")
	}
	assert.Equal(t, "boom", recovered.Load())

	// The worker must still be alive and able to run further tasks.
	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	th.Schedule(func(any) { ran.Store(true); wg.Done() }, nil)
	wg.Wait()
	assert.True(t, ran.Load())
}

func TestThread_QueueFullRejectsSchedule(t *testing.T) {
	release := make(chan struct{})
	th := newThread(1, nil, WithQueueCapacity(1))
	defer func() {
		close(release)
		th.Terminate(true)
	}()

	// occupy the running slot so pushed tasks stay queued
	started := make(chan struct{})
	th.Schedule(func(any) {
		close(started)
		<-release
	}, nil)
	<-started

	require.True(t, th.Schedule(func(any) {}, nil)) // fills the one queue slot
	ok := th.Schedule(func(any) {}, nil)
	assert.False(t, ok)
}

func TestHardwareConcurrency_Memoized(t *testing.T) {
	a := HardwareConcurrency()
	b := HardwareConcurrency()
	assert.Equal(t, a, b)
	assert.True(t, a >= 1)
}
