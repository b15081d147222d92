package workerpool

import (
	"sync"
	"sync/atomic"
)

// ThreadState is the lifecycle state of a Thread, stored in an atomic
// cell and read/written with plain atomic load/store (the source's
// "relaxed ordering" — Go's atomic package does not expose a distinct
// relaxed mode, see DESIGN.md). Terminated is sticky: once observed, a
// Thread never returns to another state.
type ThreadState int32

const (
	StateWorking ThreadState = iota
	StateWaiting
	StateTerminated
)

func (s ThreadState) String() string {
	switch s {
	case StateWorking:
		return "working"
	case StateWaiting:
		return "waiting"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// PanicHandler is invoked, if set, when a task's function panics. The
// worker recovers the panic and continues its run-loop — a panicking
// task is a failed task, never a crashed process, and is never
// re-raised.
type PanicHandler func(threadID uint64, recovered any)

// Thread owns one goroutine running an infinite run-loop, a numeric id,
// an atomic state cell, a task queue, and a callback stack. It is the Go
// port of the source's OS-thread-owning worker: where the source parks
// via SuspendThread/ResumeThread, Thread parks the run-loop goroutine on
// a condition variable and wakes it the same way resume() would.
type Thread struct {
	id      uint64
	state   atomic.Int32
	queue   *sharedQueue
	done    sync.WaitGroup
	park    sync.Mutex
	wake    *sync.Cond
	cbMu    sync.Mutex
	cb      callbackStack
	onPanic PanicHandler
}

// ThreadOption configures a new Thread.
type ThreadOption func(*Thread)

// WithQueueCapacity bounds the worker's task queue. Zero (the default)
// means unbounded.
func WithQueueCapacity(capacity int) ThreadOption {
	return func(t *Thread) { t.queue = newSharedQueue(capacity) }
}

// WithPanicHandler installs a hook invoked when a task panics.
func WithPanicHandler(h PanicHandler) ThreadOption {
	return func(t *Thread) { t.onPanic = h }
}

// newThread starts a new Thread with the given id. If immediate is
// non-nil, it is pushed before the run-loop starts and the Thread begins
// in the Working state (mirroring the source's task-constructor
// overload); otherwise the Thread starts Waiting.
func newThread(id uint64, immediate *Task, opts ...ThreadOption) *Thread {
	t := &Thread{id: id, queue: newSharedQueue(0)}
	for _, opt := range opts {
		opt(t)
	}
	t.wake = sync.NewCond(&t.park)

	initial := StateWaiting
	if immediate != nil && t.queue.push(*immediate) {
		initial = StateWorking
	}
	t.state.Store(int32(initial))

	t.done.Add(1)
	go t.run()
	return t
}

// run is the worker's infinite run-loop, executed on its own goroutine.
func (t *Thread) run() {
	defer t.done.Done()
	for {
		switch t.State() {
		case StateTerminated:
			return
		case StateWaiting:
			t.parkUntilWoken()
		case StateWorking:
			if t.queue.empty() {
				t.state.CompareAndSwap(int32(StateWorking), int32(StateWaiting))
			} else {
				t.runTask(t.queue.pop())
			}
		}
	}
}

func (t *Thread) parkUntilWoken() {
	t.park.Lock()
	for t.State() == StateWaiting {
		t.wake.Wait()
	}
	t.park.Unlock()
}

// notify wakes a parked run-loop goroutine so it re-checks state. This is
// the Go analogue of ResumeThread/the termination resume call.
func (t *Thread) notify() {
	t.park.Lock()
	t.wake.Broadcast()
	t.park.Unlock()
}

func (t *Thread) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil && t.onPanic != nil {
			t.onPanic(t.id, r)
		}
	}()
	task.Fn(task.Data)
}

func (t *Thread) fireCallbacks(event Event) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.cb.fire(event)
}

// State returns the current lifecycle state.
func (t *Thread) State() ThreadState {
	return ThreadState(t.state.Load())
}

func (t *Thread) setState(s ThreadState) {
	t.state.Store(int32(s))
}

// GetID returns the Thread's numeric id.
func (t *Thread) GetID() uint64 { return t.id }

// Joinable reports whether the Thread has not yet been terminated.
func (t *Thread) Joinable() bool { return t.State() != StateTerminated }

// PendingTasks returns the number of tasks currently queued (not
// counting one that may be executing right now).
func (t *Thread) PendingTasks() int { return t.queue.size() }

// Schedule submits a task at PriorityNormal. Returns false if the Thread
// is terminated or its queue is full.
func (t *Thread) Schedule(fn TaskFunc, data any) bool {
	return t.schedule(Task{Fn: fn, Data: data, Priority: PriorityNormal})
}

// ScheduleWithPriority submits a task at the given priority. Idle tasks
// are appended FIFO at the tail and never reordered; all other
// priorities are inserted by higherPriority, preserving FIFO among
// equals.
func (t *Thread) ScheduleWithPriority(fn TaskFunc, data any, priority TaskPriority) bool {
	return t.schedule(Task{Fn: fn, Data: data, Priority: priority})
}

func (t *Thread) schedule(task Task) bool {
	state := t.State()
	if state == StateTerminated || t.queue.full() {
		return false
	}

	var ok bool
	if task.Priority == PriorityIdle {
		ok = t.queue.push(task)
	} else {
		ok = t.queue.pushWithPriority(task, higherPriority)
	}
	if !ok {
		return false
	}

	if state != StateWorking {
		_ = t.Resume()
	}
	return true
}

// Suspend is legal only from Working. It fires Suspend callbacks, moves
// to Waiting, and wakes the run-loop so it re-checks state and parks
// itself. There is no OS-level failure mode in the Go port (parking a
// goroutine cannot fail) so this always succeeds once the precondition
// holds; the bool return is kept for interface fidelity with the source.
func (t *Thread) Suspend() bool {
	if t.State() != StateWorking {
		return false
	}
	t.fireCallbacks(EventSuspend)
	t.setState(StateWaiting)
	return true
}

// Resume is legal only from Waiting. It fires Resume callbacks, moves to
// Working, and wakes the parked run-loop.
func (t *Thread) Resume() bool {
	if t.State() != StateWaiting {
		return false
	}
	t.fireCallbacks(EventResume)
	t.setState(StateWorking)
	t.notify()
	return true
}

// Terminate is legal only while Joinable. It self-suspends if not already
// Waiting, moves to Terminated (sticky), fires Terminate callbacks, wakes
// the run-loop so it observes Terminated and exits, optionally joins it,
// then clears the queue and callback stack.
func (t *Thread) Terminate(wait bool) bool {
	if !t.Joinable() {
		return false
	}

	if t.State() != StateWaiting {
		t.fireCallbacks(EventSuspend)
		t.setState(StateWaiting)
	}
	t.setState(StateTerminated)
	t.fireCallbacks(EventTerminate)
	t.notify()

	if wait {
		t.done.Wait()
	}

	t.queue.clear()
	t.cbMu.Lock()
	t.cb.clear()
	t.cbMu.Unlock()
	return true
}

// CancelAllPendingTasks clears the queue; a currently-running task is
// unaffected.
func (t *Thread) CancelAllPendingTasks() {
	t.queue.clear()
}

// RegisterEventCallback appends fn to the callback stack. Returns false
// only if fn is nil. Registering on an already-terminated Thread succeeds
// or fails based on that alone — the callback will simply never fire
// again since Terminate has already cleared the stack and fired
// Terminate once.
func (t *Thread) RegisterEventCallback(event Event, fn EventCallback, data any) bool {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	return t.cb.push(event, fn, data)
}
