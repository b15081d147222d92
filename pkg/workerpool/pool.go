package workerpool

import "sync"

// PoolState is the dispatcher-level lifecycle state. Unlike ThreadState,
// it is guarded by an ordinary mutex rather than an atomic cell: the
// source documents the pool's control-plane operations (suspend, resume,
// resize, close) as assuming a single controller, so Pool serializes
// them with a plain Mutex rather than pretending to lock-free semantics
// it does not need (see DESIGN.md).
type PoolState int32

const (
	PoolWorking PoolState = iota
	PoolWaiting
	PoolClosed
)

func (s PoolState) String() string {
	switch s {
	case PoolWorking:
		return "working"
	case PoolWaiting:
		return "waiting"
	case PoolClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Statistics is a point-in-time snapshot of a Pool, computed by
// iterating every worker.
type Statistics struct {
	WaitingThreads int
	WorkingThreads int
	PendingTasks   int
}

// Pool dispatches tasks across a resizable list of long-lived workers. A
// Pool is safe for concurrent Schedule/ScheduleWithPriority calls from
// many goroutines; control-plane calls (Suspend, Resume, Resize, Close)
// are expected to come from a single controller, per the source.
type Pool struct {
	mu      sync.Mutex
	state   PoolState
	threads *threadList

	queueCap    int
	panicHandler PanicHandler
}

// PoolOption configures a new Pool.
type PoolOption func(*Pool)

// WithWorkerQueueCapacity bounds every worker's task queue. Zero (the
// default) means unbounded.
func WithWorkerQueueCapacity(capacity int) PoolOption {
	return func(p *Pool) { p.queueCap = capacity }
}

// WithWorkerPanicHandler installs a hook invoked whenever any worker's
// task panics.
func WithWorkerPanicHandler(h PanicHandler) PoolOption {
	return func(p *Pool) { p.panicHandler = h }
}

// NewPool constructs a Pool with size workers, clamped to at least 1.
func NewPool(size int, opts ...PoolOption) *Pool {
	p := &Pool{state: PoolWorking}
	for _, opt := range opts {
		opt(p)
	}
	p.threads = newThreadList(size, p.queueCap, p.panicHandler)
	return p
}

// Size returns the current worker count.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threads.length()
}

// State returns the pool's current lifecycle state.
func (p *Pool) State() PoolState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Schedule submits fn at PriorityNormal to the ideal worker chosen by the
// pool's current dispatch policy.
func (p *Pool) Schedule(fn TaskFunc, data any) bool {
	return p.ScheduleWithPriority(fn, data, PriorityNormal)
}

// ScheduleWithPriority submits fn at the given priority. Refuses when the
// pool is Closed or has no workers.
func (p *Pool) ScheduleWithPriority(fn TaskFunc, data any, priority TaskPriority) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PoolClosed {
		return false
	}

	target := p.idealThread()
	if target == nil {
		return false
	}
	return target.ScheduleWithPriority(fn, data, priority)
}

// idealThread picks the worker to dispatch to, per the pool's current
// state: Waiting prefers the worker with the smallest backlog (everyone
// is parked anyway); Working prefers waking an idle worker, falling back
// to the smallest backlog. Must be called with mu held.
func (p *Pool) idealThread() *Thread {
	if p.state == PoolWorking {
		if th := p.threads.selectAnyWaitingThread(); th != nil {
			return th
		}
	}
	return p.threads.selectThreadWithFewestPendingTasks()
}

// Suspend transitions Working to Waiting: the pool updates its own state
// first, then tells every worker to suspend, ignoring individual
// failures (a worker already Waiting simply declines).
func (p *Pool) Suspend() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PoolWorking {
		return false
	}
	p.state = PoolWaiting
	p.threads.forEachThread(func(th *Thread) { th.Suspend() })
	return true
}

// Resume transitions Waiting to Working, updating pool state first, then
// resuming every worker, ignoring individual failures.
func (p *Pool) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PoolWaiting {
		return false
	}
	p.state = PoolWorking
	p.threads.forEachThread(func(th *Thread) { th.Resume() })
	return true
}

// Resize grows or shrinks the worker list to newSize. Refuses when
// Closed or newSize is zero; shrinking to zero is never permitted short
// of Close.
func (p *Pool) Resize(newSize int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PoolClosed || newSize == 0 {
		return false
	}

	current := p.threads.length()
	switch {
	case newSize > current:
		return p.threads.grow(newSize - current)
	case newSize < current:
		return p.threads.reduce(current - newSize)
	default:
		return true
	}
}

// Close sets the pool to Closed (sticky) and releases every worker.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PoolClosed {
		return
	}
	p.threads.release()
	p.state = PoolClosed
}

// CollectStatistics returns zeros when Closed; otherwise iterates every
// worker accumulating state tallies and pending-task counts.
func (p *Pool) CollectStatistics() Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stats Statistics
	if p.state == PoolClosed {
		return stats
	}

	p.threads.forEachThread(func(th *Thread) {
		switch th.State() {
		case StateWaiting:
			stats.WaitingThreads++
		case StateWorking:
			stats.WorkingThreads++
		}
		stats.PendingTasks += th.PendingTasks()
	})
	return stats
}

// CancelAllPendingTasks clears every worker's queue. No-op when Closed.
func (p *Pool) CancelAllPendingTasks() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PoolClosed {
		return
	}
	p.threads.forEachThread(func(th *Thread) { th.CancelAllPendingTasks() })
}
