package workerpool

// threadNode is one link in the intrusive doubly-linked list of
// worker-owning nodes.
type threadNode struct {
	prev, next *threadNode
	thread     *Thread
}

// threadList is a doubly-linked list of Thread-owning nodes. It never
// drops below one node once non-empty except via release (full
// teardown), mirroring the source's invariant that a pool always has at
// least one worker while open.
type threadList struct {
	head, tail *threadNode
	size       int

	nextID      uint64
	queueCap    int
	panicHandler PanicHandler
}

func newThreadList(initialSize int, queueCap int, onPanic PanicHandler) *threadList {
	if initialSize < 1 {
		initialSize = 1
	}
	l := &threadList{queueCap: queueCap, panicHandler: onPanic}
	_ = l.grow(initialSize)
	return l
}

func (l *threadList) length() int { return l.size }

func (l *threadList) newID() uint64 {
	l.nextID++
	return l.nextID
}

func (l *threadList) threadOpts() []ThreadOption {
	var opts []ThreadOption
	if l.queueCap > 0 {
		opts = append(opts, WithQueueCapacity(l.queueCap))
	}
	if l.panicHandler != nil {
		opts = append(opts, WithPanicHandler(l.panicHandler))
	}
	return opts
}

func (l *threadList) append(th *Thread) {
	node := &threadNode{thread: th}
	if l.tail == nil {
		l.head, l.tail = node, node
	} else {
		node.prev = l.tail
		l.tail.next = node
		l.tail = node
	}
	l.size++
}

// grow tries to hire count additional threads. Starting a goroutine
// cannot fail in the Go runtime (unlike the source's CreateThread), so
// this always succeeds for count >= 0; the bool return is kept for
// interface parity with the source, which stops (without rolling back)
// on the first allocator failure.
func (l *threadList) grow(count int) bool {
	if count < 0 {
		return false
	}
	for i := 0; i < count; i++ {
		l.append(newThread(l.newID(), nil, l.threadOpts()...))
	}
	return true
}

// reduce tries to dismiss count existing threads: first any currently
// Waiting threads walking from the head (the fast path — they park
// without work in flight), then, if still short, whichever threads
// remain starting from the tail regardless of state. Refuses if
// count > size.
func (l *threadList) reduce(count int) bool {
	if count > l.size {
		return false
	}
	if count == l.size {
		l.release()
		return true
	}

	remaining := count
	node := l.head
	for node != nil && remaining > 0 {
		next := node.next
		if node.thread.State() == StateWaiting {
			l.unlinkAndTerminate(node)
			remaining--
		}
		node = next
	}

	for remaining > 0 && l.tail != nil {
		l.unlinkAndTerminate(l.tail)
		remaining--
	}

	return true
}

func (l *threadList) unlinkAndTerminate(node *threadNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	l.size--
	node.thread.Terminate(true)
}

// release dismisses every thread, head to tail.
func (l *threadList) release() {
	for node := l.head; node != nil; {
		next := node.next
		node.thread.Terminate(true)
		node = next
	}
	l.head, l.tail, l.size = nil, nil, 0
}

func (l *threadList) selectThread(index int) *Thread {
	if index < 0 || index >= l.size {
		return nil
	}
	node := l.head
	for i := 0; i < index; i++ {
		node = node.next
	}
	return node.thread
}

func (l *threadList) selectThreadByID(id uint64) *Thread {
	for node := l.head; node != nil; node = node.next {
		if node.thread.GetID() == id {
			return node.thread
		}
	}
	return nil
}

func (l *threadList) selectAnyWaitingThread() *Thread {
	for node := l.head; node != nil; node = node.next {
		if node.thread.State() == StateWaiting {
			return node.thread
		}
	}
	return nil
}

// selectThreadWithFewestPendingTasks scans every worker; ties are broken
// by position, first wins. This is a best-effort snapshot: each queue
// size is read under its own lock, not atomically across workers (see
// DESIGN.md).
func (l *threadList) selectThreadWithFewestPendingTasks() *Thread {
	var best *Thread
	bestCount := -1
	for node := l.head; node != nil; node = node.next {
		n := node.thread.PendingTasks()
		if bestCount == -1 || n < bestCount {
			best = node.thread
			bestCount = n
		}
	}
	return best
}

func (l *threadList) forEachThread(fn func(*Thread)) {
	for node := l.head; node != nil; node = node.next {
		fn(node.thread)
	}
}
