package workerpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopTask(p TaskPriority) Task {
	return Task{Fn: func(any) {}, Priority: p}
}

func checkInvariants(t *testing.T, q *taskQueue) {
	t.Helper()
	if q.size == 0 {
		assert.Nil(t, q.first)
		assert.Nil(t, q.last)
		return
	}
	require.NotNil(t, q.first)
	require.NotNil(t, q.last)
	assert.Nil(t, q.first.prev)
	assert.Nil(t, q.last.next)

	count := 0
	for n := q.first; n != nil; n = n.next {
		if n.next != nil {
			assert.Same(t, n, n.next.prev)
		}
		count++
	}
	assert.Equal(t, q.size, count)
}

func TestTaskQueue_EmptyPopFront(t *testing.T) {
	q := newTaskQueue(0)
	assert.True(t, q.empty())
	assert.Equal(t, 0, q.size_())

	zero := q.front()
	assert.True(t, zero.isZero())

	popped := q.pop()
	assert.True(t, popped.isZero())
	checkInvariants(t, q)
}

func TestTaskQueue_PushFIFO(t *testing.T) {
	q := newTaskQueue(0)
	order := []int{}
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, q.push(Task{Fn: func(any) {}, Data: i, Priority: PriorityNormal}))
	}
	checkInvariants(t, q)
	assert.Equal(t, 5, q.size_())

	for i := 0; i < 5; i++ {
		task := q.pop()
		order = append(order, task.Data.(int))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.True(t, q.empty())
	checkInvariants(t, q)
}

func TestTaskQueue_PushWithPriority_Ordering(t *testing.T) {
	q := newTaskQueue(0)
	tag := func(name string, p TaskPriority) Task {
		return Task{Fn: func(any) {}, Data: name, Priority: p}
	}

	require.True(t, q.pushWithPriority(tag("A", PriorityNormal), higherPriority))
	require.True(t, q.pushWithPriority(tag("B", PriorityLow), higherPriority))
	require.True(t, q.pushWithPriority(tag("C", PriorityHigh), higherPriority))
	require.True(t, q.pushWithPriority(tag("D", PriorityNormal), higherPriority))
	checkInvariants(t, q)

	var order []string
	for !q.empty() {
		order = append(order, q.pop().Data.(string))
	}
	assert.Equal(t, []string{"C", "A", "D", "B"}, order)
}

func TestTaskQueue_PushWithPriority_HigherPopsFirstRegardlessOfInsertOrder(t *testing.T) {
	q := newTaskQueue(0)
	tag := func(name string, p TaskPriority) Task {
		return Task{Fn: func(any) {}, Data: name, Priority: p}
	}

	require.True(t, q.pushWithPriority(tag("T", PriorityHigh), higherPriority))
	for i := 0; i < 10; i++ {
		require.True(t, q.pushWithPriority(tag("low", PriorityLow), higherPriority))
	}

	first := q.pop()
	assert.Equal(t, "T", first.Data.(string))
}

func TestTaskQueue_PushWithPriority_AlwaysFalsePredicateIsFIFO(t *testing.T) {
	q := newTaskQueue(0)
	alwaysFalse := func(a, b Task) bool { return false }

	for i := 0; i < 4; i++ {
		i := i
		require.True(t, q.pushWithPriority(Task{Fn: func(any) {}, Data: i}, alwaysFalse))
	}

	var order []int
	for !q.empty() {
		order = append(order, q.pop().Data.(int))
	}
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestTaskQueue_PushWithPriority_AlwaysTruePredicateInsertsAtHead(t *testing.T) {
	q := newTaskQueue(0)
	alwaysTrue := func(a, b Task) bool { return true }

	for i := 0; i < 4; i++ {
		i := i
		require.True(t, q.pushWithPriority(Task{Fn: func(any) {}, Data: i}, alwaysTrue))
	}

	var order []int
	for !q.empty() {
		order = append(order, q.pop().Data.(int))
	}
	assert.Equal(t, []int{3, 2, 1, 0}, order)
}

func TestTaskQueue_FullRejectsPush(t *testing.T) {
	q := newTaskQueue(3)
	for i := 0; i < 3; i++ {
		require.True(t, q.push(noopTask(PriorityNormal)))
	}
	assert.True(t, q.full())

	ok := q.push(noopTask(PriorityNormal))
	assert.False(t, ok)
	assert.Equal(t, 3, q.size_())

	ok = q.pushWithPriority(noopTask(PriorityHighest), higherPriority)
	assert.False(t, ok)
	assert.Equal(t, 3, q.size_())
}

func TestTaskQueue_ClearResetsToEmpty(t *testing.T) {
	q := newTaskQueue(0)
	for i := 0; i < 5; i++ {
		q.push(noopTask(PriorityNormal))
	}
	q.clear()
	assert.True(t, q.empty())
	assert.Equal(t, 0, q.size_())
	checkInvariants(t, q)
}

func TestTaskQueue_ReleaseAssign(t *testing.T) {
	src := newTaskQueue(0)
	for i := 0; i < 3; i++ {
		i := i
		src.push(Task{Fn: func(any) {}, Data: i})
	}

	chain := src.release()
	assert.True(t, src.empty())
	assert.Equal(t, 3, chain.size)

	dst := newTaskQueue(0)
	dst.push(noopTask(PriorityNormal)) // pre-existing content must be cleared
	dst.assign(chain)

	assert.Equal(t, 3, dst.size_())
	checkInvariants(t, dst)

	var order []int
	for !dst.empty() {
		order = append(order, dst.pop().Data.(int))
	}
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestTaskQueue_PopSingleElementResetsEnds(t *testing.T) {
	q := newTaskQueue(0)
	q.push(noopTask(PriorityNormal))
	q.pop()
	assert.Nil(t, q.first)
	assert.Nil(t, q.last)
	assert.Equal(t, 0, q.size_())
}
