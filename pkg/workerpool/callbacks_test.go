package workerpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackStack_FiresInRegistrationOrder(t *testing.T) {
	var s callbackStack
	var order []string

	require.True(t, s.push(EventSuspend, func(Event, any) { order = append(order, "first") }, nil))
	require.True(t, s.push(EventSuspend, func(Event, any) { order = append(order, "second") }, nil))
	require.True(t, s.push(EventResume, func(Event, any) { order = append(order, "resume") }, nil))

	s.fire(EventSuspend)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestCallbackStack_FiresOnlyMatchingEvent(t *testing.T) {
	var s callbackStack
	counts := map[Event]int{}
	cb := func(e Event, _ any) { counts[e]++ }

	s.push(EventSuspend, cb, nil)
	s.push(EventResume, cb, nil)
	s.push(EventTerminate, cb, nil)

	s.fire(EventSuspend)
	s.fire(EventResume)
	s.fire(EventTerminate)

	assert.Equal(t, 1, counts[EventSuspend])
	assert.Equal(t, 1, counts[EventResume])
	assert.Equal(t, 1, counts[EventTerminate])
}

func TestCallbackStack_RepeatedFireInvokesEveryTime(t *testing.T) {
	var s callbackStack
	count := 0
	s.push(EventSuspend, func(Event, any) { count++ }, nil)

	for i := 0; i < 5; i++ {
		s.fire(EventSuspend)
	}
	assert.Equal(t, 5, count)
}

func TestCallbackStack_EmptyFireIsNoOp(t *testing.T) {
	var s callbackStack
	assert.NotPanics(t, func() { s.fire(EventSuspend) })
}

func TestCallbackStack_RejectsNilCallback(t *testing.T) {
	var s callbackStack
	ok := s.push(EventSuspend, nil, nil)
	assert.False(t, ok)
	assert.True(t, s.empty())
}

func TestCallbackStack_Clear(t *testing.T) {
	var s callbackStack
	s.push(EventSuspend, func(Event, any) {}, nil)
	s.push(EventResume, func(Event, any) {}, nil)
	s.clear()
	assert.True(t, s.empty())
	assert.Equal(t, 0, s.len())
}
