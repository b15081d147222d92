package workerpool

// Async submits fn, with no arguments, to pool at PriorityNormal. The
// source packs a decayed copy of fn and its arguments into a heap tuple
// and frees it after the adapter runs; Go generics make that packing
// unnecessary — the closure captures its arguments directly and the Go
// garbage collector reclaims them once the closure returns, which is the
// structural equivalent of the adapter's self-free step.
func Async(pool *Pool, fn func()) bool {
	return AsyncWithPriority(pool, PriorityNormal, fn)
}

// AsyncWithPriority is Async with an explicit priority.
func AsyncWithPriority(pool *Pool, priority TaskPriority, fn func()) bool {
	if fn == nil {
		return false
	}
	return pool.ScheduleWithPriority(func(any) { fn() }, nil, priority)
}

// Async1 submits fn(arg) to pool at PriorityNormal, capturing arg by
// value the way the source's tuple would.
func Async1[A any](pool *Pool, fn func(A), arg A) bool {
	return AsyncWithPriority1(pool, PriorityNormal, fn, arg)
}

// AsyncWithPriority1 is Async1 with an explicit priority.
func AsyncWithPriority1[A any](pool *Pool, priority TaskPriority, fn func(A), arg A) bool {
	if fn == nil {
		return false
	}
	return pool.ScheduleWithPriority(func(any) { fn(arg) }, nil, priority)
}

// Async2 submits fn(a, b) to pool at PriorityNormal.
func Async2[A, B any](pool *Pool, fn func(A, B), a A, b B) bool {
	return AsyncWithPriority2(pool, PriorityNormal, fn, a, b)
}

// AsyncWithPriority2 is Async2 with an explicit priority.
func AsyncWithPriority2[A, B any](pool *Pool, priority TaskPriority, fn func(A, B), a A, b B) bool {
	if fn == nil {
		return false
	}
	return pool.ScheduleWithPriority(func(any) { fn(a, b) }, nil, priority)
}
