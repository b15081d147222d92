package workerpool

import (
	"runtime"
	"sync"
)

var (
	hardwareConcurrencyOnce  sync.Once
	hardwareConcurrencyCount int
)

// HardwareConcurrency returns the number of logical CPUs available to the
// process, computed lazily and memoized (process-wide immutable after
// the first observation), mirroring the source's cached
// hardware_concurrency().
func HardwareConcurrency() int {
	hardwareConcurrencyOnce.Do(func() {
		hardwareConcurrencyCount = runtime.NumCPU()
	})
	return hardwareConcurrencyCount
}
