// Package workerpool implements a resizable pool of long-lived worker
// goroutines, each owning a priority-ordered task queue, governed by a
// pool coordinator that dispatches submissions to the ideal worker,
// suspends/resumes workers, and resizes the pool while tasks are in
// flight.
//
// The package has no dependency beyond the standard library: every
// fallible operation returns a bool rather than an error, mirroring the
// no-exceptions contract of the source this was ported from. Callers
// that need typed errors, logging, or metrics should wrap the package
// from the outside (see internal/infrastructure for an example of doing
// exactly that around this package).
package workerpool
