package gc

import "errors"

// ErrHeapInUse is the usage error [Context.Close] panics with, in debug
// mode, when Rooted handles are still outstanding. Go has no destructors,
// so there is no way to detect this automatically outside of debug mode;
// see spec.md §7 ("dropping the Heap while Rooted handles still exist").
var ErrHeapInUse = errors.New("gc: heap closed while rooted handles remain")

// ErrUnrootedDeref is not currently returned by Deref (which trusts the
// caller's reachability argument rather than checking it at runtime) but
// is reserved for a debug-build checked variant; see DESIGN.md.
var ErrUnrootedDeref = errors.New("gc: unrooted handle dereferenced with no reachable root")

// CollectorError wraps a fatal error raised inside the background
// collector goroutine. Once one is recorded the owning Heap is marked
// [Heap.Poisoned] and stops collecting on its own; callers can still drive
// collection manually through Context.Collect.
type CollectorError struct {
	Err error
}

func (e *CollectorError) Error() string {
	return "gc: background collector stopped: " + e.Err.Error()
}

func (e *CollectorError) Unwrap() error { return e.Err }
