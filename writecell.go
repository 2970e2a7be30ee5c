package gc

import "go.uber.org/atomic"

// WriteCell is a mutable slot holding an Unrooted[T] inside some other
// managed value. Plain field assignment would let a mutator overwrite the
// only reference to a reachable object with one the collector has already
// finished tracing (a black object pointing at a white one), which is
// exactly the situation the strong tri-color invariant forbids. Store runs
// the insertion barrier that rules it out; Load never needs a barrier
// because reading a reference doesn't change the object graph.
//
// Correctness argument: a store can only hide a white object from the
// current cycle if it replaces the last remaining path to it. Shading the
// incoming value gray before it's published closes that gap — once it is
// gray, draining the queue will find it and any of its own children
// regardless of whether the link that exposed it to the mutator still
// exists by the time the cell's new value is read. We don't also shade the
// outgoing (overwritten) value: by the time a value has been traced black
// once already this cycle, any edge it held going into the cycle was
// already picked up during that trace, so there is nothing left to lose by
// letting it go white (see the Yuasa-deletion-barrier cases the same
// argument generalizes from).
type WriteCell[T any] struct {
	heap  *Heap
	value atomic.Pointer[Header]
}

// NewWriteCell constructs a cell on heap holding initial.
func NewWriteCell[T any](heap *Heap, initial Unrooted[T]) *WriteCell[T] {
	w := &WriteCell[T]{heap: heap}
	w.value.Store(initial.h)
	return w
}

// Load returns the cell's current value.
func (w *WriteCell[T]) Load() Unrooted[T] {
	return Unrooted[T]{h: w.value.Load()}
}

// Store publishes v into the cell, running the insertion write barrier
// first if the heap is in the Marking phase.
func (w *WriteCell[T]) Store(v Unrooted[T]) {
	if w.heap.Phase() == Marking {
		w.heap.markGray(v.h)
	}
	w.value.Store(v.h)
}

// Mark reports the cell's current target to t. Trace implementations call
// this for every WriteCell field they hold.
func (w *WriteCell[T]) Mark(t Tracer) { t.visitHeader(w.value.Load()) }
