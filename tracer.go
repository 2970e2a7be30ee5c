package gc

// Tracer is the interface a managed value's Trace method uses to report its
// outgoing edges to the collector. Callers never construct one themselves;
// the Heap hands one to vtable.trace during marking.
type Tracer interface {
	// visitHeader shades the given node: if it is still White, it is
	// flipped Gray and queued for its own trace pass. It is a no-op on
	// a nil header, so tracing an empty/optional Unrooted field needs
	// no explicit nil check.
	visitHeader(h *Header)
}

// Traceable is implemented by managed values that hold references to other
// managed values. A type with no outgoing edges (no embedded Unrooted,
// Rooted, or WriteCell fields) need not implement it; the collector treats
// such types as leaves.
type Traceable interface {
	Trace(t Tracer)
}

type tracerFunc func(*Header)

func (f tracerFunc) visitHeader(h *Header) {
	if h == nil {
		return
	}
	f(h)
}
