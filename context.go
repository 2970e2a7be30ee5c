package gc

import "fmt"

// Context is the per-mutator facade over a Heap: a thin, non-shareable
// handle a single logical thread of control uses to allocate and drive
// collection, the same way the interpreter loop this collector is modeled
// on gives each OS thread its own Context over shared virtual-machine
// state. A Context itself must not be shared across goroutines; the Heap
// underneath it may be, via [FromHeap].
type Context struct {
	heap *Heap
}

// New constructs a Heap and returns a Context over it, applying opts in
// order. By default the heap only collects when driven explicitly through
// Context.Collect / Context.CollectIncremental; pass
// [WithAutomaticCollection] to also run a paced background collector.
func New(opts ...Option) *Context {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	h := newHeap(cfg)
	if cfg.Automatic {
		h.startBackground(cfg.PollInterval, cfg.StepBudget)
	}
	return &Context{heap: h}
}

// FromHeap wraps an existing Heap in a new Context. Use this to give a
// second goroutine its own facade over a Heap another Context already
// created with New.
func FromHeap(h *Heap) *Context {
	return &Context{heap: h}
}

// Heap returns the Context's underlying Heap.
func (c *Context) Heap() *Heap { return c.heap }

// Collect runs one full collection cycle on the Context's heap. See
// [Heap.Collect].
func (c *Context) Collect() { c.heap.Collect() }

// CollectIncremental runs one full collection cycle, yielding between
// slices of at most step headers of mark work. See
// [Heap.CollectIncremental].
func (c *Context) CollectIncremental(step int) { c.heap.CollectIncremental(step) }

// Close shuts down the Heap's background collector, if one is running,
// and blocks until its goroutine has exited. The collector belongs to the
// Heap, not to this Context, so closing any Context over a shared Heap
// stops it for every Context; callers that created the Heap with New
// should call Close exactly once, after every Context over it is done.
//
// In debug mode (see [WithDebug]) Close panics with [ErrHeapInUse] if any
// Rooted handle is still outstanding: Go has no destructors to catch this
// the way the collector this module is modeled on does when its own Heap
// type is dropped, so the check only runs when explicitly requested.
func (c *Context) Close() {
	if c.heap.bg != nil {
		c.heap.bg.shutdown()
	}
	if c.heap.debug {
		if n := c.heap.countRooted(); n > 0 {
			panic(fmt.Errorf("%w: %d handles still rooted", ErrHeapInUse, n))
		}
	}
}

// Allocate registers value with ctx's heap and returns a Rooted handle to
// it. It is a free function, not a method, because Go does not let a
// method introduce a type parameter beyond its receiver's own.
func Allocate[T any](ctx *Context, value T) Rooted[T] {
	return allocate[T](ctx.heap, value)
}
