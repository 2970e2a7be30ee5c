package gc

import "go.uber.org/atomic"

// Header is the fixed control block every managed allocation carries at
// offset 0. It is never accessed through reflection: box embeds Header as
// its first field, which the Go language spec guarantees sits at offset
// zero, so a *Header and the *box[T] it came from are the same address and
// convert through unsafe.Pointer for free. See box in box.go.
type Header struct {
	color Color32

	// rootCount is the number of live Rooted handles pointing at this
	// node. Sweep reclaims a node only when rootCount is zero and the
	// node is still White at the end of the current cycle.
	rootCount atomic.Uint64

	// next links this node into its owning Heap's intrusive object
	// list. Both Heap.head and every Header.next share the type
	// *atomic.Pointer[Header], which is what lets sweep walk the list
	// with a single "address of the previous next-link" cursor instead
	// of special-casing the list head.
	next atomic.Pointer[Header]

	// vtable dispatches trace and drop without reflection; see vtable.go.
	vtable *vtable

	// heap is the owning Heap, captured at allocation time. Go has no
	// analogue of the thread-local "current heap" slot the type this
	// collector is modeled on uses to keep handles a single word wide;
	// see DESIGN.md for why an explicit back-pointer is the idiomatic
	// substitute.
	heap *Heap
}

// Color32 is an atomic Color. It exists because go.uber.org/atomic does not
// generate a Color-typed wrapper, and storing Color as a plain atomic.Uint32
// everywhere would scatter uint32(x) conversions through the rest of the
// package.
type Color32 struct {
	v atomic.Uint32
}

func (c *Color32) Load() Color { return Color(c.v.Load()) }

func (c *Color32) Store(val Color) { c.v.Store(uint32(val)) }

func (c *Color32) CAS(old, new Color) bool {
	return c.v.CAS(uint32(old), uint32(new))
}

// RootCount reports the number of live Rooted handles pointing at this
// node. It exists for diagnostics; mutators should not branch on it.
func (h *Header) RootCount() uint64 { return h.rootCount.Load() }

// Color reports the node's current tri-color state. Exposed for debug
// logging and tests; ordinary mutator code never needs it.
func (h *Header) Color() Color { return h.color.Load() }

// TypeName reports the registered name of the concrete type stored in this
// node, for diagnostics.
func (h *Header) TypeName() string { return h.vtable.typeName }

// Heap returns the node's owning heap.
func (h *Header) Heap() *Heap { return h.heap }
