package gc

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Heap owns the intrusive object list and the collector's phase state. A
// Heap may be shared across goroutines; a [Context] is the non-shareable
// facade a single logical mutator uses to reach it, the way the virtual
// machine this collector is modeled on gives each OS thread its own
// interpreter loop over shared heap state.
type Heap struct {
	head atomic.Pointer[Header]

	grayMu sync.Mutex
	gray   []*Header

	phase Color32 // reused atomic-uint32 wrapper; see Phase32 alias below

	bytesAllocated atomic.Uint64
	threshold      atomic.Uint64
	minThreshold   uint64
	growthFactor   float64

	debug  bool
	logger *zap.Logger

	bg *background

	errMu        sync.Mutex
	collectorErr error
	poisoned     atomic.Bool

	cycles atomic.Uint64
}

// Phase32 is an atomic Phase. Phase and Color share the same underlying
// uint32 representation and CAS discipline, so Color32's implementation is
// reused verbatim instead of duplicating it.
type Phase32 = Color32

func newHeap(cfg *Config) *Heap {
	h := &Heap{
		minThreshold: cfg.InitialThreshold,
		growthFactor: cfg.GrowthFactor,
		debug:        cfg.Debug,
		logger:       cfg.Logger,
	}
	h.phase.Store(Color(Idle))
	h.threshold.Store(cfg.InitialThreshold)
	return h
}

// Phase reports the collector's current phase.
func (h *Heap) Phase() Phase { return Phase(h.phase.Load()) }

// BytesAllocated reports the live byte count as tracked by the last
// completed sweep plus any allocations since.
func (h *Heap) BytesAllocated() uint64 { return h.bytesAllocated.Load() }

// Poisoned reports whether the background collector hit a fatal error and
// gave up. A poisoned Heap still serves reads and writes; it simply no
// longer collects on its own. See [Heap.CollectorErr].
func (h *Heap) Poisoned() bool { return h.poisoned.Load() }

// CollectorErr returns the error that poisoned the heap, if any. It is nil
// on a healthy heap.
func (h *Heap) CollectorErr() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.collectorErr
}

func (h *Heap) reportFatal(err error) {
	h.errMu.Lock()
	h.collectorErr = multierr.Append(h.collectorErr, &CollectorError{Err: err})
	h.errMu.Unlock()
	h.poisoned.Store(true)
	if h.logger != nil {
		h.logger.Error("background collector stopped after a fatal error", zap.Error(err))
	}
}

// ShouldCollect reports whether no cycle is running and the heap's tracked
// byte count (live bytes after the last sweep plus allocations since) has
// reached this heap's pacing threshold. Both the background collector and
// callers driving their own loop can use it to decide when to call Collect
// or CollectIncremental.
func (h *Heap) ShouldCollect() bool {
	return h.Phase() == Idle && h.bytesAllocated.Load() >= h.threshold.Load()
}

func (h *Heap) recalcThreshold() {
	live := h.bytesAllocated.Load()
	next := uint64(float64(live) * h.growthFactor)
	if next < h.minThreshold {
		next = h.minThreshold
	}
	h.threshold.Store(next)
}

// SetThreshold overrides the byte threshold ShouldCollect paces against,
// replacing whatever the last recalcThreshold (or the initial config) set.
// Embedders use this to retune collection pacing at runtime, e.g. after
// observing an application's steady-state allocation rate.
func (h *Heap) SetThreshold(bytes uint64) {
	h.threshold.Store(bytes)
}

// countRooted returns the number of nodes with at least one outstanding
// root. Used only by the debug-mode check in Context.Close; an ordinary
// collection cycle never needs a full-list count like this.
func (h *Heap) countRooted() int {
	n := 0
	for cur := h.head.Load(); cur != nil; cur = cur.next.Load() {
		if cur.rootCount.Load() > 0 {
			n++
		}
	}
	return n
}

// HeapStats is a point-in-time snapshot of collector bookkeeping, intended
// for logging and tests rather than for driving collection decisions (use
// [Heap.ShouldCollect] for that; stats can be stale the instant they're
// read on a heap shared by other goroutines).
type HeapStats struct {
	Phase          Phase
	BytesAllocated uint64
	Threshold      uint64
	CyclesRun      uint64
	Poisoned       bool
}

// Stats returns a snapshot of the heap's current bookkeeping.
func (h *Heap) Stats() HeapStats {
	return HeapStats{
		Phase:          h.Phase(),
		BytesAllocated: h.bytesAllocated.Load(),
		Threshold:      h.threshold.Load(),
		CyclesRun:      h.cycles.Load(),
		Poisoned:       h.poisoned.Load(),
	}
}

// allocate is the generic core of [Allocate]; box.go's type is only usable
// through this free function because Go does not allow a method to
// introduce its own type parameter beyond its receiver's.
func allocate[T any](h *Heap, value T) Rooted[T] {
	vt := vtableFor[T]()
	b := &box[T]{value: value}
	hdr := &b.Header
	hdr.vtable = vt
	hdr.heap = h
	hdr.color.Store(White)
	hdr.rootCount.Store(1)

	for {
		old := h.head.Load()
		hdr.next.Store(old)
		if h.head.CompareAndSwap(old, hdr) {
			break
		}
	}

	h.bytesAllocated.Add(uint64(vt.size))
	return Rooted[T]{u: Unrooted[T]{h: hdr}}
}

// Collect runs one full collection cycle to completion: a root scan,
// draining the gray queue in one unbounded pass, then a sweep. It is a
// no-op, leaving every counter in HeapStats unchanged, if another cycle is
// already running or the object list is empty.
func (h *Heap) Collect() {
	if h.head.Load() == nil {
		return
	}
	if !h.beginMark() {
		return
	}
	for !h.doMarkWork(-1) {
	}
	h.sweep()
	h.recalcThreshold()
}

// CollectIncremental runs one full collection cycle to completion like
// Collect, but drains the gray queue in slices of at most step headers at a
// time, yielding the goroutine between slices. It is meant for callers that
// want to pace a collection against other work on the same goroutine
// rather than block it outright; it still blocks until the cycle finishes.
// A non-positive step is treated as unbounded, equivalent to Collect.
func (h *Heap) CollectIncremental(step int) {
	if h.head.Load() == nil {
		return
	}
	if !h.beginMark() {
		return
	}
	budget := step
	if budget <= 0 {
		budget = -1
	}
	for !h.doMarkWork(budget) {
		runtime.Gosched()
	}
	h.sweep()
	h.recalcThreshold()
}
