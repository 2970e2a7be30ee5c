package gc

import (
	"sync/atomic"
	"testing"
	"time"
)

// node is the payload type used throughout this package's tests: a single
// outgoing edge behind a write barrier, plus a drop counter so tests can
// assert destructor semantics without relying on timing.
type node struct {
	next    *WriteCell[node]
	dropped *int32
}

func (n *node) Trace(t Tracer) {
	if n.next != nil {
		n.next.Mark(t)
	}
}

func (n *node) Drop() {
	if n.dropped != nil {
		atomic.AddInt32(n.dropped, 1)
	}
}

func newNode(ctx *Context, dropped *int32) (Rooted[node], *node) {
	r := Allocate(ctx, node{dropped: dropped})
	v := r.Get()
	v.next = NewWriteCell[node](ctx.Heap(), Unrooted[node]{})
	return r, v
}

func TestAllocateRootCountStartsAtOne(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	r := Allocate(ctx, 42)
	if got := r.u.h.RootCount(); got != 1 {
		t.Fatalf("root count = %d, want 1", got)
	}
	if got := r.Unrooted().Deref(); *got != 42 {
		t.Fatalf("deref = %d, want 42", *got)
	}
}

func TestBasicReclamation(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	var d1, d2, d3 int32
	r1, _ := newNode(ctx, &d1)
	r2, _ := newNode(ctx, &d2)
	r3, _ := newNode(ctx, &d3)

	r1.Release()
	r3.Release()
	ctx.Collect()

	if d1 != 1 || d3 != 1 {
		t.Fatalf("expected handles 1 and 3 dropped once each, got d1=%d d3=%d", d1, d3)
	}
	if d2 != 0 {
		t.Fatalf("handle 2 is still rooted, should not have been dropped, got %d", d2)
	}
	r2.Release()
}

func TestCycleCollection(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	var dA, dB int32
	a, nodeA := newNode(ctx, &dA)
	b, nodeB := newNode(ctx, &dB)

	nodeA.next.Store(b.Unrooted())
	nodeB.next.Store(a.Unrooted())

	a.Release()
	b.Release()

	ctx.Collect()

	if dA != 1 || dB != 1 {
		t.Fatalf("expected both cycle members dropped once, got dA=%d dB=%d", dA, dB)
	}
}

func TestWriteBarrierProtectsAllocationDuringMarking(t *testing.T) {
	ctx := New()
	heap := ctx.Heap()

	var dRoot, dNew int32
	root, rootNode := newNode(ctx, &dRoot)

	if !heap.beginMark() {
		t.Fatal("beginMark should succeed on an idle heap")
	}

	fresh, _ := newNode(ctx, &dNew)
	rootNode.next.Store(fresh.Unrooted())
	fresh.Release()

	for !heap.doMarkWork(-1) {
	}
	heap.sweep()

	if dNew != 0 {
		t.Fatalf("object published under the write barrier during marking must survive its first cycle, got dropped=%d", dNew)
	}

	root.Release()
	ctx.Collect()
	if dRoot != 1 || dNew != 1 {
		t.Fatalf("expected both nodes dropped after the second cycle, got dRoot=%d dNew=%d", dRoot, dNew)
	}
}

func TestAllocationDuringMarkingSurvivesWhileRooted(t *testing.T) {
	ctx := New()
	heap := ctx.Heap()

	if !heap.beginMark() {
		t.Fatal("beginMark should succeed on an idle heap")
	}

	var dropped int32
	fresh, _ := newNode(ctx, &dropped)

	for !heap.doMarkWork(-1) {
	}
	heap.sweep()

	if dropped != 0 {
		t.Fatalf("a still-rooted object allocated after the root scan must survive the cycle it was allocated in, got dropped=%d", dropped)
	}

	fresh.Release()
	ctx.Collect()
	if dropped != 1 {
		t.Fatalf("expected the object reclaimed on the next cycle once dropped, got %d", dropped)
	}
}

func TestCollectIncrementalStepsToCompletion(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	const n = 50
	var drops int32
	roots := make([]Rooted[node], 0, n)
	for i := 0; i < n; i++ {
		r, _ := newNode(ctx, &drops)
		roots = append(roots, r)
	}
	for i := 0; i < n; i += 2 {
		roots[i].Release()
	}

	ctx.CollectIncremental(1)

	if int(drops) != n/2 {
		t.Fatalf("expected %d drops after incremental collection, got %d", n/2, drops)
	}
	for i := 1; i < n; i += 2 {
		roots[i].Release()
	}
}

func TestCollectOnIdleEmptyHeapIsNoop(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	before := ctx.Heap().Stats()
	ctx.Collect()
	after := ctx.Heap().Stats()

	if before.BytesAllocated != after.BytesAllocated || after.BytesAllocated != 0 {
		t.Fatalf("expected no change in byte counters on an empty heap, before=%+v after=%+v", before, after)
	}
	if after.CyclesRun != before.CyclesRun {
		t.Fatalf("expected CyclesRun unchanged on a no-op collect, before=%d after=%d", before.CyclesRun, after.CyclesRun)
	}
	if after.Phase != Idle {
		t.Fatalf("expected heap to return to Idle, got %v", after.Phase)
	}
}

func TestSetThresholdOverridesPacing(t *testing.T) {
	ctx := New(WithInitialThreshold(1 << 20))
	defer ctx.Close()

	ctx.Heap().SetThreshold(16)
	r := Allocate(ctx, 42)
	defer r.Release()

	if !ctx.Heap().ShouldCollect() {
		t.Fatalf("expected ShouldCollect to report true once bytes allocated exceed a lowered threshold")
	}
	if got := ctx.Heap().Stats().Threshold; got != 16 {
		t.Fatalf("Stats().Threshold = %d, want 16", got)
	}
}

func TestOnlyOneCycleAtATime(t *testing.T) {
	ctx := New()
	defer ctx.Close()
	heap := ctx.Heap()

	if !heap.beginMark() {
		t.Fatal("first beginMark should succeed")
	}
	if heap.beginMark() {
		t.Fatal("a second beginMark while Marking should be a no-op")
	}
	for !heap.doMarkWork(-1) {
	}
	heap.sweep()
}

func TestRootedCloneAndReleaseAreIndependent(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	var dropped int32
	r, _ := newNode(ctx, &dropped)
	clone := r.Clone()

	r.Release()
	ctx.Collect()
	if dropped != 0 {
		t.Fatalf("clone still holds a root, object must survive, got dropped=%d", dropped)
	}

	clone.Release()
	ctx.Collect()
	if dropped != 1 {
		t.Fatalf("expected exactly one drop once the last clone released, got %d", dropped)
	}
}

func TestAutomaticCollectionConverges(t *testing.T) {
	ctx := New(
		WithInitialThreshold(256),
		WithGrowthFactor(2),
		WithAutomaticCollection(time.Millisecond, 64),
	)
	defer ctx.Close()

	var drops int32
	for i := 0; i < 200; i++ {
		r, _ := newNode(ctx, &drops)
		r.Release()
	}

	deadline := time.After(500 * time.Millisecond)
	for atomic.LoadInt32(&drops) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected background collector to reclaim at least one unrooted node")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if ctx.Heap().Poisoned() {
		t.Fatalf("heap unexpectedly poisoned: %v", ctx.Heap().CollectorErr())
	}
}
