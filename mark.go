package gc

import "go.uber.org/zap"

// markGray shades hdr from White to Gray and queues it for tracing. It is
// the single chokepoint the root scan, the write barrier, and trace edges
// all funnel through, which is what makes "shade on insertion" sufficient
// to uphold the strong tri-color invariant: see the write barrier's
// correctness note in writecell.go.
func (h *Heap) markGray(hdr *Header) {
	if hdr == nil {
		return
	}
	if !hdr.color.CAS(White, Gray) {
		return
	}
	h.grayMu.Lock()
	h.gray = append(h.gray, hdr)
	h.grayMu.Unlock()
}

// beginMark transitions the heap from Idle to Marking and performs the
// root scan. It returns false without doing anything if a cycle is already
// running, which is what keeps at most one collection in flight at a time.
func (h *Heap) beginMark() bool {
	if !h.phase.CAS(Color(Idle), Color(Marking)) {
		return false
	}
	var roots int
	for cur := h.head.Load(); cur != nil; cur = cur.next.Load() {
		if cur.rootCount.Load() > 0 {
			h.markGray(cur)
			roots++
		}
	}
	if h.debug {
		h.logger.Debug("begin_mark: root scan complete",
			zap.Int("roots_found", roots),
			zap.Uint64("bytes_allocated", h.bytesAllocated.Load()))
	}
	return true
}

// doMarkWork pops up to budget headers off the gray queue (the whole queue
// when budget is negative), traces each one, and flips it to Black. It
// reports whether the gray queue was left empty once this batch and
// whatever new edges it discovered have both been accounted for — the
// same pop-under-lock/process-outside-lock/recheck shape a slice-budgeted
// concurrent mark worker uses to bound how long it holds the queue lock.
func (h *Heap) doMarkWork(budget int) bool {
	h.grayMu.Lock()
	n := len(h.gray)
	if budget >= 0 && budget < n {
		n = budget
	}
	batch := append([]*Header(nil), h.gray[:n]...)
	h.gray = h.gray[n:]
	h.grayMu.Unlock()

	visit := tracerFunc(h.markGray)
	for _, hdr := range batch {
		hdr.vtable.trace(hdr, visit)
		hdr.color.CAS(Gray, Black)
	}

	h.grayMu.Lock()
	done := len(h.gray) == 0
	h.grayMu.Unlock()
	return done
}
