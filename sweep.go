package gc

import "go.uber.org/zap"

// sweep walks the object list exactly once, reclaiming every node that is
// still White and has no live root, and resetting every surviving node to
// White for the next cycle. Requires the gray queue to already be empty
// (the caller only reaches here once doMarkWork has reported done).
//
// cursor always holds the address of the previous node's next-link, never
// the node itself — *atomic.Pointer[Header] is exactly that, and Heap.head
// has the same type as every Header.next, so the list head needs no
// special case: the first iteration's cursor is just &h.head instead of
// &prevNode.next.
//
// Unlinking a reclaimed node always goes through CompareAndSwap, never a
// plain Store. Every interior next-link is only ever written here, so the
// CAS is uncontended there, but &h.head is also where allocate prepends new
// nodes: if a prepend lands in the window between this loop reading node
// and unlinking it, a Store would silently overwrite the new head and drop
// the freshly allocated node from the list forever. The CAS fails in that
// case instead, and the retry reloads the real current head.
func (h *Heap) sweep() {
	h.phase.Store(Color(Sweeping))

	var reclaimed, survived int

	cursor := &h.head
	for {
		node := cursor.Load()
		if node == nil {
			break
		}
		if node.rootCount.Load() == 0 && node.color.Load() == White {
			next := node.next.Load()
			if !cursor.CompareAndSwap(node, next) {
				continue
			}
			node.vtable.drop(node)
			h.bytesAllocated.Sub(uint64(node.vtable.size))
			reclaimed++
			continue
		}
		node.color.Store(White)
		cursor = &node.next
		survived++
	}

	h.cycles.Add(1)
	h.phase.Store(Color(Idle))

	if h.debug {
		h.logger.Debug("sweep complete",
			zap.Int("reclaimed", reclaimed),
			zap.Int("survived", survived),
			zap.Uint64("cycle", h.cycles.Load()))
	}
}
