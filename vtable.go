package gc

import (
	"reflect"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// vtable replaces the reflection a naive Go implementation would reach for:
// every concrete type T gets exactly one vtable, built the first time
// Allocate[T] runs, and every later allocation of that T reuses it. This
// mirrors the "one vtable instance per concrete type, for the life of the
// process" contract: the cache below intentionally never evicts, the same
// way a language runtime's class/type descriptors are never unloaded.
type vtable struct {
	size     uintptr
	typeName string
	trace    func(h *Header, t Tracer)
	drop     func(h *Header)
}

var vtables sync.Map // map[reflect.Type]*vtable

// vtableFor returns the process-lifetime vtable for T, building it on first
// use. T's identity is taken from reflect.TypeOf((*T)(nil)).Elem() rather
// than from a live value, so the cache works even for T's zero value.
func vtableFor[T any]() *vtable {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := vtables.Load(rt); ok {
		return v.(*vtable)
	}
	vt := buildVTable[T](rt)
	actual, _ := vtables.LoadOrStore(rt, vt)
	return actual.(*vtable)
}

func buildVTable[T any](rt reflect.Type) *vtable {
	vt := &vtable{
		size:     unsafe.Sizeof(box[T]{}),
		typeName: rt.String(),
	}

	if _, ok := any((*T)(nil)).(Traceable); ok {
		vt.trace = func(h *Header, t Tracer) {
			b := (*box[T])(unsafe.Pointer(h))
			any(&b.value).(Traceable).Trace(t)
		}
	} else {
		vt.trace = func(h *Header, t Tracer) {}
	}

	vt.drop = func(h *Header) {
		b := (*box[T])(unsafe.Pointer(h))
		if d, ok := any(&b.value).(interface{ Drop() }); ok {
			d.Drop()
		}
		if owner := h.Heap(); owner != nil && owner.debug {
			owner.logger.Debug("reclaimed", zap.String("type", rt.String()))
		}
		var zero T
		b.value = zero
	}

	return vt
}
