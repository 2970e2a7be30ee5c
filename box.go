package gc

import "unsafe"

// unsafeBoxPtr recovers the *box[T] a header was carved from. Valid only
// when h was in fact produced by allocate[T]; every caller in this package
// gets there through a typed Unrooted[T]/Rooted[T], which is what ties h's
// runtime type back to T.
func unsafeBoxPtr[T any](h *Header) *box[T] {
	return (*box[T])(unsafe.Pointer(h))
}

// box is the concrete storage behind every managed allocation of type T.
// Header is embedded as the first field, so the Go spec's guarantee that a
// struct and its first field share an address is what lets vtable methods
// cast a bare *Header back to *box[T] with unsafe.Pointer instead of
// reflection or an offset table.
type box[T any] struct {
	Header
	value T
}
