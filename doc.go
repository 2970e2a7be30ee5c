// Package gc implements an embeddable, concurrent, tri-color mark-and-sweep
// collector for Go programs that need GC semantics (cycle collection,
// generic-typed handles, a write barrier) layered on top of values that Go's
// own runtime would otherwise treat as perfectly ordinary heap memory.
//
// # Overview
//
// A [Heap] owns an intrusive, singly-linked list of managed objects and runs
// the collector: mutators interact with it through a [Context], which plays
// the role the Sola virtual machine gives a single OS thread's interpreter
// loop — a thin, non-shareable facade over state ([Heap]) that many
// goroutines may share concurrently.
//
// Values are allocated with [Allocate], which returns a [Rooted] handle: a
// strong, dereferenceable reference that keeps its target alive. Handles
// embedded inside other managed values downgrade to [Unrooted] — a bare,
// pointer-sized reference that is safe to hold only while reachable from a
// root, and that must be wrapped in a [WriteCell] if the enclosing value
// needs to mutate it after construction. WriteCell is the collector's write
// barrier boundary: plain field assignment would let a mutator hide a live
// object from an in-flight mark phase, so every store that can change an
// Unrooted edge after the enclosing object is traced goes through it.
//
// Collection proceeds in three phases — Idle, Marking, Sweeping — driven
// either by explicit calls to [Context.Collect] / [Context.CollectIncremental]
// or by a background goroutine (see [WithAutomaticCollection]) that paces
// itself against the heap's growth since the previous cycle.
package gc
