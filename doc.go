// Package zinc implements an I/O scheduler for zoned block storage
// devices that coexists workload I/O (reads, writes) with
// zone-management operations (zone-reset, zone-finish). A Scheduler
// admits management commands only at epoch boundaries under
// configurable rules (drain, token, starvation) so that interference
// with in-flight writes stays bounded, while aging held commands to
// prevent indefinite deferral.
//
// The scheduler itself is transport-agnostic: it implements the
// elevator-style operation vtable (Init/InsertRequests/DispatchRequest/
// FinishRequest/...) against an opaque Request handle, and leaves
// request allocation, hardware-queue binding, and I/O execution to a
// caller. See internal/runner for a goroutine-per-queue driver and
// backend.ZonedMemory for a concrete in-memory zoned backend.
package zinc
