// Package interfaces provides internal interface definitions for zinc.
// These are separate from the public package to avoid circular imports
// between the scheduler and the packages it depends on.
package interfaces

// Backend defines the storage collaborator a scheduler's management
// requests ultimately act on. It is treated as external per spec.md §1:
// the scheduler never performs the read/write/reset/finish itself, only
// decides when each is admitted.
type Backend interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)
	Size() int64
	Close() error
	Flush() error
}

// DiscardBackend is an optional interface for TRIM/DISCARD support.
type DiscardBackend interface {
	Backend
	Discard(offset, length int64) error
}

// ZonedBackend extends Backend with the per-zone operations a RESET or
// FINISH management request is admitted to perform, and the zone
// geometry the scheduler needs for sector-to-zone translation.
type ZonedBackend interface {
	Backend
	ZoneSize() int64
	NumZones() int
	ResetZone(zone int) error
	FinishZone(zone int) error
}

// Logger interface for optional logging.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer interface for metrics collection.
// Implementations must be thread-safe: they are called from the
// dispatch-loop goroutine and from completion handling.
type Observer interface {
	ObserveRead(bytes uint64, latencyNs uint64, success bool)
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveDiscard(bytes uint64, latencyNs uint64, success bool)
	ObserveFlush(latencyNs uint64, success bool)
	ObserveManagement(op string, waitNs uint64, holdCount int)
	ObserveQueueDepth(depth uint32)
}
