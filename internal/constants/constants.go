// Package constants holds tuning defaults shared across the scheduler.
package constants

import "time"

// Deadline-path defaults (spec.md §6).
const (
	// DefaultReadExpireMs is the read FIFO expiry interval in milliseconds.
	DefaultReadExpireMs = 500
	// DefaultWriteExpireMs is the write FIFO expiry interval in milliseconds.
	DefaultWriteExpireMs = 5000
	// DefaultWritesStarved is the number of read-bias decisions tolerated
	// before a pending write is forced through.
	DefaultWritesStarved = 2
	// DefaultFrontMerges enables front-merge lookups by default.
	DefaultFrontMerges = true
	// DefaultFIFOBatch is the number of sector-sorted requests dispatched
	// per direction before re-evaluating direction selection.
	DefaultFIFOBatch = 16
	// DefaultPrioAgingExpireMs is how long a lower-priority request may
	// wait before it is promoted ahead of strict priority order.
	DefaultPrioAgingExpireMs = 10000
)

// Management-gate defaults, identical for the reset and finish streams
// unless overridden (spec.md §6).
const (
	// DefaultEpochIntervalMs is the gate's epoch timer period.
	DefaultEpochIntervalMs = 64
	// DefaultCommandTokens is the write-volume (8 KiB units) threshold that
	// forces an admission even without a write lull.
	DefaultCommandTokens = 2000
	// DefaultMinimumConcurrencyThreshold is the inflight-write threshold
	// (8 KiB units) below which a held request drains immediately.
	DefaultMinimumConcurrencyThreshold = 3
	// DefaultMaximumEpochHolds bounds the worst-case wait of a held
	// management request, in epochs.
	DefaultMaximumEpochHolds = 3
)

// EpochMinInterval is the floor on the epoch timer period: "at least one
// tick" per spec.md §6 ("floor 1 tick").
const EpochMinInterval = time.Millisecond

// WriteUnitShift converts byte lengths to 8 KiB accounting units
// (spec.md §6: "units = bytes >> 13").
const WriteUnitShift = 13

// SectorUnitShift converts a 512-byte sector count to 8 KiB accounting
// units (spec.md §6: "units = sectors >> 4").
const SectorUnitShift = 4

// SectorSize is the fixed logical sector size assumed by the sector
// arithmetic throughout the scheduler.
const SectorSize = 512

// DefaultAsyncDepthNumerator/Denominator implement
// async_depth = max(1, 3*nr_requests/4) (spec.md §4.6).
const (
	DefaultAsyncDepthNumerator   = 3
	DefaultAsyncDepthDenominator = 4
)
