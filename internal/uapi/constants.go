// Package uapi holds the wire-level vocabulary a zoned block device
// exposes at the request-classification boundary: operation codes,
// zoned feature/attribute bits, a binary request descriptor layout, and
// a Marshal/Unmarshal pair (the admin surface's Dump uses Marshal).
// Trimmed from the full kernel ublk UAPI the teacher repository bound against — see DESIGN.md for
// what was dropped and why.
package uapi

// I/O operation codes, as observed by the request classifier
// (spec.md §4.1). The numeric values match the ones the teacher
// repository already carried for the same Linux block-layer opcodes.
const (
	OpRead         = 0
	OpWrite        = 1
	OpFlush        = 2
	OpDiscard      = 3
	OpWriteSame    = 4
	OpWriteZeroes  = 5
	OpZoneOpen     = 10
	OpZoneClose    = 11
	OpZoneFinish   = 12
	OpZoneAppend   = 13
	OpZoneResetAll = 14
	OpZoneReset    = 15
	OpReportZones  = 18
)

// Feature flags (device-level).
const (
	FeatureZoned        = 1 << 0 // zoned storage support
	FeatureUnprivileged = 1 << 1
	FeatureUserCopy     = 1 << 2
)

// Device attribute flags (spec.md §6 device attributes).
const (
	AttrReadOnly      = 1 << 0
	AttrRotational    = 1 << 1
	AttrVolatileCache = 1 << 2
	AttrFUA           = 1 << 3
)

// I/O priority classes as carried in a request's priority field
// (spec.md §3: REAL_TIME, BEST_EFFORT, IDLE).
const (
	IOPrioClassRealTime  = 1
	IOPrioClassBestEffort = 2
	IOPrioClassIdle      = 3
)
