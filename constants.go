package zinc

import "github.com/zinc-io/zinc/internal/constants"

// Re-exported public constants, mirroring the defaults named in
// spec.md §6.
const (
	DefaultReadExpireMs      = constants.DefaultReadExpireMs
	DefaultWriteExpireMs     = constants.DefaultWriteExpireMs
	DefaultWritesStarved     = constants.DefaultWritesStarved
	DefaultFIFOBatch         = constants.DefaultFIFOBatch
	DefaultPrioAgingExpireMs = constants.DefaultPrioAgingExpireMs

	DefaultEpochIntervalMs              = constants.DefaultEpochIntervalMs
	DefaultCommandTokens                = constants.DefaultCommandTokens
	DefaultMinimumConcurrencyThreshold  = constants.DefaultMinimumConcurrencyThreshold
	DefaultMaximumEpochHolds            = constants.DefaultMaximumEpochHolds
)
