package zinc

import (
	"time"

	"github.com/zinc-io/zinc/internal/constants"
)

// StreamConfig holds the four admission-rule knobs shared, with
// identical meaning, by the reset and finish management streams
// (spec.md §4.4, §6).
type StreamConfig struct {
	EpochInterval               time.Duration
	CommandTokens               uint64
	MinimumConcurrencyThreshold uint64
	MaximumEpochHolds           int
}

// Config holds every tuning knob enumerated in spec.md §6, exposed
// individually through the admin surface in internal/ctrl.
type Config struct {
	ReadExpire      time.Duration
	WriteExpire     time.Duration
	WritesStarved   int
	FrontMerges     bool
	FIFOBatch       int
	PrioAgingExpire time.Duration
	AsyncDepth      int // 0 means "derive from NumRequests on DepthUpdated"

	Reset  StreamConfig
	Finish StreamConfig
}

// DefaultConfig returns the scheduler defaults named in spec.md §6.
func DefaultConfig() Config {
	return Config{
		ReadExpire:      time.Duration(constants.DefaultReadExpireMs) * time.Millisecond,
		WriteExpire:     time.Duration(constants.DefaultWriteExpireMs) * time.Millisecond,
		WritesStarved:   constants.DefaultWritesStarved,
		FrontMerges:     constants.DefaultFrontMerges,
		FIFOBatch:       constants.DefaultFIFOBatch,
		PrioAgingExpire: time.Duration(constants.DefaultPrioAgingExpireMs) * time.Millisecond,
		AsyncDepth:      0,

		Reset: StreamConfig{
			EpochInterval:               time.Duration(constants.DefaultEpochIntervalMs) * time.Millisecond,
			CommandTokens:               constants.DefaultCommandTokens,
			MinimumConcurrencyThreshold: constants.DefaultMinimumConcurrencyThreshold,
			MaximumEpochHolds:           constants.DefaultMaximumEpochHolds,
		},
		Finish: StreamConfig{
			EpochInterval:               time.Duration(constants.DefaultEpochIntervalMs) * time.Millisecond,
			CommandTokens:               constants.DefaultCommandTokens,
			MinimumConcurrencyThreshold: constants.DefaultMinimumConcurrencyThreshold,
			MaximumEpochHolds:           constants.DefaultMaximumEpochHolds,
		},
	}
}

// Clamp enforces declared bounds in place. Config-knob writes out of
// bounds are clamped rather than rejected (spec.md §7).
func (c *Config) Clamp() {
	if c.ReadExpire < 0 {
		c.ReadExpire = 0
	}
	if c.WriteExpire < 0 {
		c.WriteExpire = 0
	}
	if c.WritesStarved < 0 {
		c.WritesStarved = 0
	}
	if c.FIFOBatch < 1 {
		c.FIFOBatch = 1
	}
	if c.PrioAgingExpire < 0 {
		c.PrioAgingExpire = 0
	}
	if c.AsyncDepth < 0 {
		c.AsyncDepth = 0
	}
	c.Reset.clamp()
	c.Finish.clamp()
}

func (s *StreamConfig) clamp() {
	if s.EpochInterval < constants.EpochMinInterval {
		s.EpochInterval = constants.EpochMinInterval
	}
	if s.MaximumEpochHolds < 0 {
		s.MaximumEpochHolds = 0
	}
}

// AsyncDepthFor computes async_depth = max(1, 3*nrRequests/4) per
// spec.md §4.6, used when Config.AsyncDepth is left at its zero value.
func AsyncDepthFor(nrRequests int) int {
	depth := nrRequests * constants.DefaultAsyncDepthNumerator / constants.DefaultAsyncDepthDenominator
	if depth < 1 {
		depth = 1
	}
	return depth
}
