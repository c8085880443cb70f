// Package ctrl is zinc's admin surface: a registry of named,
// individually gettable/settable integer knobs mirroring the sysfs
// queue/iosched attributes and debugfs binary dump a real elevator
// exposes (spec.md §6). Adapted from the teacher's Controller, which
// drove the same get/set/introspect shape against a real ublk
// character device over ioctl-encoded uring commands; here every call
// is a direct, synchronous mutation of an in-process Config, so the
// ioctl/io_uring machinery is gone but the named-knob surface and its
// structured logging remain.
package ctrl

import (
	"time"

	"github.com/zinc-io/zinc"
	"github.com/zinc-io/zinc/internal/constants"
	"github.com/zinc-io/zinc/internal/logging"
	"github.com/zinc-io/zinc/internal/uapi"
)

// Registry administers one Config prior to Scheduler attach. It does
// not track attach: Set always mutates the wrapped Config, but a
// Scheduler keeps its own copy of the Config it was built from, so
// writes made after NewScheduler do not reach that Scheduler.
type Registry struct {
	cfg    *zinc.Config
	params DeviceParams
	logger *logging.Logger
}

// NewRegistry wraps cfg for named-knob administration. cfg is mutated
// in place; pass it on to zinc.NewScheduler once configuration is
// complete.
func NewRegistry(cfg *zinc.Config, params DeviceParams) *Registry {
	return &Registry{cfg: cfg, params: params, logger: logging.Default()}
}

// SetLogger installs a logger for knob-change tracing.
func (r *Registry) SetLogger(l *logging.Logger) {
	if l != nil {
		r.logger = l
	}
}

// knobUnknown is returned by Get/Set for a name the registry does not
// recognize.
var knobUnknown = zinc.NewError("ctrl.Knob", zinc.ErrCodeInvalidParameters, "unknown knob")

// Get returns the current value of a named knob. Duration-valued
// knobs are reported in milliseconds; boolean knobs as 0 or 1.
func (r *Registry) Get(name string) (int64, error) {
	switch name {
	case "read_expire_ms":
		return r.cfg.ReadExpire.Milliseconds(), nil
	case "write_expire_ms":
		return r.cfg.WriteExpire.Milliseconds(), nil
	case "writes_starved":
		return int64(r.cfg.WritesStarved), nil
	case "front_merges":
		return boolToInt(r.cfg.FrontMerges), nil
	case "fifo_batch":
		return int64(r.cfg.FIFOBatch), nil
	case "prio_aging_expire_ms":
		return r.cfg.PrioAgingExpire.Milliseconds(), nil
	case "async_depth":
		return int64(r.cfg.AsyncDepth), nil
	case "reset.epoch_interval_ms":
		return r.cfg.Reset.EpochInterval.Milliseconds(), nil
	case "reset.command_tokens":
		return int64(r.cfg.Reset.CommandTokens), nil
	case "reset.minimum_concurrency_threshold":
		return int64(r.cfg.Reset.MinimumConcurrencyThreshold), nil
	case "reset.maximum_epoch_holds":
		return int64(r.cfg.Reset.MaximumEpochHolds), nil
	case "finish.epoch_interval_ms":
		return r.cfg.Finish.EpochInterval.Milliseconds(), nil
	case "finish.command_tokens":
		return int64(r.cfg.Finish.CommandTokens), nil
	case "finish.minimum_concurrency_threshold":
		return int64(r.cfg.Finish.MinimumConcurrencyThreshold), nil
	case "finish.maximum_epoch_holds":
		return int64(r.cfg.Finish.MaximumEpochHolds), nil
	default:
		return 0, knobUnknown
	}
}

// Set writes a named knob and re-clamps the whole config, so an
// out-of-bounds write is silently corrected rather than rejected
// (spec.md §7).
func (r *Registry) Set(name string, value int64) error {
	switch name {
	case "read_expire_ms":
		r.cfg.ReadExpire = time.Duration(value) * time.Millisecond
	case "write_expire_ms":
		r.cfg.WriteExpire = time.Duration(value) * time.Millisecond
	case "writes_starved":
		r.cfg.WritesStarved = int(value)
	case "front_merges":
		r.cfg.FrontMerges = value != 0
	case "fifo_batch":
		r.cfg.FIFOBatch = int(value)
	case "prio_aging_expire_ms":
		r.cfg.PrioAgingExpire = time.Duration(value) * time.Millisecond
	case "async_depth":
		r.cfg.AsyncDepth = int(value)
	case "reset.epoch_interval_ms":
		r.cfg.Reset.EpochInterval = time.Duration(value) * time.Millisecond
	case "reset.command_tokens":
		r.cfg.Reset.CommandTokens = uint64(max(value, 0))
	case "reset.minimum_concurrency_threshold":
		r.cfg.Reset.MinimumConcurrencyThreshold = uint64(max(value, 0))
	case "reset.maximum_epoch_holds":
		r.cfg.Reset.MaximumEpochHolds = int(value)
	case "finish.epoch_interval_ms":
		r.cfg.Finish.EpochInterval = time.Duration(value) * time.Millisecond
	case "finish.command_tokens":
		r.cfg.Finish.CommandTokens = uint64(max(value, 0))
	case "finish.minimum_concurrency_threshold":
		r.cfg.Finish.MinimumConcurrencyThreshold = uint64(max(value, 0))
	case "finish.maximum_epoch_holds":
		r.cfg.Finish.MaximumEpochHolds = int(value)
	default:
		return knobUnknown
	}
	r.cfg.Clamp()
	r.logger.Debug("knob set", "name", name, "value", value)
	return nil
}

// knobNames lists every knob Get/Set recognize, in declaration order.
var knobNames = []string{
	"read_expire_ms",
	"write_expire_ms",
	"writes_starved",
	"front_merges",
	"fifo_batch",
	"prio_aging_expire_ms",
	"async_depth",
	"reset.epoch_interval_ms",
	"reset.command_tokens",
	"reset.minimum_concurrency_threshold",
	"reset.maximum_epoch_holds",
	"finish.epoch_interval_ms",
	"finish.command_tokens",
	"finish.minimum_concurrency_threshold",
	"finish.maximum_epoch_holds",
}

// KnobBounds describes the valid range Set clamps a knob into
// (spec.md §7). Max is only meaningful when HasMax is true; most knobs
// are floor-only.
type KnobBounds struct {
	Min    int64
	Max    int64
	HasMax bool
}

var epochMinIntervalMs = int64(constants.EpochMinInterval / time.Millisecond)

// knobBounds mirrors the clamping Clamp/StreamConfig.clamp apply, so
// admin tooling can validate a value before calling Set.
var knobBounds = map[string]KnobBounds{
	"read_expire_ms":                       {Min: 0},
	"write_expire_ms":                      {Min: 0},
	"writes_starved":                       {Min: 0},
	"front_merges":                         {Min: 0, Max: 1, HasMax: true},
	"fifo_batch":                           {Min: 1},
	"prio_aging_expire_ms":                 {Min: 0},
	"async_depth":                          {Min: 0},
	"reset.epoch_interval_ms":              {Min: epochMinIntervalMs},
	"reset.command_tokens":                 {Min: 0},
	"reset.minimum_concurrency_threshold":  {Min: 0},
	"reset.maximum_epoch_holds":            {Min: 0},
	"finish.epoch_interval_ms":             {Min: epochMinIntervalMs},
	"finish.command_tokens":                {Min: 0},
	"finish.minimum_concurrency_threshold": {Min: 0},
	"finish.maximum_epoch_holds":           {Min: 0},
}

// Names returns every knob name the registry recognizes, for admin
// tooling that wants to enumerate the surface before reading it
// (spec.md §6 discovery).
func (r *Registry) Names() []string {
	return append([]string(nil), knobNames...)
}

// Bounds reports the valid range for a named knob. ok is false for an
// unrecognized name.
func (r *Registry) Bounds(name string) (KnobBounds, bool) {
	b, ok := knobBounds[name]
	return b, ok
}

// snapshot is the fixed-layout struct behind Dump: a debugfs-style
// binary view of the live config, decoded with the same marshal path
// the wire descriptor uses.
type snapshot struct {
	ReadExpireMs      uint32
	WriteExpireMs     uint32
	WritesStarved     uint32
	FIFOBatch         uint32
	PrioAgingExpireMs uint32
	AsyncDepth        uint32
	ResetEpochMs      uint32
	ResetTokens       uint32
	FinishEpochMs     uint32
	FinishTokens      uint32
	Attrs             uint32
}

// Dump renders the live config and device attributes as a fixed-layout
// binary blob, the equivalent of reading a debugfs file in one shot.
func (r *Registry) Dump() []byte {
	s := &snapshot{
		ReadExpireMs:      uint32(r.cfg.ReadExpire.Milliseconds()),
		WriteExpireMs:     uint32(r.cfg.WriteExpire.Milliseconds()),
		WritesStarved:     uint32(r.cfg.WritesStarved),
		FIFOBatch:         uint32(r.cfg.FIFOBatch),
		PrioAgingExpireMs: uint32(r.cfg.PrioAgingExpire.Milliseconds()),
		AsyncDepth:        uint32(r.cfg.AsyncDepth),
		ResetEpochMs:      uint32(r.cfg.Reset.EpochInterval.Milliseconds()),
		ResetTokens:       uint32(r.cfg.Reset.CommandTokens),
		FinishEpochMs:     uint32(r.cfg.Finish.EpochInterval.Milliseconds()),
		FinishTokens:      uint32(r.cfg.Finish.CommandTokens),
		Attrs:             r.params.Attrs.Encode(),
	}
	return uapi.Marshal(s)
}

// Params returns the device geometry/queue parameters this registry
// was constructed with.
func (r *Registry) Params() DeviceParams { return r.params }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
