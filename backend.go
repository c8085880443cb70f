package zinc

import (
	"sync"
)

// DeviceState mirrors the lifecycle states the teacher's Device
// reported for a real ublk character/block device pair, narrowed to
// what an attached Scheduler can actually distinguish: whether it has
// been attached, and whether it has since been detached.
type DeviceState string

const (
	DeviceStateCreated DeviceState = "created"
	DeviceStateRunning DeviceState = "running"
	DeviceStateStopped DeviceState = "stopped"
)

// AttachedDevice couples a Scheduler to the zone geometry its admin
// surface reports (spec.md §6 device attributes), playing the role
// the teacher's Device played for a ublk device: a handle callers hold
// across the attach/detach lifecycle, from which they read state and
// metrics. Unlike the teacher's Device, it owns no queue runners
// itself (see internal/runner) — a caller wires one or more Runners
// against AttachedDevice.Scheduler and a Backend separately, since
// doing that here would require this package to import internal/runner,
// which itself imports this package to reach Scheduler and Request.
type AttachedDevice struct {
	mu sync.Mutex

	Scheduler *Scheduler
	NumZones  int
	ZoneSize  int64

	detached bool
}

// Attach constructs a Scheduler from cfg, attaches it to a device with
// numZones zones of zoneSize bytes each, and starts its epoch timers
// (spec.md §3 lifecycle, §6 elevator vtable "init").
func Attach(cfg Config, numZones int, zoneSize int64) (*AttachedDevice, error) {
	if numZones <= 0 {
		return nil, NewError("Attach", ErrCodeInvalidParameters, "numZones must be positive")
	}
	cfg.Clamp()
	s := NewScheduler(cfg)
	if err := s.Init(nil, numZones); err != nil {
		return nil, WrapError("Attach", err)
	}
	return &AttachedDevice{
		Scheduler: s,
		NumZones:  numZones,
		ZoneSize:  zoneSize,
	}, nil
}

// Detach stops the scheduler's epoch timers and marks the device
// stopped. Safe to call more than once.
func (d *AttachedDevice) Detach() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detached {
		return nil
	}
	d.detached = true
	return d.Scheduler.Exit()
}

// State reports the device's current lifecycle state.
func (d *AttachedDevice) State() DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detached {
		return DeviceStateStopped
	}
	return DeviceStateRunning
}

// DeviceInfo summarizes an attached device's static geometry and live
// state for introspection, the equivalent of a GET_DEV_INFO response.
type DeviceInfo struct {
	NumZones int
	ZoneSize int64
	Size     int64
	State    DeviceState
}

// Info returns a point-in-time summary of the device.
func (d *AttachedDevice) Info() DeviceInfo {
	return DeviceInfo{
		NumZones: d.NumZones,
		ZoneSize: d.ZoneSize,
		Size:     d.ZoneSize * int64(d.NumZones),
		State:    d.State(),
	}
}

// Metrics returns the underlying scheduler's metrics instance.
func (d *AttachedDevice) Metrics() *Metrics {
	return d.Scheduler.Metrics()
}

// MetricsSnapshot returns a point-in-time metrics snapshot.
func (d *AttachedDevice) MetricsSnapshot() MetricsSnapshot {
	return d.Scheduler.Metrics().Snapshot()
}
