package zinc

import "testing"

func TestAttachInitializesScheduler(t *testing.T) {
	dev, err := Attach(DefaultConfig(), 8, 1<<20)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer dev.Detach()

	if dev.Scheduler == nil {
		t.Fatal("Attach returned nil Scheduler")
	}
	if dev.State() != DeviceStateRunning {
		t.Errorf("State() = %v, want %v", dev.State(), DeviceStateRunning)
	}
}

func TestAttachedDeviceInfo(t *testing.T) {
	dev, err := Attach(DefaultConfig(), 16, 256<<20)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer dev.Detach()

	info := dev.Info()
	if info.NumZones != 16 {
		t.Errorf("NumZones = %d, want 16", info.NumZones)
	}
	if info.ZoneSize != 256<<20 {
		t.Errorf("ZoneSize = %d, want %d", info.ZoneSize, int64(256<<20))
	}
	want := int64(16) * (256 << 20)
	if info.Size != want {
		t.Errorf("Size = %d, want %d", info.Size, want)
	}
	if info.State != DeviceStateRunning {
		t.Errorf("State = %v, want %v", info.State, DeviceStateRunning)
	}
}

func TestAttachedDeviceDetachIsIdempotent(t *testing.T) {
	dev, err := Attach(DefaultConfig(), 4, 1<<20)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := dev.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if err := dev.Detach(); err != nil {
		t.Fatalf("second Detach: %v", err)
	}
	if dev.State() != DeviceStateStopped {
		t.Errorf("State() = %v, want %v", dev.State(), DeviceStateStopped)
	}
}

func TestAttachedDeviceMetricsSnapshot(t *testing.T) {
	dev, err := Attach(DefaultConfig(), 4, 1<<20)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer dev.Detach()

	if dev.Metrics() == nil {
		t.Fatal("Metrics() returned nil")
	}
	snap := dev.MetricsSnapshot()
	if snap.TotalOps != 0 {
		t.Errorf("fresh device should report zero completions, got %d", snap.TotalOps)
	}
}

func TestAttachRejectsInvalidZoneCount(t *testing.T) {
	if _, err := Attach(DefaultConfig(), 0, 1<<20); err == nil {
		t.Error("expected Attach to fail with zero zones")
	}
}
