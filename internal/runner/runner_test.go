package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zinc-io/zinc"
)

// fakeZonedBackend is an in-memory ZonedBackend sized for tests: a flat
// byte slice divided into equal zones, with reset/finish only tracked
// for call counts (no write-pointer enforcement, unlike a real device).
type fakeZonedBackend struct {
	mu        sync.Mutex
	data      []byte
	zoneSize  int64
	numZones  int
	resets    int
	finishes  int
}

func newFakeZonedBackend(numZones int, zoneSize int64) *fakeZonedBackend {
	return &fakeZonedBackend{
		data:     make([]byte, zoneSize*int64(numZones)),
		zoneSize: zoneSize,
		numZones: numZones,
	}
}

func (b *fakeZonedBackend) ReadAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := copy(p, b.data[off:])
	return n, nil
}

func (b *fakeZonedBackend) WriteAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := copy(b.data[off:], p)
	return n, nil
}

func (b *fakeZonedBackend) Size() int64 { return int64(len(b.data)) }
func (b *fakeZonedBackend) Close() error { return nil }
func (b *fakeZonedBackend) Flush() error { return nil }
func (b *fakeZonedBackend) ZoneSize() int64 { return b.zoneSize }
func (b *fakeZonedBackend) NumZones() int   { return b.numZones }

func (b *fakeZonedBackend) ResetZone(zone int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if zone < 0 || zone >= b.numZones {
		return fmt.Errorf("zone %d out of range", zone)
	}
	b.resets++
	return nil
}

func (b *fakeZonedBackend) FinishZone(zone int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if zone < 0 || zone >= b.numZones {
		return fmt.Errorf("zone %d out of range", zone)
	}
	b.finishes++
	return nil
}

func newTestScheduler(t *testing.T, numZones int) *zinc.Scheduler {
	t.Helper()
	cfg := zinc.DefaultConfig()
	cfg.Reset.EpochInterval = 2 * time.Millisecond
	cfg.Finish.EpochInterval = 2 * time.Millisecond
	s := zinc.NewScheduler(cfg)
	if err := s.Init(nil, numZones); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = s.Exit() })
	return s
}

func waitDone(t *testing.T, req *IORequest, timeout time.Duration) {
	t.Helper()
	select {
	case <-req.Done:
	case <-time.After(timeout):
		t.Fatal("request did not complete in time")
	}
}

func TestRunnerReadWriteRoundTrip(t *testing.T) {
	backend := newFakeZonedBackend(4, 1<<20)
	sched := newTestScheduler(t, 4)

	r := NewRunner(context.Background(), Config{
		QueueID:   0,
		Backend:   backend,
		Scheduler: sched,
	})
	r.Start()
	defer r.Stop()

	payload := []byte("zinc-runner-roundtrip")
	buf := make([]byte, 512)
	copy(buf, payload)

	write := NewWorkloadRequest(1 /* OpWrite */, 0, buf, zinc.BestEffort)
	if err := r.Submit(write); err != nil {
		t.Fatalf("submit write: %v", err)
	}
	waitDone(t, write, time.Second)
	if write.Result != nil {
		t.Fatalf("write failed: %v", write.Result)
	}

	readBuf := make([]byte, 512)
	read := NewWorkloadRequest(0, 0, readBuf, zinc.BestEffort)
	if err := r.Submit(read); err != nil {
		t.Fatalf("submit read: %v", err)
	}
	waitDone(t, read, time.Second)
	if read.Result != nil {
		t.Fatalf("read failed: %v", read.Result)
	}
	if string(readBuf[:len(payload)]) != string(payload) {
		t.Errorf("expected %q, got %q", payload, readBuf[:len(payload)])
	}
}

func TestRunnerManagementRequestCompletes(t *testing.T) {
	backend := newFakeZonedBackend(2, 1<<20)
	sched := newTestScheduler(t, 2)

	r := NewRunner(context.Background(), Config{
		QueueID:   0,
		Backend:   backend,
		Scheduler: sched,
	})
	r.Start()
	defer r.Stop()

	reset := NewManagementRequest(15 /* OpZoneReset */, 0)
	if err := r.Submit(reset); err != nil {
		t.Fatalf("submit reset: %v", err)
	}
	waitDone(t, reset, time.Second)
	if reset.Result != nil {
		t.Fatalf("reset failed: %v", reset.Result)
	}
	if backend.resets != 1 {
		t.Errorf("expected 1 backend reset call, got %d", backend.resets)
	}
}

func TestRunnerPooledRequestReturnsBuffer(t *testing.T) {
	backend := newFakeZonedBackend(1, 1<<20)
	sched := newTestScheduler(t, 1)

	r := NewRunner(context.Background(), Config{
		QueueID:   0,
		Backend:   backend,
		Scheduler: sched,
	})
	r.Start()
	defer r.Stop()

	req := NewPooledWorkloadRequest(0, 0, 1, zinc.BestEffort)
	if err := r.Submit(req); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitDone(t, req, time.Second)
	if req.Result != nil {
		t.Fatalf("read failed: %v", req.Result)
	}
	if req.Buffer() != nil {
		t.Error("expected pooled buffer to be released after completion")
	}
}

func TestRunnerStopDrainsCleanly(t *testing.T) {
	backend := newFakeZonedBackend(1, 1<<20)
	sched := newTestScheduler(t, 1)

	r := NewRunner(context.Background(), Config{
		QueueID:   0,
		Backend:   backend,
		Scheduler: sched,
	})
	r.Start()
	r.Stop()

	req := NewManagementRequest(15, 0)
	if err := r.Submit(req); err == nil {
		t.Error("expected submit to a stopped runner to fail")
	}
}
