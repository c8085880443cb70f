// Package runner drives a zinc.Scheduler against a storage backend.
// Adapted from the teacher's internal/queue.Runner: instead of issuing
// FETCH_REQ/COMMIT_AND_FETCH_REQ against a character device over
// io_uring, each Runner pins itself to an OS thread (and optionally a
// CPU) the same way the teacher's ioLoop did, then repeatedly calls
// DispatchRequest, executes the returned request against a Backend,
// and reports completion back through FinishRequest.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/zinc-io/zinc"
	"github.com/zinc-io/zinc/internal/classify"
	"github.com/zinc-io/zinc/internal/interfaces"
)

// idlePoll bounds how long the loop sleeps after an empty dispatch
// before checking the submission wake channel and the scheduler again.
// The teacher's loop instead blocked in WaitForCompletion; here there
// is no completion queue to block on, only a channel signaled by
// Submit, so this is the backstop for epoch-driven management
// admissions that become dispatchable without a fresh Submit call.
const idlePoll = 500 * time.Microsecond

// Config configures a single simulated hardware queue.
type Config struct {
	QueueID     int
	Depth       int // submission queue capacity; <=0 means a capacity of 1
	Backend     interfaces.ZonedBackend
	Scheduler   *zinc.Scheduler
	Logger      interfaces.Logger
	Observer    interfaces.Observer
	CPUAffinity []int // optional CPU affinity, round-robin by QueueID
}

// Runner owns one simulated hardware queue: a submission channel feeding
// a Scheduler, and a pinned goroutine draining dispatched requests
// against a Backend.
type Runner struct {
	id          int
	backend     interfaces.ZonedBackend
	scheduler   *zinc.Scheduler
	logger      interfaces.Logger
	observer    interfaces.Observer
	cpuAffinity []int

	submitCh chan *IORequest
	wakeCh   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a Runner for one simulated hardware queue. It does
// not start the loop; call Start.
func NewRunner(ctx context.Context, cfg Config) *Runner {
	depth := cfg.Depth
	if depth <= 0 {
		depth = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Runner{
		id:          cfg.QueueID,
		backend:     cfg.Backend,
		scheduler:   cfg.Scheduler,
		logger:      cfg.Logger,
		observer:    cfg.Observer,
		cpuAffinity: cfg.CPUAffinity,
		submitCh:    make(chan *IORequest, depth),
		wakeCh:      make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Submit enqueues req on the runner's submission channel, blocking only
// while that channel is full; the runner loop inserts it into the
// scheduler later. Callers wait on req.Done for completion. Submit
// fails once the runner has been stopped.
func (r *Runner) Submit(req *IORequest) error {
	if r.ctx.Err() != nil {
		return fmt.Errorf("runner %d stopped", r.id)
	}
	select {
	case r.submitCh <- req:
		r.wake()
		return nil
	case <-r.ctx.Done():
		return fmt.Errorf("runner %d stopped", r.id)
	}
}

func (r *Runner) wake() {
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

// Start launches the pinned dispatch loop in its own goroutine.
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.ioLoop()
}

// Stop cancels the loop and waits for it to exit.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
}

// ioLoop is the pinned goroutine driving insert -> dispatch -> complete
// against the scheduler. Pinning to an OS thread has no correctness
// requirement here (there is no kernel thread-affinity rule to honor,
// unlike ublk_drv), but is kept to preserve the teacher's per-queue
// isolation: a CPU-bound backend call on one queue's thread never
// contends with another queue's goroutine scheduling.
func (r *Runner) ioLoop() {
	defer r.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if len(r.cpuAffinity) > 0 {
		cpuIdx := r.cpuAffinity[r.id%len(r.cpuAffinity)]
		var mask unix.CPUSet
		mask.Set(cpuIdx)
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			if r.logger != nil {
				r.logger.Printf("queue %d: failed to set CPU affinity to %d: %v", r.id, cpuIdx, err)
			}
		} else if r.logger != nil {
			r.logger.Debugf("queue %d: pinned to CPU %d", r.id, cpuIdx)
		}
	}

	if r.logger != nil {
		r.logger.Debugf("queue %d: dispatch loop starting", r.id)
	}

	for {
		select {
		case <-r.ctx.Done():
			if r.logger != nil {
				r.logger.Debugf("queue %d: dispatch loop stopping", r.id)
			}
			return
		case req := <-r.submitCh:
			r.insert(req)
		default:
			r.drainPending()
			if r.dispatchOnce() {
				continue
			}
			select {
			case <-r.ctx.Done():
				return
			case req := <-r.submitCh:
				r.insert(req)
			case <-r.wakeCh:
			case <-time.After(idlePoll):
			}
		}
	}
}

// drainPending pulls any further queued submissions without blocking,
// so a burst of Submit calls is inserted before the next dispatch.
func (r *Runner) drainPending() {
	for {
		select {
		case req := <-r.submitCh:
			r.insert(req)
		default:
			return
		}
	}
}

func (r *Runner) insert(req *IORequest) {
	if class := classify.Op(req.Op()); class == classify.Read || class == classify.Write {
		if req.zone < 0 {
			req.zone = r.zoneOf(req.sector)
		}
	}
	if err := r.scheduler.InsertRequests([]zinc.Request{req}, false); err != nil {
		req.complete(err)
		return
	}
}

func (r *Runner) zoneOf(sector uint64) int {
	zoneSize := r.backend.ZoneSize()
	if zoneSize <= 0 {
		return 0
	}
	return int((int64(sector) * sectorSize) / zoneSize)
}

// dispatchOnce pulls and executes at most one request. Returns true if
// a request was dispatched (so the caller should immediately try
// again instead of idling).
func (r *Runner) dispatchOnce() bool {
	now := time.Now()
	req, err := r.scheduler.DispatchRequest(now)
	if err != nil {
		if r.logger != nil {
			r.logger.Printf("queue %d: dispatch error: %v", r.id, err)
		}
		return false
	}
	if req == nil {
		return false
	}
	r.execute(req)
	return true
}

// execute runs the dispatched request against the backend and reports
// completion through FinishRequest, mirroring the teacher's
// handleIORequest/submitCommitAndFetch pair collapsed into one
// synchronous call (no separate completion-queue round trip, since
// the backend here is an in-process call, not a device).
func (r *Runner) execute(req zinc.Request) {
	ir, ok := req.(*IORequest)
	if !ok {
		return
	}

	var start time.Time
	if r.observer != nil {
		start = time.Now()
	}

	var err error
	offset := int64(ir.sector) * sectorSize

	switch classify.Op(ir.Op()) {
	case classify.Read:
		_, err = r.backend.ReadAt(ir.buf, offset)
		if r.observer != nil {
			r.observer.ObserveRead(uint64(len(ir.buf)), uint64(time.Since(start)), err == nil)
		}
	case classify.Write:
		_, err = r.backend.WriteAt(ir.buf, offset)
		if r.observer != nil {
			r.observer.ObserveWrite(uint64(len(ir.buf)), uint64(time.Since(start)), err == nil)
		}
	case classify.Reset:
		err = r.backend.ResetZone(ir.Zone())
	case classify.Finish:
		err = r.backend.FinishZone(ir.Zone())
	}

	r.scheduler.FinishRequest(req, ir.sectors)
	ir.complete(err)
}
