package zinc

import (
	"sync"
	"time"

	"github.com/zinc-io/zinc/internal/classify"
	"github.com/zinc-io/zinc/internal/constants"
	"github.com/zinc-io/zinc/internal/gate"
	"github.com/zinc-io/zinc/internal/logging"
	"github.com/zinc-io/zinc/internal/priority"
	"github.com/zinc-io/zinc/internal/zone"
)

// Scheduler is a single-device elevator coexisting priority/deadline
// workload dispatch with epoch-gated zone-management admission
// (spec.md §1-§5). All state transitions run under mu; zone write-lock
// state lives in a separate short-held primitive (internal/zone) since
// it is also touched from completion context.
type Scheduler struct {
	mu sync.Mutex

	cfg Config

	buckets [numPrioClasses]*priority.Bucket
	gate    *gate.Gate
	zones   zone.Locker

	lastDir       Direction
	batchCount    int
	writesStarved int

	nrRequests int
	asyncDepth int

	metrics  *Metrics
	observer Observer
	logger   *logging.Logger

	attached bool
}

// NewScheduler constructs a Scheduler with the given configuration. It
// does not yet hold zone state or start epoch timers; call Init to
// attach it to a device (spec.md §3 "Lifecycle").
func NewScheduler(cfg Config) *Scheduler {
	cfg.Clamp()
	s := &Scheduler{
		cfg:      cfg,
		metrics:  NewMetrics(),
		observer: NoOpObserver{},
		logger:   logging.NewNop(),
	}
	for p := range s.buckets {
		s.buckets[p] = priority.NewBucket()
	}
	return s
}

// SetLogger installs a logger for dispatch-path and lifecycle tracing.
func (s *Scheduler) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.NewNop()
	}
	s.logger = l
}

// SetObserver installs an Observer for this scheduler's metrics events.
func (s *Scheduler) SetObserver(o Observer) {
	if o == nil {
		o = NoOpObserver{}
	}
	s.observer = o
}

// Metrics returns the scheduler's built-in metrics instance.
func (s *Scheduler) Metrics() *Metrics { return s.metrics }

// Init attaches the scheduler to a device with numZones zones guarded
// by zones, and starts the reset/finish epoch timers (spec.md §3, §6
// elevator vtable "init").
func (s *Scheduler) Init(zones zone.Locker, numZones int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if zones == nil {
		zones = zone.NewSpinLocker(numZones)
	}
	s.zones = zones
	s.gate = gate.New(
		gate.Config{
			EpochInterval:               s.cfg.Reset.EpochInterval,
			CommandTokens:               s.cfg.Reset.CommandTokens,
			MinimumConcurrencyThreshold: s.cfg.Reset.MinimumConcurrencyThreshold,
			MaximumEpochHolds:           s.cfg.Reset.MaximumEpochHolds,
		},
		gate.Config{
			EpochInterval:               s.cfg.Finish.EpochInterval,
			CommandTokens:               s.cfg.Finish.CommandTokens,
			MinimumConcurrencyThreshold: s.cfg.Finish.MinimumConcurrencyThreshold,
			MaximumEpochHolds:           s.cfg.Finish.MaximumEpochHolds,
		},
	)
	s.gate.Start()
	s.attached = true
	s.logger.Info("scheduler attached", "zones", numZones)
	return nil
}

// Exit detaches the scheduler, synchronously disarming both epoch
// timers. It warns (does not fail) if any bucket or management queue
// is still non-empty, per spec.md §3.
func (s *Scheduler) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gate != nil {
		s.gate.Stop()
	}
	if s.HasWorkLocked() {
		s.logger.Warn("scheduler detached with queued work remaining")
	}
	s.attached = false
	s.metrics.Stop()
	return nil
}

// InitHWContext is a lifecycle no-op: this implementation does not
// model per-hardware-queue context, only the shared scheduler state
// spec.md places in scope.
func (s *Scheduler) InitHWContext(nrHWQueues int) error {
	s.logger.Debug("hw context initialized", "queues", nrHWQueues)
	return nil
}

// DepthUpdated recomputes async_depth when the device's request count
// changes (spec.md §4.6).
func (s *Scheduler) DepthUpdated(nrRequests int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nrRequests = nrRequests
	if s.cfg.AsyncDepth > 0 {
		s.asyncDepth = s.cfg.AsyncDepth
	} else {
		s.asyncDepth = AsyncDepthFor(nrRequests)
	}
}

// LimitDepth returns the shallow tag-allocation depth for the given
// direction and synchronicity. Synchronous reads are never throttled
// and return -1 (no limit); everything else is capped to async_depth
// (spec.md §4.6).
func (s *Scheduler) LimitDepth(dir Direction, isAsync bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir == DirRead && !isAsync {
		return -1
	}
	if s.asyncDepth == 0 {
		return AsyncDepthFor(s.nrRequests)
	}
	return s.asyncDepth
}

// HasWork reports whether any priority bucket or either management
// queue holds a request (spec.md §6: "has_work").
func (s *Scheduler) HasWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HasWorkLocked()
}

// HasWorkLocked is HasWork for callers already holding mu.
func (s *Scheduler) HasWorkLocked() bool {
	for _, b := range s.buckets {
		if b.HasWork() {
			return true
		}
	}
	return s.gate != nil && s.gate.HasWork()
}

// InsertRequests classifies and routes each request (spec.md §4.1,
// §9). RESET/FINISH requests go to the management gate; READ/WRITE
// requests go to their priority bucket's FIFO and sector index, or to
// the immediate-dispatch list if headInsert is set. OTHER
// (unrecognized op, or zone-append) is rejected rather than routed
// with undefined behavior (spec.md §7, §9 open question).
func (s *Scheduler) InsertRequests(reqs []Request, headInsert bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range reqs {
		class := classify.Op(req.Op())
		prio := req.Priority()
		bucket := s.buckets[prio]

		switch class {
		case classify.Read:
			if req.Deadline().IsZero() {
				req.SetDeadline(time.Now().Add(s.cfg.ReadExpire))
			}
			if headInsert {
				bucket.InsertFront(req)
			} else {
				bucket.Insert(priority.Read, req)
			}
		case classify.Write:
			if req.Deadline().IsZero() {
				req.SetDeadline(time.Now().Add(s.cfg.WriteExpire))
			}
			if headInsert {
				bucket.InsertFront(req)
			} else {
				bucket.Insert(priority.Write, req)
			}
		case classify.Reset:
			s.gate.Reset.Insert(req)
		case classify.Finish:
			s.gate.Finish.Insert(req)
		default:
			s.logger.Warn("rejecting unsupported operation at insert", "op", req.Op())
			return ErrUnsupportedOperation
		}
	}

	depth := uint32(0)
	for _, b := range s.buckets {
		depth += uint32(b.QueuedCount())
	}
	s.observer.ObserveQueueDepth(depth)
	return nil
}

// DispatchRequest selects the next request to dispatch, following the
// fixed precedence in spec.md §4.3: management gate, then priority
// aging, then strict priority order. Returns (nil, nil) when nothing
// is eligible, which is a normal outcome, not an error.
func (s *Scheduler) DispatchRequest(now time.Time) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(now)
}

func (s *Scheduler) dispatchLocked(now time.Time) (Request, error) {
	if req := s.dispatchManagementLocked(); req != nil {
		return req, nil
	}

	if req := s.dispatchAgedLocked(now); req != nil {
		return req, nil
	}

	for prio := RealTime; prio < numPrioClasses; prio++ {
		bucket := s.buckets[prio]
		if !bucket.HasWork() {
			continue
		}
		// A higher-priority bucket with queued work blocks lower
		// priorities from being tried this call, even if this bucket
		// itself yields nothing (e.g. all writes zone-locked).
		return s.dispatchFromBucketLocked(bucket, now, timeMax), nil
	}
	return nil, nil
}

// timeMax stands in for "no upper bound on start-time" in latest_start
// comparisons (spec.md §4.3).
var timeMax = time.Unix(1<<62, 0)

func (s *Scheduler) dispatchManagementLocked() Request {
	if s.gate == nil {
		return nil
	}
	req, stream, cause := s.gate.Dispatch()
	if req == nil {
		return nil
	}
	zr, _ := req.(Request)
	waitNs := uint64(0)
	holdCount := zr.HoldCount()
	s.observer.ObserveManagement(stream, waitNs, holdCount)
	streamIdx := streamReset
	admissionCause := AdmissionUnknown
	switch cause.String() {
	case "drain":
		admissionCause = AdmissionDrain
	case "token":
		admissionCause = AdmissionToken
	case "starvation":
		admissionCause = AdmissionStarvation
	}
	if stream == "finish" {
		streamIdx = streamFinish
	}
	s.metrics.RecordManagementAdmission(streamIdx, admissionCause, waitNs, holdCount)
	s.metrics.RecordEpochConsume(streamIdx)
	return zr
}

// dispatchAgedLocked implements priority aging (spec.md §4.3.2): if at
// least two priority classes have queued work and a non-REAL_TIME
// class's FIFO head has waited past prio_aging_expire, it is dispatched
// ahead of strict priority order.
func (s *Scheduler) dispatchAgedLocked(now time.Time) Request {
	classesWithWork := 0
	for _, b := range s.buckets {
		if b.HasWork() {
			classesWithWork++
		}
	}
	if classesWithWork < 2 {
		return nil
	}

	cutoff := now.Add(-s.cfg.PrioAgingExpire)
	for prio := BestEffort; prio < numPrioClasses; prio++ {
		bucket := s.buckets[prio]
		if aged, dir := s.oldestAgedCandidate(bucket, cutoff); aged != nil {
			// An aged write still has to clear the same zoned-write
			// admissibility check as the normal dispatch path (step e):
			// aging promotes it past strict priority order, it never
			// exempts it from the at-most-one-write-per-zone invariant.
			if req := s.admitAndCommit(bucket, dir, aged, timeMax); req != nil {
				return req
			}
		}
	}
	return nil
}

func (s *Scheduler) oldestAgedCandidate(b *priority.Bucket, cutoff time.Time) (Request, priority.Direction) {
	for _, dir := range [2]priority.Direction{priority.Read, priority.Write} {
		head := b.FIFOHead(dir)
		if head == nil {
			continue
		}
		zr := head.(Request)
		startTime := directionStartTime(zr, dir, s.cfg)
		if startTime.Before(cutoff) {
			return zr, dir
		}
	}
	return nil, priority.Read
}

func directionStartTime(req Request, dir priority.Direction, cfg Config) time.Time {
	if dir == priority.Read {
		return req.Deadline().Add(-cfg.ReadExpire)
	}
	return req.Deadline().Add(-cfg.WriteExpire)
}

// dispatchFromBucketLocked implements the per-priority dispatch steps
// a-g of spec.md §4.3, bounded by latestStart.
func (s *Scheduler) dispatchFromBucketLocked(b *priority.Bucket, now time.Time, latestStart time.Time) Request {
	// a. immediate-dispatch list.
	if head := b.ImmediateHead(); head != nil {
		hr := head.(Request)
		if classify.Op(hr.Op()) == classify.Write && s.zones != nil && !s.zones.TryLock(hr.Zone()) {
			return nil
		}
		b.RemoveImmediate(head)
		b.Dispatched++
		return head.(Request)
	}

	var dir priority.Direction
	var candidate priority.Request

	// b. batching continuation.
	cursorDir := toPriorityDir(s.lastDir)
	if cursor := b.Next(cursorDir); cursor != nil && s.batchCount < s.cfg.FIFOBatch {
		dir = cursorDir
		candidate = cursor
	} else {
		// c. direction selection by read/write starvation.
		readHead := b.FIFOHead(priority.Read)
		writeHead := b.FIFOHead(priority.Write)
		switch {
		case readHead != nil && (writeHead == nil || s.writesStarved < s.cfg.WritesStarved):
			dir = priority.Read
			s.writesStarved++
		case writeHead != nil:
			dir = priority.Write
			s.writesStarved = 0
		default:
			return nil
		}

		// d. expiry override / continuation.
		cursor := b.Next(dir)
		if b.FIFOExpired(dir, now) || cursor == nil {
			candidate = b.FIFOHead(dir)
		} else {
			candidate = cursor
		}
	}

	return s.admitAndCommit(b, dir, candidate, latestStart)
}

// admitAndCommit applies steps e-g of spec.md §4.3 to a candidate
// already selected by direction: zoned-write admissibility, the
// latest_start bound, and committing the dispatch. Shared by the
// normal per-priority path and priority aging (spec.md §4.3.2) so an
// aged write is held to the same at-most-one-write-per-zone invariant
// as every other write.
func (s *Scheduler) admitAndCommit(b *priority.Bucket, dir priority.Direction, candidate priority.Request, latestStart time.Time) Request {
	if candidate == nil {
		return nil
	}

	// e. zoned-write admissibility.
	if dir == priority.Write && s.zones != nil {
		candidate = s.admissibleWriteCandidate(b, candidate)
		if candidate == nil {
			return nil
		}
	}

	zr := candidate.(Request)

	// f. latest_start bound.
	if directionStartTime(zr, dir, s.cfg).After(latestStart) {
		return nil
	}

	s.commitDispatch(b, dir, zr)
	return zr
}

// admissibleWriteCandidate walks sector order from candidate, skipping
// an entire run of requests targeting a locked zone as a group so
// sequential streams on other zones are preserved (spec.md §4.3e).
func (s *Scheduler) admissibleWriteCandidate(b *priority.Bucket, candidate priority.Request) priority.Request {
	cur := candidate
	for cur != nil {
		zr := cur.(Request)
		z := zr.Zone()
		if s.zones.TryLock(z) {
			return cur
		}
		next := cur
		for next != nil && next.(Request).Zone() == z {
			next = b.Successor(priority.Write, next)
		}
		cur = next
	}
	return nil
}

func (s *Scheduler) commitDispatch(b *priority.Bucket, dir priority.Direction, req Request) {
	if s.lastDir != fromPriorityDir(dir) {
		s.batchCount = 0
	}
	b.SetNext(dir, req.(priority.Request))
	b.Remove(dir, req.(priority.Request))
	b.Dispatched++
	s.lastDir = fromPriorityDir(dir)
	s.batchCount++

	if dir == priority.Write {
		units := sectorsToUnits(req.ByteLen() >> constants.WriteUnitShift)
		s.gate.Reset.DispatchWrite(units)
		s.gate.Finish.DispatchWrite(units)
		s.metrics.RecordWriteInflight(streamReset, s.gate.Reset.InflightWrites())
		s.metrics.RecordWriteInflight(streamFinish, s.gate.Finish.InflightWrites())
	}
}

func toPriorityDir(d Direction) priority.Direction {
	if d == DirWrite {
		return priority.Write
	}
	return priority.Read
}

func fromPriorityDir(d priority.Direction) Direction {
	if d == priority.Write {
		return DirWrite
	}
	return DirRead
}

func sectorsToUnits(units uint32) uint64 {
	if units == 0 {
		return 1
	}
	return uint64(units)
}

// PrepareRequest is an elevator vtable hook for reserving per-request
// resources before dispatch. zinc needs none (spec.md §1: merging and
// allocation are external collaborators), so this is a no-op.
func (s *Scheduler) PrepareRequest(req Request) error {
	return nil
}

// FinishRequest handles request completion (spec.md §4.7): releases
// the request's zone write-lock if it was a dispatched write, applies
// write-accounting decrements, and updates per-priority completed
// counters.
func (s *Scheduler) FinishRequest(req Request, completedSectors uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	class := classify.Op(req.Op())
	prio := req.Priority()

	switch class {
	case classify.Write:
		if s.zones != nil {
			s.zones.Unlock(req.Zone())
		}
		units := sectorsToUnits(completedSectors >> constants.SectorUnitShift)
		s.gate.Reset.CompleteWrite(units)
		s.gate.Finish.CompleteWrite(units)
		s.buckets[prio].Completed.Add(1)
		s.observer.ObserveWrite(uint64(completedSectors)*constants.SectorSize, 0, true)
	case classify.Read:
		s.buckets[prio].Completed.Add(1)
		s.observer.ObserveRead(uint64(completedSectors)*constants.SectorSize, 0, true)
	case classify.Reset, classify.Finish:
		// Management completions re-arm their stream immediately if
		// inflight has dropped low enough (spec.md §4.4 "Arming").
		if class == classify.Reset {
			s.gate.Reset.EagerArm()
		} else {
			s.gate.Finish.EagerArm()
		}
	}
}

// BioMerge is delegated to the block-layer-equivalent caller, which
// holds the scheduler lock for the probe (spec.md §4.5). zinc exposes
// only the front-merge lookup by end sector that caller needs.
func (s *Scheduler) BioMerge(prio PrioClass, dir Direction, endSector uint64) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[prio]
	pdir := toPriorityDir(dir)
	for r := b.SectorFront(pdir); r != nil; r = b.Successor(pdir, r) {
		if r.StartSector() == endSector {
			return r.(Request), true
		}
	}
	return nil, false
}

// RequestMerge is an alias of BioMerge at the request granularity,
// named to match the elevator vtable (spec.md §6).
func (s *Scheduler) RequestMerge(prio PrioClass, dir Direction, endSector uint64) (Request, bool) {
	return s.BioMerge(prio, dir, endSector)
}

// RequestsMerged folds donor into recipient after a successful merge:
// if donor's deadline precedes recipient's, recipient inherits the
// earlier deadline and donor's FIFO position, then donor is removed
// (spec.md §4.2).
func (s *Scheduler) RequestsMerged(prio PrioClass, dir Direction, recipient, donor Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[prio]
	pdir := toPriorityDir(dir)

	if donor.Deadline().Before(recipient.Deadline()) {
		recipient.SetDeadline(donor.Deadline())
		b.MigrateFIFO(pdir, recipient, donor)
	}
	b.RemoveDonor(pdir, donor)
	b.Merged++
}

// RequestMerged re-positions req in its sector index after its extent
// changed via a successful front-merge (spec.md §4.2).
func (s *Scheduler) RequestMerged(prio PrioClass, dir Direction, req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[prio].RepositionAfterMerge(toPriorityDir(dir), req)
}
