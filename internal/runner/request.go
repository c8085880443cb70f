package runner

import (
	"time"

	"github.com/zinc-io/zinc"
)

// IORequest is the runner's concrete zinc.Request: a workload or
// zone-management command together with the data buffer (if any) the
// backend reads from or writes into, and a channel the submitter
// blocks on for completion. It plays the role the teacher's per-tag
// descriptor plus mmap'd buffer played, minus the kernel in the
// middle.
type IORequest struct {
	opcode  uint8
	sector  uint64
	sectors uint32
	zone    int
	prio    zinc.PrioClass
	buf     []byte

	deadline  time.Time
	holdCount int
	pooled    bool

	// Result carries the outcome once Done is closed.
	Result error
	Done   chan struct{}
}

// NewWorkloadRequest builds a READ/WRITE IORequest over buf, whose
// length determines the request's sector count (must be a multiple of
// the backend's sector size).
func NewWorkloadRequest(op uint8, sector uint64, buf []byte, prio zinc.PrioClass) *IORequest {
	return &IORequest{
		opcode:  op,
		sector:  sector,
		sectors: uint32(len(buf)) / sectorSize,
		zone:    -1,
		prio:    prio,
		buf:     buf,
		Done:    make(chan struct{}),
	}
}

// NewPooledWorkloadRequest is NewWorkloadRequest for callers that don't
// want to own buffer allocation: it draws from the package's buffer
// pool and returns the buffer once the request completes.
func NewPooledWorkloadRequest(op uint8, sector uint64, sectors uint32, prio zinc.PrioClass) *IORequest {
	r := NewWorkloadRequest(op, sector, getBuffer(sectors*sectorSize), prio)
	r.pooled = true
	return r
}

// Buffer returns the request's data buffer, valid for a READ until
// Done fires and for a WRITE until it is submitted.
func (r *IORequest) Buffer() []byte { return r.buf }

// NewManagementRequest builds a RESET/FINISH IORequest targeting zone.
func NewManagementRequest(op uint8, zone int) *IORequest {
	return &IORequest{
		opcode: op,
		zone:   zone,
		prio:   zinc.BestEffort,
		Done:   make(chan struct{}),
	}
}

func (r *IORequest) Op() uint8           { return r.opcode }
func (r *IORequest) StartSector() uint64 { return r.sector }
func (r *IORequest) NumSectors() uint32  { return r.sectors }
func (r *IORequest) ByteLen() uint32     { return r.sectors * sectorSize }
func (r *IORequest) Zone() int           { return r.zone }
func (r *IORequest) Priority() zinc.PrioClass { return r.prio }

func (r *IORequest) Deadline() time.Time     { return r.deadline }
func (r *IORequest) SetDeadline(t time.Time) { r.deadline = t }
func (r *IORequest) HoldCount() int          { return r.holdCount }
func (r *IORequest) SetHoldCount(n int)      { r.holdCount = n }

// complete signals the submitter and releases buf back to the pool, if
// it was pool-allocated.
func (r *IORequest) complete(err error) {
	r.Result = err
	if r.pooled {
		putBuffer(r.buf)
		r.buf = nil
	}
	close(r.Done)
}

const sectorSize = 512

var _ zinc.Request = (*IORequest)(nil)
