package zinc

import "time"

// FakeRequest is a minimal Request implementation for tests, playing
// the role the teacher's MockBackend played for Backend: a hand-built value satisfying the package's core interface
// without needing a real transport behind it.
type FakeRequest struct {
	OpCode      uint8
	Sector      uint64
	Sectors     uint32
	Bytes       uint32
	PrioClass   PrioClass
	ZoneIdx     int
	deadline    time.Time
	holdCount   int
}

// NewFakeRequest creates a FakeRequest with the given op code, sector
// range, and priority. Zone is derived by the caller via WithZone when
// the request targets a zoned backend.
func NewFakeRequest(op uint8, sector uint64, sectors uint32, prio PrioClass) *FakeRequest {
	return &FakeRequest{
		OpCode:    op,
		Sector:    sector,
		Sectors:   sectors,
		Bytes:     sectors * 512,
		PrioClass: prio,
		ZoneIdx:   -1,
	}
}

// WithZone sets the request's target zone and returns the receiver for chaining.
func (r *FakeRequest) WithZone(zone int) *FakeRequest {
	r.ZoneIdx = zone
	return r
}

func (r *FakeRequest) Op() uint8             { return r.OpCode }
func (r *FakeRequest) StartSector() uint64   { return r.Sector }
func (r *FakeRequest) NumSectors() uint32    { return r.Sectors }
func (r *FakeRequest) ByteLen() uint32       { return r.Bytes }
func (r *FakeRequest) Zone() int             { return r.ZoneIdx }
func (r *FakeRequest) Priority() PrioClass   { return r.PrioClass }
func (r *FakeRequest) Deadline() time.Time   { return r.deadline }
func (r *FakeRequest) SetDeadline(t time.Time) { r.deadline = t }
func (r *FakeRequest) HoldCount() int        { return r.holdCount }
func (r *FakeRequest) SetHoldCount(n int)    { r.holdCount = n }

var _ Request = (*FakeRequest)(nil)
