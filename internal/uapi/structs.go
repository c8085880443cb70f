package uapi

import "unsafe"

// Descriptor is the wire-level shape of a single request, laid out the
// same way the teacher's UblksrvIODesc was: a 24-byte
// {op+flags, nr_sectors, start_sector, addr} record. The scheduler
// itself never serializes a live Request (it holds requests by
// reference per spec.md §3), and nothing outside this package builds
// a Descriptor: the admin surface's Registry.Dump serializes config
// values only, not dispatch-list or FIFO contents.
type Descriptor struct {
	OpFlags     uint32 // op: bits 0-7, flags: bits 8-31
	NrSectors   uint32
	StartSector uint64
	Addr        uint64
}

// Compile-time size check: the layout must stay 24 bytes.
var _ [24]byte = [unsafe.Sizeof(Descriptor{})]byte{}

// GetOp extracts the operation code from OpFlags.
func (d *Descriptor) GetOp() uint8 {
	return uint8(d.OpFlags & 0xff)
}

// GetFlags extracts the flag bits from OpFlags.
func (d *Descriptor) GetFlags() uint32 {
	return d.OpFlags >> 8
}

// SetOp packs an operation code into OpFlags, preserving flag bits.
func (d *Descriptor) SetOp(op uint8) {
	d.OpFlags = (d.OpFlags &^ 0xff) | uint32(op)
}
