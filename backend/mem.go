// Package backend provides concrete storage backends zinc's runner can
// drive. ZonedMemory is adapted from the teacher's Memory: the same
// sharded-locking RAM-backed store, but sharded by zone instead of a
// fixed byte span, with reset/finish dividing a zone's lifecycle the
// way a real ZNS drive would.
package backend

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zinc-io/zinc/internal/interfaces"
)

// ZonedMemory is a RAM-based, zone-divided backend. Each zone has its
// own RWMutex, giving the same per-region parallelism the teacher's
// shard locking gave, now aligned to zone boundaries so a reset or
// finish on one zone never blocks I/O against another.
type ZonedMemory struct {
	data     []byte
	size     int64
	zoneSize int64
	numZones int

	zoneLocks []sync.RWMutex
	// writePointer tracks each zone's logical write pointer, in bytes
	// from the zone's start. ResetZone rewinds it to 0; FinishZone
	// advances it to zoneSize. Not enforced against WriteAt (the
	// scheduler's write-lock handles sequencing; this is bookkeeping
	// a real ZNS device would expose as a zone-report field).
	writePointer []atomic.Int64
}

// NewZonedMemory creates a zone-divided memory backend with numZones
// zones of zoneSize bytes each.
func NewZonedMemory(numZones int, zoneSize int64) *ZonedMemory {
	size := int64(numZones) * zoneSize
	return &ZonedMemory{
		data:         make([]byte, size),
		size:         size,
		zoneSize:     zoneSize,
		numZones:     numZones,
		zoneLocks:    make([]sync.RWMutex, numZones),
		writePointer: make([]atomic.Int64, numZones),
	}
}

// zoneRange returns the zones covering [off, off+length).
func (m *ZonedMemory) zoneRange(off, length int64) (start, end int) {
	start = int(off / m.zoneSize)
	end = int((off + length - 1) / m.zoneSize)
	if end >= m.numZones {
		end = m.numZones - 1
	}
	return start, end
}

func (m *ZonedMemory) ReadAt(p []byte, off int64) (int, error) {
	if off >= m.size {
		return 0, nil
	}
	available := m.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	start, end := m.zoneRange(off, int64(len(p)))
	for i := start; i <= end; i++ {
		m.zoneLocks[i].RLock()
	}
	n := copy(p, m.data[off:off+int64(len(p))])
	for i := start; i <= end; i++ {
		m.zoneLocks[i].RUnlock()
	}
	return n, nil
}

func (m *ZonedMemory) WriteAt(p []byte, off int64) (int, error) {
	if off >= m.size {
		return 0, fmt.Errorf("write beyond end of device")
	}
	available := m.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	start, end := m.zoneRange(off, int64(len(p)))
	for i := start; i <= end; i++ {
		m.zoneLocks[i].Lock()
	}
	n := copy(m.data[off:off+int64(len(p))], p)
	for i := start; i <= end; i++ {
		m.zoneLocks[i].Unlock()
	}

	zoneStart := int64(start) * m.zoneSize
	relEnd := off + int64(n) - zoneStart
	for {
		cur := m.writePointer[start].Load()
		if relEnd <= cur || m.writePointer[start].CompareAndSwap(cur, relEnd) {
			break
		}
	}
	return n, nil
}

func (m *ZonedMemory) Size() int64 { return m.size }

func (m *ZonedMemory) Close() error {
	m.data = nil
	return nil
}

func (m *ZonedMemory) Flush() error { return nil }

// Discard zeroes the given byte range, honoring the same per-zone
// locking as WriteAt.
func (m *ZonedMemory) Discard(offset, length int64) error {
	if offset >= m.size {
		return nil
	}
	end := offset + length
	if end > m.size {
		end = m.size
	}

	start, last := m.zoneRange(offset, end-offset)
	for i := start; i <= last; i++ {
		m.zoneLocks[i].Lock()
	}
	for i := offset; i < end; i++ {
		m.data[i] = 0
	}
	for i := start; i <= last; i++ {
		m.zoneLocks[i].Unlock()
	}
	return nil
}

func (m *ZonedMemory) ZoneSize() int64 { return m.zoneSize }
func (m *ZonedMemory) NumZones() int   { return m.numZones }

// ResetZone zeroes the zone's contents and rewinds its write pointer
// to the start, as if the drive had reclaimed it.
func (m *ZonedMemory) ResetZone(zone int) error {
	if zone < 0 || zone >= m.numZones {
		return fmt.Errorf("zone %d out of range [0,%d)", zone, m.numZones)
	}
	start := int64(zone) * m.zoneSize
	m.zoneLocks[zone].Lock()
	for i := start; i < start+m.zoneSize; i++ {
		m.data[i] = 0
	}
	m.zoneLocks[zone].Unlock()
	m.writePointer[zone].Store(0)
	return nil
}

// FinishZone marks the zone as full by advancing its write pointer to
// the zone boundary, without touching its contents.
func (m *ZonedMemory) FinishZone(zone int) error {
	if zone < 0 || zone >= m.numZones {
		return fmt.Errorf("zone %d out of range [0,%d)", zone, m.numZones)
	}
	m.writePointer[zone].Store(m.zoneSize)
	return nil
}

// WritePointer returns the zone's current write pointer, in bytes from
// the zone's start, for introspection (e.g. the admin surface's zone
// report).
func (m *ZonedMemory) WritePointer(zone int) int64 {
	return m.writePointer[zone].Load()
}

var (
	_ interfaces.Backend       = (*ZonedMemory)(nil)
	_ interfaces.DiscardBackend = (*ZonedMemory)(nil)
	_ interfaces.ZonedBackend   = (*ZonedMemory)(nil)
)
