// Package zone provides the per-zone write-lock primitive that
// spec.md §1 assumes is supplied by "the surrounding zoned-device
// infrastructure": a short-held exclusion mechanism ensuring at most
// one write is in flight to a given zone at a time (spec.md §8,
// "Zoned-write safety").
package zone

import "sync/atomic"

// Locker is the per-zone write-lock contract the dispatch engine
// consults when selecting a write candidate (spec.md §4.3e) and that
// completion handling releases (spec.md §4.7).
type Locker interface {
	// TryLock attempts to acquire the write lock for zone z without
	// blocking. The scheduler's hot path may not suspend (spec.md §5),
	// so this is the only acquisition primitive it uses.
	TryLock(z int) bool
	// Unlock releases the write lock for zone z. Unlocking an unlocked
	// zone is a no-op.
	Unlock(z int)
	// Locked reports whether zone z is currently write-locked.
	Locked(z int) bool
}

// SpinLocker implements Locker with one atomic flag per zone. It never
// blocks: TryLock is a single compare-and-swap, matching the "no
// suspension points" concurrency rule in spec.md §5.
type SpinLocker struct {
	locks []atomic.Bool
}

// NewSpinLocker creates a SpinLocker sized for numZones zones.
func NewSpinLocker(numZones int) *SpinLocker {
	return &SpinLocker{locks: make([]atomic.Bool, numZones)}
}

func (s *SpinLocker) TryLock(z int) bool {
	if z < 0 || z >= len(s.locks) {
		return false
	}
	return s.locks[z].CompareAndSwap(false, true)
}

func (s *SpinLocker) Unlock(z int) {
	if z < 0 || z >= len(s.locks) {
		return
	}
	s.locks[z].Store(false)
}

func (s *SpinLocker) Locked(z int) bool {
	if z < 0 || z >= len(s.locks) {
		return false
	}
	return s.locks[z].Load()
}

var _ Locker = (*SpinLocker)(nil)
