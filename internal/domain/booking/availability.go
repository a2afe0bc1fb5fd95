package booking

import "time"

// OverlapPolicy decides which existing bookings take part in the date conflict check.
type OverlapPolicy struct {
	// IgnoreCancelled frees the dates of cancelled bookings. When false every
	// booking on record blocks its range, whatever its status.
	IgnoreCancelled bool
}

// Blocks reports whether existing holds its dates under this policy.
func (p OverlapPolicy) Blocks(existing *Booking) bool {
	if p.IgnoreCancelled && existing.Status == StatusCancelled {
		return false
	}
	return true
}

// FindConflict returns the first booking in existing that blocks
// [checkIn, checkOut), skipping the booking with id skipID (0 skips nothing).
func (p OverlapPolicy) FindConflict(existing []*Booking, checkIn, checkOut time.Time, skipID int64) *Booking {
	for _, b := range existing {
		if b.ID == skipID && skipID != 0 {
			continue
		}
		if p.Blocks(b) && b.Overlaps(checkIn, checkOut) {
			return b
		}
	}
	return nil
}
