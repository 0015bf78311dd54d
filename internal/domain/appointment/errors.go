package appointment

import "errors"

// Booking and lifecycle failures are surfaced as typed errors so callers can
// map each kind to its own recovery action. ErrSlotTaken ("someone just took
// this slot", refresh and retry another slot) must stay distinguishable from
// ErrSlotMisaligned ("that time no longer exists", the client's slot list is
// stale).
var (
	ErrPastSlot          = errors.New("slot start time is in the past")
	ErrSlotMisaligned    = errors.New("time does not match any bookable slot")
	ErrSlotTaken         = errors.New("slot is already booked")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrNotFound          = errors.New("appointment not found")
	// ErrStoreUnavailable marks transient storage failures. It is the only
	// error a caller may retry without re-validating business rules, because
	// validation did not run to completion.
	ErrStoreUnavailable = errors.New("appointment store unavailable")
)
