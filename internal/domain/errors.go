package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrMissingBasePrice rejects materialization for a room type with no
	// configured base price. Other room types are unaffected.
	ErrMissingBasePrice = errors.New("room type has no base price")

	// ErrInvalidRange means check_out is not strictly after check_in.
	ErrInvalidRange = errors.New("check-out must be after check-in")

	// ErrBlockedDateConflict means a date in the requested range is
	// already blocked on the calendar. Retry with different dates.
	ErrBlockedDateConflict = errors.New("date range contains blocked dates")

	// ErrOverlapConflict means another confirmed booking on the same unit
	// overlaps the requested range.
	ErrOverlapConflict = errors.New("overlapping confirmed booking exists")

	// ErrIncompleteListing rejects publication of a listing missing
	// required fields.
	ErrIncompleteListing = errors.New("listing is missing required fields")

	// ErrActiveBookingsExist blocks moving a listing off published while
	// confirmed bookings reference it.
	ErrActiveBookingsExist = errors.New("listing has confirmed bookings")

	// ErrListingNotPublished rejects booking creation against a listing
	// that is not currently published.
	ErrListingNotPublished = errors.New("listing is not published")

	// ErrUnitUnavailable rejects bookings against units that are inactive
	// or under maintenance.
	ErrUnitUnavailable = errors.New("room unit is not bookable")

	// ErrInvalidTransition means the booking or listing is not in a state
	// the requested transition starts from.
	ErrInvalidTransition = errors.New("invalid state transition")
)
