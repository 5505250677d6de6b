package domain

import (
	"context"
	"time"
)

// CalendarRepository is the authoritative availability-and-price store.
type CalendarRepository interface {
	GetRoomType(ctx context.Context, id int64) (RoomType, error)
	ListRoomTypeIDs(ctx context.Context) ([]int64, error)
	ListRules(ctx context.Context, roomTypeID int64) ([]PricingRule, error)
	ListDiscounts(ctx context.Context, roomTypeID int64) ([]DurationDiscount, error)

	// GetEntries returns calendar entries for [from, to), date ascending.
	GetEntries(ctx context.Context, roomTypeID int64, from, to time.Time) ([]RateCalendarEntry, error)

	// UpsertEntries writes all entries in one batched statement. It must
	// refresh rate and min-stay only, never an existing is_blocked flag.
	UpsertEntries(ctx context.Context, entries []RateCalendarEntry) error
}

// BookingTx is the transactional scope a booking state change runs in.
// Every method sees and mutates the same transaction; a returned error
// rolls the whole unit of work back.
type BookingTx interface {
	GetBookingForUpdate(ctx context.Context, id string) (Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status BookingStatus, payment PaymentStatus) error

	// ListConfirmedOverlapping returns confirmed bookings on the unit
	// overlapping [from, to), excluding excludeID.
	ListConfirmedOverlapping(ctx context.Context, unitID int64, from, to time.Time, excludeID string) ([]Booking, error)

	// ListConfirmedForRoomType is the room-type-wide variant, used to
	// decide which dates stay blocked on cancellation.
	ListConfirmedForRoomType(ctx context.Context, roomTypeID int64, from, to time.Time, excludeID string) ([]Booking, error)

	GetEntries(ctx context.Context, roomTypeID int64, from, to time.Time) ([]RateCalendarEntry, error)

	// SetBlocked flips is_blocked for every date in [from, to).
	SetBlocked(ctx context.Context, roomTypeID int64, from, to time.Time, blocked bool) error

	// SetBlockedDates flips is_blocked for the listed dates only.
	SetBlockedDates(ctx context.Context, roomTypeID int64, dates []time.Time, blocked bool) error
}

// BookingRepository persists bookings and runs calendar-affecting
// transitions under a per-room-type advisory lock.
type BookingRepository interface {
	GetBooking(ctx context.Context, id string) (Booking, error)
	GetUnit(ctx context.Context, id int64) (RoomUnit, error)
	CreateBooking(ctx context.Context, b Booking) error

	// Mutate runs fn in a single transaction while holding the advisory
	// lock for roomTypeID, serializing conflicting confirm/cancel calls.
	Mutate(ctx context.Context, roomTypeID int64, fn func(tx BookingTx) error) error
}

type ListingRepository interface {
	GetListing(ctx context.Context, id int64) (Listing, error)
	GetListingForUnit(ctx context.Context, unitID int64) (Listing, error)
	ListRoomTypes(ctx context.Context, listingID int64) ([]RoomType, error)
	CountConfirmedForListing(ctx context.Context, listingID int64) (int, error)
	UpdateListingStatus(ctx context.Context, id int64, status ListingStatus) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error

	// Incr bumps an integer key, creating it at 1. Used for versioned
	// cache keys; bumping the version invalidates every cached range for
	// a room type without wildcard deletes.
	Incr(ctx context.Context, key string) (int64, error)
}

// Publisher emits booking state-transition events to downstream
// consumers. Publishing happens after commit; a publish failure never
// rolls back the transition.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
