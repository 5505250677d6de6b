package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type UnitStatus string

const (
	UnitActive      UnitStatus = "active"
	UnitMaintenance UnitStatus = "maintenance"
	UnitInactive    UnitStatus = "inactive"
)

// RoomUnit is one concrete physical instance of a room type.
type RoomUnit struct {
	ID         int64
	RoomTypeID int64
	Status     UnitStatus
}

// Booking holds a unit for [CheckIn, CheckOut). Check-out day is not a
// night stayed. Only Confirmed bookings occupy the calendar.
type Booking struct {
	ID            string
	UnitID        int64
	RoomTypeID    int64
	GuestID       string
	CheckIn       time.Time
	CheckOut      time.Time
	GuestCount    int
	Status        BookingStatus
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Overlaps reports whether the two bookings share a night on the same unit.
func (b Booking) Overlaps(o Booking) bool {
	return b.UnitID == o.UnitID &&
		RangesOverlap(b.CheckIn, b.CheckOut, o.CheckIn, o.CheckOut)
}
