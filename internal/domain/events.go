package domain

import "time"

// Event is a booking state transition emitted after the transaction that
// produced it commits.
type Event interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

type BookingCreated struct {
	BookingID  string    `json:"booking_id"`
	UnitID     int64     `json:"unit_id"`
	RoomTypeID int64     `json:"room_type_id"`
	GuestID    string    `json:"guest_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	At         time.Time `json:"at"`
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return e.BookingID }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingConfirmedEvent struct {
	BookingID  string    `json:"booking_id"`
	UnitID     int64     `json:"unit_id"`
	RoomTypeID int64     `json:"room_type_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	At         time.Time `json:"at"`
}

func (e BookingConfirmedEvent) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmedEvent) AggregateID() string   { return e.BookingID }
func (e BookingConfirmedEvent) OccurredAt() time.Time { return e.At }

type BookingCancelledEvent struct {
	BookingID  string    `json:"booking_id"`
	RoomTypeID int64     `json:"room_type_id"`
	At         time.Time `json:"at"`
}

func (e BookingCancelledEvent) EventName() string     { return "booking.cancelled" }
func (e BookingCancelledEvent) AggregateID() string   { return e.BookingID }
func (e BookingCancelledEvent) OccurredAt() time.Time { return e.At }
