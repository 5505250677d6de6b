package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"staycal/internal/adapters/observability"
	"staycal/internal/domain"
)

// BookingService is the booking state machine: Pending on creation,
// Confirmed on payment success, Cancelled terminally. Confirm and cancel
// mutate the calendar inside the same transaction as the status change.
type BookingService struct {
	bookings domain.BookingRepository
	listings domain.ListingRepository
	cache    domain.Cache
	pub      domain.Publisher
}

func NewBookingService(b domain.BookingRepository, l domain.ListingRepository, cache domain.Cache, pub domain.Publisher) *BookingService {
	return &BookingService{bookings: b, listings: l, cache: cache, pub: pub}
}

type CreateBookingParams struct {
	UnitID     int64
	GuestID    string
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int
}

// Create validates the request and writes a Pending booking. Pending
// bookings never touch the calendar.
func (s *BookingService) Create(ctx context.Context, p CreateBookingParams) (domain.Booking, error) {
	if domain.NightsBetween(p.CheckIn, p.CheckOut) < 1 {
		return domain.Booking{}, domain.ErrInvalidRange
	}

	unit, err := s.bookings.GetUnit(ctx, p.UnitID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking unit %d: %w", p.UnitID, err)
	}
	if unit.Status != domain.UnitActive {
		return domain.Booking{}, domain.ErrUnitUnavailable
	}

	listing, err := s.listings.GetListingForUnit(ctx, p.UnitID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking listing lookup: %w", err)
	}
	if listing.Status != domain.ListingPublished {
		return domain.Booking{}, domain.ErrListingNotPublished
	}

	now := time.Now().UTC()
	b := domain.Booking{
		ID:            uuid.NewString(),
		UnitID:        unit.ID,
		RoomTypeID:    unit.RoomTypeID,
		GuestID:       p.GuestID,
		CheckIn:       domain.DateOf(p.CheckIn),
		CheckOut:      domain.DateOf(p.CheckOut),
		GuestCount:    p.GuestCount,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	observability.ObserveBooking("create", "ok")
	s.publish(ctx, domain.BookingCreated{
		BookingID: b.ID, UnitID: b.UnitID, RoomTypeID: b.RoomTypeID,
		GuestID: b.GuestID, CheckIn: b.CheckIn, CheckOut: b.CheckOut, At: now,
	})
	return b, nil
}

// Confirm moves a Pending booking to Confirmed and blocks its dates.
// Overlap and blocked-date checks run inside one transaction under the
// room type's advisory lock, so two concurrent confirms for overlapping
// ranges cannot both succeed.
func (s *BookingService) Confirm(ctx context.Context, id string) error {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return fmt.Errorf("confirm booking %s: %w", id, err)
	}

	var confirmed domain.Booking
	err = s.bookings.Mutate(ctx, b.RoomTypeID, func(tx domain.BookingTx) error {
		cur, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != domain.BookingPending {
			return domain.ErrInvalidTransition
		}

		overlapping, err := tx.ListConfirmedOverlapping(ctx, cur.UnitID, cur.CheckIn, cur.CheckOut, cur.ID)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return domain.ErrOverlapConflict
		}

		entries, err := tx.GetEntries(ctx, cur.RoomTypeID, cur.CheckIn, cur.CheckOut)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsBlocked {
				return domain.ErrBlockedDateConflict
			}
		}

		if err := tx.SetBlocked(ctx, cur.RoomTypeID, cur.CheckIn, cur.CheckOut, true); err != nil {
			return err
		}
		if err := tx.UpdateBookingStatus(ctx, cur.ID, domain.BookingConfirmed, domain.PaymentPaid); err != nil {
			return err
		}
		confirmed = cur
		return nil
	})
	if err != nil {
		observability.ObserveBooking("confirm", outcome(err))
		return fmt.Errorf("confirm booking %s: %w", id, err)
	}

	observability.ObserveBooking("confirm", "ok")
	bumpAvailabilityVersion(ctx, s.cache, confirmed.RoomTypeID)
	s.publish(ctx, domain.BookingConfirmedEvent{
		BookingID: confirmed.ID, UnitID: confirmed.UnitID, RoomTypeID: confirmed.RoomTypeID,
		CheckIn: confirmed.CheckIn, CheckOut: confirmed.CheckOut, At: time.Now().UTC(),
	})
	return nil
}

// Cancel moves a booking to Cancelled. A Confirmed booking releases its
// dates, but only those not still covered by another confirmed booking
// on the room type; the check runs date by date. Cancelling a Pending
// booking has no calendar side effect.
func (s *BookingService) Cancel(ctx context.Context, id string) error {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", id, err)
	}

	var touchedCalendar bool
	err = s.bookings.Mutate(ctx, b.RoomTypeID, func(tx domain.BookingTx) error {
		cur, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch cur.Status {
		case domain.BookingPending:
			return tx.UpdateBookingStatus(ctx, cur.ID, domain.BookingCancelled, cur.PaymentStatus)
		case domain.BookingConfirmed:
			// releases dates below
		default:
			return domain.ErrInvalidTransition
		}

		others, err := tx.ListConfirmedForRoomType(ctx, cur.RoomTypeID, cur.CheckIn, cur.CheckOut, cur.ID)
		if err != nil {
			return err
		}
		var release []time.Time
		for _, d := range domain.DaysHalfOpen(cur.CheckIn, cur.CheckOut) {
			if !coveredByAny(d, others) {
				release = append(release, d)
			}
		}
		if len(release) > 0 {
			if err := tx.SetBlockedDates(ctx, cur.RoomTypeID, release, false); err != nil {
				return err
			}
		}
		touchedCalendar = true
		return tx.UpdateBookingStatus(ctx, cur.ID, domain.BookingCancelled, domain.PaymentRefunded)
	})
	if err != nil {
		observability.ObserveBooking("cancel", outcome(err))
		return fmt.Errorf("cancel booking %s: %w", id, err)
	}

	observability.ObserveBooking("cancel", "ok")
	if touchedCalendar {
		bumpAvailabilityVersion(ctx, s.cache, b.RoomTypeID)
	}
	s.publish(ctx, domain.BookingCancelledEvent{
		BookingID: b.ID, RoomTypeID: b.RoomTypeID, At: time.Now().UTC(),
	})
	return nil
}

func coveredByAny(d time.Time, bookings []domain.Booking) bool {
	for _, b := range bookings {
		if !d.Before(domain.DateOf(b.CheckIn)) && d.Before(domain.DateOf(b.CheckOut)) {
			return true
		}
	}
	return false
}

func (s *BookingService) publish(ctx context.Context, ev domain.Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.EventName()).Str("aggregate", ev.AggregateID()).Msg("event publish failed")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrOverlapConflict), errors.Is(err, domain.ErrBlockedDateConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "error"
	}
}
