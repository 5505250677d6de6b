package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"staycal/internal/adapters/observability"
	"staycal/internal/domain"
)

// QuoteService answers price quotes for a stay. Stays long enough for a
// configured weekly or monthly rate use that tier; everything else is
// priced night by night off the materialized calendar. Duration
// discounts are applied here, at quote time, and never written back to
// the calendar.
type QuoteService struct {
	cal domain.CalendarRepository
}

func NewQuoteService(cal domain.CalendarRepository) *QuoteService {
	return &QuoteService{cal: cal}
}

func (s *QuoteService) Quote(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time) (domain.PriceQuote, error) {
	nights := domain.NightsBetween(checkIn, checkOut)
	if nights < 1 {
		return domain.PriceQuote{}, domain.ErrInvalidRange
	}

	rt, err := s.cal.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("quote room type %d: %w", roomTypeID, err)
	}

	entries, err := s.cal.GetEntries(ctx, roomTypeID, checkIn, checkOut)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("quote calendar read: %w", err)
	}
	for _, e := range entries {
		if e.IsBlocked {
			return domain.PriceQuote{}, domain.ErrBlockedDateConflict
		}
	}

	period := rt.PeriodFor(nights)
	var total domain.Cents
	switch period {
	case domain.PeriodWeekly:
		total = domain.Cents(nights/7)**rt.WeeklyRateCents + domain.Cents(nights%7)*rt.BasePriceCents
	case domain.PeriodMonthly:
		total = domain.Cents(nights/30)**rt.MonthlyRateCents + domain.Cents(nights%30)*rt.BasePriceCents
	default:
		total = sumNightly(entries, checkIn, checkOut)
		// Fall back to base price when the horizon has gaps.
		if total <= 0 {
			total = domain.Cents(nights) * rt.BasePriceCents
		}
	}

	total, err = s.applyDiscount(ctx, roomTypeID, period, total)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	observability.ObserveQuote(string(period))
	return domain.PriceQuote{
		Nights:     nights,
		Period:     period,
		TotalCents: total,
		Currency:   rt.Currency,
	}, nil
}

// sumNightly adds up the nightly rate for each date in [checkIn,
// checkOut). Returns 0 when any date has no entry, which triggers the
// base-price fallback.
func sumNightly(entries []domain.RateCalendarEntry, checkIn, checkOut time.Time) domain.Cents {
	byDate := make(map[time.Time]domain.RateCalendarEntry, len(entries))
	for _, e := range entries {
		byDate[domain.DateOf(e.Date)] = e
	}
	var total domain.Cents
	for _, d := range domain.DaysHalfOpen(checkIn, checkOut) {
		e, ok := byDate[d]
		if !ok {
			return 0
		}
		total += e.NightlyRateCents
	}
	return total
}

// applyDiscount multiplies the total by the stored discount factor for
// the stay type matching the period classification. Daily stays have no
// duration discount.
func (s *QuoteService) applyDiscount(ctx context.Context, roomTypeID int64, period domain.PeriodType, total domain.Cents) (domain.Cents, error) {
	var want domain.StayType
	switch period {
	case domain.PeriodWeekly:
		want = domain.StayWeekly
	case domain.PeriodMonthly:
		want = domain.StayMonthly
	default:
		return total, nil
	}
	discounts, err := s.cal.ListDiscounts(ctx, roomTypeID)
	if err != nil {
		return 0, fmt.Errorf("quote discounts: %w", err)
	}
	for _, d := range discounts {
		if d.StayType == want && d.Percent > 0 {
			return domain.Cents(math.Round(float64(total) * d.Factor())), nil
		}
	}
	return total, nil
}
