package domain

import "time"

// Cents is a money amount in the currency's minor unit.
type Cents int64

type RoomType struct {
	ID               int64
	ListingID        int64
	BasePriceCents   Cents
	WeeklyRateCents  *Cents
	MonthlyRateCents *Cents
	Currency         string
}

// PricingRule overrides the nightly rate for an inclusive date range.
// Ranges may overlap; selection is deterministic (see RuleFor).
type PricingRule struct {
	ID               int64
	RoomTypeID       int64
	DateStart        time.Time // inclusive
	DateEnd          time.Time // inclusive
	NightlyRateCents Cents
	MinStay          int
	MaxStay          *int
	CreatedAt        time.Time
}

// Covers reports whether d falls inside the rule's inclusive range.
func (r PricingRule) Covers(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(DateOf(r.DateStart)) && !d.After(DateOf(r.DateEnd))
}

// RuleFor picks the rule covering d. When several rules cover the same
// date the most recently created wins; created-at ties break on the
// higher id. Returns false when no rule covers d.
func RuleFor(rules []PricingRule, d time.Time) (PricingRule, bool) {
	var best PricingRule
	found := false
	for _, r := range rules {
		if !r.Covers(d) {
			continue
		}
		if !found || r.CreatedAt.After(best.CreatedAt) ||
			(r.CreatedAt.Equal(best.CreatedAt) && r.ID > best.ID) {
			best = r
			found = true
		}
	}
	return best, found
}

type StayType string

const (
	StayWeekly  StayType = "weekly"
	StayMonthly StayType = "monthly"
)

// DurationDiscount is a stored percentage reduction for weekly or
// monthly stays. It is applied at quote time only; calendar rows always
// hold raw rates so repeated quoting never compounds the reduction.
type DurationDiscount struct {
	RoomTypeID int64
	StayType   StayType
	Percent    float64 // 0..100
}

// Factor returns the multiplier to apply to a total.
func (d DurationDiscount) Factor() float64 { return 1 - d.Percent/100 }

// RateCalendarEntry is the materialized per-day state of a room type.
// Exactly one entry exists per (room type, date) in the horizon.
type RateCalendarEntry struct {
	RoomTypeID       int64
	Date             time.Time
	NightlyRateCents Cents
	MinStay          int
	IsBlocked        bool
}

type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// PeriodFor buckets a stay length against the room type's configured
// tier rates: monthly at 30 nights and up when a monthly rate exists,
// weekly from 7 when a weekly rate exists, daily otherwise. A stay with
// no matching tier rate prices night by night off the calendar.
func (rt RoomType) PeriodFor(nights int) PeriodType {
	switch {
	case nights >= 30 && rt.MonthlyRateCents != nil:
		return PeriodMonthly
	case nights >= 7 && rt.WeeklyRateCents != nil:
		return PeriodWeekly
	default:
		return PeriodDaily
	}
}

type PriceQuote struct {
	Nights     int        `json:"nights"`
	Period     PeriodType `json:"period_type"`
	TotalCents Cents      `json:"total_cents"`
	Currency   string     `json:"currency"`
}
