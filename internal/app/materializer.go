package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"staycal/internal/domain"
)

// MaterializerService derives per-day calendar entries for a room type
// from its base price and active pricing rules.
type MaterializerService struct {
	cal   domain.CalendarRepository
	cache domain.Cache
}

func NewMaterializerService(cal domain.CalendarRepository, cache domain.Cache) *MaterializerService {
	return &MaterializerService{cal: cal, cache: cache}
}

// Materialize upserts one entry per date in [from, to] inclusive and
// returns how many entries were written. The upsert refreshes rate and
// min-stay only; blocked flags belong to the booking lifecycle and are
// left untouched, which also makes re-runs with unchanged rules
// idempotent.
func (s *MaterializerService) Materialize(ctx context.Context, roomTypeID int64, from, to time.Time) (int, error) {
	rt, err := s.cal.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return 0, fmt.Errorf("materialize room type %d: %w", roomTypeID, err)
	}
	if rt.BasePriceCents <= 0 {
		return 0, fmt.Errorf("room type %d: %w", roomTypeID, domain.ErrMissingBasePrice)
	}

	rules, err := s.cal.ListRules(ctx, roomTypeID)
	if err != nil {
		return 0, fmt.Errorf("list rules for room type %d: %w", roomTypeID, err)
	}

	days := domain.DaysInclusive(from, to)
	entries := make([]domain.RateCalendarEntry, 0, len(days))
	for _, d := range days {
		e := domain.RateCalendarEntry{
			RoomTypeID:       roomTypeID,
			Date:             d,
			NightlyRateCents: rt.BasePriceCents,
			MinStay:          1,
		}
		if rule, ok := domain.RuleFor(rules, d); ok {
			e.NightlyRateCents = rule.NightlyRateCents
			e.MinStay = rule.MinStay
		}
		entries = append(entries, e)
	}

	// Single batched upsert; a per-date loop would hold locks long enough
	// to starve concurrent bookings on long horizons.
	if err := s.cal.UpsertEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("upsert calendar for room type %d: %w", roomTypeID, err)
	}

	bumpAvailabilityVersion(ctx, s.cache, roomTypeID)
	log.Debug().Int64("room_type", roomTypeID).Int("entries", len(entries)).Msg("calendar materialized")
	return len(entries), nil
}
