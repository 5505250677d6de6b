package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"staycal/internal/domain"
)

// AvailabilityService serves calendar reads for rendering, cached under
// versioned keys. Every calendar mutation bumps the room type's version,
// which orphans all cached ranges at once; no wildcard key deletion.
type AvailabilityService struct {
	cal      domain.CalendarRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewAvailabilityService(cal domain.CalendarRepository, cache domain.Cache, ttl time.Duration) *AvailabilityService {
	return &AvailabilityService{cal: cal, cache: cache, cacheTTL: ttl}
}

// GetAvailability returns one entry per materialized date in [from, to]
// inclusive, date ascending.
func (s *AvailabilityService) GetAvailability(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.RateCalendarEntry, error) {
	key := s.key(ctx, roomTypeID, from, to)
	var cached []domain.RateCalendarEntry
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	entries, err := s.cal.GetEntries(ctx, roomTypeID, from, domain.DateOf(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("availability for room type %d: %w", roomTypeID, err)
	}
	if err := s.cache.Set(ctx, key, entries, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("availability cache set failed")
	}
	return entries, nil
}

func (s *AvailabilityService) key(ctx context.Context, roomTypeID int64, from, to time.Time) string {
	var ver int64
	if ok, _ := s.cache.Get(ctx, versionKey(roomTypeID), &ver); !ok {
		ver = 0
	}
	return fmt.Sprintf("avail:%d:%d:%s:%s",
		roomTypeID, ver,
		domain.DateOf(from).Format("2006-01-02"),
		domain.DateOf(to).Format("2006-01-02"))
}

func versionKey(roomTypeID int64) string {
	return fmt.Sprintf("availver:%d", roomTypeID)
}

// bumpAvailabilityVersion invalidates every cached availability range
// for the room type. Best-effort: the cache is not part of correctness.
func bumpAvailabilityVersion(ctx context.Context, cache domain.Cache, roomTypeID int64) {
	if cache == nil {
		return
	}
	if _, err := cache.Incr(ctx, versionKey(roomTypeID)); err != nil {
		log.Warn().Err(err).Int64("room_type", roomTypeID).Msg("availability version bump failed")
	}
}
