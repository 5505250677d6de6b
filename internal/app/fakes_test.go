package app_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"staycal/internal/domain"
)

// fakeStore backs all three repository ports with in-memory maps. Mutate
// serializes on a mutex, mirroring the per-room-type advisory lock of
// the MySQL implementation.
type fakeStore struct {
	mu        sync.Mutex
	roomTypes map[int64]domain.RoomType
	rules     map[int64][]domain.PricingRule
	discounts map[int64][]domain.DurationDiscount
	entries   map[int64]map[time.Time]domain.RateCalendarEntry
	units     map[int64]domain.RoomUnit
	bookings  map[string]domain.Booking
	listings  map[int64]domain.Listing
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roomTypes: map[int64]domain.RoomType{},
		rules:     map[int64][]domain.PricingRule{},
		discounts: map[int64][]domain.DurationDiscount{},
		entries:   map[int64]map[time.Time]domain.RateCalendarEntry{},
		units:     map[int64]domain.RoomUnit{},
		bookings:  map[string]domain.Booking{},
		listings:  map[int64]domain.Listing{},
	}
}

// ---- CalendarRepository ----

func (f *fakeStore) GetRoomType(_ context.Context, id int64) (domain.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.roomTypes[id]
	if !ok {
		return domain.RoomType{}, fmt.Errorf("room type %d: %w", id, domain.ErrNotFound)
	}
	return rt, nil
}

func (f *fakeStore) ListRoomTypeIDs(_ context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id := range f.roomTypes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) ListRules(_ context.Context, roomTypeID int64) ([]domain.PricingRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PricingRule(nil), f.rules[roomTypeID]...), nil
}

func (f *fakeStore) ListDiscounts(_ context.Context, roomTypeID int64) ([]domain.DurationDiscount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DurationDiscount(nil), f.discounts[roomTypeID]...), nil
}

func (f *fakeStore) GetEntries(_ context.Context, roomTypeID int64, from, to time.Time) ([]domain.RateCalendarEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entriesLocked(roomTypeID, from, to), nil
}

func (f *fakeStore) entriesLocked(roomTypeID int64, from, to time.Time) []domain.RateCalendarEntry {
	var out []domain.RateCalendarEntry
	for _, e := range f.entries[roomTypeID] {
		if !e.Date.Before(domain.DateOf(from)) && e.Date.Before(domain.DateOf(to)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeStore) UpsertEntries(_ context.Context, entries []domain.RateCalendarEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		byDate := f.entries[e.RoomTypeID]
		if byDate == nil {
			byDate = map[time.Time]domain.RateCalendarEntry{}
			f.entries[e.RoomTypeID] = byDate
		}
		d := domain.DateOf(e.Date)
		// preserve an existing blocked flag, like the SQL upsert
		blocked := false
		if old, ok := byDate[d]; ok {
			blocked = old.IsBlocked
		}
		e.Date = d
		e.IsBlocked = blocked
		byDate[d] = e
	}
	return nil
}

// ---- BookingRepository ----

func (f *fakeStore) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookingLocked(id)
}

func (f *fakeStore) bookingLocked(id string) (domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

func (f *fakeStore) GetUnit(_ context.Context, id int64) (domain.RoomUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.units[id]
	if !ok {
		return domain.RoomUnit{}, fmt.Errorf("unit %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (f *fakeStore) CreateBooking(_ context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeStore) Mutate(_ context.Context, _ int64, fn func(tx domain.BookingTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(&fakeTx{s: f})
}

type fakeTx struct{ s *fakeStore }

func (t *fakeTx) GetBookingForUpdate(_ context.Context, id string) (domain.Booking, error) {
	return t.s.bookingLocked(id)
}

func (t *fakeTx) UpdateBookingStatus(_ context.Context, id string, status domain.BookingStatus, payment domain.PaymentStatus) error {
	b, err := t.s.bookingLocked(id)
	if err != nil {
		return err
	}
	b.Status = status
	b.PaymentStatus = payment
	b.UpdatedAt = time.Now().UTC()
	t.s.bookings[id] = b
	return nil
}

func (t *fakeTx) ListConfirmedOverlapping(_ context.Context, unitID int64, from, to time.Time, excludeID string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range t.s.bookings {
		if b.UnitID == unitID && b.ID != excludeID && b.Status == domain.BookingConfirmed &&
			domain.RangesOverlap(b.CheckIn, b.CheckOut, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *fakeTx) ListConfirmedForRoomType(_ context.Context, roomTypeID int64, from, to time.Time, excludeID string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range t.s.bookings {
		if b.RoomTypeID == roomTypeID && b.ID != excludeID && b.Status == domain.BookingConfirmed &&
			domain.RangesOverlap(b.CheckIn, b.CheckOut, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *fakeTx) GetEntries(_ context.Context, roomTypeID int64, from, to time.Time) ([]domain.RateCalendarEntry, error) {
	return t.s.entriesLocked(roomTypeID, from, to), nil
}

// Blocking creates missing dates at the base rate, like the SQL upsert;
// unblocking only touches existing rows.
func (t *fakeTx) SetBlocked(_ context.Context, roomTypeID int64, from, to time.Time, blocked bool) error {
	for _, d := range domain.DaysHalfOpen(from, to) {
		e, ok := t.s.entries[roomTypeID][d]
		if !ok {
			if !blocked {
				continue
			}
			byDate := t.s.entries[roomTypeID]
			if byDate == nil {
				byDate = map[time.Time]domain.RateCalendarEntry{}
				t.s.entries[roomTypeID] = byDate
			}
			e = domain.RateCalendarEntry{
				RoomTypeID:       roomTypeID,
				Date:             d,
				NightlyRateCents: t.s.roomTypes[roomTypeID].BasePriceCents,
				MinStay:          1,
			}
		}
		e.IsBlocked = blocked
		t.s.entries[roomTypeID][d] = e
	}
	return nil
}

func (t *fakeTx) SetBlockedDates(_ context.Context, roomTypeID int64, dates []time.Time, blocked bool) error {
	for _, d := range dates {
		d = domain.DateOf(d)
		if e, ok := t.s.entries[roomTypeID][d]; ok {
			e.IsBlocked = blocked
			t.s.entries[roomTypeID][d] = e
		}
	}
	return nil
}

// ---- ListingRepository ----

func (f *fakeStore) GetListing(_ context.Context, id int64) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return domain.Listing{}, fmt.Errorf("listing %d: %w", id, domain.ErrNotFound)
	}
	return l, nil
}

func (f *fakeStore) GetListingForUnit(_ context.Context, unitID int64) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.units[unitID]
	if !ok {
		return domain.Listing{}, fmt.Errorf("unit %d: %w", unitID, domain.ErrNotFound)
	}
	rt, ok := f.roomTypes[u.RoomTypeID]
	if !ok {
		return domain.Listing{}, fmt.Errorf("room type %d: %w", u.RoomTypeID, domain.ErrNotFound)
	}
	l, ok := f.listings[rt.ListingID]
	if !ok {
		return domain.Listing{}, fmt.Errorf("listing %d: %w", rt.ListingID, domain.ErrNotFound)
	}
	return l, nil
}

func (f *fakeStore) ListRoomTypes(_ context.Context, listingID int64) ([]domain.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoomType
	for _, rt := range f.roomTypes {
		if rt.ListingID == listingID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (f *fakeStore) CountConfirmedForListing(_ context.Context, listingID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.bookings {
		if b.Status != domain.BookingConfirmed {
			continue
		}
		rt, ok := f.roomTypes[b.RoomTypeID]
		if ok && rt.ListingID == listingID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UpdateListingStatus(_ context.Context, id int64, status domain.ListingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return fmt.Errorf("listing %d: %w", id, domain.ErrNotFound)
	}
	l.Status = status
	f.listings[id] = l
	return nil
}

// ---- cache & publisher fakes ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	ints  map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]any{}, ints: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.ints[key]; ok {
		if d, ok := dst.(*int64); ok {
			*d = n
			return true, nil
		}
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]domain.RateCalendarEntry:
		*d = v.([]domain.RateCalendarEntry)
	case *int64:
		*d = v.(int64)
	}
	return true, nil
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ints[key]++
	return c.ints[key], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *fakePublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

// ---- seed helpers ----

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func cents(n int64) *domain.Cents { c := domain.Cents(n); return &c }

// seedListing wires listing 1 -> room type 1 -> units 1 and 2, all
// published and bookable.
func seedListing(f *fakeStore) {
	f.listings[1] = domain.Listing{ID: 1, Title: "Harbor House", Address: "1 Quay St", Status: domain.ListingPublished}
	f.roomTypes[1] = domain.RoomType{ID: 1, ListingID: 1, BasePriceCents: 100, Currency: "USD"}
	f.units[1] = domain.RoomUnit{ID: 1, RoomTypeID: 1, Status: domain.UnitActive}
	f.units[2] = domain.RoomUnit{ID: 2, RoomTypeID: 1, Status: domain.UnitActive}
}
