package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"staycal/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ---- CalendarRepository ----

func (r *Repo) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	return scanRoomType(r.db.QueryRowContext(ctx, getRoomTypeSQL, id))
}

func (r *Repo) ListRoomTypeIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, listRoomTypeIDsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) ListRules(ctx context.Context, roomTypeID int64) ([]domain.PricingRule, error) {
	rows, err := r.db.QueryContext(ctx, listRulesSQL, roomTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PricingRule
	for rows.Next() {
		var p domain.PricingRule
		var maxStay sql.NullInt64
		if err := rows.Scan(&p.ID, &p.RoomTypeID, &p.DateStart, &p.DateEnd,
			&p.NightlyRateCents, &p.MinStay, &maxStay, &p.CreatedAt); err != nil {
			return nil, err
		}
		if maxStay.Valid {
			m := int(maxStay.Int64)
			p.MaxStay = &m
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListDiscounts(ctx context.Context, roomTypeID int64) ([]domain.DurationDiscount, error) {
	rows, err := r.db.QueryContext(ctx, listDiscountsSQL, roomTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DurationDiscount
	for rows.Next() {
		var d domain.DurationDiscount
		var stay string
		if err := rows.Scan(&d.RoomTypeID, &stay, &d.Percent); err != nil {
			return nil, err
		}
		d.StayType = domain.StayType(stay)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) GetEntries(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.RateCalendarEntry, error) {
	return getEntries(ctx, r.db, roomTypeID, from, to)
}

func (r *Repo) UpsertEntries(ctx context.Context, entries []domain.RateCalendarEntry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries)*4)
	for _, e := range entries {
		values = append(values, "(?,?,?,?)")
		args = append(args, e.RoomTypeID, domain.DateOf(e.Date), e.NightlyRateCents, e.MinStay)
	}
	sqlStr := upsertEntriesPrefix + strings.Join(values, ",") + upsertEntriesOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ---- BookingRepository ----

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
}

func (r *Repo) GetUnit(ctx context.Context, id int64) (domain.RoomUnit, error) {
	var u domain.RoomUnit
	var status string
	err := r.db.QueryRowContext(ctx, getUnitSQL, id).Scan(&u.ID, &u.RoomTypeID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoomUnit{}, fmt.Errorf("unit %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.RoomUnit{}, err
	}
	u.Status = domain.UnitStatus(status)
	return u, nil
}

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) error {
	_, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.ID, b.UnitID, b.RoomTypeID, b.GuestID,
		domain.DateOf(b.CheckIn), domain.DateOf(b.CheckOut), b.GuestCount,
		string(b.Status), string(b.PaymentStatus), b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// Mutate runs fn inside one transaction while holding the MySQL advisory
// lock for the room type. GET_LOCK is connection-scoped, so the lock and
// the transaction must share a connection; two concurrent confirms on
// the same room type serialize here.
func (r *Repo) Mutate(ctx context.Context, roomTypeID int64, fn func(tx domain.BookingTx) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	lockName := fmt.Sprintf("staycal:rt:%d", roomTypeID)
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 10)", lockName).Scan(&got); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !got.Valid || got.Int64 != 1 {
		return fmt.Errorf("advisory lock %s: timed out", lockName)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "SELECT RELEASE_LOCK(?)", lockName)
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&bookingTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type bookingTx struct{ tx *sql.Tx }

func (t *bookingTx) GetBookingForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	return scanBooking(t.tx.QueryRowContext(ctx, getBookingSQL+" FOR UPDATE", id))
}

func (t *bookingTx) UpdateBookingStatus(ctx context.Context, id string, status domain.BookingStatus, payment domain.PaymentStatus) error {
	res, err := t.tx.ExecContext(ctx, updateBookingStatusSQL, string(status), string(payment), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (t *bookingTx) ListConfirmedOverlapping(ctx context.Context, unitID int64, from, to time.Time, excludeID string) ([]domain.Booking, error) {
	return listBookings(ctx, t.tx, listConfirmedOverlappingSQL,
		unitID, excludeID, domain.DateOf(to), domain.DateOf(from))
}

func (t *bookingTx) ListConfirmedForRoomType(ctx context.Context, roomTypeID int64, from, to time.Time, excludeID string) ([]domain.Booking, error) {
	return listBookings(ctx, t.tx, listConfirmedForRoomTypeSQL,
		roomTypeID, excludeID, domain.DateOf(to), domain.DateOf(from))
}

func (t *bookingTx) GetEntries(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.RateCalendarEntry, error) {
	return getEntries(ctx, t.tx, roomTypeID, from, to)
}

// SetBlocked upserts when blocking: dates beyond the materialized
// horizon are inserted at the room type's base rate already blocked, so
// the calendar always holds the union of confirmed stays. Unblocking
// only ever touches existing rows.
func (t *bookingTx) SetBlocked(ctx context.Context, roomTypeID int64, from, to time.Time, blocked bool) error {
	if !blocked {
		_, err := t.tx.ExecContext(ctx, unblockRangeSQL, roomTypeID, domain.DateOf(from), domain.DateOf(to))
		return err
	}

	rt, err := scanRoomType(t.tx.QueryRowContext(ctx, getRoomTypeSQL, roomTypeID))
	if err != nil {
		return err
	}
	days := domain.DaysHalfOpen(from, to)
	if len(days) == 0 {
		return nil
	}
	values := make([]string, 0, len(days))
	args := make([]any, 0, len(days)*5)
	for _, d := range days {
		values = append(values, "(?,?,?,?,?)")
		args = append(args, roomTypeID, d, rt.BasePriceCents, 1, true)
	}
	sqlStr := blockRangeInsertPrefix + strings.Join(values, ",") + blockRangeInsertOnDup
	_, err = t.tx.ExecContext(ctx, sqlStr, args...)
	return err
}

func (t *bookingTx) SetBlockedDates(ctx context.Context, roomTypeID int64, dates []time.Time, blocked bool) error {
	if len(dates) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(dates))
	args := []any{blocked, roomTypeID}
	for _, d := range dates {
		placeholders = append(placeholders, "?")
		args = append(args, domain.DateOf(d))
	}
	sqlStr := "UPDATE rate_calendar SET is_blocked = ? WHERE room_type_id = ? AND date IN (" +
		strings.Join(placeholders, ",") + ")"
	_, err := t.tx.ExecContext(ctx, sqlStr, args...)
	return err
}

// ---- ListingRepository ----

func (r *Repo) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	return scanListing(r.db.QueryRowContext(ctx, getListingSQL, id))
}

func (r *Repo) GetListingForUnit(ctx context.Context, unitID int64) (domain.Listing, error) {
	return scanListing(r.db.QueryRowContext(ctx, getListingForUnitSQL, unitID))
}

func (r *Repo) ListRoomTypes(ctx context.Context, listingID int64) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, listRoomTypesForListingSQL, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		rt, err := scanRoomTypeRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *Repo) CountConfirmedForListing(ctx context.Context, listingID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countConfirmedForListingSQL, listingID).Scan(&n)
	return n, err
}

func (r *Repo) UpdateListingStatus(ctx context.Context, id int64, status domain.ListingStatus) error {
	res, err := r.db.ExecContext(ctx, updateListingStatusSQL, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("listing %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---- scan helpers ----

func getEntries(ctx context.Context, q querier, roomTypeID int64, from, to time.Time) ([]domain.RateCalendarEntry, error) {
	rows, err := q.QueryContext(ctx, getEntriesSQL, roomTypeID, domain.DateOf(from), domain.DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RateCalendarEntry
	for rows.Next() {
		var e domain.RateCalendarEntry
		if err := rows.Scan(&e.RoomTypeID, &e.Date, &e.NightlyRateCents, &e.MinStay, &e.IsBlocked); err != nil {
			return nil, err
		}
		e.Date = domain.DateOf(e.Date)
		out = append(out, e)
	}
	return out, rows.Err()
}

func listBookings(ctx context.Context, q querier, query string, args ...any) ([]domain.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBookingRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRoomTypeFrom(s rowScanner) (domain.RoomType, error) {
	var rt domain.RoomType
	var weekly, monthly sql.NullInt64
	if err := s.Scan(&rt.ID, &rt.ListingID, &rt.BasePriceCents, &weekly, &monthly, &rt.Currency); err != nil {
		return domain.RoomType{}, err
	}
	if weekly.Valid {
		c := domain.Cents(weekly.Int64)
		rt.WeeklyRateCents = &c
	}
	if monthly.Valid {
		c := domain.Cents(monthly.Int64)
		rt.MonthlyRateCents = &c
	}
	return rt, nil
}

func scanRoomType(row *sql.Row) (domain.RoomType, error) {
	rt, err := scanRoomTypeFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoomType{}, fmt.Errorf("room type: %w", domain.ErrNotFound)
	}
	return rt, err
}

func scanRoomTypeRows(rows *sql.Rows) (domain.RoomType, error) {
	return scanRoomTypeFrom(rows)
}

func scanBookingFrom(s rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var status, payment string
	if err := s.Scan(&b.ID, &b.UnitID, &b.RoomTypeID, &b.GuestID,
		&b.CheckIn, &b.CheckOut, &b.GuestCount,
		&status, &payment, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return domain.Booking{}, err
	}
	b.CheckIn = domain.DateOf(b.CheckIn)
	b.CheckOut = domain.DateOf(b.CheckOut)
	b.Status = domain.BookingStatus(status)
	b.PaymentStatus = domain.PaymentStatus(payment)
	return b, nil
}

func scanBooking(row *sql.Row) (domain.Booking, error) {
	b, err := scanBookingFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, fmt.Errorf("booking: %w", domain.ErrNotFound)
	}
	return b, err
}

func scanBookingRows(rows *sql.Rows) (domain.Booking, error) {
	return scanBookingFrom(rows)
}

func scanListing(row *sql.Row) (domain.Listing, error) {
	var l domain.Listing
	var status string
	err := row.Scan(&l.ID, &l.Title, &l.Address, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Listing{}, fmt.Errorf("listing: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Listing{}, err
	}
	l.Status = domain.ListingStatus(status)
	return l, nil
}
