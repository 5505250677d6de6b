package mysql

const getRoomTypeSQL = `
SELECT id, listing_id, base_price_cents, weekly_rate_cents, monthly_rate_cents, currency
FROM room_types
WHERE id = ?
`

const listRoomTypeIDsSQL = `
SELECT id FROM room_types ORDER BY id
`

const listRulesSQL = `
SELECT id, room_type_id, date_start, date_end, nightly_rate_cents, min_stay, max_stay, created_at
FROM pricing_rules
WHERE room_type_id = ?
ORDER BY created_at, id
`

const listDiscountsSQL = `
SELECT room_type_id, stay_type, percent
FROM duration_discounts
WHERE room_type_id = ?
`

const getEntriesSQL = `
SELECT room_type_id, date, nightly_rate_cents, min_stay, is_blocked
FROM rate_calendar
WHERE room_type_id = ? AND date >= ? AND date < ?
ORDER BY date
`

// The upsert deliberately leaves is_blocked alone: blocked flags belong
// to the booking lifecycle and must survive re-materialization.
const upsertEntriesPrefix = `
INSERT INTO rate_calendar (room_type_id, date, nightly_rate_cents, min_stay)
VALUES `

const upsertEntriesOnDup = `
ON DUPLICATE KEY UPDATE
  nightly_rate_cents = VALUES(nightly_rate_cents),
  min_stay           = VALUES(min_stay)
`

const unblockRangeSQL = `
UPDATE rate_calendar
SET is_blocked = FALSE
WHERE room_type_id = ? AND date >= ? AND date < ?
`

// Blocking inserts any date missing from the horizon at the base rate,
// so a confirmed stay past the materialized range still lands in the
// calendar and a later horizon extension cannot resurface it unblocked.
const blockRangeInsertPrefix = `
INSERT INTO rate_calendar (room_type_id, date, nightly_rate_cents, min_stay, is_blocked)
VALUES `

const blockRangeInsertOnDup = `
ON DUPLICATE KEY UPDATE is_blocked = VALUES(is_blocked)
`

const getBookingSQL = `
SELECT id, unit_id, room_type_id, guest_id, check_in, check_out, guest_count,
       status, payment_status, created_at, updated_at
FROM bookings
WHERE id = ?
`

const insertBookingSQL = `
INSERT INTO bookings
  (id, unit_id, room_type_id, guest_id, check_in, check_out, guest_count,
   status, payment_status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateBookingStatusSQL = `
UPDATE bookings
SET status = ?, payment_status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const listConfirmedOverlappingSQL = `
SELECT id, unit_id, room_type_id, guest_id, check_in, check_out, guest_count,
       status, payment_status, created_at, updated_at
FROM bookings
WHERE unit_id = ? AND status = 'confirmed' AND id <> ?
  AND check_in < ? AND check_out > ?
FOR UPDATE
`

const listConfirmedForRoomTypeSQL = `
SELECT id, unit_id, room_type_id, guest_id, check_in, check_out, guest_count,
       status, payment_status, created_at, updated_at
FROM bookings
WHERE room_type_id = ? AND status = 'confirmed' AND id <> ?
  AND check_in < ? AND check_out > ?
FOR UPDATE
`

const getUnitSQL = `
SELECT id, room_type_id, status FROM room_units WHERE id = ?
`

const getListingSQL = `
SELECT id, title, address, status FROM listings WHERE id = ?
`

const getListingForUnitSQL = `
SELECT l.id, l.title, l.address, l.status
FROM listings l
JOIN room_types rt ON rt.listing_id = l.id
JOIN room_units u  ON u.room_type_id = rt.id
WHERE u.id = ?
`

const listRoomTypesForListingSQL = `
SELECT id, listing_id, base_price_cents, weekly_rate_cents, monthly_rate_cents, currency
FROM room_types
WHERE listing_id = ?
ORDER BY id
`

const countConfirmedForListingSQL = `
SELECT COUNT(*)
FROM bookings b
JOIN room_types rt ON rt.id = b.room_type_id
WHERE rt.listing_id = ? AND b.status = 'confirmed'
`

const updateListingStatusSQL = `
UPDATE listings SET status = ? WHERE id = ?
`
