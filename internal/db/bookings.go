package db

import (
	"context"
	"time"
)

const createBookingSQL = `
INSERT INTO bookings (user_id, venue_id, court_id, booking_date, start_time, end_time,
                      duration_minutes, base_price_cents, equipment_rental_cents, tax_cents,
                      discount_cents, total_cents, status, payment_status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', 'unpaid')
`

type CreateBookingParams struct {
	UserID               int64
	VenueID              int64
	CourtID              int64
	BookingDate          string
	StartTime            string
	EndTime              string
	DurationMinutes      int64
	BasePriceCents       int64
	EquipmentRentalCents int64
	TaxCents             int64
	DiscountCents        int64
	TotalCents           int64
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	result, err := q.db.ExecContext(ctx, createBookingSQL,
		arg.UserID, arg.VenueID, arg.CourtID, arg.BookingDate, arg.StartTime, arg.EndTime,
		arg.DurationMinutes, arg.BasePriceCents, arg.EquipmentRentalCents, arg.TaxCents,
		arg.DiscountCents, arg.TotalCents)
	if err != nil {
		return Booking{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Booking{}, err
	}
	return q.GetBookingByID(ctx, id)
}

const addBookingEquipmentSQL = `
INSERT INTO booking_equipment (booking_id, name, quantity, rent_price_cents, line_total_cents)
VALUES (?, ?, ?, ?, ?)
`

type AddBookingEquipmentParams struct {
	BookingID      int64
	Name           string
	Quantity       int64
	RentPriceCents int64
	LineTotalCents int64
}

func (q *Queries) AddBookingEquipment(ctx context.Context, arg AddBookingEquipmentParams) error {
	_, err := q.db.ExecContext(ctx, addBookingEquipmentSQL,
		arg.BookingID, arg.Name, arg.Quantity, arg.RentPriceCents, arg.LineTotalCents)
	return err
}

const listBookingEquipmentSQL = `
SELECT booking_id, name, quantity, rent_price_cents, line_total_cents
FROM booking_equipment WHERE booking_id = ? ORDER BY name
`

func (q *Queries) ListBookingEquipment(ctx context.Context, bookingID int64) ([]BookingEquipment, error) {
	rows, err := q.db.QueryContext(ctx, listBookingEquipmentSQL, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BookingEquipment
	for rows.Next() {
		var item BookingEquipment
		if err := rows.Scan(&item.BookingID, &item.Name, &item.Quantity, &item.RentPriceCents, &item.LineTotalCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const bookingColumns = `
id, user_id, venue_id, court_id, booking_date, start_time, end_time, duration_minutes,
base_price_cents, equipment_rental_cents, tax_cents, discount_cents, total_cents,
status, payment_status, payment_transaction_id, payment_gateway, paid_at,
cancelled_at, cancelled_by, cancel_reason, refund_cents, refund_status,
checked_out_at, checkout_verified, created_at
`

const getBookingByIDSQL = `
SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?
`

func (q *Queries) GetBookingByID(ctx context.Context, id int64) (Booking, error) {
	row := q.db.QueryRowContext(ctx, getBookingByIDSQL, id)
	return scanBooking(row)
}

// ListActiveBookingsForCourtDate returns pending and confirmed bookings on a
// court for one calendar date. This is the conflict set the availability
// resolver scans; callers that insert afterwards must run both inside one
// transaction.
const listActiveBookingsForCourtDateSQL = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE court_id = ? AND booking_date = ? AND status IN ('pending', 'confirmed')
ORDER BY start_time
`

func (q *Queries) ListActiveBookingsForCourtDate(ctx context.Context, courtID int64, bookingDate string) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listActiveBookingsForCourtDateSQL, courtID, bookingDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

const listBookingsByUserSQL = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE user_id = ?
  AND (? = '' OR status = ?)
  AND (? = '' OR booking_date >= ?)
  AND (? = '' OR booking_date < ?)
ORDER BY booking_date DESC, start_time DESC
LIMIT ? OFFSET ?
`

type ListBookingsByUserParams struct {
	UserID     int64
	Status     string
	FromDate   string // inclusive lower bound, "" disables
	BeforeDate string // exclusive upper bound, "" disables
	Limit      int64
	Offset     int64
}

func (q *Queries) ListBookingsByUser(ctx context.Context, arg ListBookingsByUserParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listBookingsByUserSQL,
		arg.UserID,
		arg.Status, arg.Status,
		arg.FromDate, arg.FromDate,
		arg.BeforeDate, arg.BeforeDate,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

const countBookingsByUserSQL = `
SELECT COUNT(*) FROM bookings
WHERE user_id = ?
  AND (? = '' OR status = ?)
  AND (? = '' OR booking_date >= ?)
  AND (? = '' OR booking_date < ?)
`

func (q *Queries) CountBookingsByUser(ctx context.Context, arg ListBookingsByUserParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countBookingsByUserSQL,
		arg.UserID,
		arg.Status, arg.Status,
		arg.FromDate, arg.FromDate,
		arg.BeforeDate, arg.BeforeDate).Scan(&count)
	return count, err
}

const listBookingsByVenueSQL = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE venue_id = ?
  AND (? = '' OR status = ?)
  AND (? = '' OR booking_date = ?)
  AND (? = 0 OR court_id = ?)
ORDER BY booking_date DESC, start_time DESC
LIMIT ? OFFSET ?
`

type ListBookingsByVenueParams struct {
	VenueID     int64
	Status      string
	BookingDate string
	CourtID     int64
	Limit       int64
	Offset      int64
}

func (q *Queries) ListBookingsByVenue(ctx context.Context, arg ListBookingsByVenueParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listBookingsByVenueSQL,
		arg.VenueID,
		arg.Status, arg.Status,
		arg.BookingDate, arg.BookingDate,
		arg.CourtID, arg.CourtID,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// PublicBooking is the restricted shape exposed without authentication:
// court and time fields only, enough to render an availability display.
type PublicBooking struct {
	CourtID     int64  `json:"courtId"`
	BookingDate string `json:"bookingDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Status      string `json:"status"`
}

const listPublicBookingsByDateSQL = `
SELECT court_id, booking_date, start_time, end_time, status
FROM bookings
WHERE court_id = ? AND booking_date = ? AND status IN ('pending', 'confirmed')
ORDER BY start_time
`

func (q *Queries) ListPublicBookingsByDate(ctx context.Context, courtID int64, bookingDate string) ([]PublicBooking, error) {
	rows, err := q.db.QueryContext(ctx, listPublicBookingsByDateSQL, courtID, bookingDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []PublicBooking
	for rows.Next() {
		var b PublicBooking
		if err := rows.Scan(&b.CourtID, &b.BookingDate, &b.StartTime, &b.EndTime, &b.Status); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

const markBookingCancelledSQL = `
UPDATE bookings
SET status = 'cancelled', cancelled_at = ?, cancelled_by = ?, cancel_reason = ?,
    refund_cents = ?, refund_status = ?,
    payment_status = CASE WHEN payment_status = 'completed' AND ? > 0 THEN 'refunded' ELSE payment_status END
WHERE id = ?
`

type MarkBookingCancelledParams struct {
	ID           int64
	CancelledAt  time.Time
	CancelledBy  int64
	CancelReason string
	RefundCents  int64
	RefundStatus string
}

func (q *Queries) MarkBookingCancelled(ctx context.Context, arg MarkBookingCancelledParams) error {
	_, err := q.db.ExecContext(ctx, markBookingCancelledSQL,
		arg.CancelledAt, arg.CancelledBy, arg.CancelReason, arg.RefundCents, arg.RefundStatus,
		arg.RefundCents, arg.ID)
	return err
}

const markBookingPaidSQL = `
UPDATE bookings
SET status = 'confirmed', payment_status = 'completed',
    payment_transaction_id = ?, payment_gateway = ?, paid_at = ?
WHERE id = ? AND status = 'pending' AND payment_status = 'unpaid'
`

type MarkBookingPaidParams struct {
	ID            int64
	TransactionID string
	Gateway       string
	PaidAt        time.Time
}

// MarkBookingPaid transitions pending/unpaid to confirmed/completed and
// reports how many rows matched, so a concurrent double pay is observable.
func (q *Queries) MarkBookingPaid(ctx context.Context, arg MarkBookingPaidParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markBookingPaidSQL,
		arg.TransactionID, arg.Gateway, arg.PaidAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markBookingCompletedSQL = `
UPDATE bookings
SET status = 'completed', checked_out_at = ?, checkout_verified = 1
WHERE id = ?
`

func (q *Queries) MarkBookingCompleted(ctx context.Context, id int64, checkedOutAt time.Time) error {
	_, err := q.db.ExecContext(ctx, markBookingCompletedSQL, checkedOutAt, id)
	return err
}

// CountFutureActiveBookingsForCourt counts pending/confirmed bookings that
// have not started yet. Court deletion and blocked-slot checks use this.
const countFutureActiveBookingsForCourtSQL = `
SELECT COUNT(*) FROM bookings
WHERE court_id = ? AND status IN ('pending', 'confirmed')
  AND (booking_date > ? OR (booking_date = ? AND start_time > ?))
`

func (q *Queries) CountFutureActiveBookingsForCourt(ctx context.Context, courtID int64, today, nowClock string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countFutureActiveBookingsForCourtSQL, courtID, today, today, nowClock).Scan(&count)
	return count, err
}

const countOverlappingActiveSQL = `
SELECT COUNT(*) FROM bookings
WHERE court_id = ? AND booking_date = ? AND status IN ('pending', 'confirmed')
  AND start_time < ? AND end_time > ?
`

// CountOverlappingActive counts pending/confirmed bookings whose interval
// overlaps [startTime, endTime) on the given date.
func (q *Queries) CountOverlappingActive(ctx context.Context, courtID int64, bookingDate, startTime, endTime string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countOverlappingActiveSQL, courtID, bookingDate, endTime, startTime).Scan(&count)
	return count, err
}

// ExpireStalePending cancels unpaid pending bookings whose start has passed.
const expireStalePendingSQL = `
UPDATE bookings
SET status = 'cancelled', cancelled_at = ?, cancel_reason = 'payment not completed before start time',
    refund_cents = 0, refund_status = 'processed'
WHERE status = 'pending' AND payment_status = 'unpaid'
  AND (booking_date < ? OR (booking_date = ? AND start_time <= ?))
`

func (q *Queries) ExpireStalePending(ctx context.Context, now time.Time, today, nowClock string) (int64, error) {
	result, err := q.db.ExecContext(ctx, expireStalePendingSQL, now, today, today, nowClock)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const venueBookingStatsSQL = `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN payment_status = 'completed' THEN total_cents ELSE 0 END), 0)
FROM bookings
WHERE venue_id = ? AND booking_date >= ? AND status != 'cancelled'
`

type VenueBookingStats struct {
	Bookings     int64
	RevenueCents int64
}

func (q *Queries) GetVenueBookingStats(ctx context.Context, venueID int64, sinceDate string) (VenueBookingStats, error) {
	var stats VenueBookingStats
	err := q.db.QueryRowContext(ctx, venueBookingStatsSQL, venueID, sinceDate).Scan(&stats.Bookings, &stats.RevenueCents)
	return stats, err
}

const dailyBookingSeriesSQL = `
SELECT booking_date, COUNT(*),
       COALESCE(SUM(CASE WHEN payment_status = 'completed' THEN total_cents ELSE 0 END), 0)
FROM bookings
WHERE venue_id = ? AND booking_date >= ? AND status != 'cancelled'
GROUP BY booking_date
ORDER BY booking_date
`

type DailyBookingPoint struct {
	Date         string `json:"date"`
	Bookings     int64  `json:"bookings"`
	RevenueCents int64  `json:"revenue"`
}

func (q *Queries) GetDailyBookingSeries(ctx context.Context, venueID int64, sinceDate string) ([]DailyBookingPoint, error) {
	rows, err := q.db.QueryContext(ctx, dailyBookingSeriesSQL, venueID, sinceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []DailyBookingPoint
	for rows.Next() {
		var point DailyBookingPoint
		if err := rows.Scan(&point.Date, &point.Bookings, &point.RevenueCents); err != nil {
			return nil, err
		}
		series = append(series, point)
	}
	return series, rows.Err()
}

const topStartTimesSQL = `
SELECT start_time, COUNT(*) AS bookings
FROM bookings
WHERE venue_id = ? AND booking_date >= ? AND status != 'cancelled'
GROUP BY start_time
ORDER BY bookings DESC, start_time
LIMIT ?
`

type StartTimeCount struct {
	StartTime string `json:"startTime"`
	Bookings  int64  `json:"bookings"`
}

func (q *Queries) GetTopStartTimes(ctx context.Context, venueID int64, sinceDate string, limit int64) ([]StartTimeCount, error) {
	rows, err := q.db.QueryContext(ctx, topStartTimesSQL, venueID, sinceDate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StartTimeCount
	for rows.Next() {
		var count StartTimeCount
		if err := rows.Scan(&count.StartTime, &count.Bookings); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

func collectBookings(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.VenueID, &b.CourtID, &b.BookingDate, &b.StartTime, &b.EndTime,
		&b.DurationMinutes, &b.BasePriceCents, &b.EquipmentRentalCents, &b.TaxCents,
		&b.DiscountCents, &b.TotalCents, &b.Status, &b.PaymentStatus,
		&b.PaymentTransactionID, &b.PaymentGateway, &b.PaidAt,
		&b.CancelledAt, &b.CancelledBy, &b.CancelReason, &b.RefundCents, &b.RefundStatus,
		&b.CheckedOutAt, &b.CheckoutVerified, &b.CreatedAt)
	return b, err
}
