package db

import (
	"context"
	"database/sql"
)

const createCourtSQL = `
INSERT INTO courts (venue_id, court_number, name, sport, price_cents, capacity, dimensions, features, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
`

type CreateCourtParams struct {
	VenueID     int64
	CourtNumber int64
	Name        string
	Sport       string
	PriceCents  int64
	Capacity    int64
	Dimensions  string
	Features    string
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	result, err := q.db.ExecContext(ctx, createCourtSQL,
		arg.VenueID, arg.CourtNumber, arg.Name, arg.Sport, arg.PriceCents,
		arg.Capacity, arg.Dimensions, arg.Features)
	if err != nil {
		return Court{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Court{}, err
	}
	return q.GetCourtByID(ctx, id)
}

const getCourtByIDSQL = `
SELECT id, venue_id, court_number, name, sport, price_cents, capacity, dimensions, features,
       is_active, total_bookings, total_revenue_cents, created_at
FROM courts WHERE id = ?
`

func (q *Queries) GetCourtByID(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, getCourtByIDSQL, id)
	return scanCourt(row)
}

const listCourtsByVenueSQL = `
SELECT id, venue_id, court_number, name, sport, price_cents, capacity, dimensions, features,
       is_active, total_bookings, total_revenue_cents, created_at
FROM courts
WHERE venue_id = ? AND (? = '' OR sport = ?)
ORDER BY sport, court_number
`

type ListCourtsByVenueParams struct {
	VenueID int64
	Sport   string
}

func (q *Queries) ListCourtsByVenue(ctx context.Context, arg ListCourtsByVenueParams) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, listCourtsByVenueSQL, arg.VenueID, arg.Sport, arg.Sport)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		court, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}

const maxCourtNumberSQL = `
SELECT COALESCE(MAX(court_number), 0) FROM courts WHERE venue_id = ? AND sport = ?
`

// MaxCourtNumber returns the highest court number assigned within
// (venue, sport); numbering continues from there.
func (q *Queries) MaxCourtNumber(ctx context.Context, venueID int64, sport string) (int64, error) {
	var max int64
	err := q.db.QueryRowContext(ctx, maxCourtNumberSQL, venueID, sport).Scan(&max)
	return max, err
}

const updateCourtSQL = `
UPDATE courts
SET name = ?, sport = ?, court_number = ?, price_cents = ?, capacity = ?, dimensions = ?, features = ?
WHERE id = ?
`

type UpdateCourtParams struct {
	ID          int64
	Name        string
	Sport       string
	CourtNumber int64
	PriceCents  int64
	Capacity    int64
	Dimensions  string
	Features    string
}

func (q *Queries) UpdateCourt(ctx context.Context, arg UpdateCourtParams) (Court, error) {
	_, err := q.db.ExecContext(ctx, updateCourtSQL,
		arg.Name, arg.Sport, arg.CourtNumber, arg.PriceCents, arg.Capacity, arg.Dimensions, arg.Features, arg.ID)
	if err != nil {
		return Court{}, err
	}
	return q.GetCourtByID(ctx, arg.ID)
}

const deleteCourtSQL = `
DELETE FROM courts WHERE id = ?
`

func (q *Queries) DeleteCourt(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCourtSQL, id)
	return err
}

const setCourtActiveSQL = `
UPDATE courts SET is_active = ? WHERE id = ?
`

func (q *Queries) SetCourtActive(ctx context.Context, id int64, active bool) error {
	_, err := q.db.ExecContext(ctx, setCourtActiveSQL, active, id)
	return err
}

const incrementCourtTotalsSQL = `
UPDATE courts
SET total_bookings = total_bookings + 1,
    total_revenue_cents = total_revenue_cents + ?
WHERE id = ?
`

func (q *Queries) IncrementCourtTotals(ctx context.Context, courtID, earnedCents int64) error {
	_, err := q.db.ExecContext(ctx, incrementCourtTotalsSQL, earnedCents, courtID)
	return err
}

const recomputeCourtAggregatesSQL = `
UPDATE courts
SET total_bookings = (
        SELECT COUNT(*) FROM bookings
        WHERE court_id = courts.id AND payment_status = 'completed'),
    total_revenue_cents = (
        SELECT COALESCE(SUM(total_cents), 0) FROM bookings
        WHERE court_id = courts.id AND payment_status = 'completed')
WHERE venue_id = ?
`

func (q *Queries) RecomputeCourtAggregates(ctx context.Context, venueID int64) error {
	_, err := q.db.ExecContext(ctx, recomputeCourtAggregatesSQL, venueID)
	return err
}

const upsertCourtHoursSQL = `
INSERT INTO court_hours (court_id, day_of_week, opens_at, closes_at, is_available)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (court_id, day_of_week)
DO UPDATE SET opens_at = excluded.opens_at, closes_at = excluded.closes_at, is_available = excluded.is_available
`

type UpsertCourtHoursParams struct {
	CourtID     int64
	DayOfWeek   int64
	OpensAt     string
	ClosesAt    string
	IsAvailable bool
}

func (q *Queries) UpsertCourtHours(ctx context.Context, arg UpsertCourtHoursParams) error {
	_, err := q.db.ExecContext(ctx, upsertCourtHoursSQL,
		arg.CourtID, arg.DayOfWeek, arg.OpensAt, arg.ClosesAt, arg.IsAvailable)
	return err
}

const listCourtHoursSQL = `
SELECT court_id, day_of_week, opens_at, closes_at, is_available
FROM court_hours WHERE court_id = ? ORDER BY day_of_week
`

func (q *Queries) ListCourtHours(ctx context.Context, courtID int64) ([]CourtHour, error) {
	rows, err := q.db.QueryContext(ctx, listCourtHoursSQL, courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []CourtHour
	for rows.Next() {
		var h CourtHour
		if err := rows.Scan(&h.CourtID, &h.DayOfWeek, &h.OpensAt, &h.ClosesAt, &h.IsAvailable); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

const addCourtEquipmentSQL = `
INSERT INTO court_equipment (court_id, name, rent_price_cents, is_available)
VALUES (?, ?, ?, ?)
ON CONFLICT (court_id, name)
DO UPDATE SET rent_price_cents = excluded.rent_price_cents, is_available = excluded.is_available
`

type AddCourtEquipmentParams struct {
	CourtID        int64
	Name           string
	RentPriceCents int64
	IsAvailable    bool
}

func (q *Queries) AddCourtEquipment(ctx context.Context, arg AddCourtEquipmentParams) error {
	_, err := q.db.ExecContext(ctx, addCourtEquipmentSQL,
		arg.CourtID, arg.Name, arg.RentPriceCents, arg.IsAvailable)
	return err
}

const listCourtEquipmentSQL = `
SELECT id, court_id, name, rent_price_cents, is_available
FROM court_equipment WHERE court_id = ? ORDER BY name
`

func (q *Queries) ListCourtEquipment(ctx context.Context, courtID int64) ([]CourtEquipment, error) {
	rows, err := q.db.QueryContext(ctx, listCourtEquipmentSQL, courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var equipment []CourtEquipment
	for rows.Next() {
		var e CourtEquipment
		if err := rows.Scan(&e.ID, &e.CourtID, &e.Name, &e.RentPriceCents, &e.IsAvailable); err != nil {
			return nil, err
		}
		equipment = append(equipment, e)
	}
	return equipment, rows.Err()
}

const addBlockedSlotSQL = `
INSERT INTO blocked_slots (id, court_id, slot_date, start_time, end_time, reason, slot_type)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type AddBlockedSlotParams struct {
	ID        string
	CourtID   int64
	SlotDate  string
	StartTime string
	EndTime   string
	Reason    string
	SlotType  string
}

func (q *Queries) AddBlockedSlot(ctx context.Context, arg AddBlockedSlotParams) error {
	_, err := q.db.ExecContext(ctx, addBlockedSlotSQL,
		arg.ID, arg.CourtID, arg.SlotDate, arg.StartTime, arg.EndTime, arg.Reason, arg.SlotType)
	return err
}

const deleteBlockedSlotSQL = `
DELETE FROM blocked_slots WHERE id = ? AND court_id = ?
`

func (q *Queries) DeleteBlockedSlot(ctx context.Context, id string, courtID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBlockedSlotSQL, id, courtID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listBlockedSlotsSQL = `
SELECT id, court_id, slot_date, start_time, end_time, reason, slot_type, created_at
FROM blocked_slots WHERE court_id = ?
ORDER BY slot_date, start_time
`

func (q *Queries) ListBlockedSlots(ctx context.Context, courtID int64) ([]BlockedSlot, error) {
	rows, err := q.db.QueryContext(ctx, listBlockedSlotsSQL, courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []BlockedSlot
	for rows.Next() {
		var s BlockedSlot
		if err := rows.Scan(&s.ID, &s.CourtID, &s.SlotDate, &s.StartTime, &s.EndTime, &s.Reason, &s.SlotType, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func scanCourt(row rowScanner) (Court, error) {
	var c Court
	var isActive sql.NullBool
	err := row.Scan(&c.ID, &c.VenueID, &c.CourtNumber, &c.Name, &c.Sport, &c.PriceCents,
		&c.Capacity, &c.Dimensions, &c.Features, &isActive, &c.TotalBookings,
		&c.TotalRevenueCents, &c.CreatedAt)
	c.IsActive = isActive.Valid && isActive.Bool
	return c, err
}
