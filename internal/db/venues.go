package db

import (
	"context"
)

const createVenueSQL = `
INSERT INTO venues (owner_id, name, address)
VALUES (?, ?, ?)
`

type CreateVenueParams struct {
	OwnerID int64
	Name    string
	Address string
}

func (q *Queries) CreateVenue(ctx context.Context, arg CreateVenueParams) (Venue, error) {
	result, err := q.db.ExecContext(ctx, createVenueSQL, arg.OwnerID, arg.Name, arg.Address)
	if err != nil {
		return Venue{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Venue{}, err
	}
	return q.GetVenueByID(ctx, id)
}

const getVenueByIDSQL = `
SELECT id, owner_id, name, address, starting_price_cents, total_bookings, total_earnings_cents, created_at
FROM venues WHERE id = ?
`

func (q *Queries) GetVenueByID(ctx context.Context, id int64) (Venue, error) {
	row := q.db.QueryRowContext(ctx, getVenueByIDSQL, id)
	return scanVenue(row)
}

const listVenuesSQL = `
SELECT DISTINCT v.id, v.owner_id, v.name, v.address, v.starting_price_cents, v.total_bookings, v.total_earnings_cents, v.created_at
FROM venues v
LEFT JOIN venue_sports vs ON vs.venue_id = v.id
WHERE (? = '' OR vs.sport = ?)
ORDER BY v.id
LIMIT ? OFFSET ?
`

type ListVenuesParams struct {
	Sport  string
	Limit  int64
	Offset int64
}

func (q *Queries) ListVenues(ctx context.Context, arg ListVenuesParams) ([]Venue, error) {
	rows, err := q.db.QueryContext(ctx, listVenuesSQL, arg.Sport, arg.Sport, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []Venue
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	return venues, rows.Err()
}

const updateVenueSQL = `
UPDATE venues SET name = ?, address = ? WHERE id = ?
`

func (q *Queries) UpdateVenue(ctx context.Context, id int64, name, address string) (Venue, error) {
	_, err := q.db.ExecContext(ctx, updateVenueSQL, name, address, id)
	if err != nil {
		return Venue{}, err
	}
	return q.GetVenueByID(ctx, id)
}

const addVenueSportSQL = `
INSERT OR IGNORE INTO venue_sports (venue_id, sport) VALUES (?, ?)
`

func (q *Queries) AddVenueSport(ctx context.Context, venueID int64, sport string) error {
	_, err := q.db.ExecContext(ctx, addVenueSportSQL, venueID, sport)
	return err
}

const removeVenueSportSQL = `
DELETE FROM venue_sports WHERE venue_id = ? AND sport = ?
`

func (q *Queries) RemoveVenueSport(ctx context.Context, venueID int64, sport string) error {
	_, err := q.db.ExecContext(ctx, removeVenueSportSQL, venueID, sport)
	return err
}

const listVenueSportsSQL = `
SELECT sport FROM venue_sports WHERE venue_id = ? ORDER BY sport
`

func (q *Queries) ListVenueSports(ctx context.Context, venueID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listVenueSportsSQL, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sports []string
	for rows.Next() {
		var sport string
		if err := rows.Scan(&sport); err != nil {
			return nil, err
		}
		sports = append(sports, sport)
	}
	return sports, rows.Err()
}

const venueSupportsSportSQL = `
SELECT COUNT(*) FROM venue_sports WHERE venue_id = ? AND sport = ?
`

func (q *Queries) VenueSupportsSport(ctx context.Context, venueID int64, sport string) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, venueSupportsSportSQL, venueID, sport).Scan(&count)
	return count > 0, err
}

// RecomputeVenueStartingPrice sets the venue's starting price to the minimum
// active-court price, or zero when the venue has no active courts.
const recomputeVenueStartingPriceSQL = `
UPDATE venues SET starting_price_cents = COALESCE(
    (SELECT MIN(price_cents) FROM courts WHERE venue_id = ? AND is_active = 1), 0)
WHERE id = ?
`

func (q *Queries) RecomputeVenueStartingPrice(ctx context.Context, venueID int64) error {
	_, err := q.db.ExecContext(ctx, recomputeVenueStartingPriceSQL, venueID, venueID)
	return err
}

const incrementVenueTotalsSQL = `
UPDATE venues
SET total_bookings = total_bookings + 1,
    total_earnings_cents = total_earnings_cents + ?
WHERE id = ?
`

func (q *Queries) IncrementVenueTotals(ctx context.Context, venueID, earnedCents int64) error {
	_, err := q.db.ExecContext(ctx, incrementVenueTotalsSQL, earnedCents, venueID)
	return err
}

// RecomputeVenueAggregates rebuilds the venue counters from paid bookings.
// The counters are a derived view; the reconciliation job calls this to heal
// any drift.
const recomputeVenueAggregatesSQL = `
UPDATE venues
SET total_bookings = (
        SELECT COUNT(*) FROM bookings
        WHERE venue_id = venues.id AND payment_status = 'completed'),
    total_earnings_cents = (
        SELECT COALESCE(SUM(total_cents), 0) FROM bookings
        WHERE venue_id = venues.id AND payment_status = 'completed')
WHERE id = ?
`

func (q *Queries) RecomputeVenueAggregates(ctx context.Context, venueID int64) error {
	_, err := q.db.ExecContext(ctx, recomputeVenueAggregatesSQL, venueID)
	return err
}

const listVenueIDsSQL = `
SELECT id FROM venues ORDER BY id
`

func (q *Queries) ListVenueIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listVenueIDsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanVenue(row rowScanner) (Venue, error) {
	var v Venue
	err := row.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Address, &v.StartingPriceCents, &v.TotalBookings, &v.TotalEarningsCents, &v.CreatedAt)
	return v, err
}
