package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Queries
// bound to a transaction via WithTx see uncommitted writes from that
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles all hand-written SQL against one DBTX.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type Venue struct {
	ID                 int64
	OwnerID            int64
	Name               string
	Address            string
	StartingPriceCents int64
	TotalBookings      int64
	TotalEarningsCents int64
	CreatedAt          time.Time
}

type Court struct {
	ID                int64
	VenueID           int64
	CourtNumber       int64
	Name              string
	Sport             string
	PriceCents        int64
	Capacity          int64
	Dimensions        string
	Features          string
	IsActive          bool
	TotalBookings     int64
	TotalRevenueCents int64
	CreatedAt         time.Time
}

type CourtEquipment struct {
	ID             int64
	CourtID        int64
	Name           string
	RentPriceCents int64
	IsAvailable    bool
}

type CourtHour struct {
	CourtID     int64
	DayOfWeek   int64
	OpensAt     string
	ClosesAt    string
	IsAvailable bool
}

type BlockedSlot struct {
	ID        string
	CourtID   int64
	SlotDate  string
	StartTime string
	EndTime   string
	Reason    string
	SlotType  string
	CreatedAt time.Time
}

type Booking struct {
	ID                   int64
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
	Status               string
	PaymentStatus        string
	PaymentTransactionID sql.NullString
	PaymentGateway       sql.NullString
	PaidAt               sql.NullTime
	CancelledAt          sql.NullTime
	CancelledBy          sql.NullInt64
	CancelReason         sql.NullString
	RefundCents          int64
	RefundStatus         sql.NullString
	CheckedOutAt         sql.NullTime
	CheckoutVerified     bool
	CreatedAt            time.Time
}

type BookingEquipment struct {
	BookingID      int64
	Name           string
	Quantity       int64
	RentPriceCents int64
	LineTotalCents int64
}
