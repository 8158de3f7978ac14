// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/api/authz"
	"github.com/courtsidehq/courtside/internal/api/courts"
	"github.com/courtsidehq/courtside/internal/availability"
	"github.com/courtsidehq/courtside/internal/booking"
	appdb "github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/pricing"
	"github.com/courtsidehq/courtside/internal/ratelimit"
	"github.com/courtsidehq/courtside/internal/timeslot"
)

var (
	store    *appdb.DB
	queries  *appdb.Queries
	limiter  *ratelimit.Limiter
	initOnce sync.Once
)

const queryTimeout = 5 * time.Second

const paymentGateway = "simulated"

func InitHandlers(database *appdb.DB, rateLimiter *ratelimit.Limiter) {
	if database == nil {
		return
	}
	initOnce.Do(func() {
		store = database
		queries = database.Queries
		limiter = rateLimiter
	})
}

type createBookingRequest struct {
	VenueID     int64               `json:"venueId"`
	CourtID     int64               `json:"courtId"`
	BookingDate string              `json:"bookingDate"`
	StartTime   string              `json:"startTime"`
	EndTime     string              `json:"endTime"`
	Equipment   []pricing.Selection `json:"equipment"`
}

type pricingBreakdown struct {
	BaseCents      int64 `json:"basePrice"`
	EquipmentCents int64 `json:"equipmentRental"`
	TaxCents       int64 `json:"taxes"`
	DiscountCents  int64 `json:"discount"`
	TotalCents     int64 `json:"totalAmount"`
}

type refundDetail struct {
	AmountCents int64  `json:"amount"`
	Status      string `json:"status"`
}

type bookingResponse struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"userId"`
	VenueID         int64            `json:"venueId"`
	CourtID         int64            `json:"courtId"`
	BookingDate     string           `json:"bookingDate"`
	StartTime       string           `json:"startTime"`
	EndTime         string           `json:"endTime"`
	DurationMinutes int64            `json:"durationMinutes"`
	Pricing         pricingBreakdown `json:"pricing"`
	Equipment       []pricing.Line   `json:"equipment,omitempty"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"paymentStatus"`
	Refund          *refundDetail    `json:"refund,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

func toBookingResponse(b appdb.Booking, lines []appdb.BookingEquipment) bookingResponse {
	resp := bookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		VenueID:         b.VenueID,
		CourtID:         b.CourtID,
		BookingDate:     b.BookingDate,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationMinutes: b.DurationMinutes,
		Pricing: pricingBreakdown{
			BaseCents:      b.BasePriceCents,
			EquipmentCents: b.EquipmentRentalCents,
			TaxCents:       b.TaxCents,
			DiscountCents:  b.DiscountCents,
			TotalCents:     b.TotalCents,
		},
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     b.CreatedAt,
	}
	for _, line := range lines {
		resp.Equipment = append(resp.Equipment, pricing.Line{
			Name:           line.Name,
			Quantity:       line.Quantity,
			RentPriceCents: line.RentPriceCents,
			TotalCents:     line.LineTotalCents,
		})
	}
	if b.Status == booking.StatusCancelled {
		resp.Refund = &refundDetail{
			AmountCents: b.RefundCents,
			Status:      b.RefundStatus.String,
		}
	}
	return resp
}

// POST /api/v1/bookings
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user, err := authz.RequireAuthenticated(r.Context())
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create booking")
		return
	}

	var req createBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := create(r.Context(), user, req)
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create booking")
		return
	}

	logger.Info().
		Int64("booking_id", created.ID).
		Int64("court_id", created.CourtID).
		Str("date", created.BookingDate).
		Msg("Booking created")
	apiutil.WriteJSON(w, http.StatusCreated, created, "booking created")
}

type quickBookRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// POST /api/v1/courts/{id}/book
//
// Quick-book is the equipment-free caller of the same creation path: the
// court's venue is derived rather than stated, and the price reduces to
// rate times duration plus tax.
func HandleQuickBook(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user, err := authz.RequireAuthenticated(r.Context())
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create booking")
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create booking")
		return
	}

	var req quickBookRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	court, err := queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	created, err := create(r.Context(), user, createBookingRequest{
		VenueID:     court.VenueID,
		CourtID:     courtID,
		BookingDate: req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create booking")
		return
	}

	logger.Info().
		Int64("booking_id", created.ID).
		Int64("court_id", created.CourtID).
		Str("date", created.BookingDate).
		Msg("Quick booking created")
	apiutil.WriteJSON(w, http.StatusCreated, created, "booking created")
}

// create validates the request, then runs the availability check and the
// insert inside one transaction so two concurrent requests for the same
// slot cannot both pass the check.
func create(ctx context.Context, user *authz.AuthUser, req createBookingRequest) (bookingResponse, error) {
	if limiter != nil {
		if result := limiter.AllowBooking(user.ID); !result.Allowed {
			ratelimit.LogRateLimitExceeded("booking", fmt.Sprintf("user:%d", user.ID), result.Reason)
			return bookingResponse{}, apiutil.HandlerError{
				Status:  http.StatusTooManyRequests,
				Message: "too many booking attempts, try again later",
			}
		}
	}

	if req.CourtID <= 0 {
		return bookingResponse{}, apiutil.FieldError{Field: "courtId", Reason: "must be greater than 0"}
	}
	if req.VenueID <= 0 {
		return bookingResponse{}, apiutil.FieldError{Field: "venueId", Reason: "must be greater than 0"}
	}
	date, err := timeslot.ParseDate(req.BookingDate)
	if err != nil {
		return bookingResponse{}, apiutil.FieldError{Field: "bookingDate", Reason: "must be YYYY-MM-DD"}
	}
	slot, err := timeslot.New(req.StartTime, req.EndTime)
	if err != nil {
		return bookingResponse{}, err
	}

	// Date-only comparison, venue-local wall clock.
	today, _ := timeslot.ParseDate(time.Now().Format("2006-01-02"))
	if date.Before(today) {
		return bookingResponse{}, apiutil.FieldError{Field: "bookingDate", Reason: "must not be in the past"}
	}
	dateKey := date.Format("2006-01-02")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		created appdb.Booking
		lines   []appdb.BookingEquipment
	)
	err = store.RunInTx(ctx, func(tx *appdb.DB) error {
		court, err := tx.Queries.GetCourtByID(ctx, req.CourtID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.HandlerError{Status: http.StatusNotFound, Message: "court not found"}
			}
			return fmt.Errorf("load court: %w", err)
		}
		if court.VenueID != req.VenueID {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "court does not belong to the stated venue"}
		}

		resolverCourt, err := courts.LoadResolverCourt(ctx, tx.Queries, court)
		if err != nil {
			return err
		}
		existing, err := courts.ResolverBookings(ctx, tx.Queries, court.ID, dateKey)
		if err != nil {
			return err
		}

		result := availability.Check(resolverCourt, date, slot, existing)
		if !result.Available {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: result.Reason}
		}

		offered, err := loadOfferedEquipment(ctx, tx.Queries, court.ID)
		if err != nil {
			return err
		}
		quote := pricing.Compute(court.PriceCents, slot, offered, req.Equipment)

		created, err = tx.Queries.CreateBooking(ctx, appdb.CreateBookingParams{
			UserID:               user.ID,
			VenueID:              court.VenueID,
			CourtID:              court.ID,
			BookingDate:          dateKey,
			StartTime:            slot.Start,
			EndTime:              slot.End,
			DurationMinutes:      slot.Minutes(),
			BasePriceCents:       quote.BaseCents,
			EquipmentRentalCents: quote.EquipmentCents,
			TaxCents:             quote.TaxCents,
			DiscountCents:        quote.DiscountCents,
			TotalCents:           quote.TotalCents,
		})
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		for _, line := range quote.Lines {
			if err := tx.Queries.AddBookingEquipment(ctx, appdb.AddBookingEquipmentParams{
				BookingID:      created.ID,
				Name:           line.Name,
				Quantity:       line.Quantity,
				RentPriceCents: line.RentPriceCents,
				LineTotalCents: line.TotalCents,
			}); err != nil {
				return fmt.Errorf("insert booking equipment: %w", err)
			}
			lines = append(lines, appdb.BookingEquipment{
				BookingID:      created.ID,
				Name:           line.Name,
				Quantity:       line.Quantity,
				RentPriceCents: line.RentPriceCents,
				LineTotalCents: line.TotalCents,
			})
		}
		return nil
	})
	if err != nil {
		return bookingResponse{}, err
	}

	return toBookingResponse(created, lines), nil
}

// GET /api/v1/bookings/{id}
func HandleGetBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	b, ok := loadAccessibleBooking(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	lines, err := queries.ListBookingEquipment(ctx, b.ID)
	if err != nil {
		logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to list booking equipment")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load booking")
		return
	}

	apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b, lines), "booking")
}

type myBookingsResponse struct {
	Bookings []bookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
	Limit    int64             `json:"limit"`
	Offset   int64             `json:"offset"`
}

// GET /api/v1/bookings/mine?status=&filter=upcoming|past
func HandleListMyBookings(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user, err := authz.RequireAuthenticated(r.Context())
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to list bookings")
		return
	}

	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !booking.ValidStatus(status) {
		apiutil.WriteError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	var fromDate, beforeDate string
	today := time.Now().Format("2006-01-02")
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("filter"))) {
	case "":
	case "upcoming":
		fromDate = today
	case "past":
		beforeDate = today
	default:
		apiutil.WriteError(w, http.StatusBadRequest, "filter must be upcoming or past")
		return
	}

	limit, offset := apiutil.Page(r)
	params := appdb.ListBookingsByUserParams{
		UserID:     user.ID,
		Status:     status,
		FromDate:   fromDate,
		BeforeDate: beforeDate,
		Limit:      limit,
		Offset:     offset,
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := queries.ListBookingsByUser(ctx, params)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list bookings")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list bookings")
		return
	}
	total, err := queries.CountBookingsByUser(ctx, params)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to count bookings")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list bookings")
		return
	}

	out := make([]bookingResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBookingResponse(row, nil))
	}

	apiutil.WriteJSON(w, http.StatusOK, myBookingsResponse{
		Bookings: out,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, "bookings")
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// POST /api/v1/bookings/{id}/cancel
//
// Cancellation is booker-only: a venue owner may not cancel on a player's
// behalf. The refund tier keys off how far before the start the
// cancellation lands.
func HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	b, ok := loadBooking(w, r)
	if !ok {
		return
	}
	if err := authz.RequireBookingOwner(r.Context(), b.UserID); err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to cancel booking")
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if !booking.CanCancel(b.Status) {
		apiutil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("booking in status %q cannot be cancelled", b.Status))
		return
	}

	date, err := timeslot.ParseDate(b.BookingDate)
	if err != nil {
		logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Stored booking date is malformed")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to cancel booking")
		return
	}
	slot := timeslot.Slot{Start: b.StartTime, End: b.EndTime}

	now := time.Now()
	until := slot.StartOn(date, now.Location()).Sub(now)
	if until <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "booking start time has already passed")
		return
	}
	refundCents := booking.RefundAmount(b.TotalCents, until)
	refundStatus := booking.RefundStatusFor(refundCents)

	user := authz.UserFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if err := queries.MarkBookingCancelled(ctx, appdb.MarkBookingCancelledParams{
		ID:           b.ID,
		CancelledAt:  now,
		CancelledBy:  user.ID,
		CancelReason: strings.TrimSpace(req.Reason),
		RefundCents:  refundCents,
		RefundStatus: refundStatus,
	}); err != nil {
		logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to cancel booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to cancel booking")
		return
	}

	b.Status = booking.StatusCancelled
	b.RefundCents = refundCents
	b.RefundStatus = sql.NullString{String: refundStatus, Valid: true}
	if b.PaymentStatus == booking.PaymentCompleted && refundCents > 0 {
		b.PaymentStatus = booking.PaymentRefunded
	}

	logger.Info().
		Int64("booking_id", b.ID).
		Int64("refund_cents", refundCents).
		Str("refund_status", refundStatus).
		Msg("Booking cancelled")
	apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b, nil), "booking cancelled")
}

// POST /api/v1/bookings/{id}/pay
//
// Payment is simulated: the booking is confirmed and venue/court counters
// are updated in the same transaction. The reconciliation job later
// recomputes the counters from paid bookings, so a crash between the two
// writes self-heals.
func HandlePayBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	b, ok := loadBooking(w, r)
	if !ok {
		return
	}
	if err := authz.RequireBookingOwner(r.Context(), b.UserID); err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to pay for booking")
		return
	}

	if b.Status != booking.StatusPending || b.PaymentStatus != booking.PaymentUnpaid {
		apiutil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("booking in status %q/%q cannot be paid", b.Status, b.PaymentStatus))
		return
	}

	transactionID := uuid.NewString()
	now := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	err := store.RunInTx(ctx, func(tx *appdb.DB) error {
		updated, err := tx.Queries.MarkBookingPaid(ctx, appdb.MarkBookingPaidParams{
			ID:            b.ID,
			TransactionID: transactionID,
			Gateway:       paymentGateway,
			PaidAt:        now,
		})
		if err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		// The guarded update re-checks the state inside the transaction, so
		// two concurrent pays cannot both increment the counters.
		if updated == 0 {
			return apiutil.HandlerError{
				Status:  http.StatusBadRequest,
				Message: "booking has already been paid",
			}
		}
		if err := tx.Queries.IncrementVenueTotals(ctx, b.VenueID, b.TotalCents); err != nil {
			return fmt.Errorf("venue totals: %w", err)
		}
		if err := tx.Queries.IncrementCourtTotals(ctx, b.CourtID, b.TotalCents); err != nil {
			return fmt.Errorf("court totals: %w", err)
		}
		return nil
	})
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to pay for booking")
		return
	}

	b.Status = booking.StatusConfirmed
	b.PaymentStatus = booking.PaymentCompleted

	logger.Info().
		Int64("booking_id", b.ID).
		Str("transaction_id", transactionID).
		Int64("total_cents", b.TotalCents).
		Msg("Booking paid")
	apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b, nil), "payment completed")
}

// POST /api/v1/bookings/{id}/complete
func HandleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	b, ok := loadAccessibleBooking(w, r)
	if !ok {
		return
	}

	if b.Status != booking.StatusConfirmed {
		apiutil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("booking in status %q cannot be completed", b.Status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if err := queries.MarkBookingCompleted(ctx, b.ID, time.Now()); err != nil {
		logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to complete booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to complete booking")
		return
	}
	b.Status = booking.StatusCompleted

	logger.Info().Int64("booking_id", b.ID).Msg("Booking completed")
	apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b, nil), "booking completed")
}

// GET /api/v1/bookings/by-date?court_id=&date=
//
// Unauthenticated: exposes court and time fields only, for public
// availability display.
func HandleListByDate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	courtID := apiutil.QueryInt(r, "court_id", 0)
	if courtID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "court_id is required")
		return
	}
	date, err := timeslot.NormalizeDate(r.URL.Query().Get("date"))
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := queries.ListPublicBookingsByDate(ctx, courtID, date)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to list bookings by date")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list bookings")
		return
	}
	if rows == nil {
		rows = []appdb.PublicBooking{}
	}

	apiutil.WriteJSON(w, http.StatusOK, rows, "bookings")
}

func loadOfferedEquipment(ctx context.Context, q *appdb.Queries, courtID int64) ([]pricing.Equipment, error) {
	rows, err := q.ListCourtEquipment(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("list court equipment: %w", err)
	}
	offered := make([]pricing.Equipment, 0, len(rows))
	for _, row := range rows {
		offered = append(offered, pricing.Equipment{
			Name:           row.Name,
			RentPriceCents: row.RentPriceCents,
			IsAvailable:    row.IsAvailable,
		})
	}
	return offered, nil
}

// loadBooking resolves {id} without an access check.
func loadBooking(w http.ResponseWriter, r *http.Request) (appdb.Booking, bool) {
	logger := log.Ctx(r.Context())

	if store == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return appdb.Booking{}, false
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load booking")
		return appdb.Booking{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	b, err := queries.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "booking not found")
			return appdb.Booking{}, false
		}
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to load booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load booking")
		return appdb.Booking{}, false
	}
	return b, true
}

// loadAccessibleBooking resolves {id} and checks the caller is the booker
// or the venue owner.
func loadAccessibleBooking(w http.ResponseWriter, r *http.Request) (appdb.Booking, bool) {
	logger := log.Ctx(r.Context())

	b, ok := loadBooking(w, r)
	if !ok {
		return appdb.Booking{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	venue, err := queries.GetVenueByID(ctx, b.VenueID)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", b.VenueID).Msg("Failed to load venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load booking")
		return appdb.Booking{}, false
	}

	if err := authz.RequireBookingAccess(r.Context(), b.UserID, venue.OwnerID); err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load booking")
		return appdb.Booking{}, false
	}
	return b, true
}
