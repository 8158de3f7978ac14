// internal/api/courts/handlers.go
package courts

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
	"github.com/courtsidehq/courtside/internal/availability"
	appdb "github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/timeslot"
)

var (
	store    *appdb.DB
	queries  *appdb.Queries
	initOnce sync.Once
)

const queryTimeout = 5 * time.Second

const maxBulkCourts = 20

func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	initOnce.Do(func() {
		store = database
		queries = database.Queries
	})
}

type equipmentInput struct {
	Name           string `json:"name"`
	RentPriceCents int64  `json:"rentPrice"`
	IsAvailable    *bool  `json:"isAvailable"`
}

type courtInput struct {
	VenueID        int64                          `json:"venueId"`
	Name           string                         `json:"name"`
	Sport          string                         `json:"sport"`
	PriceCents     int64                          `json:"pricePerHour"`
	Capacity       int64                          `json:"capacity"`
	Dimensions     string                         `json:"dimensions"`
	Features       []string                       `json:"features"`
	Equipment      []equipmentInput               `json:"equipment"`
	OperatingHours map[string]availability.DayHours `json:"operatingHours"`
}

type courtResponse struct {
	ID                int64                            `json:"id"`
	VenueID           int64                            `json:"venueId"`
	CourtNumber       int64                            `json:"courtNumber"`
	Name              string                           `json:"name"`
	Sport             string                           `json:"sport"`
	PriceCents        int64                            `json:"pricePerHour"`
	Capacity          int64                            `json:"capacity"`
	Dimensions        string                           `json:"dimensions"`
	Features          []string                         `json:"features"`
	IsActive          bool                             `json:"isActive"`
	TotalBookings     int64                            `json:"totalBookings"`
	TotalRevenueCents int64                            `json:"totalRevenue"`
	Equipment         []equipmentOutput                `json:"equipment,omitempty"`
	OperatingHours    map[string]availability.DayHours `json:"operatingHours,omitempty"`
}

type equipmentOutput struct {
	Name           string `json:"name"`
	RentPriceCents int64  `json:"rentPrice"`
	IsAvailable    bool   `json:"isAvailable"`
}

func toCourtResponse(court appdb.Court) courtResponse {
	return courtResponse{
		ID:                court.ID,
		VenueID:           court.VenueID,
		CourtNumber:       court.CourtNumber,
		Name:              court.Name,
		Sport:             court.Sport,
		PriceCents:        court.PriceCents,
		Capacity:          court.Capacity,
		Dimensions:        court.Dimensions,
		Features:          splitFeatures(court.Features),
		IsActive:          court.IsActive,
		TotalBookings:     court.TotalBookings,
		TotalRevenueCents: court.TotalRevenueCents,
	}
}

// POST /api/v1/courts
func HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req courtInput
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	courts, err := createCourts(r, req, 1)
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create court")
		return
	}

	logger.Info().Int64("court_id", courts[0].ID).Int64("venue_id", courts[0].VenueID).Msg("Court created")
	apiutil.WriteJSON(w, http.StatusCreated, courts[0], "court created")
}

type bulkCourtRequest struct {
	courtInput
	Count int64 `json:"count"`
}

// POST /api/v1/courts/bulk
func HandleBulkCreateCourts(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if store == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req bulkCourtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Count < 1 || req.Count > maxBulkCourts {
		apiutil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("count must be between 1 and %d", maxBulkCourts))
		return
	}

	courts, err := createCourts(r, req.courtInput, int(req.Count))
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create courts")
		return
	}

	logger.Info().Int64("venue_id", req.VenueID).Int("count", len(courts)).Msg("Courts created")
	apiutil.WriteJSON(w, http.StatusCreated, courts, "courts created")
}

// createCourts validates once and inserts count courts, numbering them
// sequentially after the venue's current maximum for the sport. Numbering
// and inserts share one transaction so concurrent creates cannot collide.
func createCourts(r *http.Request, req courtInput, count int) ([]courtResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Sport = strings.ToLower(strings.TrimSpace(req.Sport))

	if req.VenueID <= 0 {
		return nil, apiutil.FieldError{Field: "venueId", Reason: "must be greater than 0"}
	}
	if req.Name == "" {
		return nil, apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if req.Sport == "" {
		return nil, apiutil.FieldError{Field: "sport", Reason: "is required"}
	}
	if req.PriceCents <= 0 {
		return nil, apiutil.FieldError{Field: "pricePerHour", Reason: "must be greater than 0"}
	}
	if req.Capacity < 0 {
		return nil, apiutil.FieldError{Field: "capacity", Reason: "must not be negative"}
	}
	hours, err := parseWeekHours(req.OperatingHours)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	venue, err := queries.GetVenueByID(ctx, req.VenueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apiutil.HandlerError{Status: http.StatusNotFound, Message: "venue not found"}
		}
		return nil, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load venue", Err: err}
	}
	if err := authz.RequireVenueOwner(r.Context(), venue.OwnerID); err != nil {
		return nil, err
	}
	supported, err := queries.VenueSupportsSport(ctx, venue.ID, req.Sport)
	if err != nil {
		return nil, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to check venue sports", Err: err}
	}
	if !supported {
		return nil, apiutil.FieldError{Field: "sport", Reason: "is not offered by this venue"}
	}

	var created []appdb.Court
	err = store.RunInTx(ctx, func(tx *appdb.DB) error {
		maxNumber, err := tx.Queries.MaxCourtNumber(ctx, venue.ID, req.Sport)
		if err != nil {
			return fmt.Errorf("max court number: %w", err)
		}

		for i := 0; i < count; i++ {
			name := req.Name
			if count > 1 {
				name = fmt.Sprintf("%s %d", req.Name, maxNumber+int64(i)+1)
			}
			court, err := tx.Queries.CreateCourt(ctx, appdb.CreateCourtParams{
				VenueID:     venue.ID,
				CourtNumber: maxNumber + int64(i) + 1,
				Name:        name,
				Sport:       req.Sport,
				PriceCents:  req.PriceCents,
				Capacity:    req.Capacity,
				Dimensions:  strings.TrimSpace(req.Dimensions),
				Features:    joinFeatures(req.Features),
			})
			if err != nil {
				return fmt.Errorf("create court: %w", err)
			}

			for day, dayHours := range hours {
				if err := tx.Queries.UpsertCourtHours(ctx, appdb.UpsertCourtHoursParams{
					CourtID:     court.ID,
					DayOfWeek:   int64(day),
					OpensAt:     dayHours.Opens,
					ClosesAt:    dayHours.Closes,
					IsAvailable: dayHours.IsAvailable,
				}); err != nil {
					return fmt.Errorf("court hours: %w", err)
				}
			}
			for _, item := range req.Equipment {
				name := strings.TrimSpace(item.Name)
				if name == "" {
					return apiutil.FieldError{Field: "equipment", Reason: "item name is required"}
				}
				available := true
				if item.IsAvailable != nil {
					available = *item.IsAvailable
				}
				if err := tx.Queries.AddCourtEquipment(ctx, appdb.AddCourtEquipmentParams{
					CourtID:        court.ID,
					Name:           name,
					RentPriceCents: item.RentPriceCents,
					IsAvailable:    available,
				}); err != nil {
					return fmt.Errorf("court equipment: %w", err)
				}
			}
			created = append(created, court)
		}

		return tx.Queries.RecomputeVenueStartingPrice(ctx, venue.ID)
	})
	if err != nil {
		return nil, err
	}

	out := make([]courtResponse, 0, len(created))
	for _, court := range created {
		resp := toCourtResponse(court)
		resp.OperatingHours = weekHoursByDayName(hours)
		out = append(out, resp)
	}
	return out, nil
}

type updateCourtRequest struct {
	Name           string                           `json:"name"`
	Sport          string                           `json:"sport"`
	PriceCents     int64                            `json:"pricePerHour"`
	Capacity       int64                            `json:"capacity"`
	Dimensions     string                           `json:"dimensions"`
	Features       []string                         `json:"features"`
	OperatingHours map[string]availability.DayHours `json:"operatingHours"`
}

// PUT /api/v1/courts/{id}
func HandleUpdateCourt(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	court, ok := loadOwnedCourt(w, r)
	if !ok {
		return
	}

	var req updateCourtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = court.Name
	}
	price := req.PriceCents
	if price == 0 {
		price = court.PriceCents
	}
	if price < 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "pricePerHour must be greater than 0")
		return
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = court.Capacity
	}
	dimensions := strings.TrimSpace(req.Dimensions)
	if dimensions == "" {
		dimensions = court.Dimensions
	}
	features := court.Features
	if req.Features != nil {
		features = joinFeatures(req.Features)
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	sport := strings.ToLower(strings.TrimSpace(req.Sport))
	if sport == "" {
		sport = court.Sport
	}
	if sport != court.Sport {
		supported, err := queries.VenueSupportsSport(ctx, court.VenueID, sport)
		if err != nil {
			logger.Error().Err(err).Int64("venue_id", court.VenueID).Msg("Failed to check venue sports")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update court")
			return
		}
		if !supported {
			apiutil.WriteHandlerError(w, logger,
				apiutil.FieldError{Field: "sport", Reason: "is not offered by this venue"},
				"Failed to update court")
			return
		}
	}

	err := store.RunInTx(ctx, func(tx *appdb.DB) error {
		// A sport change moves the court to the end of the new sport's
		// numbering sequence; the number stays unique within (venue, sport).
		number := court.CourtNumber
		if sport != court.Sport {
			maxNumber, err := tx.Queries.MaxCourtNumber(ctx, court.VenueID, sport)
			if err != nil {
				return fmt.Errorf("max court number: %w", err)
			}
			number = maxNumber + 1
		}

		updated, err := tx.Queries.UpdateCourt(ctx, appdb.UpdateCourtParams{
			ID:          court.ID,
			Name:        name,
			Sport:       sport,
			CourtNumber: number,
			PriceCents:  price,
			Capacity:    capacity,
			Dimensions:  dimensions,
			Features:    features,
		})
		if err != nil {
			return fmt.Errorf("update court: %w", err)
		}
		court = updated

		if req.OperatingHours != nil {
			hours, err := parseWeekHours(req.OperatingHours)
			if err != nil {
				return err
			}
			for day, dayHours := range hours {
				if err := tx.Queries.UpsertCourtHours(ctx, appdb.UpsertCourtHoursParams{
					CourtID:     court.ID,
					DayOfWeek:   int64(day),
					OpensAt:     dayHours.Opens,
					ClosesAt:    dayHours.Closes,
					IsAvailable: dayHours.IsAvailable,
				}); err != nil {
					return fmt.Errorf("court hours: %w", err)
				}
			}
		}

		return tx.Queries.RecomputeVenueStartingPrice(ctx, court.VenueID)
	})
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to update court")
		return
	}

	logger.Info().Int64("court_id", court.ID).Msg("Court updated")
	apiutil.WriteJSON(w, http.StatusOK, toCourtResponse(court), "court updated")
}

// DELETE /api/v1/courts/{id}
func HandleDeleteCourt(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	court, ok := loadOwnedCourt(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	now := time.Now()
	err := store.RunInTx(ctx, func(tx *appdb.DB) error {
		future, err := tx.Queries.CountFutureActiveBookingsForCourt(ctx, court.ID,
			now.Format("2006-01-02"), now.Format("15:04"))
		if err != nil {
			return fmt.Errorf("count future bookings: %w", err)
		}
		if future > 0 {
			return apiutil.HandlerError{
				Status:  http.StatusBadRequest,
				Message: "court has upcoming bookings and cannot be deleted",
			}
		}
		if err := tx.Queries.DeleteCourt(ctx, court.ID); err != nil {
			return fmt.Errorf("delete court: %w", err)
		}
		return tx.Queries.RecomputeVenueStartingPrice(ctx, court.VenueID)
	})
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to delete court")
		return
	}

	logger.Info().Int64("court_id", court.ID).Msg("Court deleted")
	apiutil.WriteJSON(w, http.StatusOK, nil, "court deleted")
}

// POST /api/v1/courts/{id}/toggle-active
func HandleToggleActive(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	court, ok := loadOwnedCourt(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	err := store.RunInTx(ctx, func(tx *appdb.DB) error {
		if err := tx.Queries.SetCourtActive(ctx, court.ID, !court.IsActive); err != nil {
			return fmt.Errorf("set court active: %w", err)
		}
		return tx.Queries.RecomputeVenueStartingPrice(ctx, court.VenueID)
	})
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to toggle court")
		return
	}
	court.IsActive = !court.IsActive

	logger.Info().Int64("court_id", court.ID).Bool("is_active", court.IsActive).Msg("Court toggled")
	apiutil.WriteJSON(w, http.StatusOK, toCourtResponse(court), "court updated")
}

type dayAvailabilityResponse struct {
	CourtID int64                     `json:"courtId"`
	Date    string                    `json:"date"`
	Hours   availability.DayHours     `json:"operatingHours"`
	Booked  []appdb.PublicBooking     `json:"bookedSlots"`
	Blocked []availability.BlockedSlot `json:"blockedSlots"`
	Check   *availability.Result      `json:"check,omitempty"`
}

// GET /api/v1/courts/{id}/availability?date=&start=&end=
//
// Without start/end the response is the day view (hours, booked and blocked
// slots). With both, a resolver check for that interval is included.
func HandleCourtAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load availability")
		return
	}
	date, err := timeslot.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	dateKey := date.Format("2006-01-02")

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	dbCourt, err := queries.GetCourtByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", id).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load availability")
		return
	}

	resolverCourt, err := LoadResolverCourt(ctx, queries, dbCourt)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", id).Msg("Failed to load court configuration")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load availability")
		return
	}

	booked, err := queries.ListPublicBookingsByDate(ctx, id, dateKey)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", id).Msg("Failed to list bookings")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load availability")
		return
	}
	if booked == nil {
		booked = []appdb.PublicBooking{}
	}

	blockedForDate := make([]availability.BlockedSlot, 0)
	for _, blocked := range resolverCourt.Blocked {
		if blocked.Date == dateKey {
			blockedForDate = append(blockedForDate, blocked)
		}
	}

	resp := dayAvailabilityResponse{
		CourtID: id,
		Date:    dateKey,
		Hours:   resolverCourt.Hours[int(date.Weekday())],
		Booked:  booked,
		Blocked: blockedForDate,
	}

	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))
	if start != "" || end != "" {
		slot, err := timeslot.New(start, end)
		if err != nil {
			apiutil.WriteHandlerError(w, logger, err, "Failed to load availability")
			return
		}
		existing, err := resolverBookings(ctx, queries, id, dateKey)
		if err != nil {
			logger.Error().Err(err).Int64("court_id", id).Msg("Failed to list bookings")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load availability")
			return
		}
		result := availability.Check(resolverCourt, date, slot, existing)
		resp.Check = &result
	}

	apiutil.WriteJSON(w, http.StatusOK, resp, "court availability")
}

// GET /api/v1/courts/availability?venue_id=&sport=&date=&start=&end=
func HandleAvailabilityBoard(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	venueID := apiutil.QueryInt(r, "venue_id", 0)
	if venueID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "venue_id is required")
		return
	}
	sport := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sport")))
	date, err := timeslot.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	slot, err := timeslot.New(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to build board")
		return
	}
	dateKey := date.Format("2006-01-02")

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	dbCourts, err := queries.ListCourtsByVenue(ctx, appdb.ListCourtsByVenueParams{
		VenueID: venueID,
		Sport:   sport,
	})
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to list courts")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to build board")
		return
	}

	resolverCourts := make([]availability.Court, 0, len(dbCourts))
	bookingsByCourt := make(map[int64][]availability.Booking, len(dbCourts))
	for _, dbCourt := range dbCourts {
		resolverCourt, err := LoadResolverCourt(ctx, queries, dbCourt)
		if err != nil {
			logger.Error().Err(err).Int64("court_id", dbCourt.ID).Msg("Failed to load court configuration")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to build board")
			return
		}
		resolverCourts = append(resolverCourts, resolverCourt)

		existing, err := resolverBookings(ctx, queries, dbCourt.ID, dateKey)
		if err != nil {
			logger.Error().Err(err).Int64("court_id", dbCourt.ID).Msg("Failed to list bookings")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to build board")
			return
		}
		bookingsByCourt[dbCourt.ID] = existing
	}

	board := availability.BuildBoard(resolverCourts, date, slot, bookingsByCourt)
	apiutil.WriteJSON(w, http.StatusOK, board, "availability board")
}

type blockedSlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reason    string `json:"reason"`
	Type      string `json:"type"`
}

// POST /api/v1/courts/{id}/blocked-slots
func HandleAddBlockedSlot(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	court, ok := loadOwnedCourt(w, r)
	if !ok {
		return
	}

	var req blockedSlotRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := timeslot.NormalizeDate(req.Date)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	slot, err := timeslot.New(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to block slot")
		return
	}
	slotType := strings.TrimSpace(req.Type)
	if slotType == "" {
		slotType = "maintenance"
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	slotID := uuid.NewString()
	err = store.RunInTx(ctx, func(tx *appdb.DB) error {
		overlapping, err := tx.Queries.CountOverlappingActive(ctx, court.ID, date, slot.Start, slot.End)
		if err != nil {
			return fmt.Errorf("count overlapping bookings: %w", err)
		}
		if overlapping > 0 {
			return apiutil.HandlerError{
				Status:  http.StatusBadRequest,
				Message: "an existing booking overlaps the proposed block",
			}
		}
		return tx.Queries.AddBlockedSlot(ctx, appdb.AddBlockedSlotParams{
			ID:        slotID,
			CourtID:   court.ID,
			SlotDate:  date,
			StartTime: slot.Start,
			EndTime:   slot.End,
			Reason:    strings.TrimSpace(req.Reason),
			SlotType:  slotType,
		})
	})
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to block slot")
		return
	}

	logger.Info().Int64("court_id", court.ID).Str("slot_id", slotID).Str("date", date).Msg("Slot blocked")
	apiutil.WriteJSON(w, http.StatusCreated, availability.BlockedSlot{
		ID:     slotID,
		Date:   date,
		Slot:   slot,
		Reason: strings.TrimSpace(req.Reason),
		Type:   slotType,
	}, "slot blocked")
}

// DELETE /api/v1/courts/{id}/blocked-slots/{slotId}
func HandleRemoveBlockedSlot(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	court, ok := loadOwnedCourt(w, r)
	if !ok {
		return
	}

	slotID := strings.TrimSpace(r.PathValue("slotId"))
	if slotID == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "slotId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	removed, err := queries.DeleteBlockedSlot(ctx, slotID, court.ID)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", court.ID).Str("slot_id", slotID).Msg("Failed to remove blocked slot")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to remove blocked slot")
		return
	}
	if removed == 0 {
		apiutil.WriteError(w, http.StatusNotFound, "blocked slot not found")
		return
	}

	logger.Info().Int64("court_id", court.ID).Str("slot_id", slotID).Msg("Blocked slot removed")
	apiutil.WriteJSON(w, http.StatusOK, nil, "blocked slot removed")
}

// LoadResolverCourt assembles the availability resolver's view of a court:
// active flag, price, weekly hours with defaults, and blocked slots.
func LoadResolverCourt(ctx context.Context, q *appdb.Queries, court appdb.Court) (availability.Court, error) {
	hours, err := LoadWeekHours(ctx, q, court.ID)
	if err != nil {
		return availability.Court{}, err
	}

	rows, err := q.ListBlockedSlots(ctx, court.ID)
	if err != nil {
		return availability.Court{}, fmt.Errorf("list blocked slots: %w", err)
	}
	blocked := make([]availability.BlockedSlot, 0, len(rows))
	for _, row := range rows {
		blocked = append(blocked, availability.BlockedSlot{
			ID:     row.ID,
			Date:   row.SlotDate,
			Slot:   timeslot.Slot{Start: row.StartTime, End: row.EndTime},
			Reason: row.Reason,
			Type:   row.SlotType,
		})
	}

	return availability.Court{
		ID:         court.ID,
		IsActive:   court.IsActive,
		PriceCents: court.PriceCents,
		Hours:      hours,
		Blocked:    blocked,
	}, nil
}

// LoadWeekHours reads a court's stored hours over the defaults, so a court
// created without explicit hours still resolves.
func LoadWeekHours(ctx context.Context, q *appdb.Queries, courtID int64) (availability.WeekHours, error) {
	hours := availability.DefaultWeekHours()
	rows, err := q.ListCourtHours(ctx, courtID)
	if err != nil {
		return hours, fmt.Errorf("list court hours: %w", err)
	}
	for _, row := range rows {
		if row.DayOfWeek < 0 || row.DayOfWeek > 6 {
			continue
		}
		hours[row.DayOfWeek] = availability.DayHours{
			Opens:       row.OpensAt,
			Closes:      row.ClosesAt,
			IsAvailable: row.IsAvailable,
		}
	}
	return hours, nil
}

// ResolverBookings loads the pending/confirmed bookings the resolver scans
// for conflicts on one court and date.
func ResolverBookings(ctx context.Context, q *appdb.Queries, courtID int64, date string) ([]availability.Booking, error) {
	return resolverBookings(ctx, q, courtID, date)
}

func resolverBookings(ctx context.Context, q *appdb.Queries, courtID int64, date string) ([]availability.Booking, error) {
	rows, err := q.ListActiveBookingsForCourtDate(ctx, courtID, date)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	out := make([]availability.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, availability.Booking{
			ID:     row.ID,
			Slot:   timeslot.Slot{Start: row.StartTime, End: row.EndTime},
			Status: row.Status,
		})
	}
	return out, nil
}

// loadOwnedCourt resolves {id} and checks the caller owns the court's venue.
func loadOwnedCourt(w http.ResponseWriter, r *http.Request) (appdb.Court, bool) {
	logger := log.Ctx(r.Context())

	if store == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return appdb.Court{}, false
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load court")
		return appdb.Court{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	court, err := queries.GetCourtByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "court not found")
			return appdb.Court{}, false
		}
		logger.Error().Err(err).Int64("court_id", id).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load court")
		return appdb.Court{}, false
	}

	venue, err := queries.GetVenueByID(ctx, court.VenueID)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", court.VenueID).Msg("Failed to load venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load court")
		return appdb.Court{}, false
	}

	if err := authz.RequireVenueOwner(r.Context(), venue.OwnerID); err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load court")
		return appdb.Court{}, false
	}
	return court, true
}

func joinFeatures(features []string) string {
	cleaned := make([]string, 0, len(features))
	for _, feature := range features {
		feature = strings.TrimSpace(feature)
		if feature != "" {
			cleaned = append(cleaned, feature)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitFeatures(features string) []string {
	if features == "" {
		return []string{}
	}
	return strings.Split(features, ",")
}

// parseWeekHours validates a day-name keyed hours map against the default
// week. Missing days keep the defaults.
func parseWeekHours(input map[string]availability.DayHours) (availability.WeekHours, error) {
	hours := availability.DefaultWeekHours()
	if len(input) == 0 {
		return hours, nil
	}

	index := make(map[string]int, len(timeslot.DayNames))
	for i, name := range timeslot.DayNames {
		index[name] = i
	}

	for name, day := range input {
		i, ok := index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return hours, apiutil.FieldError{Field: "operatingHours", Reason: fmt.Sprintf("unknown day %q", name)}
		}
		if day.IsAvailable {
			slot := timeslot.Slot{Start: day.Opens, End: day.Closes}
			if err := slot.Validate(); err != nil {
				return hours, apiutil.FieldError{Field: "operatingHours", Reason: fmt.Sprintf("%s: %v", name, err)}
			}
		}
		hours[i] = day
	}
	return hours, nil
}

func weekHoursByDayName(hours availability.WeekHours) map[string]availability.DayHours {
	out := make(map[string]availability.DayHours, len(hours))
	for i, day := range hours {
		out[timeslot.DayNames[i]] = day
	}
	return out
}
