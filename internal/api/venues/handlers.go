// internal/api/venues/handlers.go
package venues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/api/authz"
	appdb "github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/timeslot"
)

var (
	queries     *appdb.Queries
	queriesOnce sync.Once
)

const queryTimeout = 5 * time.Second

func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = database.Queries
	})
}

type createVenueRequest struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Sports  []string `json:"sports"`
}

type venueResponse struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Address            string   `json:"address"`
	Sports             []string `json:"sports"`
	StartingPriceCents int64    `json:"startingPrice"`
	TotalBookings      int64    `json:"totalBookings"`
	TotalEarningsCents int64    `json:"totalEarnings"`
}

func toVenueResponse(venue appdb.Venue, sports []string) venueResponse {
	if sports == nil {
		sports = []string{}
	}
	return venueResponse{
		ID:                 venue.ID,
		Name:               venue.Name,
		Address:            venue.Address,
		Sports:             sports,
		StartingPriceCents: venue.StartingPriceCents,
		TotalBookings:      venue.TotalBookings,
		TotalEarningsCents: venue.TotalEarningsCents,
	}
}

// POST /api/v1/venues
func HandleCreateVenue(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := authz.RequireRole(r.Context(), authz.RoleFacilityOwner); err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to create venue")
		return
	}
	user := authz.UserFromContext(r.Context())

	var req createVenueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Address == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "address is required")
		return
	}
	sports := normalizeSports(req.Sports)
	if len(sports) == 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "at least one sport is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	venue, err := queries.CreateVenue(ctx, appdb.CreateVenueParams{
		OwnerID: user.ID,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create venue")
		return
	}
	for _, sport := range sports {
		if err := queries.AddVenueSport(ctx, venue.ID, sport); err != nil {
			logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to attach sport")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create venue")
			return
		}
	}

	logger.Info().Int64("venue_id", venue.ID).Int64("owner_id", user.ID).Msg("Venue created")
	apiutil.WriteJSON(w, http.StatusCreated, toVenueResponse(venue, sports), "venue created")
}

type updateVenueRequest struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Sports  []string `json:"sports"`
}

// PUT /api/v1/venues/{id}
//
// Omitted name/address keep their stored values. When sports is present it
// replaces the supported set; a sport that still has courts cannot be
// removed.
func HandleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	venue, ok := loadOwnedVenue(w, r)
	if !ok {
		return
	}

	var req updateVenueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = venue.Name
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		address = venue.Address
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	current, err := queries.ListVenueSports(ctx, venue.ID)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to list venue sports")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update venue")
		return
	}
	sports := current

	if req.Sports != nil {
		sports = normalizeSports(req.Sports)
		if len(sports) == 0 {
			apiutil.WriteError(w, http.StatusBadRequest, "at least one sport is required")
			return
		}
		keep := make(map[string]bool, len(sports))
		for _, sport := range sports {
			keep[sport] = true
		}
		for _, sport := range current {
			if keep[sport] {
				continue
			}
			courts, err := queries.ListCourtsByVenue(ctx, appdb.ListCourtsByVenueParams{
				VenueID: venue.ID,
				Sport:   sport,
			})
			if err != nil {
				logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to list courts")
				apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update venue")
				return
			}
			if len(courts) > 0 {
				apiutil.WriteError(w, http.StatusBadRequest,
					fmt.Sprintf("sport %q still has courts and cannot be removed", sport))
				return
			}
			if err := queries.RemoveVenueSport(ctx, venue.ID, sport); err != nil {
				logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to remove sport")
				apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update venue")
				return
			}
		}
		for _, sport := range sports {
			if err := queries.AddVenueSport(ctx, venue.ID, sport); err != nil {
				logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to attach sport")
				apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update venue")
				return
			}
		}
	}

	updated, err := queries.UpdateVenue(ctx, venue.ID, name, address)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to update venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update venue")
		return
	}

	logger.Info().Int64("venue_id", venue.ID).Msg("Venue updated")
	apiutil.WriteJSON(w, http.StatusOK, toVenueResponse(updated, sports), "venue updated")
}

// GET /api/v1/venues
func HandleListVenues(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	sport := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sport")))
	limit, offset := apiutil.Page(r)

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	venues, err := queries.ListVenues(ctx, appdb.ListVenuesParams{
		Sport:  sport,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list venues")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list venues")
		return
	}

	out := make([]venueResponse, 0, len(venues))
	for _, venue := range venues {
		sports, err := queries.ListVenueSports(ctx, venue.ID)
		if err != nil {
			logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to list venue sports")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list venues")
			return
		}
		out = append(out, toVenueResponse(venue, sports))
	}

	apiutil.WriteJSON(w, http.StatusOK, out, "venues")
}

// GET /api/v1/venues/{id}
func HandleGetVenue(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load venue")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	venue, err := queries.GetVenueByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "venue not found")
			return
		}
		logger.Error().Err(err).Int64("venue_id", id).Msg("Failed to load venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load venue")
		return
	}

	sports, err := queries.ListVenueSports(ctx, venue.ID)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", id).Msg("Failed to list venue sports")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load venue")
		return
	}

	apiutil.WriteJSON(w, http.StatusOK, toVenueResponse(venue, sports), "venue")
}

// GET /api/v1/venues/{id}/bookings
func HandleListVenueBookings(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	venue, ok := loadOwnedVenue(w, r)
	if !ok {
		return
	}

	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date != "" {
		normalized, err := timeslot.NormalizeDate(date)
		if err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = normalized
	}
	courtID := apiutil.QueryInt(r, "court_id", 0)
	limit, offset := apiutil.Page(r)

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	bookings, err := queries.ListBookingsByVenue(ctx, appdb.ListBookingsByVenueParams{
		VenueID:     venue.ID,
		Status:      status,
		BookingDate: date,
		CourtID:     courtID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to list venue bookings")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list bookings")
		return
	}

	apiutil.WriteJSON(w, http.StatusOK, toBookingSummaries(bookings), "venue bookings")
}

type analyticsResponse struct {
	WindowDays    int64                     `json:"windowDays"`
	TotalBookings int64                     `json:"totalBookings"`
	RevenueCents  int64                     `json:"totalRevenue"`
	Daily         []appdb.DailyBookingPoint `json:"daily"`
	TopStartTimes []appdb.StartTimeCount    `json:"topStartTimes"`
}

// GET /api/v1/venues/{id}/bookings/analytics
func HandleVenueAnalytics(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	venue, ok := loadOwnedVenue(w, r)
	if !ok {
		return
	}

	days := apiutil.QueryInt(r, "days", 30)
	switch days {
	case 7, 30, 90:
	default:
		apiutil.WriteError(w, http.StatusBadRequest, "days must be 7, 30 or 90")
		return
	}
	sinceDate := time.Now().AddDate(0, 0, -int(days)).Format("2006-01-02")

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	stats, err := queries.GetVenueBookingStats(ctx, venue.ID, sinceDate)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to load booking stats")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}
	daily, err := queries.GetDailyBookingSeries(ctx, venue.ID, sinceDate)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to load daily series")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}
	topTimes, err := queries.GetTopStartTimes(ctx, venue.ID, sinceDate, 5)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to load top start times")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	if daily == nil {
		daily = []appdb.DailyBookingPoint{}
	}
	if topTimes == nil {
		topTimes = []appdb.StartTimeCount{}
	}

	apiutil.WriteJSON(w, http.StatusOK, analyticsResponse{
		WindowDays:    days,
		TotalBookings: stats.Bookings,
		RevenueCents:  stats.RevenueCents,
		Daily:         daily,
		TopStartTimes: topTimes,
	}, "venue analytics")
}

// loadOwnedVenue resolves the {id} path value and checks the caller owns the
// venue. On failure it writes the response and returns ok=false.
func loadOwnedVenue(w http.ResponseWriter, r *http.Request) (appdb.Venue, bool) {
	logger := log.Ctx(r.Context())

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load venue")
		return appdb.Venue{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	venue, err := queries.GetVenueByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "venue not found")
			return appdb.Venue{}, false
		}
		logger.Error().Err(err).Int64("venue_id", id).Msg("Failed to load venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load venue")
		return appdb.Venue{}, false
	}

	if err := authz.RequireVenueOwner(r.Context(), venue.OwnerID); err != nil {
		apiutil.WriteHandlerError(w, logger, err, "Failed to load venue")
		return appdb.Venue{}, false
	}
	return venue, true
}

type bookingSummary struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	CourtID     int64  `json:"courtId"`
	BookingDate string `json:"bookingDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Status      string `json:"status"`
	TotalCents  int64  `json:"totalAmount"`
}

func toBookingSummaries(bookings []appdb.Booking) []bookingSummary {
	out := make([]bookingSummary, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingSummary{
			ID:          b.ID,
			UserID:      b.UserID,
			CourtID:     b.CourtID,
			BookingDate: b.BookingDate,
			StartTime:   b.StartTime,
			EndTime:     b.EndTime,
			Status:      b.Status,
			TotalCents:  b.TotalCents,
		})
	}
	return out
}

func normalizeSports(sports []string) []string {
	seen := make(map[string]bool, len(sports))
	out := make([]string, 0, len(sports))
	for _, sport := range sports {
		sport = strings.ToLower(strings.TrimSpace(sport))
		if sport == "" || seen[sport] {
			continue
		}
		seen[sport] = true
		out = append(out, sport)
	}
	return out
}
