package courts

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/courtsidehq/courtside/internal/api/authz"
	"github.com/courtsidehq/courtside/internal/availability"
	appdb "github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func setupCourtTest(t *testing.T) (*appdb.DB, appdb.User, appdb.Venue) {
	t.Helper()

	database := testutil.NewTestDB(t)
	ctx := context.Background()

	owner, err := database.Queries.CreateUser(ctx, appdb.CreateUserParams{
		Name: "Owner One", Email: "owner@example.com", PasswordHash: "x", Role: "facility_owner",
	})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	venue, err := database.Queries.CreateVenue(ctx, appdb.CreateVenueParams{
		OwnerID: owner.ID, Name: "Riverside Arena", Address: "1 Park Lane",
	})
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	for _, sport := range []string{"tennis", "badminton"} {
		if err := database.Queries.AddVenueSport(ctx, venue.ID, sport); err != nil {
			t.Fatalf("seed sport: %v", err)
		}
	}

	store = nil
	queries = nil
	initOnce = sync.Once{}
	InitHandlers(database)

	t.Cleanup(func() {
		store = nil
		queries = nil
		initOnce = sync.Once{}
	})

	return database, owner, venue
}

func asOwner(req *http.Request, owner appdb.User) *http.Request {
	user := &authz.AuthUser{ID: owner.ID, Role: authz.RoleFacilityOwner}
	return req.WithContext(authz.ContextWithUser(req.Context(), user))
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
}

func do(t *testing.T, handler http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	recorder := httptest.NewRecorder()
	handler(recorder, req)

	var env envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, recorder.Body.String())
	}
	return recorder, env
}

func TestHandleCreateCourt(t *testing.T) {
	_, owner, venue := setupCourtTest(t)

	body := fmt.Sprintf(`{
		"venueId": %d, "name": "Center Court", "sport": "Tennis",
		"pricePerHour": 50000, "capacity": 4, "dimensions": "23.77m x 10.97m",
		"features": ["floodlights", "clay"],
		"equipment": [{"name": "racket", "rentPrice": 5000}],
		"operatingHours": {"sunday": {"start": "08:00", "end": "20:00", "isAvailable": true}}
	}`, venue.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courts", strings.NewReader(body))
	req = asOwner(req, owner)

	recorder, env := do(t, HandleCreateCourt, req)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d (%s)", recorder.Code, recorder.Body.String())
	}

	var resp courtResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.CourtNumber != 1 {
		t.Errorf("court number: %d", resp.CourtNumber)
	}
	if resp.Sport != "tennis" {
		t.Errorf("sport: %q", resp.Sport)
	}
	if len(resp.Features) != 2 {
		t.Errorf("features: %v", resp.Features)
	}
	if !resp.IsActive {
		t.Error("new court should be active")
	}
	sunday := resp.OperatingHours["sunday"]
	if sunday.Opens != "08:00" || sunday.Closes != "20:00" {
		t.Errorf("sunday hours: %+v", sunday)
	}
	// Days not named in the request keep the defaults.
	monday := resp.OperatingHours["monday"]
	if monday.Opens != "06:00" || monday.Closes != "22:00" {
		t.Errorf("monday hours: %+v", monday)
	}

	// The venue's starting price tracks the cheapest active court.
	loaded, err := queries.GetVenueByID(context.Background(), venue.ID)
	if err != nil {
		t.Fatalf("load venue: %v", err)
	}
	if loaded.StartingPriceCents != 50000 {
		t.Errorf("starting price: %d", loaded.StartingPriceCents)
	}
}

func TestHandleCreateCourt_Rejections(t *testing.T) {
	database, owner, venue := setupCourtTest(t)

	stranger, err := database.Queries.CreateUser(context.Background(), appdb.CreateUserParams{
		Name: "Other Owner", Email: "other@example.com", PasswordHash: "x", Role: "facility_owner",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	base := func(venueID int64, sport string) string {
		return fmt.Sprintf(`{"venueId":%d,"name":"Court","sport":"%s","pricePerHour":50000}`, venueID, sport)
	}

	tests := []struct {
		name string
		user appdb.User
		body string
		want int
	}{
		{"sport not offered", owner, base(venue.ID, "squash"), http.StatusBadRequest},
		{"missing venue", owner, base(venue.ID+99, "tennis"), http.StatusNotFound},
		{"not the owner", stranger, base(venue.ID, "tennis"), http.StatusForbidden},
		{"zero price", owner, fmt.Sprintf(`{"venueId":%d,"name":"Court","sport":"tennis"}`, venue.ID), http.StatusBadRequest},
		{"bad hours", owner, fmt.Sprintf(`{"venueId":%d,"name":"Court","sport":"tennis","pricePerHour":50000,"operatingHours":{"funday":{"start":"08:00","end":"20:00","isAvailable":true}}}`, venue.ID), http.StatusBadRequest},
		{"inverted hours", owner, fmt.Sprintf(`{"venueId":%d,"name":"Court","sport":"tennis","pricePerHour":50000,"operatingHours":{"monday":{"start":"20:00","end":"08:00","isAvailable":true}}}`, venue.ID), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/courts", strings.NewReader(tt.body))
			req = asOwner(req, tt.user)
			if recorder, _ := do(t, HandleCreateCourt, req); recorder.Code != tt.want {
				t.Fatalf("status: %d, want %d (%s)", recorder.Code, tt.want, recorder.Body.String())
			}
		})
	}
}

func TestHandleBulkCreateCourts(t *testing.T) {
	database, owner, venue := setupCourtTest(t)

	// An existing court pushes the numbering start.
	if _, err := database.Queries.CreateCourt(context.Background(), appdb.CreateCourtParams{
		VenueID: venue.ID, CourtNumber: 1, Name: "Court 1", Sport: "tennis", PriceCents: 40000,
	}); err != nil {
		t.Fatalf("seed court: %v", err)
	}

	body := fmt.Sprintf(`{"venueId":%d,"name":"Tennis Court","sport":"tennis","pricePerHour":50000,"count":3}`, venue.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courts/bulk", strings.NewReader(body))
	req = asOwner(req, owner)

	recorder, env := do(t, HandleBulkCreateCourts, req)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d (%s)", recorder.Code, recorder.Body.String())
	}

	var resp []courtResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(resp) != 3 {
		t.Fatalf("courts created: %d", len(resp))
	}
	for i, court := range resp {
		wantNumber := int64(i + 2)
		if court.CourtNumber != wantNumber {
			t.Errorf("court %d number: %d, want %d", i, court.CourtNumber, wantNumber)
		}
		wantName := fmt.Sprintf("Tennis Court %d", wantNumber)
		if court.Name != wantName {
			t.Errorf("court %d name: %q, want %q", i, court.Name, wantName)
		}
	}
}

func TestHandleBulkCreateCourts_CountBounds(t *testing.T) {
	_, owner, venue := setupCourtTest(t)

	for _, count := range []int{0, maxBulkCourts + 1} {
		body := fmt.Sprintf(`{"venueId":%d,"name":"Court","sport":"tennis","pricePerHour":50000,"count":%d}`, venue.ID, count)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/courts/bulk", strings.NewReader(body))
		req = asOwner(req, owner)
		if recorder, _ := do(t, HandleBulkCreateCourts, req); recorder.Code != http.StatusBadRequest {
			t.Errorf("count %d: status %d", count, recorder.Code)
		}
	}
}

func seedCourt(t *testing.T, database *appdb.DB, venueID int64, number int64, priceCents int64) appdb.Court {
	t.Helper()

	court, err := database.Queries.CreateCourt(context.Background(), appdb.CreateCourtParams{
		VenueID: venueID, CourtNumber: number, Name: fmt.Sprintf("Court %d", number),
		Sport: "tennis", PriceCents: priceCents,
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return court
}

func TestHandleUpdateCourt_PartialFields(t *testing.T) {
	database, owner, venue := setupCourtTest(t)
	court := seedCourt(t, database, venue.ID, 1, 50000)

	body := `{"pricePerHour": 60000}`
	req := httptest.NewRequest(http.MethodPut, "/x", strings.NewReader(body))
	req.SetPathValue("id", fmt.Sprintf("%d", court.ID))
	req = asOwner(req, owner)

	recorder, env := do(t, HandleUpdateCourt, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d (%s)", recorder.Code, recorder.Body.String())
	}
	var resp courtResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.PriceCents != 60000 {
		t.Errorf("price: %d", resp.PriceCents)
	}
	// Omitted fields keep their stored values.
	if resp.Name != court.Name {
		t.Errorf("name: %q", resp.Name)
	}
	if resp.Sport != court.Sport || resp.CourtNumber != court.CourtNumber {
		t.Errorf("sport/number: %s/%d", resp.Sport, resp.CourtNumber)
	}
}

func TestHandleUpdateCourt_SportChange(t *testing.T) {
	database, owner, venue := setupCourtTest(t)
	seedCourt(t, database, venue.ID, 1, 50000)
	court := seedCourt(t, database, venue.ID, 2, 55000)

	// An existing badminton court occupies number 1 in the target sequence.
	if _, err := database.Queries.CreateCourt(context.Background(), appdb.CreateCourtParams{
		VenueID: venue.ID, CourtNumber: 1, Name: "Shuttle 1", Sport: "badminton", PriceCents: 30000,
	}); err != nil {
		t.Fatalf("seed court: %v", err)
	}

	update := func(body string) (*httptest.ResponseRecorder, envelope) {
		req := httptest.NewRequest(http.MethodPut, "/x", strings.NewReader(body))
		req.SetPathValue("id", fmt.Sprintf("%d", court.ID))
		return do(t, HandleUpdateCourt, asOwner(req, owner))
	}

	// An unsupported sport is rejected before anything is written.
	recorder, _ := update(`{"sport": "squash"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unsupported sport: %d", recorder.Code)
	}

	recorder, env := update(`{"sport": "Badminton"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d (%s)", recorder.Code, recorder.Body.String())
	}
	var resp courtResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.Sport != "badminton" {
		t.Errorf("sport: %q", resp.Sport)
	}
	// The court joins the end of the new sport's numbering sequence.
	if resp.CourtNumber != 2 {
		t.Errorf("court number: %d", resp.CourtNumber)
	}
}

func TestHandleDeleteCourt_FutureBookingGuard(t *testing.T) {
	database, owner, venue := setupCourtTest(t)
	court := seedCourt(t, database, venue.ID, 1, 50000)

	start := time.Now().Add(48 * time.Hour)
	if _, err := database.Queries.CreateBooking(context.Background(), appdb.CreateBookingParams{
		UserID: owner.ID, VenueID: venue.ID, CourtID: court.ID,
		BookingDate: start.Format("2006-01-02"), StartTime: "10:00", EndTime: "11:00",
		DurationMinutes: 60, BasePriceCents: 50000, TaxCents: 9000, TotalCents: 59000,
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	deleteReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodDelete, "/x", nil)
		req.SetPathValue("id", fmt.Sprintf("%d", court.ID))
		return asOwner(req, owner)
	}

	recorder, env := do(t, HandleDeleteCourt, deleteReq())
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if !strings.Contains(env.Message, "upcoming bookings") {
		t.Fatalf("message: %s", env.Message)
	}

	// Cancelling the booking releases the guard.
	bookings, err := database.Queries.ListBookingsByUser(context.Background(), appdb.ListBookingsByUserParams{
		UserID: owner.ID, Limit: 10,
	})
	if err != nil || len(bookings) != 1 {
		t.Fatalf("load booking: %v (%d rows)", err, len(bookings))
	}
	if err := database.Queries.MarkBookingCancelled(context.Background(), appdb.MarkBookingCancelledParams{
		ID: bookings[0].ID, CancelledAt: time.Now(), CancelledBy: owner.ID, RefundStatus: "processed",
	}); err != nil {
		t.Fatalf("cancel booking: %v", err)
	}

	if recorder, _ := do(t, HandleDeleteCourt, deleteReq()); recorder.Code != http.StatusOK {
		t.Fatalf("delete after cancel: %d", recorder.Code)
	}
	if _, err := database.Queries.GetCourtByID(context.Background(), court.ID); err == nil {
		t.Fatal("court still present after delete")
	}
}

func TestHandleToggleActive(t *testing.T) {
	database, owner, venue := setupCourtTest(t)
	court := seedCourt(t, database, venue.ID, 1, 50000)

	toggle := func() courtResponse {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.SetPathValue("id", fmt.Sprintf("%d", court.ID))
		req = asOwner(req, owner)
		recorder, env := do(t, HandleToggleActive, req)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status: %d", recorder.Code)
		}
		var resp courtResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		return resp
	}

	if resp := toggle(); resp.IsActive {
		t.Error("first toggle should deactivate")
	}
	// Deactivating the only court clears the venue's starting price.
	loaded, err := database.Queries.GetVenueByID(context.Background(), venue.ID)
	if err != nil {
		t.Fatalf("load venue: %v", err)
	}
	if loaded.StartingPriceCents != 0 {
		t.Errorf("starting price after deactivate: %d", loaded.StartingPriceCents)
	}

	court.IsActive = false
	if resp := toggle(); !resp.IsActive {
		t.Error("second toggle should reactivate")
	}
}

func TestHandleCourtAvailability(t *testing.T) {
	database, owner, venue := setupCourtTest(t)
	court := seedCourt(t, database, venue.ID, 1, 50000)

	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	ctx := context.Background()
	if _, err := database.Queries.CreateBooking(ctx, appdb.CreateBookingParams{
		UserID: owner.ID, VenueID: venue.ID, CourtID: court.ID,
		BookingDate: date, StartTime: "10:00", EndTime: "12:00",
		DurationMinutes: 120, BasePriceCents: 100000, TaxCents: 18000, TotalCents: 118000,
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	if err := database.Queries.AddBlockedSlot(ctx, appdb.AddBlockedSlotParams{
		ID: "blk-1", CourtID: court.ID, SlotDate: date,
		StartTime: "13:00", EndTime: "15:00", Reason: "resurfacing", SlotType: "maintenance",
	}); err != nil {
		t.Fatalf("seed blocked slot: %v", err)
	}

	get := func(query string) dayAvailabilityResponse {
		req := httptest.NewRequest(http.MethodGet, "/x"+query, nil)
		req.SetPathValue("id", fmt.Sprintf("%d", court.ID))
		recorder, env := do(t, HandleCourtAvailability, req)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status: %d (%s)", recorder.Code, recorder.Body.String())
		}
		var resp dayAvailabilityResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		return resp
	}

	day := get("?date=" + date)
	if len(day.Booked) != 1 || day.Booked[0].StartTime != "10:00" {
		t.Errorf("booked slots: %+v", day.Booked)
	}
	if len(day.Blocked) != 1 || day.Blocked[0].Reason != "resurfacing" {
		t.Errorf("blocked slots: %+v", day.Blocked)
	}
	if day.Hours.Opens != "06:00" || day.Hours.Closes != "22:00" {
		t.Errorf("hours: %+v", day.Hours)
	}
	if day.Check != nil {
		t.Error("day view should not include a check")
	}

	free := get("?date=" + date + "&start=16:00&end=18:00")
	if free.Check == nil || !free.Check.Available {
		t.Fatalf("free slot check: %+v", free.Check)
	}
	if free.Check.PriceCents != 50000 {
		t.Errorf("check price: %d", free.Check.PriceCents)
	}

	taken := get("?date=" + date + "&start=11:00&end=13:00")
	if taken.Check == nil || taken.Check.Available {
		t.Fatalf("taken slot check: %+v", taken.Check)
	}
	if taken.Check.Status != availability.StatusBooked {
		t.Errorf("taken status: %s", taken.Check.Status)
	}

	blocked := get("?date=" + date + "&start=14:00&end=16:00")
	if blocked.Check == nil || blocked.Check.Available {
		t.Fatalf("blocked slot check: %+v", blocked.Check)
	}
	if blocked.Check.Status != availability.StatusBlocked {
		t.Errorf("blocked status: %s", blocked.Check.Status)
	}
}

func TestHandleAvailabilityBoard(t *testing.T) {
	database, owner, venue := setupCourtTest(t)
	seedCourt(t, database, venue.ID, 1, 50000)
	taken := seedCourt(t, database, venue.ID, 2, 60000)

	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	if _, err := database.Queries.CreateBooking(context.Background(), appdb.CreateBookingParams{
		UserID: owner.ID, VenueID: venue.ID, CourtID: taken.ID,
		BookingDate: date, StartTime: "10:00", EndTime: "12:00",
		DurationMinutes: 120, BasePriceCents: 120000, TaxCents: 21600, TotalCents: 141600,
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	url := fmt.Sprintf("/api/v1/courts/availability?venue_id=%d&sport=tennis&date=%s&start=10:00&end=12:00", venue.ID, date)
	recorder, env := do(t, HandleAvailabilityBoard, httptest.NewRequest(http.MethodGet, url, nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d (%s)", recorder.Code, recorder.Body.String())
	}

	var board availability.Board
	if err := json.Unmarshal(env.Data, &board); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("entries: %d", len(board.Entries))
	}
	if board.Counts[availability.StatusAvailable] != 1 || board.Counts[availability.StatusBooked] != 1 {
		t.Errorf("counts: %v", board.Counts)
	}
}

func TestHandleBlockedSlots(t *testing.T) {
	database, owner, venue := setupCourtTest(t)
	court := seedCourt(t, database, venue.ID, 1, 50000)
	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	block := func(start, end string) (*httptest.ResponseRecorder, envelope) {
		body := fmt.Sprintf(`{"date":"%s","startTime":"%s","endTime":"%s","reason":"resurfacing"}`, date, start, end)
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
		req.SetPathValue("id", fmt.Sprintf("%d", court.ID))
		return do(t, HandleAddBlockedSlot, asOwner(req, owner))
	}

	recorder, env := block("13:00", "15:00")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d (%s)", recorder.Code, recorder.Body.String())
	}
	var created availability.BlockedSlot
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if created.ID == "" || created.Type != "maintenance" {
		t.Errorf("created slot: %+v", created)
	}

	// A block cannot land on an active booking.
	if _, err := database.Queries.CreateBooking(context.Background(), appdb.CreateBookingParams{
		UserID: owner.ID, VenueID: venue.ID, CourtID: court.ID,
		BookingDate: date, StartTime: "16:00", EndTime: "18:00",
		DurationMinutes: 120, BasePriceCents: 100000, TaxCents: 18000, TotalCents: 118000,
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	recorder, env = block("17:00", "19:00")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("overlap status: %d", recorder.Code)
	}
	if !strings.Contains(env.Message, "existing booking") {
		t.Fatalf("overlap message: %s", env.Message)
	}

	remove := func(slotID string) int {
		req := httptest.NewRequest(http.MethodDelete, "/x", nil)
		req.SetPathValue("id", fmt.Sprintf("%d", court.ID))
		req.SetPathValue("slotId", slotID)
		recorder, _ := do(t, HandleRemoveBlockedSlot, asOwner(req, owner))
		return recorder.Code
	}

	if code := remove(created.ID); code != http.StatusOK {
		t.Errorf("remove: %d", code)
	}
	if code := remove(created.ID); code != http.StatusNotFound {
		t.Errorf("remove again: %d", code)
	}
}

func TestFeatureRoundTrip(t *testing.T) {
	joined := joinFeatures([]string{" floodlights ", "", "clay"})
	if joined != "floodlights,clay" {
		t.Fatalf("joined: %q", joined)
	}
	split := splitFeatures(joined)
	if len(split) != 2 || split[0] != "floodlights" || split[1] != "clay" {
		t.Fatalf("split: %v", split)
	}
	if got := splitFeatures(""); len(got) != 0 {
		t.Fatalf("empty split: %v", got)
	}
}
