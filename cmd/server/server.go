// cmd/server/server.go
package main

import (
	"net/http"
	"time"

	"github.com/courtsidehq/courtside/internal/api"
	"github.com/courtsidehq/courtside/internal/api/auth"
	"github.com/courtsidehq/courtside/internal/api/bookings"
	"github.com/courtsidehq/courtside/internal/api/courts"
	"github.com/courtsidehq/courtside/internal/api/venues"
)

func newServer(config *serverConfig) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithAuth(config.SecretKey),
	)

	// Register routes
	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/register", auth.HandleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", auth.HandleLogin)

	// Venue routes
	mux.HandleFunc("POST /api/v1/venues", venues.HandleCreateVenue)
	mux.HandleFunc("GET /api/v1/venues", venues.HandleListVenues)
	mux.HandleFunc("GET /api/v1/venues/{id}", venues.HandleGetVenue)
	mux.HandleFunc("PUT /api/v1/venues/{id}", venues.HandleUpdateVenue)
	mux.HandleFunc("GET /api/v1/venues/{id}/bookings", venues.HandleListVenueBookings)
	mux.HandleFunc("GET /api/v1/venues/{id}/bookings/analytics", venues.HandleVenueAnalytics)

	// Court routes
	mux.HandleFunc("POST /api/v1/courts", courts.HandleCreateCourt)
	mux.HandleFunc("POST /api/v1/courts/bulk", courts.HandleBulkCreateCourts)
	mux.HandleFunc("PUT /api/v1/courts/{id}", courts.HandleUpdateCourt)
	mux.HandleFunc("DELETE /api/v1/courts/{id}", courts.HandleDeleteCourt)
	mux.HandleFunc("POST /api/v1/courts/{id}/toggle-active", courts.HandleToggleActive)
	mux.HandleFunc("GET /api/v1/courts/availability", courts.HandleAvailabilityBoard)
	mux.HandleFunc("GET /api/v1/courts/{id}/availability", courts.HandleCourtAvailability)
	mux.HandleFunc("POST /api/v1/courts/{id}/blocked-slots", courts.HandleAddBlockedSlot)
	mux.HandleFunc("DELETE /api/v1/courts/{id}/blocked-slots/{slotId}", courts.HandleRemoveBlockedSlot)
	mux.HandleFunc("POST /api/v1/courts/{id}/book", bookings.HandleQuickBook)

	// Booking routes
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings/mine", bookings.HandleListMyBookings)
	mux.HandleFunc("GET /api/v1/bookings/by-date", bookings.HandleListByDate)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookings.HandleGetBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookings.HandleCancelBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/pay", bookings.HandlePayBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/complete", bookings.HandleCompleteBooking)
}
