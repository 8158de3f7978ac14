// Package availability decides whether a court slot is bookable. The checks
// run in a fixed order and the first failure wins: court active flag, weekly
// operating hours, blocked maintenance slots, then existing bookings.
package availability

import (
	"fmt"
	"time"

	"github.com/courtsidehq/courtside/internal/timeslot"
)

// Board statuses for the per-court browse view.
const (
	StatusAvailable   = "available"
	StatusBooked      = "booked"
	StatusBlocked     = "blocked"
	StatusUnavailable = "unavailable"
)

// DayHours is one row of a court's weekly operating-hours table.
type DayHours struct {
	Opens       string `json:"start"`
	Closes      string `json:"end"`
	IsAvailable bool   `json:"isAvailable"`
}

// WeekHours is indexed by time.Weekday (0 = Sunday).
type WeekHours [7]DayHours

// DefaultWeekHours is applied when a court is created without hours.
func DefaultWeekHours() WeekHours {
	var week WeekHours
	for i := range week {
		week[i] = DayHours{Opens: "06:00", Closes: "22:00", IsAvailable: true}
	}
	return week
}

// BlockedSlot is an owner-declared maintenance window on a specific date.
type BlockedSlot struct {
	ID     string        `json:"id"`
	Date   string        `json:"date"` // normalized YYYY-MM-DD
	Slot   timeslot.Slot `json:"timeSlot"`
	Reason string        `json:"reason"`
	Type   string        `json:"type"`
}

// Booking is the slice of an existing booking the resolver needs.
type Booking struct {
	ID     int64
	Slot   timeslot.Slot
	Status string
}

// Court is the configuration the resolver consults.
type Court struct {
	ID         int64
	IsActive   bool
	PriceCents int64
	Hours      WeekHours
	Blocked    []BlockedSlot
}

// Result reports whether a slot is bookable and, when it is not, why.
type Result struct {
	Available  bool   `json:"available"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	PriceCents int64  `json:"pricePerHour,omitempty"`
	ConflictID int64  `json:"-"`
}

// Check resolves a requested interval against a court on a calendar date.
// Existing bookings must already be filtered to the same court and date;
// only pending and confirmed ones count as conflicts.
func Check(court Court, date time.Time, requested timeslot.Slot, existing []Booking) Result {
	if !court.IsActive {
		return Result{Status: StatusUnavailable, Reason: "court is not active"}
	}

	day := court.Hours[int(date.Weekday())]
	dayName := timeslot.DayName(date)
	if !day.IsAvailable {
		return Result{Status: StatusUnavailable, Reason: fmt.Sprintf("court is not available on %s", dayName)}
	}
	if !requested.Within(day.Opens, day.Closes) {
		return Result{
			Status: StatusUnavailable,
			Reason: fmt.Sprintf("requested slot is outside operating hours (%s-%s)", day.Opens, day.Closes),
		}
	}

	dateKey := date.Format("2006-01-02")
	for _, blocked := range court.Blocked {
		if blocked.Date != dateKey {
			continue
		}
		if requested.Overlaps(blocked.Slot) {
			reason := blocked.Reason
			if reason == "" {
				reason = "maintenance"
			}
			return Result{Status: StatusBlocked, Reason: fmt.Sprintf("slot is blocked: %s", reason)}
		}
	}

	for _, existingBooking := range existing {
		if existingBooking.Status != "pending" && existingBooking.Status != "confirmed" {
			continue
		}
		if requested.Overlaps(existingBooking.Slot) {
			return Result{
				Status:     StatusBooked,
				Reason:     "slot already booked",
				ConflictID: existingBooking.ID,
			}
		}
	}

	return Result{Available: true, Status: StatusAvailable, PriceCents: court.PriceCents}
}

// BoardEntry is one court's status in the browse-by-sport view.
type BoardEntry struct {
	CourtID    int64  `json:"courtId"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	PriceCents int64  `json:"pricePerHour,omitempty"`
}

// Board batches Check across courts of a sport, with aggregate counts.
type Board struct {
	Entries []BoardEntry     `json:"courts"`
	Counts  map[string]int64 `json:"counts"`
}

// BuildBoard resolves the same date and interval against every court.
// bookingsByCourt maps court ID to that court's bookings on the date.
func BuildBoard(courts []Court, date time.Time, requested timeslot.Slot, bookingsByCourt map[int64][]Booking) Board {
	board := Board{
		Entries: make([]BoardEntry, 0, len(courts)),
		Counts: map[string]int64{
			StatusAvailable:   0,
			StatusBooked:      0,
			StatusBlocked:     0,
			StatusUnavailable: 0,
		},
	}
	for _, court := range courts {
		result := Check(court, date, requested, bookingsByCourt[court.ID])
		board.Entries = append(board.Entries, BoardEntry{
			CourtID:    court.ID,
			Status:     result.Status,
			Reason:     result.Reason,
			PriceCents: result.PriceCents,
		})
		board.Counts[result.Status]++
	}
	return board
}
