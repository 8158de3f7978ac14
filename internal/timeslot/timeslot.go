// Package timeslot models half-open [start, end) time-of-day intervals on a
// calendar date. Times are zero-padded 24-hour "HH:MM" strings, which sort
// lexicographically in time order, so interval comparisons are plain string
// comparisons.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	timeLayout = "15:04"
	dateLayout = "2006-01-02"
)

// DayNames indexes weekday names by time.Weekday (0 = Sunday).
var DayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Slot is a half-open [Start, End) interval within a single day.
type Slot struct {
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// New validates and returns a slot.
func New(start, end string) (Slot, error) {
	s := Slot{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
	if err := s.Validate(); err != nil {
		return Slot{}, err
	}
	return s, nil
}

// Validate checks that both endpoints are well-formed "HH:MM" strings and
// that the interval is non-empty.
func (s Slot) Validate() error {
	if err := validateClock(s.Start); err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	if err := validateClock(s.End); err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if s.Start >= s.End {
		return fmt.Errorf("start time %q must be before end time %q", s.Start, s.End)
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect. Adjacent
// intervals (a.End == b.Start) do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start < other.End && s.End > other.Start
}

// Within reports whether s lies entirely inside the [opens, closes) window.
func (s Slot) Within(opens, closes string) bool {
	return s.Start >= opens && s.End <= closes
}

// Minutes returns the slot length in minutes.
func (s Slot) Minutes() int64 {
	return clockMinutes(s.End) - clockMinutes(s.Start)
}

func (s Slot) String() string {
	return s.Start + "-" + s.End
}

func validateClock(value string) error {
	if len(value) != 5 || value[2] != ':' {
		return fmt.Errorf("%q is not a valid HH:MM time", value)
	}
	hh, err := strconv.Atoi(value[:2])
	if err != nil || hh < 0 || hh > 23 {
		return fmt.Errorf("%q is not a valid HH:MM time", value)
	}
	mm, err := strconv.Atoi(value[3:])
	if err != nil || mm < 0 || mm > 59 {
		return fmt.Errorf("%q is not a valid HH:MM time", value)
	}
	return nil
}

func clockMinutes(value string) int64 {
	hh, _ := strconv.Atoi(value[:2])
	mm, _ := strconv.Atoi(value[3:])
	return int64(hh)*60 + int64(mm)
}

// ParseDate parses a "YYYY-MM-DD" calendar date. Dates are venue-local wall
// dates; no timezone conversion is applied anywhere in the booking path.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a valid YYYY-MM-DD date", value)
	}
	return parsed, nil
}

// NormalizeDate reduces any supported date input to its "YYYY-MM-DD" form.
// Blocked-slot dates are matched by this normalized form, never by timestamp.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	layouts := []string{dateLayout, time.RFC3339, "2006-01-02T15:04"}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(dateLayout), nil
		}
	}
	return "", fmt.Errorf("%q is not a valid date", value)
}

// DayName returns the lowercase weekday name for a calendar date.
func DayName(date time.Time) string {
	return DayNames[int(date.Weekday())]
}

// StartOn anchors the slot's start to the given calendar date, producing a
// wall-clock instant in loc. Used for refund-tier and past-date math.
func (s Slot) StartOn(date time.Time, loc *time.Location) time.Time {
	minutes := clockMinutes(s.Start)
	return time.Date(date.Year(), date.Month(), date.Day(), int(minutes/60), int(minutes%60), 0, 0, loc)
}
