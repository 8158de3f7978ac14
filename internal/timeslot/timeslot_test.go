package timeslot

import (
	"math/rand"
	"testing"
	"time"
)

func mustSlot(t *testing.T, start, end string) Slot {
	t.Helper()
	s, err := New(start, end)
	if err != nil {
		t.Fatalf("new slot %s-%s: %v", start, end, err)
	}
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{"valid", "06:00", "22:00", false},
		{"valid midnight start", "00:00", "01:00", false},
		{"end of day", "23:00", "23:59", false},
		{"empty interval", "10:00", "10:00", true},
		{"inverted", "12:00", "10:00", true},
		{"bad hour", "24:00", "25:00", true},
		{"bad minute", "10:61", "11:00", true},
		{"missing padding", "9:00", "10:00", true},
		{"garbage", "noon", "13:00", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q, %q) err = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Slot
		want bool
	}{
		{"identical", Slot{"10:00", "12:00"}, Slot{"10:00", "12:00"}, true},
		{"partial", Slot{"10:00", "12:00"}, Slot{"11:00", "13:00"}, true},
		{"contained", Slot{"09:00", "17:00"}, Slot{"12:00", "13:00"}, true},
		{"adjacent after", Slot{"10:00", "12:00"}, Slot{"12:00", "14:00"}, false},
		{"adjacent before", Slot{"12:00", "14:00"}, Slot{"10:00", "12:00"}, false},
		{"disjoint", Slot{"06:00", "08:00"}, Slot{"20:00", "22:00"}, false},
		{"one minute overlap", Slot{"10:00", "12:01"}, Slot{"12:00", "14:00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	randomSlot := func() Slot {
		start := rng.Intn(23 * 60)
		end := start + 1 + rng.Intn(24*60-start-1)
		return Slot{
			Start: time.Date(2024, 1, 1, start/60, start%60, 0, 0, time.UTC).Format("15:04"),
			End:   time.Date(2024, 1, 1, end/60, end%60, 0, 0, time.UTC).Format("15:04"),
		}
	}
	for i := 0; i < 500; i++ {
		a, b := randomSlot(), randomSlot()
		if a.Overlaps(b) != b.Overlaps(a) {
			t.Fatalf("overlap not symmetric for %v and %v", a, b)
		}
	}
}

func TestMinutes(t *testing.T) {
	if got := (Slot{"14:00", "16:00"}).Minutes(); got != 120 {
		t.Fatalf("minutes = %d, want 120", got)
	}
	if got := (Slot{"09:30", "10:15"}).Minutes(); got != 45 {
		t.Fatalf("minutes = %d, want 45", got)
	}
}

func TestWithin(t *testing.T) {
	day := mustSlot(t, "06:00", "22:00")
	if !(Slot{"06:00", "22:00"}).Within(day.Start, day.End) {
		t.Fatal("full window should be within itself")
	}
	if (Slot{"05:00", "07:00"}).Within(day.Start, day.End) {
		t.Fatal("early start should be outside")
	}
	if (Slot{"21:00", "23:00"}).Within(day.Start, day.End) {
		t.Fatal("late end should be outside")
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-03-10", "2025-03-10", false},
		{"2025-03-10T14:00:00Z", "2025-03-10", false},
		{" 2025-03-10 ", "2025-03-10", false},
		{"03/10/2025", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("NormalizeDate(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDayName(t *testing.T) {
	monday, err := ParseDate("2025-03-10")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if got := DayName(monday); got != "monday" {
		t.Fatalf("day name = %q, want monday", got)
	}
	sunday, _ := ParseDate("2025-03-09")
	if got := DayName(sunday); got != "sunday" {
		t.Fatalf("day name = %q, want sunday", got)
	}
}

func TestStartOn(t *testing.T) {
	date, _ := ParseDate("2025-03-10")
	start := (Slot{"14:30", "16:00"}).StartOn(date, time.UTC)
	want := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("StartOn = %v, want %v", start, want)
	}
}
