package booking

import (
	"testing"
	"time"
)

func TestRefundPercentTiers(t *testing.T) {
	tests := []struct {
		name  string
		until time.Duration
		want  int64
	}{
		{"exactly 24h", 24 * time.Hour, 90},
		{"30h out", 30 * time.Hour, 90},
		{"just under 24h", 24*time.Hour - time.Second, 50},
		{"exactly 6h", 6 * time.Hour, 50},
		{"just under 6h", 6*time.Hour - time.Second, 0},
		{"2h out", 2 * time.Hour, 0},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RefundPercent(tt.until); got != tt.want {
				t.Fatalf("RefundPercent(%v) = %d, want %d", tt.until, got, tt.want)
			}
		})
	}
}

func TestRefundAmount(t *testing.T) {
	if got := RefundAmount(118000, 30*time.Hour); got != 106200 {
		t.Fatalf("refund = %d, want 106200", got)
	}
	if got := RefundAmount(118000, 10*time.Hour); got != 59000 {
		t.Fatalf("refund = %d, want 59000", got)
	}
	if got := RefundAmount(118000, time.Hour); got != 0 {
		t.Fatalf("refund = %d, want 0", got)
	}
}

func TestRefundStatusFor(t *testing.T) {
	if got := RefundStatusFor(0); got != RefundProcessed {
		t.Fatalf("zero refund status = %q, want processed", got)
	}
	if got := RefundStatusFor(500); got != RefundPending {
		t.Fatalf("nonzero refund status = %q, want pending", got)
	}
}

func TestCanCancel(t *testing.T) {
	if !CanCancel(StatusPending) || !CanCancel(StatusConfirmed) {
		t.Fatal("pending and confirmed bookings must be cancellable")
	}
	if CanCancel(StatusCancelled) || CanCancel(StatusCompleted) {
		t.Fatal("terminal bookings must not be cancellable")
	}
}
