// Package booking holds the booking lifecycle vocabulary shared by the store,
// the HTTP handlers, and the background jobs.
package booking

import "time"

// Lifecycle states. Cancelled and completed are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Payment states.
const (
	PaymentUnpaid    = "unpaid"
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
)

// Refund states recorded on cancellation.
const (
	RefundProcessed = "processed"
	RefundPending   = "pending"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanCancel reports whether a booking in the given state may be cancelled.
func CanCancel(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

// RefundPercent returns the refund tier for a cancellation happening
// `until` before the booking start: at least 24h out refunds 90%, at least
// 6h refunds 50%, anything closer refunds nothing.
func RefundPercent(until time.Duration) int64 {
	switch {
	case until >= 24*time.Hour:
		return 90
	case until >= 6*time.Hour:
		return 50
	default:
		return 0
	}
}

// RefundAmount applies the tier to the booking total.
func RefundAmount(totalCents int64, until time.Duration) int64 {
	return totalCents * RefundPercent(until) / 100
}

// RefundStatusFor is "processed" immediately when nothing is owed, otherwise
// the refund waits on the (simulated) gateway.
func RefundStatusFor(refundCents int64) string {
	if refundCents == 0 {
		return RefundProcessed
	}
	return RefundPending
}
