// Package pricing computes the canonical price for a court-time-duration
// tuple. There is exactly one quote function; the full booking path and the
// quick-book path are both callers of it, the latter with no equipment.
package pricing

import (
	"github.com/courtsidehq/courtside/internal/timeslot"
)

// TaxRateBasisPoints is the fixed tax rate applied to the pre-tax subtotal.
const TaxRateBasisPoints = 1800 // 18%

// Equipment is a rentable item offered by a court.
type Equipment struct {
	Name           string `json:"name"`
	RentPriceCents int64  `json:"rentPriceCents"`
	IsAvailable    bool   `json:"isAvailable"`
}

// Selection is a requested equipment line on a booking.
type Selection struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// Line is a priced equipment line item recorded on the booking.
type Line struct {
	Name           string `json:"name"`
	Quantity       int64  `json:"quantity"`
	RentPriceCents int64  `json:"rentPriceCents"`
	TotalCents     int64  `json:"totalCents"`
}

// Quote is the full pricing breakdown. All amounts are integer cents.
type Quote struct {
	BaseCents      int64  `json:"basePrice"`
	EquipmentCents int64  `json:"equipmentRental"`
	TaxCents       int64  `json:"taxes"`
	DiscountCents  int64  `json:"discount"`
	TotalCents     int64  `json:"totalAmount"`
	Lines          []Line `json:"equipmentLines,omitempty"`
}

// Compute prices a slot on a court. Base is hourly rate times duration.
// Requested equipment the court does not offer, or marks unavailable, is
// silently dropped. Discount is always zero; there is no promotion engine.
func Compute(pricePerHourCents int64, slot timeslot.Slot, offered []Equipment, requested []Selection) Quote {
	minutes := slot.Minutes()

	quote := Quote{
		BaseCents: pricePerHourCents * minutes / 60,
	}

	byName := make(map[string]Equipment, len(offered))
	for _, item := range offered {
		byName[item.Name] = item
	}

	for _, sel := range requested {
		if sel.Quantity <= 0 {
			continue
		}
		item, ok := byName[sel.Name]
		if !ok || !item.IsAvailable {
			continue
		}
		lineTotal := item.RentPriceCents * sel.Quantity * minutes / 60
		quote.Lines = append(quote.Lines, Line{
			Name:           item.Name,
			Quantity:       sel.Quantity,
			RentPriceCents: item.RentPriceCents,
			TotalCents:     lineTotal,
		})
		quote.EquipmentCents += lineTotal
	}

	quote.TaxCents = (quote.BaseCents + quote.EquipmentCents) * TaxRateBasisPoints / 10000
	quote.TotalCents = quote.BaseCents + quote.EquipmentCents + quote.TaxCents - quote.DiscountCents
	return quote
}
