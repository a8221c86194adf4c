package pricing

import "github.com/eventhive/eh-registration/internal/module/attendeeapp/ticket"

type CalculatePriceResponse struct {
	PriceBreakdown
}

type CheckAvailabilityResponse struct {
	Available         bool   `json:"available"`
	Reason            string `json:"reason,omitempty"`
	AvailableQuantity *int64 `json:"available_quantity,omitempty"`
	WaitlistAvailable bool   `json:"waitlist_available"`
}

func (r *CheckAvailabilityResponse) PopulateFromAvailability(a ticket.Availability) {
	r.Available = a.Available
	r.Reason = a.Reason
	r.AvailableQuantity = a.AvailableQuantity
	r.WaitlistAvailable = a.WaitlistAvailable
}
