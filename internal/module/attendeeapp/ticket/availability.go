package ticket

import "time"

const (
	ReasonNotActive       = "ticket type is not active"
	ReasonSalesNotStarted = "sales have not started yet"
	ReasonSalesEnded      = "sales have ended"
	ReasonNotEnoughStock  = "not enough tickets available"
)

type Availability struct {
	Available         bool
	Reason            string
	AvailableQuantity *int64
	WaitlistAvailable bool
}

// CheckAvailability evaluates the sale rules against a snapshot of the
// ticket type. It is free of side effects; the admission decision itself is
// made by the repository's conditional reserve, never by this check alone.
func CheckAvailability(t TicketType, quantity int64, now time.Time) Availability {
	if !t.IsActive {
		return Availability{Available: false, Reason: ReasonNotActive}
	}

	if t.ValidFrom != nil && now.Before(*t.ValidFrom) {
		return Availability{Available: false, Reason: ReasonSalesNotStarted}
	}

	if t.ValidUntil != nil && now.After(*t.ValidUntil) {
		return Availability{Available: false, Reason: ReasonSalesEnded}
	}

	if t.Capacity != nil {
		remaining := *t.Capacity - t.SoldCount - t.Reserved
		if remaining < quantity {
			if remaining < 0 {
				remaining = 0
			}
			return Availability{
				Available:         false,
				Reason:            ReasonNotEnoughStock,
				AvailableQuantity: &remaining,
				WaitlistAvailable: t.WaitlistEnabled,
			}
		}

		sellable := *t.Capacity - t.SoldCount
		return Availability{Available: true, AvailableQuantity: &sellable}
	}

	return Availability{Available: true}
}
