package ticket

import "time"

// GroupDiscountRule is one tier of a ticket type's quantity discount table.
type GroupDiscountRule struct {
	TicketTypeID    string
	MinQuantity     int64
	DiscountPercent float64
}

type TicketType struct {
	ID          string
	EventID     string
	Name        string
	Description *string
	BasePrice   float64

	IsEarlyBird       bool
	EarlyBirdPrice    *float64
	EarlyBirdEnds     *time.Time
	EarlyBirdCapacity *int64
	EarlyBirdSold     int64

	GroupDiscountEnabled bool
	GroupDiscountRules   []GroupDiscountRule

	// Capacity is nil for unlimited ticket types. SoldCount plus Reserved
	// never exceeds it; both counters move only through the repository's
	// conditional updates.
	Capacity  *int64
	SoldCount int64
	Reserved  int64

	WaitlistEnabled  bool
	WaitlistCapacity *int64

	ValidFrom  *time.Time
	ValidUntil *time.Time
	IsActive   bool
	SortOrder  int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePrice is the per-ticket rate a buyer would pay right now: the
// early-bird price while the early-bird window and allocation hold, the base
// price otherwise.
func EffectivePrice(t TicketType, now time.Time) float64 {
	if !t.IsEarlyBird || t.EarlyBirdPrice == nil {
		return t.BasePrice
	}

	if t.EarlyBirdEnds != nil && now.After(*t.EarlyBirdEnds) {
		return t.BasePrice
	}
	if t.EarlyBirdCapacity != nil && t.EarlyBirdSold >= *t.EarlyBirdCapacity {
		return t.BasePrice
	}

	return *t.EarlyBirdPrice
}
