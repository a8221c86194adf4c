package ticket

import "time"

type GroupDiscountRuleResponse struct {
	MinQuantity     int64   `json:"min_quantity"`
	DiscountPercent float64 `json:"discount_percent"`
}

type TicketTypeResponse struct {
	ID                 string                      `json:"id"`
	EventID            string                      `json:"event_id"`
	Name               string                      `json:"name"`
	Description        *string                     `json:"description,omitempty"`
	BasePrice          float64                     `json:"base_price"`
	EffectivePrice     float64                     `json:"effective_price"`
	IsEarlyBird        bool                        `json:"is_early_bird"`
	EarlyBirdPrice     *float64                    `json:"early_bird_price,omitempty"`
	EarlyBirdEnds      *time.Time                  `json:"early_bird_ends,omitempty"`
	GroupDiscountRules []GroupDiscountRuleResponse `json:"group_discount_rules,omitempty"`
	Capacity           *int64                      `json:"capacity,omitempty"`
	Remaining          *int64                      `json:"remaining,omitempty"`
	WaitlistEnabled    bool                        `json:"waitlist_enabled"`
	ValidFrom          *time.Time                  `json:"valid_from,omitempty"`
	ValidUntil         *time.Time                  `json:"valid_until,omitempty"`
	SortOrder          int64                       `json:"sort_order"`
	Available          bool                        `json:"available"`
	Reason             string                      `json:"reason,omitempty"`
}

func (r *TicketTypeResponse) PopulateFromEntity(t TicketType, now time.Time) {
	r.ID = t.ID
	r.EventID = t.EventID
	r.Name = t.Name
	r.Description = t.Description
	r.BasePrice = t.BasePrice
	r.EffectivePrice = EffectivePrice(t, now)
	r.IsEarlyBird = t.IsEarlyBird
	r.EarlyBirdPrice = t.EarlyBirdPrice
	r.EarlyBirdEnds = t.EarlyBirdEnds
	r.Capacity = t.Capacity
	r.WaitlistEnabled = t.WaitlistEnabled
	r.ValidFrom = t.ValidFrom
	r.ValidUntil = t.ValidUntil
	r.SortOrder = t.SortOrder

	if t.GroupDiscountEnabled {
		r.GroupDiscountRules = make([]GroupDiscountRuleResponse, len(t.GroupDiscountRules))
		for k, rule := range t.GroupDiscountRules {
			r.GroupDiscountRules[k] = GroupDiscountRuleResponse{
				MinQuantity:     rule.MinQuantity,
				DiscountPercent: rule.DiscountPercent,
			}
		}
	}

	if t.Capacity != nil {
		remaining := *t.Capacity - t.SoldCount - t.Reserved
		if remaining < 0 {
			remaining = 0
		}
		r.Remaining = &remaining
	}

	availability := CheckAvailability(t, 1, now)
	r.Available = availability.Available
	r.Reason = availability.Reason
}

type GetManyTicketTypeResponse []TicketTypeResponse
