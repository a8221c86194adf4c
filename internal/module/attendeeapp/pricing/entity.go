package pricing

import "time"

const (
	DiscountTypePercentage  string = "percentage"
	DiscountTypeFixedAmount string = "fixed_amount"
)

// DiscountCode is a promotional rule scoped to one event. UsedCount moves
// only through the repository's conditional increment at confirmation time.
type DiscountCode struct {
	ID           string
	EventID      string
	Code         string
	DiscountType string
	Value        float64

	MaxUses        *int64
	UsedCount      int64
	MaxUsesPerUser int64

	ValidFrom  *time.Time
	ValidUntil *time.Time
	IsActive   bool

	ApplicableTicketTypes []string
	MinPurchaseAmount     *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EarlyBirdDetail struct {
	OriginalPrice     float64 `json:"original_price"`
	DiscountedPrice   float64 `json:"discounted_price"`
	DiscountPerTicket float64 `json:"discount_per_ticket"`
	TotalDiscount     float64 `json:"total_discount"`
}

type GroupDiscountDetail struct {
	Quantity        int64   `json:"quantity"`
	MinQuantity     int64   `json:"min_quantity"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
}

type PromoCodeDetail struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"discount_type"`
	Value          float64 `json:"value"`
	DiscountAmount float64 `json:"discount_amount"`
}

type DiscountDetails struct {
	EarlyBird     *EarlyBirdDetail     `json:"early_bird,omitempty"`
	GroupDiscount *GroupDiscountDetail `json:"group_discount,omitempty"`
	PromoCode     *PromoCodeDetail     `json:"promo_code,omitempty"`
}

// PriceBreakdown carries every intermediate value of a price computation so
// callers can persist it as an audit snapshot.
type PriceBreakdown struct {
	BasePrice         float64         `json:"base_price"`
	Quantity          int64           `json:"quantity"`
	Subtotal          float64         `json:"subtotal"`
	EarlyBirdDiscount float64         `json:"early_bird_discount"`
	GroupDiscount     float64         `json:"group_discount"`
	PromoCodeDiscount float64         `json:"promo_code_discount"`
	TotalDiscount     float64         `json:"total_discount"`
	FinalPrice        float64         `json:"final_price"`
	PerTicketPrice    float64         `json:"per_ticket_price"`
	DiscountDetails   DiscountDetails `json:"discount_details"`
}
