package pricing

type CalculatePriceRequest struct {
	TicketTypeID string `json:"ticket_type_id" validate:"required"`
	Quantity     int64  `json:"quantity" validate:"min=1"`
	DiscountCode string `json:"discount_code"`
}

type CheckAvailabilityRequest struct {
	TicketTypeID string `json:"ticket_type_id" validate:"required"`
	Quantity     int64  `json:"quantity" validate:"min=1"`
}
