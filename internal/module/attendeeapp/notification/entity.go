package notification

type ConfirmationMessage struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	EventID        string  `json:"event_id"`
	TicketTypeName string  `json:"ticket_type_name"`
	RegistrationID string  `json:"registration_id"`
	TicketCode     string  `json:"ticket_code"`
	QRCodeImage    string  `json:"qr_code_image"`
	FinalPrice     float64 `json:"final_price"`
	DiscountAmount float64 `json:"discount_amount"`
}

type WaitlistOfferMessage struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	EventID        string `json:"event_id"`
	TicketTypeName string `json:"ticket_type_name"`
	Position       int64  `json:"position"`
	OfferExpiresAt string `json:"offer_expires_at"`
}
