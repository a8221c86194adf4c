package registration

type CreateRegistrationRequest struct {
	EventID      string  `json:"event_id" validate:"required"`
	TicketTypeID string  `json:"ticket_type_id" validate:"required"`
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        *string `json:"phone"`
	GroupSize    int64   `json:"group_size" validate:"min=1"`
	DiscountCode string  `json:"discount_code"`
}

type CancelRegistrationRequest struct {
	ID string `json:"id" validate:"required"`
}

type ConvertWaitlistEntryRequest struct {
	WaitlistID   string `json:"waitlist_id" validate:"required"`
	GroupSize    int64  `json:"group_size" validate:"min=1"`
	DiscountCode string `json:"discount_code"`
}

type CheckInRequest struct {
	TicketCode string `json:"ticket_code" validate:"required"`
}

type GetManyRegistrationRequest struct {
	Page int64 `validate:"min=1"`
	Size int64 `validate:"min=1"`
}
