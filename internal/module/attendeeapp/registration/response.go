package registration

import (
	"time"

	"github.com/eventhive/eh-registration/internal/module/attendeeapp/pricing"
)

// CreateRegistrationResponse reports either a created hold or a waitlist
// placement; Waitlisted tells the caller which one happened.
type CreateRegistrationResponse struct {
	Waitlisted       bool                    `json:"waitlisted"`
	WaitlistID       string                  `json:"waitlist_id,omitempty"`
	WaitlistPosition int64                   `json:"waitlist_position,omitempty"`
	RegistrationID   string                  `json:"registration_id,omitempty"`
	TicketCode       string                  `json:"ticket_code,omitempty"`
	QRCodeImage      string                  `json:"qr_code_image,omitempty"`
	Pricing          *pricing.PriceBreakdown `json:"pricing,omitempty"`
	PaymentRequired  bool                    `json:"payment_required"`
}

type RegistrationResponse struct {
	ID               string                 `json:"id"`
	EventID          string                 `json:"event_id"`
	TicketTypeID     string                 `json:"ticket_type_id"`
	FirstName        string                 `json:"first_name"`
	LastName         string                 `json:"last_name"`
	Email            string                 `json:"email"`
	GroupSize        int64                  `json:"group_size"`
	Status           string                 `json:"status"`
	PaymentStatus    string                 `json:"payment_status"`
	OriginalPrice    float64                `json:"original_price"`
	DiscountAmount   float64                `json:"discount_amount"`
	FinalPrice       float64                `json:"final_price"`
	Pricing          pricing.PriceBreakdown `json:"pricing"`
	TicketCode       string                 `json:"ticket_code"`
	QRCodeImage      string                 `json:"qr_code_image"`
	CheckedIn        bool                   `json:"checked_in"`
	CheckInTime      *time.Time             `json:"check_in_time,omitempty"`
	ConfirmationSent bool                   `json:"confirmation_sent"`
	WasWaitlisted    bool                   `json:"was_waitlisted"`
	CreatedAt        time.Time              `json:"created_at"`
	ConfirmedAt      *time.Time             `json:"confirmed_at,omitempty"`
}

func (r *RegistrationResponse) PopulateFromEntity(reg Registration) {
	r.ID = reg.ID
	r.EventID = reg.EventID
	r.TicketTypeID = reg.TicketTypeID
	r.FirstName = reg.FirstName
	r.LastName = reg.LastName
	r.Email = reg.Email
	r.GroupSize = reg.GroupSize
	r.Status = reg.Status
	r.PaymentStatus = reg.PaymentStatus
	r.OriginalPrice = reg.OriginalPrice
	r.DiscountAmount = reg.DiscountAmount
	r.FinalPrice = reg.FinalPrice
	r.Pricing = reg.PriceBreakdown
	r.TicketCode = reg.TicketCode
	r.QRCodeImage = reg.QRCodeImage
	r.CheckedIn = reg.CheckedIn
	r.CheckInTime = reg.CheckInTime
	r.ConfirmationSent = reg.ConfirmationSent
	r.WasWaitlisted = reg.WasWaitlisted
	r.CreatedAt = reg.CreatedAt
	r.ConfirmedAt = reg.ConfirmedAt
}

type GetManyRegistrationResponse []RegistrationResponse

type CheckInResponse struct {
	RegistrationID string    `json:"registration_id"`
	TicketCode     string    `json:"ticket_code"`
	CheckInTime    time.Time `json:"check_in_time"`
}

type ConvertWaitlistEntryResponse struct {
	CreateRegistrationResponse
	ConvertedWaitlistID string `json:"converted_waitlist_id"`
}
