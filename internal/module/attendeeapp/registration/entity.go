package registration

import (
	"fmt"
	"net/http"
	"time"

	"github.com/eventhive/eh-registration/internal/module/attendeeapp/pricing"
	"github.com/eventhive/eh-registration/pkg/errors"
	"github.com/eventhive/eh-registration/pkg/status"
)

const (
	StatusPending   string = "PENDING"
	StatusConfirmed string = "CONFIRMED"
	StatusCancelled string = "CANCELLED"
	StatusExpired   string = "EXPIRED"
)

const (
	PaymentStatusPending   string = "PENDING"
	PaymentStatusCompleted string = "COMPLETED"
	PaymentStatusFailed    string = "FAILED"
	PaymentStatusRefunded  string = "REFUNDED"
)

// transitions is the registration state machine. Anything not listed here is
// rejected; a hold leaves PENDING exactly once.
var transitions = map[string][]string{
	StatusPending: {StatusConfirmed, StatusCancelled, StatusExpired},
}

func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

type Registration struct {
	ID           string
	EventID      string
	TicketTypeID string
	AccountID    *int64

	FirstName string
	LastName  string
	Email     string
	Phone     *string

	GroupSize int64
	Status    string

	OriginalPrice  float64
	DiscountAmount float64
	FinalPrice     float64
	DiscountCode   *string
	PriceBreakdown pricing.PriceBreakdown

	PaymentStatus    string
	PaymentReference *string
	PaymentDate      *time.Time

	TicketCode  string
	QRCodeImage string

	CheckedIn   bool
	CheckInTime *time.Time

	ConfirmationSent   bool
	ConfirmationSentAt *time.Time

	WasWaitlisted bool

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
}

// Transition moves the registration to the given status, rejecting any move
// the state machine does not allow.
func (r *Registration) Transition(to string, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("registration cannot move from '%s' to '%s'", r.Status, to))
	}

	r.Status = to
	r.UpdatedAt = now

	return nil
}
