package waitlist

import "time"

// Entry is one attendee waiting for capacity on an (event, ticket type)
// pair. Positions among non-converted entries of the same queue form a dense
// 1-based sequence in creation order; conversion renumbers the tail, it
// never deletes rows.
type Entry struct {
	ID           string
	EventID      string
	TicketTypeID string

	FirstName string
	LastName  string
	Email     string
	Phone     *string

	Position    int64
	Notified    bool
	NotifiedAt  *time.Time
	Converted   bool
	ConvertedAt *time.Time
	ExpiresAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
