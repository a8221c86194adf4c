package waitlist

import "time"

type EntryResponse struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	TicketTypeID string     `json:"ticket_type_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Position     int64      `json:"position"`
	Notified     bool       `json:"notified"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (r *EntryResponse) PopulateFromEntity(e Entry) {
	r.ID = e.ID
	r.EventID = e.EventID
	r.TicketTypeID = e.TicketTypeID
	r.FirstName = e.FirstName
	r.LastName = e.LastName
	r.Email = e.Email
	r.Position = e.Position
	r.Notified = e.Notified
	r.NotifiedAt = e.NotifiedAt
	r.ExpiresAt = e.ExpiresAt
	r.CreatedAt = e.CreatedAt
}

type GetManyEntryResponse []EntryResponse
