package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventVerificationRequested  EventType = "verification_requested"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventTicketCreated          EventType = "ticket_created"
	EventTicketResponded        EventType = "ticket_responded"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
)

// Event represents a domain event emitted by services after the state
// change it describes has been committed.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// VerificationRequestedPayload payload. Token is the single-use
// verification token to embed in the email link.
type VerificationRequestedPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"-"`
}

// PasswordResetRequestedPayload payload. Token is the single-use reset
// token to embed in the email link.
type PasswordResetRequestedPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"-"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID  int64  `json:"ticket_id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
}

// TicketRespondedPayload payload.
type TicketRespondedPayload struct {
	TicketID  int64  `json:"ticket_id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
	Response  string `json:"response"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  int64  `json:"ticket_id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}
