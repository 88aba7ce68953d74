package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketCreateRequest payload for new tickets.
type TicketCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TicketRespondRequest payload for responding to a ticket.
type TicketRespondRequest struct {
	Response string `json:"response"`
}

// TicketStatusRequest payload for status transitions.
type TicketStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the outward ticket shape.
type TicketResponse struct {
	ID          int64      `json:"id"`
	ExternalKey string     `json:"external_key"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"created_by"`
	Response    *string    `json:"response,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket to its outward shape.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      string(ticket.Status),
		CreatedBy:   ticket.CreatedBy,
		Response:    ticket.Response,
		ResolvedAt:  ticket.ResolvedAt,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}
