package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates the support ticket workflow around the
// access policy: requesters see their own tickets, administrators see
// everything.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{tickets: tickets, dispatcher: dispatcher}
}

// CreateTicket files a ticket on behalf of the acting user.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if input.Title == "" || input.Description == "" {
		return nil, util.NewValidationError("title and description required", nil)
	}

	ticket := &domain.Ticket{
		ExternalKey: uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   actor.Email,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketCreated, events.TicketCreatedPayload{
		TicketID: ticket.ID, Title: ticket.Title, CreatedBy: ticket.CreatedBy,
	})
	return ticket, nil
}

// ListTickets returns all tickets for administrators and the actor's
// own tickets otherwise.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if actor.IsSuperuser {
		return s.tickets.ListAll(ctx, limit, offset)
	}
	return s.tickets.ListByCreator(ctx, actor.Email, limit, offset)
}

// GetTicket returns one ticket, subject to the view policy.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, id int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewTicket(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// RespondToTicket stores a response and notifies the requester.
func (s *TicketService) RespondToTicket(ctx context.Context, actor *domain.User, id int64, response string) (*domain.Ticket, error) {
	if response == "" {
		return nil, util.NewValidationError("response required", nil)
	}
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanRespondToTicket(actor, ticket); err != nil {
		return nil, err
	}

	ticket.Response = &response
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketResponded, events.TicketRespondedPayload{
		TicketID:  ticket.ID,
		Title:     ticket.Title,
		CreatedBy: ticket.CreatedBy,
		Response:  response,
	})
	return ticket, nil
}

// UpdateTicketStatus transitions the ticket. Resolved and closed
// tickets record their resolution time.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, actor *domain.User, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidTicketStatus(status) {
		return nil, util.NewValidationError("invalid status", map[string]any{"status": status})
	}
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanUpdateTicketStatus(actor, ticket); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = status
	if status == domain.TicketStatusResolved || status == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ResolvedAt = &now
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
		TicketID:  ticket.ID,
		Title:     ticket.Title,
		CreatedBy: ticket.CreatedBy,
		OldStatus: string(oldStatus),
		NewStatus: string(status),
	})
	return ticket, nil
}

func (s *TicketService) getTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
