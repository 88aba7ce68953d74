package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func newTestTickets(t *testing.T) *TicketService {
	t.Helper()
	return NewTicketService(repository.NewMemoryTicketRepository(), nil)
}

func ticketAdmin() *domain.User {
	return &domain.User{ID: 1, Email: "admin@example.com", IsActive: true, IsSuperuser: true}
}

func ticketRequester() *domain.User {
	return &domain.User{ID: 2, Email: "requester@example.com", IsActive: true}
}

func TestCreateTicket(t *testing.T) {
	svc := newTestTickets(t)
	ctx := context.Background()
	requester := ticketRequester()

	ticket, err := svc.CreateTicket(ctx, requester, TicketCreateInput{
		Title:       "Printer on fire",
		Description: "Third floor, again.",
	})
	require.NoError(t, err)
	assert.NotZero(t, ticket.ID)
	assert.NotEmpty(t, ticket.ExternalKey)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "requester@example.com", ticket.CreatedBy)
	assert.Nil(t, ticket.Response)
	assert.Nil(t, ticket.ResolvedAt)

	_, err = svc.CreateTicket(ctx, requester, TicketCreateInput{Title: "no description"})
	assert.True(t, util.HasCode(err, util.CodeValidationFailed))
}

func TestListTickets_Visibility(t *testing.T) {
	svc := newTestTickets(t)
	ctx := context.Background()
	admin := ticketAdmin()
	requester := ticketRequester()
	other := &domain.User{ID: 3, Email: "other@example.com", IsActive: true}

	_, err := svc.CreateTicket(ctx, requester, TicketCreateInput{Title: "mine", Description: "d"})
	require.NoError(t, err)
	_, err = svc.CreateTicket(ctx, other, TicketCreateInput{Title: "theirs", Description: "d"})
	require.NoError(t, err)

	all, err := svc.ListTickets(ctx, admin, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListTickets(ctx, requester, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Title)
}

func TestGetTicket_Policy(t *testing.T) {
	svc := newTestTickets(t)
	ctx := context.Background()
	requester := ticketRequester()
	stranger := &domain.User{ID: 3, Email: "stranger@example.com", IsActive: true}

	created, err := svc.CreateTicket(ctx, requester, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	got, err := svc.GetTicket(ctx, requester, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetTicket(ctx, ticketAdmin(), created.ID)
	require.NoError(t, err)

	_, err = svc.GetTicket(ctx, stranger, created.ID)
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))

	_, err = svc.GetTicket(ctx, requester, 9999)
	assert.True(t, util.HasCode(err, util.CodeNotFound))
}

func TestRespondToTicket(t *testing.T) {
	svc := newTestTickets(t)
	ctx := context.Background()
	requester := ticketRequester()

	created, err := svc.CreateTicket(ctx, requester, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	_, err = svc.RespondToTicket(ctx, ticketAdmin(), created.ID, "")
	assert.True(t, util.HasCode(err, util.CodeValidationFailed))

	updated, err := svc.RespondToTicket(ctx, ticketAdmin(), created.ID, "We are on it.")
	require.NoError(t, err)
	require.NotNil(t, updated.Response)
	assert.Equal(t, "We are on it.", *updated.Response)

	stranger := &domain.User{ID: 3, Email: "stranger@example.com", IsActive: true}
	_, err = svc.RespondToTicket(ctx, stranger, created.ID, "drive-by")
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))
}

func TestUpdateTicketStatus(t *testing.T) {
	svc := newTestTickets(t)
	ctx := context.Background()
	requester := ticketRequester()

	created, err := svc.CreateTicket(ctx, requester, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	_, err = svc.UpdateTicketStatus(ctx, requester, created.ID, domain.TicketStatus("bogus"))
	assert.True(t, util.HasCode(err, util.CodeValidationFailed))

	inProgress, err := svc.UpdateTicketStatus(ctx, requester, created.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, inProgress.Status)
	assert.Nil(t, inProgress.ResolvedAt)

	resolved, err := svc.UpdateTicketStatus(ctx, requester, created.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	stranger := &domain.User{ID: 3, Email: "stranger@example.com", IsActive: true}
	_, err = svc.UpdateTicketStatus(ctx, stranger, created.ID, domain.TicketStatusClosed)
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))
}
