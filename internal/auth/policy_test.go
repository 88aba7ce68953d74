package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func admin(id int64) *domain.User {
	return &domain.User{ID: id, Email: "admin@example.com", IsActive: true, IsSuperuser: true}
}

func member(id int64) *domain.User {
	return &domain.User{ID: id, Email: "member@example.com", IsActive: true}
}

func TestCanListUsers(t *testing.T) {
	require.NoError(t, CanListUsers(admin(1)))

	err := CanListUsers(member(2))
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))
}

func TestCanViewUser(t *testing.T) {
	require.NoError(t, CanViewUser(admin(1), member(2)))
	require.NoError(t, CanViewUser(member(2), member(2)))

	err := CanViewUser(member(2), member(3))
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))
}

func TestCanDeleteUser_SelfDeletionForbidden(t *testing.T) {
	// Even administrators may not delete themselves.
	err := CanDeleteUser(admin(1), admin(1))
	assert.True(t, util.HasCode(err, util.CodeSelfDeletionForbidden))

	err = CanDeleteUser(member(2), member(2))
	assert.True(t, util.HasCode(err, util.CodeSelfDeletionForbidden))

	require.NoError(t, CanDeleteUser(admin(1), member(2)))

	err = CanDeleteUser(member(2), member(3))
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))
}

func TestCanSetSuperuser_AdminPromotes(t *testing.T) {
	require.NoError(t, CanSetSuperuser(admin(1), member(2), true, 5, 1))
	require.NoError(t, CanSetSuperuser(admin(1), member(2), false, 5, 1))
}

func TestCanSetSuperuser_Bootstrap(t *testing.T) {
	only := member(1)

	// The sole account may promote itself.
	require.NoError(t, CanSetSuperuser(only, only, true, 1, 0))

	// With a second account in the system the relaxation no longer applies.
	err := CanSetSuperuser(member(2), member(2), true, 2, 0)
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))

	// Bootstrap never covers demotion or other targets.
	err = CanSetSuperuser(only, only, false, 1, 0)
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))
	err = CanSetSuperuser(member(1), member(2), true, 1, 0)
	assert.True(t, util.HasCode(err, util.CodeInsufficientPrivilege))
}

func TestCanSetSuperuser_LastAdminProtected(t *testing.T) {
	self := admin(1)

	err := CanSetSuperuser(self, self, false, 5, 1)
	assert.True(t, util.HasCode(err, util.CodeLastAdminProtected))

	require.NoError(t, CanSetSuperuser(self, self, false, 5, 2))
}

func TestTicketPolicies(t *testing.T) {
	owner := &domain.User{ID: 2, Email: "owner@example.com", IsActive: true}
	stranger := &domain.User{ID: 3, Email: "stranger@example.com", IsActive: true}
	ticket := &domain.Ticket{ID: 1, CreatedBy: "owner@example.com"}

	require.NoError(t, CanViewTicket(admin(1), ticket))
	require.NoError(t, CanViewTicket(owner, ticket))
	assert.True(t, util.HasCode(CanViewTicket(stranger, ticket), util.CodeInsufficientPrivilege))

	require.NoError(t, CanRespondToTicket(admin(1), ticket))
	require.NoError(t, CanRespondToTicket(owner, ticket))
	assert.True(t, util.HasCode(CanRespondToTicket(stranger, ticket), util.CodeInsufficientPrivilege))

	require.NoError(t, CanUpdateTicketStatus(admin(1), ticket))
	require.NoError(t, CanUpdateTicketStatus(owner, ticket))
	assert.True(t, util.HasCode(CanUpdateTicketStatus(stranger, ticket), util.CodeInsufficientPrivilege))
}

func TestNewOpaqueToken(t *testing.T) {
	first, err := NewOpaqueToken()
	require.NoError(t, err)
	second, err := NewOpaqueToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	// 32 random bytes, URL-safe base64 without padding.
	assert.Len(t, first, 43)
}
