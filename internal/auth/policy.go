package auth

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// Policy holds the pure authorization decisions over User data. The
// count arguments let callers evaluate the bootstrap and last-admin
// rules inside whatever transaction produced them; the policy itself
// does no I/O.

// CanListUsers permits listing accounts to administrators only.
func CanListUsers(actor *domain.User) error {
	if !actor.IsSuperuser {
		return util.NewInsufficientPrivilege()
	}
	return nil
}

// CanViewUser permits administrators, plus any user viewing themselves.
func CanViewUser(actor, target *domain.User) error {
	if actor.IsSuperuser || actor.ID == target.ID {
		return nil
	}
	return util.NewInsufficientPrivilege()
}

// CanCreateUser gates administrative account creation.
func CanCreateUser(actor *domain.User) error {
	if !actor.IsSuperuser {
		return util.NewInsufficientPrivilege()
	}
	return nil
}

// CanDeleteUser forbids self-deletion even for administrators.
func CanDeleteUser(actor, target *domain.User) error {
	if actor.ID == target.ID {
		return util.NewSelfDeletionForbidden()
	}
	if !actor.IsSuperuser {
		return util.NewInsufficientPrivilege()
	}
	return nil
}

// CanSetSuperuser decides promotion and demotion. totalUsers and
// activeSuperusers must be read in the same transaction as the write
// they authorize.
//
// The one exception to the administrators-only rule is the first-user
// bootstrap: when exactly one account exists in the whole system, that
// account may promote itself so an otherwise admin-less deployment can
// gain its first administrator.
func CanSetSuperuser(actor, target *domain.User, newValue bool, totalUsers, activeSuperusers int64) error {
	if !actor.IsSuperuser {
		if newValue && totalUsers == 1 && actor.ID == target.ID {
			return nil
		}
		return util.NewInsufficientPrivilege()
	}
	if !newValue && actor.ID == target.ID && activeSuperusers < 2 {
		return util.NewLastAdminProtected()
	}
	return nil
}

// CanRespondToTicket permits administrators and the ticket's requester.
func CanRespondToTicket(actor *domain.User, ticket *domain.Ticket) error {
	if actor.IsSuperuser || actor.Email == ticket.CreatedBy {
		return nil
	}
	return util.NewInsufficientPrivilege()
}

// CanUpdateTicketStatus mirrors the respond rule.
func CanUpdateTicketStatus(actor *domain.User, ticket *domain.Ticket) error {
	if actor.IsSuperuser || actor.Email == ticket.CreatedBy {
		return nil
	}
	return util.NewInsufficientPrivilege()
}

// CanViewTicket permits administrators and the ticket's requester.
func CanViewTicket(actor *domain.User, ticket *domain.Ticket) error {
	if actor.IsSuperuser || actor.Email == ticket.CreatedBy {
		return nil
	}
	return util.NewInsufficientPrivilege()
}
