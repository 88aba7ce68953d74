package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestMemoryUserRepository_CRUD(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user := &domain.User{Email: "a@example.com", HashedPassword: "hash", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, int64(1), user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	got, err = repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	got.FullName = "Renamed"
	require.NoError(t, repo.Update(ctx, got))
	reread, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reread.FullName)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), pgx.ErrNoRows)
}

func TestMemoryUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@example.com"}))
	err := repo.Create(ctx, &domain.User{Email: "a@example.com"})
	assert.True(t, util.HasCode(err, util.CodeDuplicateEmail))

	second := &domain.User{Email: "b@example.com"}
	require.NoError(t, repo.Create(ctx, second))
	second.Email = "a@example.com"
	err = repo.Update(ctx, second)
	assert.True(t, util.HasCode(err, util.CodeDuplicateEmail))
}

func TestMemoryUserRepository_TokenLookups(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	reset := "reset-token"
	verify := "verify-token"
	user := &domain.User{Email: "a@example.com", ResetToken: &reset, VerificationToken: &verify}
	require.NoError(t, repo.Create(ctx, user))

	byReset, err := repo.GetByResetToken(ctx, "reset-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byReset.ID)

	byVerify, err := repo.GetByVerificationToken(ctx, "verify-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byVerify.ID)

	_, err = repo.GetByResetToken(ctx, "other")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = repo.GetByVerificationToken(ctx, "other")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryUserRepository_ReadsReturnClones(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@example.com"}))

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	got.Email = "mutated@example.com"

	reread, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", reread.Email)
}

func TestMemoryUserRepository_ListAndCounts(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@example.com", IsActive: true, IsSuperuser: true}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "b@example.com", IsActive: true}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "c@example.com", IsSuperuser: true}))

	users, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Email)
	assert.Equal(t, "b@example.com", users[1].Email)

	users, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "c@example.com", users[0].Email)

	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// Inactive superusers do not count.
	admins, err := repo.CountActiveSuperusers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}

func TestMemoryUserRepository_InTx(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	err := repo.InTx(ctx, func(r UserRepository) error {
		if err := r.Create(ctx, &domain.User{Email: "a@example.com"}); err != nil {
			return err
		}
		user, err := r.GetByEmail(ctx, "a@example.com")
		if err != nil {
			return err
		}
		user.FullName = "Inside"
		return r.Update(ctx, user)
	})
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Inside", got.FullName)
}

func TestMemoryTicketRepository(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	first := &domain.Ticket{ExternalKey: "k1", Title: "first", Description: "d", Status: domain.TicketStatusOpen, CreatedBy: "a@example.com"}
	second := &domain.Ticket{ExternalKey: "k2", Title: "second", Description: "d", Status: domain.TicketStatusOpen, CreatedBy: "b@example.com"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	// Newest first.
	all, err := repo.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title)

	mine, err := repo.ListByCreator(ctx, "a@example.com", 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "first", mine[0].Title)

	got.Status = domain.TicketStatusClosed
	require.NoError(t, repo.Update(ctx, got))
	reread, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, reread.Status)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Ticket{ID: 99}), pgx.ErrNoRows)
}
