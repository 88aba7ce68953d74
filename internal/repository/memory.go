package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// MemoryUserRepository is an in-memory UserRepository used by unit
// tests and local development without Postgres. InTx serializes under
// the store mutex, which gives the same atomic read-modify-write
// guarantee the Postgres implementation gets from a transaction.
type MemoryUserRepository struct {
	mu     *sync.Mutex
	users  map[int64]*domain.User
	nextID *int64
	inTx   bool
}

// NewMemoryUserRepository builds an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	var next int64 = 1
	return &MemoryUserRepository{
		mu:     &sync.Mutex{},
		users:  make(map[int64]*domain.User),
		nextID: &next,
	}
}

func (r *MemoryUserRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	defer r.lock()()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return util.NewDuplicateEmail()
		}
	}
	user.ID = *r.nextID
	*r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	defer r.lock()()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	for _, existing := range r.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return util.NewDuplicateEmail()
		}
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	defer r.lock()()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool {
		return u.ResetToken != nil && *u.ResetToken == token
	})
}

func (r *MemoryUserRepository) GetByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (r *MemoryUserRepository) findFirst(match func(*domain.User) bool) (*domain.User, error) {
	defer r.lock()()
	for _, user := range r.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryUserRepository) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	defer r.lock()()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var users []domain.User
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(users) >= limit {
			break
		}
		users = append(users, *r.users[id])
	}
	return users, nil
}

func (r *MemoryUserRepository) CountAll(_ context.Context) (int64, error) {
	defer r.lock()()
	return int64(len(r.users)), nil
}

func (r *MemoryUserRepository) CountActiveSuperusers(_ context.Context) (int64, error) {
	defer r.lock()()
	var count int64
	for _, user := range r.users {
		if user.IsSuperuser && user.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *MemoryUserRepository) InTx(_ context.Context, fn func(UserRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	bound := &MemoryUserRepository{mu: r.mu, users: r.users, nextID: r.nextID, inTx: true}
	return fn(bound)
}

// MemoryTicketRepository is the in-memory TicketRepository counterpart.
type MemoryTicketRepository struct {
	mu      sync.Mutex
	tickets map[int64]*domain.Ticket
	nextID  int64
}

// NewMemoryTicketRepository builds an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[int64]*domain.Ticket), nextID: 1}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = r.nextID
	r.nextID++
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *MemoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *MemoryTicketRepository) ListAll(_ context.Context, limit, offset int) ([]domain.Ticket, error) {
	return r.list(func(*domain.Ticket) bool { return true }, limit, offset)
}

func (r *MemoryTicketRepository) ListByCreator(_ context.Context, email string, limit, offset int) ([]domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool { return t.CreatedBy == email }, limit, offset)
}

func (r *MemoryTicketRepository) list(match func(*domain.Ticket) bool, limit, offset int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.tickets))
	for id, ticket := range r.tickets {
		if match(ticket) {
			ids = append(ids, id)
		}
	}
	// Newest first, matching the SQL ordering.
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var tickets []domain.Ticket
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(tickets) >= limit {
			break
		}
		tickets = append(tickets, *r.tickets[id])
	}
	return tickets, nil
}
