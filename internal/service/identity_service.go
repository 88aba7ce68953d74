package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// IdentityService owns every mutation of the User entity: registration,
// login, password lifecycle, email verification, and privilege changes.
// Each mutation runs as one transaction against the user store.
type IdentityService struct {
	users               repository.UserRepository
	hasher              *auth.PasswordHasher
	tokenMgr            *auth.TokenManager
	dispatcher          events.Dispatcher
	logger              *zap.Logger
	minPasswordLength   int
	production          bool
	placeholderPassword string
}

// IdentityDependencies encapsulates collaborator requirements.
type IdentityDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// RegistrationRequest is the one well-typed shape registration accepts.
// Upstream payload normalization is the transport layer's problem.
type RegistrationRequest struct {
	Email    string
	Password string
	FullName string
}

// AdminCreateUserInput describes administrative account creation, the
// only path allowed to pre-set privilege and verification flags.
type AdminCreateUserInput struct {
	Email       string
	Password    string
	FullName    string
	IsSuperuser bool
	IsVerified  bool
}

// ProfileUpdate carries optional self-service profile changes.
type ProfileUpdate struct {
	FullName *string
	Email    *string
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.Config, deps IdentityDependencies) *IdentityService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		users:               deps.UserRepo,
		hasher:              auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokenMgr:            auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		dispatcher:          deps.Dispatcher,
		logger:              logger,
		minPasswordLength:   cfg.Auth.MinPasswordLength,
		production:          cfg.App.IsProduction(),
		placeholderPassword: cfg.Auth.PlaceholderPassword,
	}
}

// Register creates a self-service account. The caller is logged in
// immediately: the returned token matches what Login would issue.
func (s *IdentityService) Register(ctx context.Context, req RegistrationRequest) (*domain.User, string, time.Time, error) {
	if req.Email == "" {
		return nil, "", time.Time{}, util.NewValidationError("email required", nil)
	}
	password, err := s.resolvePassword(req.Password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if len(password) < s.minPasswordLength {
		return nil, "", time.Time{}, util.NewWeakPassword(s.minPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	verificationToken, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Email:             req.Email,
		FullName:          req.FullName,
		HashedPassword:    hash,
		IsActive:          true,
		IsSuperuser:       false,
		IsVerified:        false,
		VerificationToken: &verificationToken,
	}
	err = s.users.InTx(ctx, func(r repository.UserRepository) error {
		if _, err := r.GetByEmail(ctx, req.Email); err == nil {
			return util.NewDuplicateEmail()
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return r.Create(ctx, user)
	})
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.EventUserRegistered, events.UserRegisteredPayload{
		UserID: user.ID, Email: user.Email,
	})
	s.publish(ctx, events.EventVerificationRequested, events.VerificationRequestedPayload{
		UserID: user.ID, Email: user.Email, Token: verificationToken,
	})

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// CreateUser performs administrative account creation.
func (s *IdentityService) CreateUser(ctx context.Context, actor *domain.User, input AdminCreateUserInput) (*domain.User, error) {
	if err := auth.CanCreateUser(actor); err != nil {
		return nil, err
	}
	if input.Email == "" {
		return nil, util.NewValidationError("email required", nil)
	}
	password, err := s.resolvePassword(input.Password)
	if err != nil {
		return nil, err
	}
	if len(password) < s.minPasswordLength {
		return nil, util.NewWeakPassword(s.minPasswordLength)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:          input.Email,
		FullName:       input.FullName,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    input.IsSuperuser,
		IsVerified:     input.IsVerified,
	}
	if !input.IsVerified {
		verificationToken, err := auth.NewOpaqueToken()
		if err != nil {
			return nil, err
		}
		user.VerificationToken = &verificationToken
	}
	err = s.users.InTx(ctx, func(r repository.UserRepository) error {
		if _, err := r.GetByEmail(ctx, input.Email); err == nil {
			return util.NewDuplicateEmail()
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return r.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	if user.VerificationToken != nil {
		s.publish(ctx, events.EventVerificationRequested, events.VerificationRequestedPayload{
			UserID: user.ID, Email: user.Email, Token: *user.VerificationToken,
		})
	}
	return user, nil
}

// Login authenticates by email and password. Unknown email, disabled
// account, and wrong password all fail identically.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, util.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, err
	}
	if !user.IsActive {
		return nil, "", time.Time{}, util.NewInvalidCredentials()
	}
	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, "", time.Time{}, util.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// RequestPasswordReset issues a fresh single-use reset token when the
// email matches an account. It returns nil either way; the caller's
// response must not reveal whether the account exists.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	var (
		notify  bool
		userID  int64
		tokenTo string
	)
	err := s.users.InTx(ctx, func(r repository.UserRepository) error {
		user, err := r.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		resetToken, err := auth.NewOpaqueToken()
		if err != nil {
			return err
		}
		user.ResetToken = &resetToken
		if err := r.Update(ctx, user); err != nil {
			return err
		}
		notify = true
		userID = user.ID
		tokenTo = resetToken
		return nil
	})
	if err != nil {
		return err
	}

	if notify {
		s.publish(ctx, events.EventPasswordResetRequested, events.PasswordResetRequestedPayload{
			UserID: userID, Email: email, Token: tokenTo,
		})
	}
	return nil
}

// CompletePasswordReset consumes a reset token and stores the new
// password hash. Clearing the token and updating the hash happen in the
// same transaction, so a token can never be replayed.
func (s *IdentityService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return util.NewInvalidResetToken()
	}
	return s.users.InTx(ctx, func(r repository.UserRepository) error {
		user, err := r.GetByResetToken(ctx, token)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return util.NewInvalidResetToken()
			}
			return err
		}
		if len(newPassword) < s.minPasswordLength {
			return util.NewWeakPassword(s.minPasswordLength)
		}
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		user.HashedPassword = hash
		user.ResetToken = nil
		return r.Update(ctx, user)
	})
}

// ChangePassword verifies the current password before storing the new
// hash. A "change" to the same password is rejected.
func (s *IdentityService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	return s.users.InTx(ctx, func(r repository.UserRepository) error {
		user, err := r.GetByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(currentPassword, user.HashedPassword) {
			return util.NewInvalidCredentials()
		}
		if len(newPassword) < s.minPasswordLength {
			return util.NewWeakPassword(s.minPasswordLength)
		}
		if s.hasher.Verify(newPassword, user.HashedPassword) {
			return util.NewPasswordUnchanged()
		}
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		user.HashedPassword = hash
		return r.Update(ctx, user)
	})
}

// VerifyEmail consumes a verification token.
func (s *IdentityService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, util.NewInvalidVerificationToken()
	}
	var verified *domain.User
	err := s.users.InTx(ctx, func(r repository.UserRepository) error {
		user, err := r.GetByVerificationToken(ctx, token)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return util.NewInvalidVerificationToken()
			}
			return err
		}
		user.IsVerified = true
		user.VerificationToken = nil
		if err := r.Update(ctx, user); err != nil {
			return err
		}
		verified = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return verified, nil
}

// SetSuperuser grants or revokes administrative privilege. The user and
// admin counts feeding the policy decision are read inside the same
// transaction as the write, so concurrent demotions cannot both pass
// the last-admin check.
func (s *IdentityService) SetSuperuser(ctx context.Context, actor *domain.User, targetID int64, newValue bool) (*domain.User, error) {
	var updated *domain.User
	err := s.users.InTx(ctx, func(r repository.UserRepository) error {
		target, err := r.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return util.NewNotFound("user", map[string]any{"id": targetID})
			}
			return err
		}
		totalUsers, err := r.CountAll(ctx)
		if err != nil {
			return err
		}
		activeSuperusers, err := r.CountActiveSuperusers(ctx)
		if err != nil {
			return err
		}
		if err := auth.CanSetSuperuser(actor, target, newValue, totalUsers, activeSuperusers); err != nil {
			return err
		}
		target.IsSuperuser = newValue
		if err := r.Update(ctx, target); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes an account, subject to the self-deletion guard.
func (s *IdentityService) DeleteUser(ctx context.Context, actor *domain.User, targetID int64) error {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("user", map[string]any{"id": targetID})
		}
		return err
	}
	if err := auth.CanDeleteUser(actor, target); err != nil {
		return err
	}
	return s.users.Delete(ctx, targetID)
}

// ListUsers returns accounts for administrators.
func (s *IdentityService) ListUsers(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.User, error) {
	if err := auth.CanListUsers(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.users.List(ctx, limit, offset)
}

// GetUser returns one account, visible to administrators and to the
// account itself.
func (s *IdentityService) GetUser(ctx context.Context, actor *domain.User, targetID int64) (*domain.User, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("user", map[string]any{"id": targetID})
		}
		return nil, err
	}
	if err := auth.CanViewUser(actor, target); err != nil {
		return nil, err
	}
	return target, nil
}

// UpdateProfile applies self-service profile changes.
func (s *IdentityService) UpdateProfile(ctx context.Context, actor *domain.User, update ProfileUpdate) (*domain.User, error) {
	var updated *domain.User
	err := s.users.InTx(ctx, func(r repository.UserRepository) error {
		user, err := r.GetByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if update.FullName != nil {
			user.FullName = *update.FullName
		}
		if update.Email != nil && *update.Email != user.Email {
			if *update.Email == "" {
				return util.NewValidationError("email required", nil)
			}
			if _, err := r.GetByEmail(ctx, *update.Email); err == nil {
				return util.NewDuplicateEmail()
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			user.Email = *update.Email
		}
		if err := r.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *IdentityService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// resolvePassword fails closed when no password is supplied. The
// configured placeholder is honored only outside production mode, for
// integration setups whose upstream payloads omit the password field.
func (s *IdentityService) resolvePassword(password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if s.production || s.placeholderPassword == "" {
		return "", util.NewMissingCredential()
	}
	s.logger.Warn("registration without password; using configured placeholder")
	return s.placeholderPassword, nil
}

func (s *IdentityService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
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
