package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients. Each expected failure in the
// identity and ticket flows maps to exactly one code.
const (
	CodeDuplicateEmail           = "DUPLICATE_EMAIL"
	CodeWeakPassword             = "WEAK_PASSWORD"
	CodeMissingCredential        = "MISSING_CREDENTIAL"
	CodeInvalidCredentials       = "INVALID_CREDENTIALS"
	CodeInvalidResetToken        = "INVALID_RESET_TOKEN"
	CodeInvalidVerificationToken = "INVALID_VERIFICATION_TOKEN"
	CodePasswordUnchanged        = "PASSWORD_UNCHANGED"
	CodeSelfDeletionForbidden    = "SELF_DELETION_FORBIDDEN"
	CodeLastAdminProtected       = "LAST_ADMIN_PROTECTED"
	CodeInsufficientPrivilege    = "INSUFFICIENT_PRIVILEGE"
	CodeNotFound                 = "NOT_FOUND"
	CodeTokenInvalid             = "TOKEN_INVALID"
	CodeTokenExpired             = "TOKEN_EXPIRED"
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeInternalError            = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewDuplicateEmail() error {
	return NewDomainError(CodeDuplicateEmail, "an account with this email already exists", http.StatusConflict, nil)
}

func NewWeakPassword(minLength int) error {
	return NewDomainError(CodeWeakPassword,
		fmt.Sprintf("password must be at least %d characters", minLength),
		http.StatusBadRequest, nil)
}

func NewMissingCredential() error {
	return NewDomainError(CodeMissingCredential, "a password is required", http.StatusBadRequest, nil)
}

// NewInvalidCredentials covers unknown email, inactive account, and
// wrong password with one indistinguishable message.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid email or password", http.StatusUnauthorized, nil)
}

func NewInvalidResetToken() error {
	return NewDomainError(CodeInvalidResetToken, "invalid or already used reset token", http.StatusBadRequest, nil)
}

func NewInvalidVerificationToken() error {
	return NewDomainError(CodeInvalidVerificationToken, "invalid or already used verification token", http.StatusBadRequest, nil)
}

func NewPasswordUnchanged() error {
	return NewDomainError(CodePasswordUnchanged, "new password must differ from the current password", http.StatusBadRequest, nil)
}

func NewSelfDeletionForbidden() error {
	return NewDomainError(CodeSelfDeletionForbidden, "you cannot delete your own account", http.StatusForbidden, nil)
}

func NewLastAdminProtected() error {
	return NewDomainError(CodeLastAdminProtected, "at least one other active administrator is required", http.StatusConflict, nil)
}

func NewInsufficientPrivilege() error {
	return NewDomainError(CodeInsufficientPrivilege, "administrator privilege required", http.StatusForbidden, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewTokenInvalid() error {
	return NewDomainError(CodeTokenInvalid, "invalid token", http.StatusUnauthorized, nil)
}

func NewTokenExpired() error {
	return NewDomainError(CodeTokenExpired, "token expired", http.StatusUnauthorized, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError. Storage errors
// collapse to NOT_FOUND or INTERNAL_ERROR so no driver detail reaches
// the caller.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
