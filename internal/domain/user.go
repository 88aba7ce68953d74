package domain

import "time"

// User is the single account entity: end-users and administrators
// differ only by the superuser flag.
type User struct {
	ID                int64
	Email             string
	FullName          string
	HashedPassword    string
	IsActive          bool
	IsSuperuser       bool
	IsVerified        bool
	VerificationToken *string
	ResetToken        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
