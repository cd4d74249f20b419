package user

import (
	"context"
	c "resetflow/internal/core/domain/common"
	"time"
)

type CreateUserInput struct {
	Name         string
	Email        c.Email
	PasswordHash PasswordHash
	CreatedAt    time.Time
}

type SetPasswordResetInput struct {
	UserID        ID
	PasswordReset PasswordReset
}

type ResetPasswordInput struct {
	UserID       ID
	TokenHash    PasswordResetTokenHash
	PasswordHash PasswordHash
	At           time.Time
}

type UserRepository interface {
	Create(ctx context.Context, input CreateUserInput) (User, error)
	// GetByID has no caller among the services. Tests use it to read back
	// stored state after an operation.
	GetByID(ctx context.Context, id ID) (User, error)
	GetByEmail(ctx context.Context, email c.Email) (User, error)
	// GetByPasswordResetTokenHash returns ErrUserDoesNotExist unless some user
	// holds the hash and its expiry is after the given moment.
	GetByPasswordResetTokenHash(ctx context.Context, hash PasswordResetTokenHash, at time.Time) (User, error)
	// SetPasswordReset overwrites any reset that is already pending.
	SetPasswordReset(ctx context.Context, input SetPasswordResetInput) error
	// ResetPassword sets the new hash and clears the pending reset in one step,
	// only while the user still holds input.TokenHash unexpired. Otherwise it
	// returns ErrInvalidPasswordResetToken and changes nothing.
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	ClearExpiredPasswordResets(ctx context.Context, at time.Time) (int64, error)
}
