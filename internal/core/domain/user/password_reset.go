package user

import (
	"context"
	"fmt"
	"net/url"
	c "resetflow/internal/core/domain/common"
	"time"
)

type PasswordResetToken string

func (t PasswordResetToken) String() string {
	return "***"
}

type PasswordResetTokenHash string

type PasswordReset struct {
	TokenHash PasswordResetTokenHash
	ExpiresAt time.Time
}

func (r PasswordReset) IsExpired(at time.Time) bool {
	return !at.Before(r.ExpiresAt)
}

type PasswordResetter interface {
	GenerateToken() (PasswordResetToken, error)
	HashToken(token PasswordResetToken) PasswordResetTokenHash
}

// PasswordResetLink carries the plaintext token inside URL and the recipient's
// email, so it must never be logged as a whole.
type PasswordResetLink struct {
	Email     c.Email
	URL       url.URL
	ExpiresAt time.Time
}

func (l PasswordResetLink) String() string {
	return fmt.Sprintf("password reset link expiring at %s", l.ExpiresAt.Format(time.RFC3339))
}

type PasswordResetLinkSender interface {
	SendPasswordResetLink(ctx context.Context, link PasswordResetLink) error
}
