package user

import (
	"fmt"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 256
)

type ID int64

type PasswordHash string

func (p PasswordHash) String() string {
	return "***"
}

type RawPassword string

func (p RawPassword) String() string {
	return "***"
}

func (p RawPassword) Validate() error {
	err := validation.Validate(
		string(p),
		validation.Required,
		validation.RuneLength(MinPasswordLength, MaxPasswordLength),
	)
	if err != nil {
		return e.NewValidationError("password", err.Error())
	}
	return nil
}

type User struct {
	ID            ID
	Name          string
	Email         c.Email
	PasswordHash  PasswordHash
	PasswordReset c.Optional[PasswordReset]
	CreatedAt     time.Time
}

func (u *User) Validate() error {
	if u.Email == "" {
		return e.NewInvalidStateError(fmt.Sprintf("email is not set for user %d", u.ID))
	}
	if u.PasswordHash == "" {
		return e.NewInvalidStateError(fmt.Sprintf("password hash is not set for user %d", u.ID))
	}
	return nil
}

// HasPendingPasswordReset reports whether a reset token is outstanding and
// still usable at the given moment.
func (u *User) HasPendingPasswordReset(at time.Time) bool {
	return u.PasswordReset.IsPresent && !u.PasswordReset.Value.IsExpired(at)
}
