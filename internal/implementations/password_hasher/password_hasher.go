package passwordhasher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/user"

	"golang.org/x/crypto/bcrypt"
)

type Bcrypt struct {
	secret string
	cost   int
}

func NewBcrypt(secret string, cost int) *Bcrypt {
	return &Bcrypt{secret: secret, cost: cost}
}

func (h *Bcrypt) HashPassword(password user.RawPassword) (hash user.PasswordHash, err error) {
	if err := password.Validate(); err != nil {
		return hash, err
	}
	bcryptHash, err := bcrypt.GenerateFromPassword(h.pepper(password), h.cost)
	if err != nil {
		return hash, err
	}
	return user.PasswordHash(bcryptHash), nil
}

func (h *Bcrypt) VerifyPassword(password user.RawPassword, hash user.PasswordHash) (bool, error) {
	if hash == "" {
		return false, e.NewValidationError("passwordHash", "cannot be blank")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), h.pepper(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, e.NewValidationError("passwordHash", err.Error())
}

// pepper keys the password with the secret and keeps the result within
// bcrypt's 72 byte input limit.
func (h *Bcrypt) pepper(password user.RawPassword) []byte {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}
