package passwordresetter

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"resetflow/internal/core/domain/user"
)

const tokenSize = 32

// SHA256 issues hex encoded random tokens and stores only their SHA-256 digest.
type SHA256 struct {
	random io.Reader
}

func NewSHA256() *SHA256 {
	return &SHA256{random: rand.Reader}
}

func NewSHA256WithRandom(random io.Reader) *SHA256 {
	return &SHA256{random: random}
}

func (r *SHA256) GenerateToken() (token user.PasswordResetToken, err error) {
	b := make([]byte, tokenSize)
	if _, err := io.ReadFull(r.random, b); err != nil {
		return token, fmt.Errorf("could not read random bytes: %w", err)
	}
	return user.PasswordResetToken(hex.EncodeToString(b)), nil
}

func (r *SHA256) HashToken(token user.PasswordResetToken) user.PasswordResetTokenHash {
	sum := sha256.Sum256([]byte(token))
	return user.PasswordResetTokenHash(hex.EncodeToString(sum[:]))
}
