package user

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"strings"
	"sync"
	"time"
)

const fakePasswordHashPrefix = "fake:"

type FakePasswordHasher struct {
	HashCalls   int
	VerifyCalls int
	lock        sync.Mutex
}

func NewFakePasswordHasher() *FakePasswordHasher {
	return &FakePasswordHasher{}
}

func (h *FakePasswordHasher) HashPassword(password RawPassword) (PasswordHash, error) {
	if err := password.Validate(); err != nil {
		return "", err
	}
	h.lock.Lock()
	h.HashCalls++
	h.lock.Unlock()
	hash := md5.New()
	io.WriteString(hash, string(password))
	return PasswordHash(fmt.Sprintf("%s%x", fakePasswordHashPrefix, hash.Sum(nil))), nil
}

func (h *FakePasswordHasher) VerifyPassword(password RawPassword, hash PasswordHash) (bool, error) {
	h.lock.Lock()
	h.VerifyCalls++
	h.lock.Unlock()
	if !strings.HasPrefix(string(hash), fakePasswordHashPrefix) {
		return false, e.NewValidationError("passwordHash", "malformed password hash")
	}
	hash2 := md5.New()
	io.WriteString(hash2, string(password))
	return PasswordHash(fmt.Sprintf("%s%x", fakePasswordHashPrefix, hash2.Sum(nil))) == hash, nil
}

// FakePasswordResetter issues "token-1", "token-2", ... in order.
type FakePasswordResetter struct {
	ReturnError bool
	Issued      []PasswordResetToken
	lock        sync.Mutex
}

func NewFakePasswordResetter() *FakePasswordResetter {
	return &FakePasswordResetter{}
}

func (r *FakePasswordResetter) GenerateToken() (PasswordResetToken, error) {
	if r.ReturnError {
		return "", fmt.Errorf("could not generate password reset token")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	token := PasswordResetToken(fmt.Sprintf("token-%d", len(r.Issued)+1))
	r.Issued = append(r.Issued, token)
	return token, nil
}

func (r *FakePasswordResetter) HashToken(token PasswordResetToken) PasswordResetTokenHash {
	return PasswordResetTokenHash("hash-of-" + string(token))
}

func (r *FakePasswordResetter) IssuedCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.Issued)
}

type FakePasswordResetLinkSender struct {
	Sent        []PasswordResetLink
	ReturnError bool
	// Block, when set, holds every send until it is closed or ctx is done.
	Block chan struct{}
	lock  sync.Mutex
}

func NewFakePasswordResetLinkSender() *FakePasswordResetLinkSender {
	return &FakePasswordResetLinkSender{}
}

func (s *FakePasswordResetLinkSender) SendPasswordResetLink(ctx context.Context, link PasswordResetLink) error {
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.ReturnError {
		return fmt.Errorf("could not send %v", link)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Sent = append(s.Sent, link)
	return nil
}

func (s *FakePasswordResetLinkSender) SentCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.Sent)
}

func (s *FakePasswordResetLinkSender) LastSent() PasswordResetLink {
	s.lock.Lock()
	defer s.lock.Unlock()
	l := len(s.Sent)
	if l == 0 {
		panic("Sent count is 0.")
	}
	return s.Sent[l-1]
}

type FakeUserRepository struct {
	Users       []User
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{Users: make([]User, 0, 10)}
}

func (r *FakeUserRepository) storeError() error {
	return e.NewStoreUnavailableError(errors.New("fake store is down"))
}

func (r *FakeUserRepository) Create(ctx context.Context, input CreateUserInput) (u User, err error) {
	if r.ReturnError {
		return u, r.storeError()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	maxID := ID(0)
	for _, existing := range r.Users {
		if existing.Email == input.Email {
			return u, ErrEmailAlreadyExists
		}
		maxID = existing.ID
	}
	u = User{
		ID:           maxID + 1,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		CreatedAt:    input.CreatedAt,
	}
	r.Users = append(r.Users, u)
	return u, nil
}

func (r *FakeUserRepository) GetByID(ctx context.Context, id ID) (u User, err error) {
	if r.ReturnError {
		return u, r.storeError()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) GetByEmail(ctx context.Context, email c.Email) (u User, err error) {
	if r.ReturnError {
		return u, r.storeError()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) GetByPasswordResetTokenHash(
	ctx context.Context,
	hash PasswordResetTokenHash,
	at time.Time,
) (u User, err error) {
	if r.ReturnError {
		return u, r.storeError()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if u.HasPendingPasswordReset(at) && u.PasswordReset.Value.TokenHash == hash {
			return u, nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) SetPasswordReset(ctx context.Context, input SetPasswordResetInput) error {
	if r.ReturnError {
		return r.storeError()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ID == input.UserID {
			r.Users[ix].PasswordReset = c.Some(input.PasswordReset)
			return nil
		}
	}
	return ErrUserDoesNotExist
}

func (r *FakeUserRepository) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if r.ReturnError {
		return r.storeError()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ID != input.UserID {
			continue
		}
		if !u.HasPendingPasswordReset(input.At) || u.PasswordReset.Value.TokenHash != input.TokenHash {
			return ErrInvalidPasswordResetToken
		}
		r.Users[ix].PasswordHash = input.PasswordHash
		r.Users[ix].PasswordReset = c.None[PasswordReset]()
		return nil
	}
	return ErrInvalidPasswordResetToken
}

func (r *FakeUserRepository) ClearExpiredPasswordResets(ctx context.Context, at time.Time) (int64, error) {
	if r.ReturnError {
		return 0, r.storeError()
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	var cleared int64
	for ix, u := range r.Users {
		if u.PasswordReset.IsPresent && u.PasswordReset.Value.IsExpired(at) {
			r.Users[ix].PasswordReset = c.None[PasswordReset]()
			cleared++
		}
	}
	return cleared, nil
}
