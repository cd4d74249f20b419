package loginwithemail

import (
	"context"
	"errors"
	"fmt"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
)

type Input struct {
	Email    c.Email
	Password user.RawPassword
}

type Result struct {
	User user.User
}

// dummyPassword is hashed once per service, so unknown emails are verified
// against a hash of the same cost as the stored ones.
const dummyPassword = user.RawPassword("dummy-password-never-matches")

type service struct {
	log            logging.Logger
	userRepository user.UserRepository
	passwordHasher user.PasswordHasher
	dummyHash      user.PasswordHash
}

func New(
	log logging.Logger,
	userRepository user.UserRepository,
	passwordHasher user.PasswordHasher,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if userRepository == nil {
		panic(e.NewNilArgumentError("userRepository"))
	}
	if passwordHasher == nil {
		panic(e.NewNilArgumentError("passwordHasher"))
	}
	dummyHash, err := passwordHasher.HashPassword(dummyPassword)
	if err != nil {
		panic(fmt.Sprintf("could not hash dummy password: %v", err))
	}
	return &service{
		log:            log,
		userRepository: userRepository,
		passwordHasher: passwordHasher,
		dummyHash:      dummyHash,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	u, err := s.userRepository.GetByEmail(ctx, input.Email)
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, user.ErrUserDoesNotExist) {
		// Same bcrypt work as a wrong password, whatever the password length.
		s.passwordHasher.VerifyPassword(input.Password, s.dummyHash)
		return result, user.ErrInvalidCredentials
	}
	if err != nil {
		s.log.Error(ctx, "Could not get user by email.", logging.Entry("err", err))
		return result, err
	}

	ok, err := s.passwordHasher.VerifyPassword(input.Password, u.PasswordHash)
	if err != nil {
		s.log.Error(
			ctx,
			"Stored password hash is malformed.",
			logging.Entry("userId", u.ID),
			logging.Entry("err", err),
		)
		return result, e.NewInvalidStateError(fmt.Sprintf("malformed password hash for user %d", u.ID))
	}
	if !ok {
		s.log.Info(ctx, "Wrong password supplied.", logging.Entry("userId", u.ID))
		return result, user.ErrInvalidCredentials
	}

	s.log.Info(ctx, "User successfully authenticated.", logging.Entry("userId", u.ID))
	return Result{User: u}, nil
}
