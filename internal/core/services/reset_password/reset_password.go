package resetpassword

import (
	"context"
	"errors"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	"time"
)

type Input struct {
	Token    user.PasswordResetToken
	Password user.RawPassword
}

type Result struct{}

type service struct {
	log              logging.Logger
	userRepository   user.UserRepository
	passwordHasher   user.PasswordHasher
	passwordResetter user.PasswordResetter
	now              func() time.Time
}

func New(
	log logging.Logger,
	userRepository user.UserRepository,
	passwordHasher user.PasswordHasher,
	passwordResetter user.PasswordResetter,
	now func() time.Time,
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
	if passwordResetter == nil {
		panic(e.NewNilArgumentError("passwordResetter"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:              log,
		userRepository:   userRepository,
		passwordHasher:   passwordHasher,
		passwordResetter: passwordResetter,
		now:              now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if err := input.Password.Validate(); err != nil {
		return result, err
	}

	tokenHash := s.passwordResetter.HashToken(input.Token)
	u, err := s.userRepository.GetByPasswordResetTokenHash(ctx, tokenHash, s.now())
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, user.ErrUserDoesNotExist) {
		s.log.Info(ctx, "Invalid or expired password reset token presented.")
		return result, user.ErrInvalidPasswordResetToken
	}
	if err != nil {
		s.log.Error(ctx, "Could not get user by password reset token.", logging.Entry("err", err))
		return result, err
	}

	passwordHash, err := s.passwordHasher.HashPassword(input.Password)
	if err != nil {
		s.log.Error(ctx, "Could not hash password.", logging.Entry("userId", u.ID), logging.Entry("err", err))
		return result, err
	}

	err = s.userRepository.ResetPassword(ctx, user.ResetPasswordInput{
		UserID:       u.ID,
		TokenHash:    tokenHash,
		PasswordHash: passwordHash,
		At:           s.now(),
	})
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, user.ErrInvalidPasswordResetToken) {
		s.log.Info(ctx, "Password reset token was consumed concurrently.", logging.Entry("userId", u.ID))
		return result, err
	}
	if err != nil {
		s.log.Error(ctx, "Could not reset password.", logging.Entry("userId", u.ID), logging.Entry("err", err))
		return result, err
	}

	s.log.Info(ctx, "Password has been reset.", logging.Entry("userId", u.ID))
	return result, nil
}
