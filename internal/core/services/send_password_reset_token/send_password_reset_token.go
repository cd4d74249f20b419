package sendpasswordresettoken

import (
	"context"
	"errors"
	"net/url"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	"time"

	"github.com/golang-module/carbon/v2"
)

// ConfirmationMessage is returned whether or not the email belongs to a user.
const ConfirmationMessage = "If this email exists, a reset link has been sent"

type Input struct {
	Email c.Email
}

type Result struct {
	// Link and Token are present only when the email belongs to a user.
	Link  c.Optional[user.PasswordResetLink]
	Token c.Optional[user.PasswordResetToken]
}

type service struct {
	log              logging.Logger
	userRepository   user.UserRepository
	passwordResetter user.PasswordResetter
	frontendURL      url.URL
	validFor         time.Duration
	now              func() time.Time
}

func New(
	log logging.Logger,
	userRepository user.UserRepository,
	passwordResetter user.PasswordResetter,
	frontendURL url.URL,
	validFor time.Duration,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if userRepository == nil {
		panic(e.NewNilArgumentError("userRepository"))
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
		passwordResetter: passwordResetter,
		frontendURL:      frontendURL,
		validFor:         validFor,
		now:              now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	// The token is generated and hashed for unknown emails too, so both
	// branches do the same work.
	token, err := s.passwordResetter.GenerateToken()
	if err != nil {
		s.log.Error(ctx, "Could not generate password reset token.", logging.Entry("err", err))
		return result, err
	}
	tokenHash := s.passwordResetter.HashToken(token)

	u, err := s.userRepository.GetByEmail(ctx, input.Email)
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, user.ErrUserDoesNotExist) {
		s.log.Info(ctx, "Password reset requested for unknown email.")
		return result, nil
	}
	if err != nil {
		s.log.Error(
			ctx,
			"Could not get user by email.",
			logging.Entry("err", err),
		)
		return result, err
	}

	expiresAt := carbon.Time2Carbon(s.now()).AddSeconds(int(s.validFor / time.Second)).Carbon2Time()
	err = s.userRepository.SetPasswordReset(ctx, user.SetPasswordResetInput{
		UserID:        u.ID,
		PasswordReset: user.PasswordReset{TokenHash: tokenHash, ExpiresAt: expiresAt},
	})
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if err != nil {
		s.log.Error(
			ctx,
			"Could not store password reset token.",
			logging.Entry("userId", u.ID),
			logging.Entry("err", err),
		)
		return result, err
	}

	link := s.frontendURL.JoinPath("reset-password", string(token))
	s.log.Info(
		ctx,
		"Password reset token has been issued.",
		logging.Entry("userId", u.ID),
		logging.Entry("expiresAt", expiresAt),
	)
	return Result{
		Link:  c.Some(user.PasswordResetLink{Email: u.Email, URL: *link, ExpiresAt: expiresAt}),
		Token: c.Some(token),
	}, nil
}
