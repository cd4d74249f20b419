package services

import (
	"resetflow/internal/app/deps"
	"resetflow/internal/core/services"
	clearexpiredpasswordresets "resetflow/internal/core/services/clear_expired_password_resets"
	deliverpasswordresetlink "resetflow/internal/core/services/deliver_password_reset_link"
	"resetflow/internal/core/services/instrumentation"
	loginwithemail "resetflow/internal/core/services/log_in_with_email"
	resetpassword "resetflow/internal/core/services/reset_password"
	sendpasswordresettoken "resetflow/internal/core/services/send_password_reset_token"
	signupwithemail "resetflow/internal/core/services/sign_up_with_email"
)

type Services struct {
	SignUpWithEmail            services.Service[signupwithemail.Input, signupwithemail.Result]
	LogInWithEmail             services.Service[loginwithemail.Input, loginwithemail.Result]
	SendPasswordResetToken     services.Service[sendpasswordresettoken.Input, sendpasswordresettoken.Result]
	ResetPassword              services.Service[resetpassword.Input, resetpassword.Result]
	DeliverPasswordResetLink   services.Service[deliverpasswordresetlink.Input, deliverpasswordresetlink.Result]
	ClearExpiredPasswordResets services.Service[clearexpiredpasswordresets.Input, clearexpiredpasswordresets.Result]

	passwordResetLinkDispatcher *sendpasswordresettoken.ServiceWithPasswordResetLinkSending
}

func InitServices(deps *deps.Deps) *Services {
	s := &Services{}

	s.SignUpWithEmail = instrumentation.WithMetrics(
		deps.Metrics,
		"sign_up_with_email",
		signupwithemail.New(
			deps.Logger,
			deps.UnitOfWork,
			deps.PasswordHasher,
			deps.Now,
		),
	)
	s.LogInWithEmail = instrumentation.WithMetrics(
		deps.Metrics,
		"log_in_with_email",
		loginwithemail.New(
			deps.Logger,
			deps.UserRepository,
			deps.PasswordHasher,
		),
	)

	s.passwordResetLinkDispatcher = sendpasswordresettoken.NewWithPasswordResetLinkSending(
		deps.Logger,
		deps.PasswordResetLinkPublisher,
		deps.Metrics,
		deps.Config.EmailDispatchTimeout,
		sendpasswordresettoken.New(
			deps.Logger,
			deps.UserRepository,
			deps.PasswordResetter,
			deps.Config.FrontendBaseURL(),
			deps.Config.PasswordResetValidDuration,
			deps.Now,
		),
	)
	s.SendPasswordResetToken = instrumentation.WithMetrics[sendpasswordresettoken.Input, sendpasswordresettoken.Result](
		deps.Metrics,
		"send_password_reset_token",
		s.passwordResetLinkDispatcher,
	)
	s.ResetPassword = instrumentation.WithMetrics(
		deps.Metrics,
		"reset_password",
		resetpassword.New(
			deps.Logger,
			deps.UserRepository,
			deps.PasswordHasher,
			deps.PasswordResetter,
			deps.Now,
		),
	)

	s.DeliverPasswordResetLink = instrumentation.WithMetrics(
		deps.Metrics,
		"deliver_password_reset_link",
		deliverpasswordresetlink.New(
			deps.Logger,
			deps.PasswordResetLinkMailer,
			deps.Deduplicator,
			deps.Metrics,
			deliverpasswordresetlink.RetryPolicy{
				MaxRetries: deps.Config.EmailDeliveryMaxRetries,
				BaseDelay:  deps.Config.EmailDeliveryBaseDelay,
			},
			deps.Now,
		),
	)
	s.ClearExpiredPasswordResets = instrumentation.WithMetrics(
		deps.Metrics,
		"clear_expired_password_resets",
		clearexpiredpasswordresets.New(
			deps.Logger,
			deps.UserRepository,
			deps.Now,
		),
	)

	return s
}

// Wait blocks until every password reset link handed off in the background
// has been dispatched or given up on.
func (s *Services) Wait() {
	s.passwordResetLinkDispatcher.Wait()
}
