package deliverpasswordresetlink

import (
	"context"
	"errors"
	"fmt"
	"resetflow/internal/core/domain/dedup"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/metrics"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	"time"

	"github.com/sethvargo/go-retry"
)

type Input struct {
	MessageID string
	Link      user.PasswordResetLink
}

type Status string

const (
	StatusDelivered Status = "delivered"
	StatusExpired   Status = "expired"
	StatusDuplicate Status = "duplicate"
)

type Result struct {
	Status Status
}

type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

type service struct {
	log          logging.Logger
	sender       user.PasswordResetLinkSender
	deduplicator dedup.Deduplicator
	recorder     metrics.Recorder
	retryPolicy  RetryPolicy
	now          func() time.Time
}

func New(
	log logging.Logger,
	sender user.PasswordResetLinkSender,
	deduplicator dedup.Deduplicator,
	recorder metrics.Recorder,
	retryPolicy RetryPolicy,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if sender == nil {
		panic(e.NewNilArgumentError("sender"))
	}
	if deduplicator == nil {
		panic(e.NewNilArgumentError("deduplicator"))
	}
	if recorder == nil {
		panic(e.NewNilArgumentError("recorder"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:          log,
		sender:       sender,
		deduplicator: deduplicator,
		recorder:     recorder,
		retryPolicy:  retryPolicy,
		now:          now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	now := s.now()
	if !now.Before(input.Link.ExpiresAt) {
		s.log.Info(
			ctx,
			"Password reset link expired before delivery, skip it.",
			logging.Entry("messageId", input.MessageID),
		)
		return Result{Status: StatusExpired}, nil
	}

	key := "password-reset-link::" + input.MessageID
	claimed, err := s.deduplicator.Claim(ctx, key, input.Link.ExpiresAt.Sub(now))
	if err != nil {
		s.log.Warning(
			ctx,
			"Could not check for duplicate delivery, sending anyway.",
			logging.Entry("messageId", input.MessageID),
			logging.Entry("err", err),
		)
		claimed = true
	}
	if !claimed {
		s.log.Info(ctx, "Password reset link was already delivered.", logging.Entry("messageId", input.MessageID))
		return Result{Status: StatusDuplicate}, nil
	}

	backoff := retry.WithMaxRetries(s.retryPolicy.MaxRetries, retry.NewExponential(s.retryPolicy.BaseDelay))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := s.sender.SendPasswordResetLink(ctx, input.Link); err != nil {
			s.log.Warning(
				ctx,
				"Password reset link delivery attempt failed.",
				logging.Entry("messageId", input.MessageID),
				logging.Entry("attempt", attempt),
				logging.Entry("err", err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		s.release(ctx, key)
		return result, err
	}
	if err != nil {
		s.release(ctx, key)
		s.recorder.PasswordResetLinkFailed(metrics.StageDelivery)
		s.log.Error(
			ctx,
			"Could not deliver password reset link.",
			logging.Entry("messageId", input.MessageID),
			logging.Entry("attempts", attempt),
			logging.Entry("err", err),
		)
		return result, fmt.Errorf("%w: %w", user.ErrEmailDeliveryFailed, err)
	}

	s.log.Info(
		ctx,
		"Password reset link has been delivered.",
		logging.Entry("messageId", input.MessageID),
	)
	return Result{Status: StatusDelivered}, nil
}

// release lets a redelivered message try again after a failed attempt.
func (s *service) release(ctx context.Context, key string) {
	if err := s.deduplicator.Release(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warning(ctx, "Could not release delivery claim.", logging.Entry("key", key), logging.Entry("err", err))
	}
}
