package sendpasswordresettoken

import (
	"context"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/metrics"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	"sync"
	"time"
)

// ServiceWithPasswordResetLinkSending hands the issued link to the sender in
// the background. The request never waits for the sender and never fails
// because of it.
type ServiceWithPasswordResetLinkSending struct {
	log             logging.Logger
	sender          user.PasswordResetLinkSender
	recorder        metrics.Recorder
	dispatchTimeout time.Duration
	inner           services.Service[Input, Result]
	wg              sync.WaitGroup
}

func NewWithPasswordResetLinkSending(
	log logging.Logger,
	sender user.PasswordResetLinkSender,
	recorder metrics.Recorder,
	dispatchTimeout time.Duration,
	inner services.Service[Input, Result],
) *ServiceWithPasswordResetLinkSending {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if sender == nil {
		panic(e.NewNilArgumentError("sender"))
	}
	if recorder == nil {
		panic(e.NewNilArgumentError("recorder"))
	}
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	return &ServiceWithPasswordResetLinkSending{
		log:             log,
		sender:          sender,
		recorder:        recorder,
		dispatchTimeout: dispatchTimeout,
		inner:           inner,
	}
}

func (s *ServiceWithPasswordResetLinkSending) Run(ctx context.Context, input Input) (result Result, err error) {
	result, err = s.inner.Run(ctx, input)
	if err != nil || !result.Link.IsPresent {
		return result, err
	}

	link := result.Link.Value
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatch(context.WithoutCancel(ctx), link)
	}()
	return result, nil
}

func (s *ServiceWithPasswordResetLinkSending) dispatch(ctx context.Context, link user.PasswordResetLink) {
	ctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()

	if err := s.sender.SendPasswordResetLink(ctx, link); err != nil {
		s.recorder.PasswordResetLinkFailed(metrics.StageDispatch)
		s.log.Error(
			ctx,
			"Could not dispatch password reset link.",
			logging.Entry("err", err),
		)
		return
	}
	s.log.Info(ctx, "Password reset link has been dispatched.")
}

// Wait blocks until every dispatch started so far has finished.
func (s *ServiceWithPasswordResetLinkSending) Wait() {
	s.wg.Wait()
}
