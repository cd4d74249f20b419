package instrumentation

import (
	"context"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/metrics"
	"resetflow/internal/core/services"
	"time"
)

type serviceWithMetrics[T any, S any] struct {
	recorder metrics.Recorder
	name     string
	inner    services.Service[T, S]
}

// WithMetrics records the outcome and duration of every run of inner under name.
func WithMetrics[T any, S any](
	recorder metrics.Recorder,
	name string,
	inner services.Service[T, S],
) services.Service[T, S] {
	if recorder == nil {
		panic(e.NewNilArgumentError("recorder"))
	}
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	return &serviceWithMetrics[T, S]{recorder: recorder, name: name, inner: inner}
}

func (s *serviceWithMetrics[T, S]) Run(ctx context.Context, input T) (S, error) {
	started := time.Now()
	result, err := s.inner.Run(ctx, input)
	s.recorder.ServiceRun(s.name, err, time.Since(started))
	return result, err
}
