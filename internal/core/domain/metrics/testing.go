package metrics

import (
	"sync"
	"time"
)

type FakeServiceRun struct {
	Service  string
	Err      error
	Duration time.Duration
}

type FakeRecorder struct {
	Runs         []FakeServiceRun
	LinkFailures map[LinkFailureStage]int
	lock         sync.Mutex
}

func NewFakeRecorder() *FakeRecorder {
	return &FakeRecorder{LinkFailures: make(map[LinkFailureStage]int)}
}

func (r *FakeRecorder) ServiceRun(service string, err error, duration time.Duration) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Runs = append(r.Runs, FakeServiceRun{Service: service, Err: err, Duration: duration})
}

func (r *FakeRecorder) PasswordResetLinkFailed(stage LinkFailureStage) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.LinkFailures[stage]++
}

func (r *FakeRecorder) LinkFailureCount(stage LinkFailureStage) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.LinkFailures[stage]
}
