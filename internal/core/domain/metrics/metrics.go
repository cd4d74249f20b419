package metrics

import "time"

type LinkFailureStage string

const (
	// Publishing the link to the dispatch queue failed.
	StageDispatch LinkFailureStage = "dispatch"
	// The mailer could not hand the link to the e-mail provider.
	StageDelivery LinkFailureStage = "delivery"
)

type Recorder interface {
	ServiceRun(service string, err error, duration time.Duration)
	PasswordResetLinkFailed(stage LinkFailureStage)
}
