package email

import (
	"context"
	"encoding/json"
	"time"

	"resetflow/internal/core/domain/user"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/golang-module/carbon/v2"
)

type sesClient interface {
	SendTemplatedEmail(
		ctx context.Context,
		params *ses.SendTemplatedEmailInput,
		optFns ...func(*ses.Options),
	) (*ses.SendTemplatedEmailOutput, error)
}

type EmailSender struct {
	ses sesClient
	// This address must be verified with Amazon SES.
	sender                string
	passwordResetTemplate string
	now                   func() time.Time
}

func NewEmailSender(
	awsConfig aws.Config,
	sender string,
	passwordResetTemplate string,
	now func() time.Time,
) *EmailSender {
	return newEmailSender(ses.NewFromConfig(awsConfig), sender, passwordResetTemplate, now)
}

func newEmailSender(
	client sesClient,
	sender string,
	passwordResetTemplate string,
	now func() time.Time,
) *EmailSender {
	return &EmailSender{
		ses:                   client,
		sender:                sender,
		passwordResetTemplate: passwordResetTemplate,
		now:                   now,
	}
}

func (s *EmailSender) SendPasswordResetLink(ctx context.Context, link user.PasswordResetLink) error {
	templateParamsBytes, err := json.Marshal(
		passwordResetTemplateParams{
			PasswordResetUrl: link.URL.String(),
			ExpiresInMinutes: s.minutesLeft(link.ExpiresAt),
		},
	)
	if err != nil {
		return err
	}
	templateParams := string(templateParamsBytes)

	email := string(link.Email)
	_, err = s.ses.SendTemplatedEmail(
		ctx,
		&ses.SendTemplatedEmailInput{
			Source: &s.sender,
			Destination: &types.Destination{
				CcAddresses: []string{},
				ToAddresses: []string{email},
			},
			Template:     &s.passwordResetTemplate,
			TemplateData: &templateParams,
		},
	)
	return err
}

// minutesLeft rounds up, so a link is never announced as shorter lived than it is.
func (s *EmailSender) minutesLeft(expiresAt time.Time) int64 {
	seconds := carbon.Time2Carbon(s.now()).DiffInSeconds(carbon.Time2Carbon(expiresAt))
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}

type passwordResetTemplateParams struct {
	PasswordResetUrl string `json:"passwordResetUrl"`
	ExpiresInMinutes int64  `json:"expiresInMinutes"`
}
