package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"resetflow/internal/config"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const (
	subject  = "Reset your password"
	htmlPart = `<p>Someone asked to reset the password of your account.</p>` +
		`<p><a href="{{passwordResetUrl}}">Choose a new password</a></p>` +
		`<p>The link expires in {{expiresInMinutes}} minutes. If it was not you, ignore this e-mail.</p>`
	textPart = "Someone asked to reset the password of your account.\n\n" +
		"Choose a new password: {{passwordResetUrl}}\n\n" +
		"The link expires in {{expiresInMinutes}} minutes. If it was not you, ignore this e-mail.\n"
)

func main() {
	deleteTemplate := flag.Bool("delete", false, "delete the template instead of creating it")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(cfg.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AwsAccessKey,
				cfg.AwsSecretKey,
				"",
			),
		),
	)
	if err != nil {
		fail(err)
	}

	svc := ses.NewFromConfig(awsCfg)
	name := cfg.AwsEmailPasswordResetTemplate

	if *deleteTemplate {
		_, err = svc.DeleteTemplate(context.Background(), &ses.DeleteTemplateInput{TemplateName: &name})
	} else {
		_, err = svc.CreateTemplate(context.Background(), &ses.CreateTemplateInput{
			Template: &types.Template{
				TemplateName: &name,
				SubjectPart:  stringPtr(subject),
				HtmlPart:     stringPtr(htmlPart),
				TextPart:     stringPtr(textPart),
			},
		})
	}
	if err != nil {
		fail(err)
	}

	fmt.Printf("Template %s: done\n", name)
}

func stringPtr(s string) *string {
	return &s
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
