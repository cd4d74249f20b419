package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	IsTestMode bool   `env:"TEST_MODE" envDefault:"false"`
	Port       int    `env:"PORT" envDefault:"9090"`
	Secret     string `env:"SECRET,required"`

	PostgresqlURL  string `env:"POSTGRESQL_URL,required"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`
	RedisURL       string `env:"REDIS_URL,required"`

	RabbitmqURL                    string `env:"RABBITMQ_URL,required"`
	RabbitmqPasswordResetLinkQueue string `env:"RABBITMQ_PASSWORD_RESET_LINK_QUEUE" envDefault:"password-reset-link"`

	BcryptHasherCost           int           `env:"BCRYPT_HASHER_COST" envDefault:"10"`
	PasswordResetValidDuration time.Duration `env:"PASSWORD_RESET_VALID_DURATION" envDefault:"15m"`

	FrontendURL    string   `env:"FRONTEND_URL,required"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	AwsRegion                     string `env:"AWS_REGION" envDefault:"eu-central-1"`
	AwsAccessKey                  string `env:"AWS_ACCESS_KEY"`
	AwsSecretKey                  string `env:"AWS_SECRET_KEY"`
	AwsEmailSender                string `env:"AWS_EMAIL_SENDER"`
	AwsEmailPasswordResetTemplate string `env:"AWS_EMAIL_PASSWORD_RESET_TEMPLATE" envDefault:"PasswordReset"`

	EmailDispatchTimeout    time.Duration `env:"EMAIL_DISPATCH_TIMEOUT" envDefault:"5s"`
	EmailDeliveryMaxRetries uint64        `env:"EMAIL_DELIVERY_MAX_RETRIES" envDefault:"3"`
	EmailDeliveryBaseDelay  time.Duration `env:"EMAIL_DELIVERY_BASE_DELAY" envDefault:"500ms"`

	SentryDsn   string `env:"SENTRY_DSN"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"0"`

	ExpiredPasswordResetsCleanupPeriod time.Duration `env:"EXPIRED_PASSWORD_RESETS_CLEANUP_PERIOD" envDefault:"10m"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Secret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.BcryptHasherCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&c.PasswordResetValidDuration, validation.Min(time.Minute)),
		validation.Field(&c.FrontendURL, validation.Required, validation.By(isAbsoluteURL)),
		validation.Field(&c.EmailDispatchTimeout, validation.Min(time.Millisecond)),
		validation.Field(&c.EmailDeliveryBaseDelay, validation.Min(time.Millisecond)),
		validation.Field(&c.MetricsPort, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.ExpiredPasswordResetsCleanupPeriod, validation.Min(time.Second)),
	)
}

// FrontendBaseURL is only meaningful on a validated config.
func (c Config) FrontendBaseURL() url.URL {
	u, err := url.Parse(c.FrontendURL)
	if err != nil {
		panic(err)
	}
	return *u
}

func isAbsoluteURL(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}
