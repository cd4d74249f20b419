package deps

import (
	"context"
	"fmt"
	"resetflow/internal/config"
	"resetflow/internal/core/domain/dedup"
	dl "resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/metrics"
	duow "resetflow/internal/core/domain/unit_of_work"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/db/migrations"
	uow "resetflow/internal/db/unit_of_work"
	dbuser "resetflow/internal/db/user"
	"resetflow/internal/implementations/deduplicator"
	"resetflow/internal/implementations/email"
	"resetflow/internal/implementations/logging"
	prometheusmetrics "resetflow/internal/implementations/metrics"
	passwordhasher "resetflow/internal/implementations/password_hasher"
	passwordresetter "resetflow/internal/implementations/password_resetter"
	"resetflow/internal/rabbitmq"
	passwordresetlink "resetflow/internal/rabbitmq/publishers/password_reset_link"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Deps struct {
	Config    *config.Config
	AwsConfig aws.Config
	Logger    dl.Logger

	DB              *pgxpool.Pool
	Redis           *redis.Client
	Rabbitmq        *rabbitmq.Connection
	MetricsRegistry *prometheus.Registry

	Now func() time.Time

	UnitOfWork     duow.UnitOfWork
	UserRepository user.UserRepository

	Metrics      metrics.Recorder
	Deduplicator dedup.Deduplicator

	PasswordHasher   user.PasswordHasher
	PasswordResetter user.PasswordResetter

	// PasswordResetLinkPublisher queues links for the mailer,
	// PasswordResetLinkMailer hands them to the e-mail provider.
	PasswordResetLinkPublisher user.PasswordResetLinkSender
	PasswordResetLinkMailer    user.PasswordResetLinkSender
}

func InitDeps() (*Deps, func()) {
	deps := &Deps{}

	deps.initConfig()
	flushSentry := deps.initSentry()
	closeLogger := deps.initLogger()
	deps.initAwsConfig()
	deps.initMetrics()

	closePgxPool := deps.initPgxPool()
	closeRedisClient := deps.initRedisClient()
	closeRabbitmqConn := deps.initRabbitmqConnection()

	deps.Now = func() time.Time { return time.Now().UTC() }

	deps.UnitOfWork = uow.NewPgxUnitOfWork(deps.DB)
	deps.UserRepository = dbuser.NewPgxRepository(deps.DB)
	deps.Deduplicator = deduplicator.NewRedis(deps.Redis)

	deps.PasswordHasher = passwordhasher.NewBcrypt(deps.Config.Secret, deps.Config.BcryptHasherCost)
	deps.PasswordResetter = passwordresetter.NewSHA256()
	deps.PasswordResetLinkMailer = email.NewEmailSender(
		deps.AwsConfig,
		deps.Config.AwsEmailSender,
		deps.Config.AwsEmailPasswordResetTemplate,
		deps.Now,
	)

	closePasswordResetLinkPublisher := deps.initPasswordResetLinkPublisher()

	return deps, func() {
		closeFuncs := []func(){
			closePasswordResetLinkPublisher,
			closeRabbitmqConn,
			closeRedisClient,
			closePgxPool,
		}

		var wg sync.WaitGroup
		wg.Add(len(closeFuncs))
		for _, closeFunc := range closeFuncs {
			closeFunc := closeFunc
			go func() {
				closeFunc()
				wg.Done()
			}()
		}

		wg.Wait()
		closeLogger()
		flushSentry()
	}
}

func (deps *Deps) initConfig() {
	config, err := config.Load()
	if err != nil {
		panic(err)
	}
	deps.Config = config
}

func (deps *Deps) initAwsConfig() {
	cfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(deps.Config.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				deps.Config.AwsAccessKey,
				deps.Config.AwsSecretKey,
				"",
			),
		),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(
				retry.AddWithMaxBackoffDelay(retry.NewStandard(), time.Second*5),
				3,
			)
		}),
	)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not load AWS config.", dl.Entry("err", err))
		panic(err)
	}
	deps.AwsConfig = cfg
}

func (deps *Deps) initLogger() func() {
	var logger *logging.ZapLogger
	if deps.Config.SentryDsn != "" {
		logger = logging.NewZapLogger(logging.WithSentry(sentry.CurrentHub()))
	} else {
		logger = logging.NewZapLogger()
	}
	deps.Logger = logger
	return func() { logger.Sync() }
}

func (deps *Deps) initMetrics() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.MetricsRegistry = registry
	deps.Metrics = prometheusmetrics.NewPrometheus(registry)
}

func (deps *Deps) initPgxPool() func() {
	if deps.Config.MigrateOnStart {
		if err := migrations.Apply(deps.Config.PostgresqlURL); err != nil {
			deps.Logger.Error(context.Background(), "Could not apply DB migrations.", dl.Entry("err", err))
			panic(err)
		}
		deps.Logger.Info(context.Background(), "DB migrations applied.")
	}

	db, err := pgxpool.Connect(context.Background(), deps.Config.PostgresqlURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to DB.", dl.Entry("err", err))
		panic(err)
	}
	deps.DB = db
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down DB connection.")
		db.Close()
		deps.Logger.Info(context.Background(), "DB connection shut down.")
	}
}

func (deps *Deps) initRedisClient() func() {
	redisOpt, err := redis.ParseURL(deps.Config.RedisURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to Redis.", dl.Entry("err", err))
		panic(err)
	}
	redisClient := redis.NewClient(redisOpt)
	deps.Redis = redisClient
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down Redis client.")
		redisClient.Close()
		deps.Logger.Info(context.Background(), "Redis client shut down.")
	}
}

func (deps *Deps) initRabbitmqConnection() func() {
	rabbitmqConnection, err := rabbitmq.Dial(deps.Config.RabbitmqURL, deps.Logger)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to RabbitMQ.", dl.Entry("err", err))
		panic("could not connect to RabbitMQ")
	}
	deps.Rabbitmq = rabbitmqConnection
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down RabbitMQ connection.")
		rabbitmqConnection.Close()
		deps.Logger.Info(context.Background(), "RabbitMQ connection shut down.")
	}
}

func (deps *Deps) initPasswordResetLinkPublisher() func() {
	rabbitmqChannel, err := deps.Rabbitmq.Channel()
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ channel.", dl.Entry("err", err))
		panic(err)
	}

	queue := deps.Config.RabbitmqPasswordResetLinkQueue
	if err := rabbitmqChannel.DeclareQueue(queue); err != nil {
		deps.Logger.Error(
			context.Background(),
			"Could not declare RabbitMQ queue.",
			dl.Entry("err", err),
			dl.Entry("queue", queue),
		)
		panic(err)
	}

	deps.PasswordResetLinkPublisher = passwordresetlink.NewRabbitMQ(deps.Logger, rabbitmqChannel, queue)

	return func() {
		deps.Logger.Info(context.Background(), "Shutting down password reset link publisher.")
		rabbitmqChannel.Close()
		deps.Logger.Info(context.Background(), "Password reset link publisher shut down.")
	}
}

func (deps *Deps) initSentry() func() {
	if deps.Config.SentryDsn == "" {
		return func() {}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              deps.Config.SentryDsn,
		TracesSampleRate: 0.01,
	})
	if err != nil {
		panic(fmt.Sprintf("could not init Sentry: %v\n", err))
	}
	return func() {
		sentry.Flush(5 * time.Second)
	}
}
