package consumers

import (
	"context"
	"resetflow/internal/app/deps"
	"resetflow/internal/app/services"
	dl "resetflow/internal/core/domain/logging"
	passwordresetlink "resetflow/internal/rabbitmq/consumers/password_reset_link"
)

func initPasswordResetLinkConsumer(ctx context.Context, deps *deps.Deps, services *services.Services) func() {
	rabbitmqChannel, err := deps.Rabbitmq.Channel()
	if err != nil {
		deps.Logger.Error(ctx, "Could not create RabbitMQ channel.", dl.Entry("err", err))
		panic(err)
	}

	queue := deps.Config.RabbitmqPasswordResetLinkQueue
	if err := rabbitmqChannel.DeclareQueue(queue); err != nil {
		deps.Logger.Error(ctx, "Could not declare RabbitMQ queue.", dl.Entry("err", err), dl.Entry("queue", queue))
		panic(err)
	}
	if err := rabbitmqChannel.Qos(1, 0, false); err != nil {
		deps.Logger.Error(ctx, "Could not set RabbitMQ prefetch.", dl.Entry("err", err))
		panic(err)
	}

	consumer := passwordresetlink.New(deps.Logger, rabbitmqChannel, queue, services.DeliverPasswordResetLink)
	done, err := consumer.Consume(ctx)
	if err != nil {
		deps.Logger.Error(
			ctx,
			"Could not start RabbitMQ consuming.",
			dl.Entry("err", err),
			dl.Entry("queue", queue),
		)
		panic(err)
	}

	deps.Logger.Info(ctx, "Consumer has started.", dl.Entry("queue", queue))
	return func() {
		<-done
		rabbitmqChannel.Close()
		deps.Logger.Info(context.Background(), "Consumer has stopped.", dl.Entry("queue", queue))
	}
}

// InitConsumers starts every consumer. They stop taking deliveries once ctx
// is done; the returned func waits for the in-flight ones.
func InitConsumers(ctx context.Context, deps *deps.Deps, services *services.Services) func() {
	shutdownPasswordResetLinkConsumer := initPasswordResetLinkConsumer(ctx, deps, services)

	return func() {
		shutdownPasswordResetLinkConsumer()
	}
}
