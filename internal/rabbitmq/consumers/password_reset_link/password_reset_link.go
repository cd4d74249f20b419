package passwordresetlink

import (
	"context"
	"errors"
	"net/url"
	"resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	deliverpasswordresetlink "resetflow/internal/core/services/deliver_password_reset_link"
	"resetflow/internal/rabbitmq/schema"

	"github.com/rabbitmq/amqp091-go"
)

type consumer interface {
	Consume(
		queue, consumer string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp091.Table,
	) (<-chan amqp091.Delivery, error)
}

type Consumer struct {
	log     logging.Logger
	channel consumer
	queue   string
	service services.Service[deliverpasswordresetlink.Input, deliverpasswordresetlink.Result]
}

func New(
	log logging.Logger,
	channel consumer,
	queue string,
	service services.Service[deliverpasswordresetlink.Input, deliverpasswordresetlink.Result],
) *Consumer {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	if queue == "" {
		panic("queue name must not be empty")
	}
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}

	return &Consumer{log: log, channel: channel, queue: queue, service: service}
}

// Consume handles deliveries until ctx is done or the delivery channel closes.
// The returned channel is closed once the last delivery has been handled.
func (c *Consumer) Consume(ctx context.Context) (<-chan struct{}, error) {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		c.log.Error(ctx, "Could not start consuming.", logging.Entry("err", err))
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				c.Handle(ctx, delivery)
			}
		}
	}()
	return done, nil
}

func (c *Consumer) Handle(ctx context.Context, delivery amqp091.Delivery) {
	message := &schema.PasswordResetLink{}
	if err := message.Unmarshal(delivery.Body); err != nil {
		c.log.Error(
			ctx,
			"Could not unmarshal password reset link.",
			logging.Entry("messageId", delivery.MessageId),
			logging.Entry("err", err),
		)
		c.Ack(ctx, delivery)
		return
	}
	link, err := url.Parse(message.Link)
	if err != nil {
		c.log.Error(
			ctx,
			"Password reset link is not a valid URL.",
			logging.Entry("messageId", message.ID),
		)
		c.Ack(ctx, delivery)
		return
	}

	result, err := c.service.Run(ctx, deliverpasswordresetlink.Input{
		MessageID: message.ID,
		Link: user.PasswordResetLink{
			Email:     common.NewEmail(message.Email),
			URL:       *link,
			ExpiresAt: message.ExpiresAt,
		},
	})
	if errors.Is(err, context.Canceled) {
		c.Nack(ctx, delivery)
		return
	}
	if err != nil {
		c.log.Error(
			ctx,
			"Could not deliver password reset link, service returned an error.",
			logging.Entry("messageId", message.ID),
			logging.Entry("err", err),
		)
	} else {
		c.log.Info(
			ctx,
			"Password reset link message handled.",
			logging.Entry("messageId", message.ID),
			logging.Entry("status", result.Status),
		)
	}
	c.Ack(ctx, delivery)
}

func (c *Consumer) Ack(ctx context.Context, delivery amqp091.Delivery) {
	if err := delivery.Ack(false); err != nil {
		c.log.Error(ctx, "Could not ACK AMQP message.", logging.Entry("err", err))
	}
}

// Nack puts the message back, so another mailer can pick it up.
func (c *Consumer) Nack(ctx context.Context, delivery amqp091.Delivery) {
	if err := delivery.Nack(false, true); err != nil {
		c.log.Error(ctx, "Could not NACK AMQP message.", logging.Entry("err", err))
	}
}
