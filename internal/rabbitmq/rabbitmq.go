package rabbitmq

import (
	"context"
	"fmt"
	"resetflow/internal/core/domain/logging"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
)

const delay = 3 * time.Second // reconnect after delay

// Connection amqp.Connection wrapper
type Connection struct {
	*amqp.Connection
	log logging.Logger
}

// Channel wrap amqp.Connection.Channel, get a auto reconnect channel
func (c *Connection) Channel() (*Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}

	channel := &Channel{
		Channel: ch,
		stop:    make(chan struct{}),
		log:     c.log,
	}

	go func() {
		for {
			reason, ok := <-channel.Channel.NotifyClose(make(chan *amqp.Error))
			// exit this goroutine if closed by developer
			if !ok || channel.IsClosed() {
				channel.Close() // close again, ensure closed flag set when connection closed
				break
			}

			c.log.Warning(context.Background(), "RabbitMQ channel closed.", logging.Entry("reason", *reason))
			reconnect(c.log, "Channel recreate", func() error {
				ch, err := c.Connection.Channel()
				if err != nil {
					return err
				}
				channel.Channel = ch
				return nil
			})
		}
	}()

	return channel, nil
}

func Dial(url string, log logging.Logger) (*Connection, error) {
	if log == nil {
		return nil, fmt.Errorf("log argument must not be nil")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	connection := &Connection{
		Connection: conn,
		log:        log,
	}

	go func() {
		for {
			reason, ok := <-connection.Connection.NotifyClose(make(chan *amqp.Error))
			if !ok {
				log.Info(context.Background(), "RabbitMQ connection closed.")
				break
			}

			log.Warning(context.Background(), "RabbitMQ connection closed.", logging.Entry("reason", *reason))
			reconnect(log, "RabbitMQ reconnect", func() error {
				conn, err := amqp.Dial(url)
				if err != nil {
					return err
				}
				connection.Connection = conn
				return nil
			})
		}
	}()

	return connection, nil
}

// reconnect retries f until it succeeds, backing off exponentially up to a
// minute between attempts.
func reconnect(log logging.Logger, what string, f func() error) {
	backoff := retry.WithCappedDuration(time.Minute, retry.NewExponential(delay))
	retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		if err := f(); err != nil {
			log.Error(ctx, what+" failed.", logging.Entry("err", err))
			return retry.RetryableError(err)
		}
		log.Info(ctx, what+" success.")
		return nil
	})
}

// Channel amqp.Channel wapper
type Channel struct {
	*amqp.Channel
	closed int32
	stop   chan struct{}
	log    logging.Logger
}

// IsClosed indicate closed by developer
func (ch *Channel) IsClosed() bool {
	return (atomic.LoadInt32(&ch.closed) == 1)
}

// Close ensure closed flag set
func (ch *Channel) Close() error {
	if !atomic.CompareAndSwapInt32(&ch.closed, 0, 1) {
		return amqp.ErrClosed
	}
	close(ch.stop)

	return ch.Channel.Close()
}

// DeclareQueue declares a durable queue, so messages survive a broker restart.
func (ch *Channel) DeclareQueue(name string) error {
	_, err := ch.Channel.QueueDeclare(name, true, false, false, false, nil)
	return err
}

// Consume wrap amqp.Channel.Consume, the returned delivery will end only when channel closed by developer
func (ch *Channel) Consume(
	queue, consumer string,
	autoAck, exclusive, noLocal, noWait bool,
	args amqp.Table,
) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)

	go func() {
		defer close(deliveries)
		for {
			d, err := ch.Channel.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
			if err != nil {
				ch.log.Error(context.Background(), "Consume failed.", logging.Entry("err", err))
				if !wait(ch.stop) {
					return
				}
				continue
			}

			if !forward(d, deliveries, ch.stop) {
				ch.log.Info(context.Background(), "Channel is closed, stop consuming.", logging.Entry("queue", queue))
				return
			}

			// wait before IsClosed call. closed flag may not be set yet.
			wait(ch.stop)

			if ch.IsClosed() {
				ch.log.Info(context.Background(), "Channel is closed, stop consuming.", logging.Entry("queue", queue))
				break
			}
		}
	}()

	return deliveries, nil
}

// forward relays d into deliveries until d is drained. It returns false when
// stop is closed first, so nobody is left blocked on an unread delivery.
func forward(d <-chan amqp.Delivery, deliveries chan<- amqp.Delivery, stop <-chan struct{}) bool {
	for {
		select {
		case <-stop:
			return false
		case msg, ok := <-d:
			if !ok {
				return true
			}
			select {
			case deliveries <- msg:
			case <-stop:
				return false
			}
		}
	}
}

// wait sleeps for the reconnect delay. It returns false if stop is closed
// before the delay elapses.
func wait(stop <-chan struct{}) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}
