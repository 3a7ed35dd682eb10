package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadtrack/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	consumerPrefetch = 20
	maxBackoff       = 30 * time.Second
	sendTimeout      = 30 * time.Second
)

var errDeliveriesClosed = errors.New("deliveries channel closed")

// Consumer delivers queued account emails through a Mailer.
type Consumer struct {
	URL    string
	Queue  string
	Mailer service.Mailer
	Logger logrus.FieldLogger
}

// Run keeps a consumer attached to the broker until ctx is cancelled,
// reconnecting with exponential backoff. Failed deliveries are rejected
// without requeue.
func (c *Consumer) Run(ctx context.Context) error {
	queue := c.Queue
	if queue == "" {
		queue = DefaultEmailQueue
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.WithError(err).WithField("retry_in", backoff.String()).Warn("email consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, queue)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.WithError(err).Warn("email consumer: loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, queue string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		c.Logger.WithError(err).Warn("email consumer: set qos failed")
	}
	if err := declareQueue(ch, queue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Logger.WithField("queue", queue).Info("email consumer attached")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.Logger.WithError(err).Error("email consumer: delivery failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var event EmailEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if event.Message.To == "" {
		return errors.New("email event without recipient")
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := c.Mailer.Send(sendCtx, event.Message); err != nil {
		return err
	}
	c.Logger.WithFields(logrus.Fields{
		"to":         event.Message.To,
		"queued_for": time.Since(event.EnqueuedAt).String(),
		"subject":    event.Message.Subject,
	}).Info("email delivered")
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
