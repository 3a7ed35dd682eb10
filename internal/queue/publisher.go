package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadtrack/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultDialTimeout = 5 * time.Second

// Publisher dispatches account emails by publishing them to a durable
// queue. It dials per publish; email volume is a handful per signup.
// DialTimeout bounds how long a request waits on an unreachable broker.
type Publisher struct {
	URL         string
	Queue       string
	DialTimeout time.Duration
}

func NewPublisher(url string, queue string) *Publisher {
	if queue == "" {
		queue = DefaultEmailQueue
	}
	return &Publisher{URL: url, Queue: queue, DialTimeout: defaultDialTimeout}
}

func (p *Publisher) Dispatch(ctx context.Context, message service.EmailMessage) error {
	publishing, err := newPublishing(message, time.Now().UTC())
	if err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout()),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareQueue(ch, p.Queue); err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, publishing); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *Publisher) dialTimeout() time.Duration {
	if p.DialTimeout > 0 {
		return p.DialTimeout
	}
	return defaultDialTimeout
}

func newPublishing(message service.EmailMessage, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(EmailEvent{Message: message, EnqueuedAt: now})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal email event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", name, err)
	}
	return nil
}
