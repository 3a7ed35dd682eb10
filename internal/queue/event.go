// Package queue moves account emails through RabbitMQ so the API can
// return before delivery completes.
package queue

import (
	"time"

	"leadtrack/internal/service"
)

const DefaultEmailQueue = "leadtrack.emails"

// EmailEvent is the message body published to the email queue.
type EmailEvent struct {
	Message    service.EmailMessage `json:"message"`
	EnqueuedAt time.Time            `json:"enqueued_at"`
}
