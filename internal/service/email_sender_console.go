package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ConsoleEmailSender writes messages to the log instead of delivering them.
type ConsoleEmailSender struct {
	Logger logrus.FieldLogger
}

func (s ConsoleEmailSender) Send(_ context.Context, message EmailMessage) error {
	s.Logger.WithFields(logrus.Fields{
		"to":      message.To,
		"subject": message.Subject,
	}).Info(message.Text)
	return nil
}
