package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const inlineSendTimeout = 30 * time.Second

// InlineDispatcher delivers in a background goroutine and only logs
// failures.
type InlineDispatcher struct {
	Mailer Mailer
	Logger logrus.FieldLogger
}

func (d InlineDispatcher) Dispatch(ctx context.Context, message EmailMessage) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineSendTimeout)
	go func() {
		defer cancel()
		if err := d.Mailer.Send(sendCtx, message); err != nil {
			d.Logger.WithError(err).WithField("to", message.To).Error("email delivery failed")
			return
		}
		d.Logger.WithField("to", message.To).Debug("email delivered")
	}()
	return nil
}
