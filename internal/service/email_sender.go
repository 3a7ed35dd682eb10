package service

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	EmailBackendConsole = "console"
	EmailBackendSMTP    = "smtp"
	EmailBackendResend  = "resend"
)

type MailerConfig struct {
	Backend      string
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	ResendAPIKey string
}

// NewMailer picks the delivery backend by name.
func NewMailer(cfg MailerConfig, logger logrus.FieldLogger) (Mailer, error) {
	switch cfg.Backend {
	case EmailBackendConsole, "":
		return ConsoleEmailSender{Logger: logger}, nil
	case EmailBackendSMTP:
		return &SMTPEmailSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		}, nil
	case EmailBackendResend:
		return NewResendEmailSender(cfg.ResendAPIKey, cfg.From), nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.Backend)
	}
}
