package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPEmailSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s *SMTPEmailSender) Send(ctx context.Context, message EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", message.To)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/plain", message.Text)
	if message.HTML != "" {
		m.AddAlternative("text/html", message.HTML)
	}

	dialer := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	if s.Username == "" {
		dialer.Auth = nil
	}
	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", message.To, err)
	}
	return nil
}
