package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	resend "github.com/resend/resend-go/v2"
)

type ResendEmailSender struct {
	Client *resend.Client
	From   string
}

func NewResendEmailSender(apiKey string, from string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		Client: resend.NewClient(apiKey),
		From:   from,
	}
}

func (s *ResendEmailSender) Send(ctx context.Context, message EmailMessage) error {
	if s.Client == nil {
		return errors.New("email sender not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.Client.Emails.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{message.To},
		Subject: message.Subject,
		Html:    message.HTML,
		Text:    message.Text,
	})
	if err != nil {
		return fmt.Errorf("resend email failed: %w", err)
	}
	return nil
}
