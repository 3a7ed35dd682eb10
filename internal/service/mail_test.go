package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadtrack/internal/entity"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTokenEmail(t *testing.T) {
	user := &entity.User{Email: "grace@navy.mil", Username: "ghopper", FirstName: "Grace", LastName: "<Hopper>"}

	message, err := renderTokenEmail(user, entity.TokenTypeResetPassword, "LeadTrack", "http://x.test/accounts/reset-password/abc/t-1-2/")
	require.NoError(t, err)
	assert.Equal(t, "grace@navy.mil", message.To)
	assert.Equal(t, "Reset Your Password", message.Subject)
	assert.Contains(t, message.Text, "http://x.test/accounts/reset-password/abc/t-1-2/")
	assert.Contains(t, message.HTML, "&lt;Hopper&gt;")
	assert.NotContains(t, message.HTML, "<Hopper>")

	_, err = renderTokenEmail(user, entity.TokenType("other"), "LeadTrack", "x")
	assert.Error(t, err)
}

type chanMailer struct {
	sent chan EmailMessage
	err  error
}

func (m chanMailer) Send(ctx context.Context, message EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sent <- message
	return m.err
}

func TestInlineDispatcherOutlivesRequestContext(t *testing.T) {
	mailer := chanMailer{sent: make(chan EmailMessage, 1)}
	log, _ := test.NewNullLogger()
	dispatcher := InlineDispatcher{Mailer: mailer, Logger: log}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, dispatcher.Dispatch(ctx, EmailMessage{To: "grace@navy.mil"}))
	cancel()

	select {
	case message := <-mailer.sent:
		assert.Equal(t, "grace@navy.mil", message.To)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestInlineDispatcherLogsFailure(t *testing.T) {
	mailer := chanMailer{sent: make(chan EmailMessage, 1), err: errors.New("relay refused")}
	log, hook := test.NewNullLogger()

	require.NoError(t, InlineDispatcher{Mailer: mailer, Logger: log}.Dispatch(context.Background(), EmailMessage{To: "a@b.c"}))
	<-mailer.sent

	assert.Eventually(t, func() bool {
		entry := hook.LastEntry()
		return entry != nil && entry.Message == "email delivery failed"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewMailer(t *testing.T) {
	log, _ := test.NewNullLogger()

	mailer, err := NewMailer(MailerConfig{Backend: EmailBackendSMTP, SMTPHost: "mail", SMTPPort: 25}, log)
	require.NoError(t, err)
	assert.IsType(t, &SMTPEmailSender{}, mailer)

	mailer, err = NewMailer(MailerConfig{Backend: EmailBackendResend, ResendAPIKey: "re_test", From: "a@b.c"}, log)
	require.NoError(t, err)
	assert.IsType(t, &ResendEmailSender{}, mailer)

	mailer, err = NewMailer(MailerConfig{}, log)
	require.NoError(t, err)
	require.NoError(t, mailer.Send(context.Background(), EmailMessage{To: "a@b.c", Subject: "s", Text: "t"}))

	_, err = NewMailer(MailerConfig{Backend: "carrier-pigeon"}, log)
	assert.Error(t, err)

	unconfigured := NewResendEmailSender("", "")
	assert.Error(t, unconfigured.Send(context.Background(), EmailMessage{To: "a@b.c"}))
}
