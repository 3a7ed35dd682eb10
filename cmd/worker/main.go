package main

import (
	"context"
	"os"
	"time"

	"leadtrack/config"
	"leadtrack/internal/queue"
	"leadtrack/internal/repository"
	"leadtrack/internal/service"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/sirupsen/logrus"
)

const sessionSweepInterval = time.Hour

// The worker delivers queued account emails and prunes expired sessions.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := config.NewLogger(cfg.LogLevel)

	db, err := config.ConnectionDb(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("connect database")
	}

	mailer, err := service.NewMailer(cfg.MailerConfig(), logger)
	if err != nil {
		logger.WithError(err).Fatal("configure email")
	}

	ctx, cancel := context.WithCancel(context.Background())
	consumer := &queue.Consumer{
		URL:    cfg.RabbitMQURL,
		Queue:  cfg.EmailQueueName,
		Mailer: mailer,
		Logger: logger.WithField("component", "email-consumer"),
	}
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("email consumer stopped")
		}
	}()
	go sweepSessions(ctx, repository.NewSessionRepository(db), logger)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		15*time.Second,
		map[string]gfshutdown.Operation{
			"email-consumer": func(shutdownCtx context.Context) error {
				cancel()
				select {
				case <-consumerDone:
					return nil
				case <-shutdownCtx.Done():
					return shutdownCtx.Err()
				}
			},
		},
	)
	os.Exit(<-wait)
}

func sweepSessions(ctx context.Context, sessions repository.SessionRepository, logger logrus.FieldLogger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		deleted, err := sessions.DeleteExpired(ctx, time.Now().UTC())
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("session sweep failed")
		} else if deleted > 0 {
			logger.WithField("deleted", deleted).Info("expired sessions removed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
