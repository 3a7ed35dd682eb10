package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"leadtrack/api/handler"
	apiMiddleware "leadtrack/api/middleware"
	"leadtrack/api/routes"
	"leadtrack/config"
	"leadtrack/internal/dto"
	"leadtrack/internal/queue"
	"leadtrack/internal/repository"
	"leadtrack/internal/service"
	"leadtrack/internal/utils"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 15 * time.Second

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
	if err := config.Migrate(db); err != nil {
		logger.WithError(err).Fatal("migrate database")
	}

	secret := []byte(cfg.SecretKey)
	jwtManager := utils.JWTManager{
		Secret:     secret,
		Issuer:     cfg.SiteName,
		SessionTTL: cfg.SessionTTL,
	}
	tokenGenerator := utils.NewTokenGenerator(secret)
	tokenGenerator.Timeout = cfg.TokenTimeout

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRecordRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	securityRepo := repository.NewSecurityLogRepository(db)
	passwordHasher := service.BcryptPasswordHasher{Cost: cfg.BcryptCost}

	dispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("configure email")
	}

	authService := service.NewAuthService(
		userRepo,
		tokenRepo,
		sessionRepo,
		securityRepo,
		repository.NewTransactor(db),
		dispatcher,
		passwordHasher,
		tokenGenerator,
		service.JWTSessionIssuer{Manager: &jwtManager},
		service.RealClock{},
		service.AuthConfig{
			AppBaseURL: cfg.AppBaseURL,
			SiteName:   cfg.SiteName,
			SessionTTL: cfg.SessionTTL,
		},
		logger,
	)
	adminService := service.NewAdminService(
		userRepo,
		tokenRepo,
		sessionRepo,
		securityRepo,
		passwordHasher,
		service.RealClock{},
		cfg.AdminPageSize,
		logger,
	)

	validate := dto.NewValidator()
	authHandler := handler.NewAuthHandler(authService, validate)
	authHandler.CookieName = cfg.CookieName
	authHandler.CookieDomain = cfg.CookieDomain
	authHandler.SecureCookies = cfg.CookieSecure

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	formLimiter, loginLimiter := newLimiters(cfg, logger)
	router := &routes.Router{
		Echo:  app,
		Auth:  authHandler,
		Admin: handler.NewAdminHandler(adminService, validate),
		Health: handler.HealthHandler{
			DB: db,
		},
		AuthMiddleware: apiMiddleware.AuthMiddleware{
			JWT:        &jwtManager,
			Sessions:   sessionRepo,
			CookieName: cfg.CookieName,
		},
		FormLimiter:  formLimiter,
		LoginLimiter: loginLimiter,
		Logger:       logger,
	}
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return app.Shutdown(ctx)
			},
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)
	os.Exit(<-wait)
}

func newDispatcher(cfg config.Config, logger logrus.FieldLogger) (service.EmailDispatcher, error) {
	if cfg.EmailDispatch == "amqp" {
		logger.WithField("queue", cfg.EmailQueueName).Info("account emails go through rabbitmq")
		return queue.NewPublisher(cfg.RabbitMQURL, cfg.EmailQueueName), nil
	}
	mailer, err := service.NewMailer(cfg.MailerConfig(), logger)
	if err != nil {
		return nil, err
	}
	return service.InlineDispatcher{Mailer: mailer, Logger: logger}, nil
}

// newLimiters shares counters through redis when REDIS_URL answers and
// falls back to per-process buckets otherwise.
func newLimiters(cfg config.Config, logger logrus.FieldLogger) (apiMiddleware.Limiter, apiMiddleware.Limiter) {
	if client := config.NewRedisClient(cfg.RedisURL, logger); client != nil {
		return &apiMiddleware.RedisLimiter{Client: client, Limit: 10, Window: time.Minute, Prefix: "leadtrack:rl:"},
			&apiMiddleware.RedisLimiter{Client: client, Limit: 5, Window: time.Minute, Prefix: "leadtrack:rl:"}
	}
	return apiMiddleware.NewMemoryLimiter(rate.Limit(5), 10, 5*time.Minute),
		apiMiddleware.NewMemoryLimiter(rate.Limit(2), 4, 10*time.Minute)
}
