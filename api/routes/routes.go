package routes

import (
	"leadtrack/api/handler"
	"leadtrack/api/middleware"
	"leadtrack/internal/entity"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Admin          *handler.AdminHandler
	Health         handler.HealthHandler
	AuthMiddleware middleware.AuthMiddleware
	FormLimiter    middleware.Limiter
	LoginLimiter   middleware.Limiter
	Logger         logrus.FieldLogger
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	formRate := middleware.RateLimit(r.FormLimiter, "form", r.Logger)
	loginRate := middleware.RateLimit(r.LoginLimiter, "login", r.Logger)
	requireAuth := r.AuthMiddleware.RequireAuth

	accounts := e.Group("/accounts")
	accounts.POST("/signup/", r.Auth.Signup, formRate)
	accounts.GET("/activate/:uidb64/:token/", r.Auth.CheckActivation)
	accounts.POST("/activate/:uidb64/:token/", r.Auth.Activate, formRate)
	accounts.POST("/login/", r.Auth.Login, loginRate)
	accounts.POST("/logout/", r.Auth.Logout, requireAuth)
	accounts.POST("/forgot-password/", r.Auth.ForgotPassword, loginRate)
	accounts.GET("/reset-password/:uidb64/:token/", r.Auth.CheckReset)
	accounts.POST("/reset-password/:uidb64/:token/", r.Auth.ResetPassword, formRate)

	e.GET("/", r.Auth.Home, requireAuth)

	admin := string(entity.UserRoleAdmin)
	manager := string(entity.UserRoleManager)
	staff := e.Group("/admin", requireAuth)
	staff.GET("/users", r.Admin.ListUsers, middleware.RequireRole(admin, manager))
	staff.PATCH("/users/:id", r.Admin.UpdateUser, middleware.RequireRole(admin))
	staff.GET("/users/:id/activity", r.Admin.UserActivity, middleware.RequireRole(admin))
	staff.GET("/token-records", r.Admin.ListTokenRecords, middleware.RequireRole(admin))

	e.GET("/healthz", r.Health.Healthz)
	e.GET("/ws", handler.Ping(r.Logger))
}
