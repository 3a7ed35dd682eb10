package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"leadtrack/api/middleware"
	"leadtrack/internal/dto"
	"leadtrack/internal/entity"
	"leadtrack/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	loginPath              = "/accounts/login/"
	activationLinkInvalid  = "Activation Link is Invalid!"
	resetLinkInvalid       = "Reset Password Link is Invalid!"
	activationMailSent     = "Account Activation Mail Sent Successfully!"
	accountActivated       = "Account Activated Successfully!"
	loggedIn               = "Logged in Successfully!"
	passwordResetMailSent  = "Password Reset Mail Sent Successfully!"
	passwordResetCompleted = "Password Reset Successfully!"
)

type AuthHandler struct {
	Service       *service.AuthService
	Validate      *validator.Validate
	CookieName    string
	CookieDomain  string
	SecureCookies bool
	SameSite      http.SameSite
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		Service:       svc,
		Validate:      validate,
		CookieName:    middleware.DefaultSessionCookie,
		SecureCookies: true,
		SameSite:      http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeValidationError(c, err)
	}
	input := service.SignupInput{
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Role:            entity.UserRole(req.Role),
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		IPAddress:       stringPtr(c.RealIP()),
	}
	user, err := h.Service.Signup(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message":  activationMailSent,
		"redirect": loginPath,
		"user":     dto.UserResponseFromEntity(user),
	})
}

func (h *AuthHandler) CheckActivation(c echo.Context) error {
	check, err := h.Service.CheckActivationLink(c.Request().Context(), c.Param("uidb64"), c.Param("token"))
	if err != nil {
		return writeLinkError(c, err, activationLinkInvalid)
	}
	return c.JSON(http.StatusOK, linkCheckResponse(check))
}

func (h *AuthHandler) Activate(c echo.Context) error {
	user, err := h.Service.Activate(c.Request().Context(), c.Param("uidb64"), c.Param("token"), stringPtr(c.RealIP()))
	if err != nil {
		return writeLinkError(c, err, activationLinkInvalid)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":  accountActivated,
		"redirect": loginPath,
		"user":     dto.UserResponseFromEntity(user),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeValidationError(c, err)
	}
	input := service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: stringPtr(c.RealIP()),
		UserAgent: stringPtr(c.Request().UserAgent()),
	}
	result, err := h.Service.Login(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	h.setSessionCookie(c, result.SessionToken, result.ExpiresIn)
	return c.JSON(http.StatusOK, dto.LoginResponse{
		Message:   loggedIn,
		User:      dto.UserResponseFromEntity(result.User),
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	sessionID, ok := middleware.SessionIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Service.Logout(c.Request().Context(), sessionID, userID, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeValidationError(c, err)
	}
	if err := h.Service.RequestPasswordReset(c.Request().Context(), req.Email, stringPtr(c.RealIP())); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusAccepted, dto.MessageResponse{Message: passwordResetMailSent, Redirect: loginPath})
}

func (h *AuthHandler) CheckReset(c echo.Context) error {
	check, err := h.Service.CheckResetLink(c.Request().Context(), c.Param("uidb64"), c.Param("token"))
	if err != nil {
		return writeLinkError(c, err, resetLinkInvalid)
	}
	return c.JSON(http.StatusOK, linkCheckResponse(check))
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeValidationError(c, err)
	}
	input := service.ResetPasswordInput{
		UIDB64:          c.Param("uidb64"),
		Token:           c.Param("token"),
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		IPAddress:       stringPtr(c.RealIP()),
	}
	if err := h.Service.ResetPassword(c.Request().Context(), input); err != nil {
		return writeLinkError(c, err, resetLinkInvalid)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: passwordResetCompleted, Redirect: loginPath})
}

func (h *AuthHandler) Home(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	user, err := h.Service.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expiresIn time.Duration) {
	if token == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   max(int(expiresIn.Seconds()), 0),
		Expires:  time.Now().Add(expiresIn),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func linkCheckResponse(check *service.LinkCheck) dto.LinkCheckResponse {
	return dto.LinkCheckResponse{
		Valid:     true,
		User:      dto.UserResponseFromEntity(check.User),
		ExpiresAt: check.ExpiresAt,
	}
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func writeValidationError(c echo.Context, err error) error {
	fields := dto.FieldErrors(err)
	if fields == nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	return writeFieldErrors(c, http.StatusBadRequest, "invalid input", fields)
}

func writeFieldErrors(c echo.Context, status int, message string, fields map[string]string) error {
	return c.JSON(status, map[string]any{"message": message, "errors": fields})
}

// writeLinkError hides which link check failed behind one message.
func writeLinkError(c echo.Context, err error, message string) error {
	if !service.IsTokenError(err) {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusBadRequest, dto.MessageResponse{Message: message, Redirect: loginPath})
}

func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrPasswordMismatch):
		return writeFieldErrors(c, http.StatusBadRequest, err.Error(), map[string]string{"password_confirm": err.Error()})
	case errors.Is(err, service.ErrWeakPassword):
		return writeFieldErrors(c, http.StatusBadRequest, service.ErrWeakPassword.Error(), map[string]string{"password": weakPasswordReason(err)})
	case errors.Is(err, service.ErrDuplicateEmail), errors.Is(err, service.ErrDuplicateUsername):
		fields := map[string]string{}
		if errors.Is(err, service.ErrDuplicateEmail) {
			fields["email"] = service.ErrDuplicateEmail.Error()
		}
		if errors.Is(err, service.ErrDuplicateUsername) {
			fields["username"] = service.ErrDuplicateUsername.Error()
		}
		return writeFieldErrors(c, http.StatusConflict, "account already exists", fields)
	case errors.Is(err, service.ErrInvalidUsername):
		return writeFieldErrors(c, http.StatusBadRequest, err.Error(), map[string]string{"username": err.Error()})
	case errors.Is(err, service.ErrInvalidRole):
		return writeFieldErrors(c, http.StatusBadRequest, err.Error(), map[string]string{"role": err.Error()})
	}

	status := http.StatusInternalServerError
	message := err.Error()
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid Credentials!"
	case errors.Is(err, service.ErrAccountNotActivated):
		status, message = http.StatusForbidden, "Account Not Activated!"
	case errors.Is(err, service.ErrInvalidSession):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	case service.IsTokenError(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		message = http.StatusText(status)
	}
	return writeError(c, status, errors.New(message))
}

// weakPasswordReason strips the "weak password: " prefix.
func weakPasswordReason(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrWeakPassword.Error()+": ")
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
