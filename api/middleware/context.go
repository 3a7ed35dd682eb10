package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const DefaultSessionCookie = "leadtrack_session"

const (
	contextUserIDKey  = "auth_user_id"
	contextRoleKey    = "auth_role"
	contextSessionKey = "auth_session_id"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, role string, sessionID uuid.UUID) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextRoleKey, role)
	c.Set(contextSessionKey, sessionID)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(contextUserIDKey).(uuid.UUID)
	return userID, ok
}

func RoleFromContext(c echo.Context) (string, bool) {
	role, ok := c.Get(contextRoleKey).(string)
	return role, ok
}

func SessionIDFromContext(c echo.Context) (uuid.UUID, bool) {
	sessionID, ok := c.Get(contextSessionKey).(uuid.UUID)
	return sessionID, ok
}
