package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"leadtrack/internal/entity"
	"leadtrack/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionFinder loads a session that is neither revoked nor expired.
type SessionFinder interface {
	FindActive(ctx context.Context, sessionID uuid.UUID, now time.Time) (*entity.Session, error)
}

type AuthMiddleware struct {
	JWT        *utils.JWTManager
	Sessions   SessionFinder
	CookieName string
}

// RequireAuth accepts the session cookie or a Bearer header carrying the
// same JWT, and rejects tokens whose session row is gone.
func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.JWT == nil || m.Sessions == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		token := m.extractToken(c)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		claims, err := m.JWT.ParseSessionToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		sessionID, err := uuid.Parse(claims.SessionID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		session, err := m.Sessions.FindActive(c.Request().Context(), sessionID, time.Now().UTC())
		if err != nil {
			return err
		}
		if session == nil || session.UserID != userID {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if subtle.ConstantTimeCompare([]byte(session.TokenHash), []byte(utils.HashToken(claims.ID))) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		SetAuthContext(c, userID, claims.Role, sessionID)
		return next(c)
	}
}

func (m AuthMiddleware) extractToken(c echo.Context) string {
	if token := extractBearerToken(c.Request()); token != "" {
		return token
	}
	name := m.CookieName
	if name == "" {
		name = DefaultSessionCookie
	}
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
